// Package option provides composable query modifiers for the generic
// gorm repository.
package option

import (
	"fmt"

	"gorm.io/gorm"
)

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition describes a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type applyFunc func(*gorm.DB) *gorm.DB

func (f applyFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyOperator adds a comparison condition to the query.
func ApplyOperator(cond Condition) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Field == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	})
}

// QuerySortBy restricts ordering to an allow-listed set of columns.
type QuerySortBy struct {
	Allow map[string]bool
	Field string
	Desc  bool
}

// WithSortBy orders results by an allow-listed column. Disallowed or empty
// fields fall back to created_at.
func WithSortBy(sort QuerySortBy) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		field := sort.Field
		if field == "" || !sort.Allow[field] {
			field = "created_at"
		}
		direction := "ASC"
		if sort.Desc {
			direction = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", field, direction))
	})
}

func WithLimit(limit int) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	})
}

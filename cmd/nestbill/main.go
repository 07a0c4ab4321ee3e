package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/nestbill/nestbill/internal/clock"
	"github.com/nestbill/nestbill/internal/config"
	"github.com/nestbill/nestbill/internal/logger"
	"github.com/nestbill/nestbill/internal/migration"
	"github.com/nestbill/nestbill/internal/server"
	"github.com/nestbill/nestbill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

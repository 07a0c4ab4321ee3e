package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber_DefaultTemplate(t *testing.T) {
	issuedAt := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	out, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issuedAt, 42)

	assert.NoError(t, err)
	assert.Equal(t, "INV-202603-00042", out)
}

func TestFormatInvoiceNumber_Tokens(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		template string
		want     string
	}{
		{"{YYYY}-{SEQ}", "2026-9"},
		{"{YY}{MM}{DD}-{SEQ3}", "260107-009"},
		{"NB/{MM}/{SEQ}", "NB/01/9"},
	}

	for _, tc := range cases {
		out, err := FormatInvoiceNumber(tc.template, issuedAt, 9)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, out)
	}
}

func TestFormatInvoiceNumber_Errors(t *testing.T) {
	issuedAt := time.Now()

	_, err := FormatInvoiceNumber("", issuedAt, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{SEQ}", issuedAt, 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{UNKNOWN}-{SEQ}", issuedAt, 1)
	assert.Error(t, err)
}

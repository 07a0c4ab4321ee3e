// Package providers groups outbound integrations.
package providers

import (
	"github.com/nestbill/nestbill/internal/providers/email"
	"github.com/nestbill/nestbill/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Options(
	email.Module,
	pdf.Module,
)

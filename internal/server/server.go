// Package server wires the HTTP surface for childcare billing.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/nestbill/nestbill/internal/audit"
	auditdomain "github.com/nestbill/nestbill/internal/audit/domain"
	"github.com/nestbill/nestbill/internal/child"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
	"github.com/nestbill/nestbill/internal/config"
	"github.com/nestbill/nestbill/internal/guardian"
	guardiandomain "github.com/nestbill/nestbill/internal/guardian/domain"
	"github.com/nestbill/nestbill/internal/invoice"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/nestbill/nestbill/internal/organization"
	organizationdomain "github.com/nestbill/nestbill/internal/organization/domain"
	"github.com/nestbill/nestbill/internal/providers"
	"github.com/nestbill/nestbill/internal/providers/pdf"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	providers.Module,
	audit.Module,
	organization.Module,
	guardian.Module,
	child.Module,
	invoice.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	organizationSvc organizationdomain.Service
	guardianSvc     guardiandomain.Service
	childSvc        childdomain.Service
	invoiceSvc      invoicedomain.Service
	auditSvc        auditdomain.Service
	pdfSvc          pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	OrganizationSvc organizationdomain.Service
	GuardianSvc     guardiandomain.Service
	ChildSvc        childdomain.Service
	InvoiceSvc      invoicedomain.Service
	AuditSvc        auditdomain.Service
	PDFSvc          pdf.Provider `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		log:    p.Log.Named("http.server"),
		genID:  p.GenID,

		organizationSvc: p.OrganizationSvc,
		guardianSvc:     p.GuardianSvc,
		childSvc:        p.ChildSvc,
		invoiceSvc:      p.InvoiceSvc,
		auditSvc:        p.AuditSvc,
		pdfSvc:          p.PDFSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Organizations --------
	api.GET("/organizations", s.ListOrganizations)
	api.POST("/organizations", s.CreateOrganization)
	api.GET("/organizations/:id", s.GetOrganizationByID)

	// Everything below is scoped to one organization.
	scoped := api.Group("", s.OrgContext())

	// -------- Guardians --------
	scoped.GET("/guardians", s.ListGuardians)
	scoped.POST("/guardians", s.CreateGuardian)
	scoped.GET("/guardians/:id", s.GetGuardianByID)

	// -------- Children --------
	scoped.GET("/children", s.ListChildren)
	scoped.POST("/children", s.CreateChild)
	scoped.GET("/children/:id", s.GetChildByID)

	// -------- Invoices --------
	scoped.GET("/invoices", s.ListInvoices)
	scoped.POST("/invoices", s.CreateInvoice)
	scoped.GET("/invoices/reconciled", s.ListReconciledInvoices)
	scoped.POST("/invoices/bulk", s.GenerateBulkInvoices)
	scoped.GET("/invoices/:id", s.GetInvoiceByID)
	scoped.GET("/invoices/:id/pdf", s.DownloadInvoicePDF)
	scoped.GET("/invoices/:id/csv", s.DownloadInvoiceCSV)

	scoped.POST("/invoices/:id/items", s.AddInvoiceItem)
	scoped.PATCH("/invoices/:id/items/:itemId", s.UpdateInvoiceItem)
	scoped.DELETE("/invoices/:id/items/:itemId", s.RemoveInvoiceItem)

	scoped.POST("/invoices/:id/send", s.SendInvoice)
	scoped.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	scoped.POST("/invoices/:id/overdue", s.MarkInvoiceOverdue)
	scoped.POST("/invoices/:id/reconcile", s.ReconcileInvoice)
	scoped.POST("/invoices/:id/unreconcile", s.UnreconcileInvoice)

	// -------- Audit --------
	scoped.GET("/audit_logs", s.ListAuditLogs)
}

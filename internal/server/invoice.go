package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/nestbill/nestbill/internal/invoice/domain"
	"github.com/nestbill/nestbill/internal/invoice/export"
	"go.uber.org/zap"
)

func (s *Server) ListInvoices(c *gin.Context) {
	req := invoicedomain.ListInvoiceRequest{}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(raw)
		req.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("child_id")); raw != "" {
		childID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("child_id", "invalid_id", "invalid child id"))
			return
		}
		req.ChildID = &childID
	}
	if raw := strings.TrimSpace(c.Query("guardian_id")); raw != "" {
		guardianID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("guardian_id", "invalid_id", "invalid guardian id"))
			return
		}
		req.GuardianID = &guardianID
	}
	if raw := strings.TrimSpace(c.Query("due_from")); raw != "" {
		dueFrom, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("due_from", "invalid_date", "invalid due_from date"))
			return
		}
		req.DueFrom = &dueFrom
	}
	if raw := strings.TrimSpace(c.Query("due_to")); raw != "" {
		dueTo, err := time.Parse("2006-01-02", raw)
		if err != nil {
			AbortWithError(c, newValidationError("due_to", "invalid_date", "invalid due_to date"))
			return
		}
		req.DueTo = &dueTo
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices})
}

func (s *Server) ListReconciledInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.ListReconciled(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	item, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) AddInvoiceItem(c *gin.Context) {
	var req invoicedomain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	item, err := s.invoiceSvc.AddItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateInvoiceItem(c *gin.Context) {
	var req invoicedomain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	if err := s.invoiceSvc.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RemoveInvoiceItem(c *gin.Context) {
	if err := s.invoiceSvc.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) SendInvoice(c *gin.Context) {
	s.applyTransition(c, s.invoiceSvc.Send)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	s.applyTransition(c, s.invoiceSvc.MarkPaid)
}

func (s *Server) MarkInvoiceOverdue(c *gin.Context) {
	s.applyTransition(c, s.invoiceSvc.MarkOverdue)
}

func (s *Server) ReconcileInvoice(c *gin.Context) {
	s.applyTransition(c, s.invoiceSvc.Reconcile)
}

func (s *Server) UnreconcileInvoice(c *gin.Context) {
	s.applyTransition(c, s.invoiceSvc.Unreconcile)
}

func (s *Server) applyTransition(c *gin.Context, fn func(ctx context.Context, id string) error) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GenerateBulkInvoices(c *gin.Context) {
	var req invoicedomain.GenerateBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	resp, err := s.invoiceSvc.GenerateBulk(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	if s.pdfSvc == nil {
		AbortWithError(c, fmt.Errorf("pdf provider not configured"))
		return
	}

	snapshot, err := s.invoiceSvc.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfSvc.GenerateInvoice(c.Request.Context(), snapshot)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("%s.pdf", snapshot.InvoiceNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) DownloadInvoiceCSV(c *gin.Context) {
	snapshot, err := s.invoiceSvc.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("%s.csv", snapshot.InvoiceNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, snapshot); err != nil {
		s.log.Warn("csv export failed", zap.Error(err))
	}
}

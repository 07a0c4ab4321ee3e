package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	childdomain "github.com/nestbill/nestbill/internal/child/domain"
)

func (s *Server) ListChildren(c *gin.Context) {
	req := childdomain.ListChildRequest{}
	if raw := strings.TrimSpace(c.Query("guardian_id")); raw != "" {
		guardianID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("guardian_id", "invalid_id", "invalid guardian id"))
			return
		}
		req.GuardianID = &guardianID
	}

	resp, err := s.childSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Children})
}

func (s *Server) CreateChild(c *gin.Context) {
	var req childdomain.CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	item, err := s.childSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) GetChildByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.childSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	revisiondomain "github.com/smallbiznis/taxsuite/internal/revision/domain"
)

func (s *Server) CreateRevision(c *gin.Context) {
	var req revisiondomain.ReviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}
	req.AssessmentID = strings.TrimSpace(c.Param("id"))

	rev, err := s.revisionSvc.Revise(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rev})
}

func (s *Server) ListRevisions(c *gin.Context) {
	items, err := s.revisionSvc.List(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetRevisionAdvice(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("projected_income"))
	projected, err := decimal.NewFromString(raw)
	if err != nil {
		AbortWithError(c, newValidationError("projected_income", "invalid_amount", "projected_income must be a decimal amount"))
		return
	}

	advisory, err := s.revisionSvc.Advise(c.Request.Context(), strings.TrimSpace(c.Param("id")), projected)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": advisory})
}

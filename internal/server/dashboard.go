package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetComplianceDashboard(c *gin.Context) {
	report, err := s.dashboardSvc.Compliance(c.Request.Context(), strings.TrimSpace(c.Query("financial_year")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
)

func (s *Server) ListRulePacks(c *gin.Context) {
	fy, err := fiscal.Parse(strings.TrimSpace(c.Query("financial_year")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	packs, err := s.rulePackSvc.List(c.Request.Context(), fy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": packs})
}

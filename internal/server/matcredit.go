package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
)

func (s *Server) GetMATCreditSummary(c *gin.Context) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, matdomain.ErrInvalidCompany)
		return
	}

	fy := fiscal.ForDate(s.clock.Now())
	if raw := strings.TrimSpace(c.Query("financial_year")); raw != "" {
		fy, err = fiscal.Parse(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	summary, err := s.matCreditSvc.Summary(c.Request.Context(), companyID, fy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

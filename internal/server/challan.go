package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/challan"
	"gorm.io/gorm"
)

func (s *Server) GetChallan(c *gin.Context) {
	quarter, err := strconv.Atoi(strings.TrimSpace(c.Query("quarter")))
	if err != nil || quarter < 1 || quarter > 4 {
		AbortWithError(c, newValidationError("quarter", "invalid_quarter", "quarter must be between 1 and 4"))
		return
	}

	a, err := s.assessmentSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var row assessmentdomain.ScheduleRow
	err = s.db.WithContext(c.Request.Context()).
		Where("assessment_id = ? AND quarter = ?", a.ID, quarter).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			AbortWithError(c, assessmentdomain.ErrNotFound)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": challan.Build(a, row, s.clock.Now())})
}

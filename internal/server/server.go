package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/taxsuite/internal/assessment"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/config"
	"github.com/smallbiznis/taxsuite/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/taxsuite/internal/dashboard/domain"
	"github.com/smallbiznis/taxsuite/internal/journal"
	"github.com/smallbiznis/taxsuite/internal/matcredit"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
	"github.com/smallbiznis/taxsuite/internal/payment"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"github.com/smallbiznis/taxsuite/internal/revision"
	revisiondomain "github.com/smallbiznis/taxsuite/internal/revision/domain"
	"github.com/smallbiznis/taxsuite/internal/rulepack"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	rulepack.Module,
	matcredit.Module,
	assessment.Module,
	journal.Module,
	payment.Module,
	revision.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
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
	genID  *snowflake.Node
	clock  clock.Clock

	assessmentSvc assessmentdomain.Service
	paymentSvc    paymentdomain.Service
	revisionSvc   revisiondomain.Service
	matCreditSvc  matdomain.Service
	rulePackSvc   rulepackdomain.Service
	dashboardSvc  dashboarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node
	Clock clock.Clock

	AssessmentSvc assessmentdomain.Service
	PaymentSvc    paymentdomain.Service
	RevisionSvc   revisiondomain.Service
	MATCreditSvc  matdomain.Service
	RulePackSvc   rulepackdomain.Service
	DashboardSvc  dashboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		clock:         p.Clock,
		assessmentSvc: p.AssessmentSvc,
		paymentSvc:    p.PaymentSvc,
		revisionSvc:   p.RevisionSvc,
		matCreditSvc:  p.MATCreditSvc,
		rulePackSvc:   p.RulePackSvc,
		dashboardSvc:  p.DashboardSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	v1 := api.Group("/v1")

	assessments := v1.Group("/assessments")
	{
		assessments.POST("", s.CreateAssessment)
		assessments.GET("", s.ListAssessments)
		assessments.POST("/preview", s.PreviewAssessment)
		assessments.GET("/:id", s.GetAssessment)
		assessments.PATCH("/:id", s.UpdateAssessment)
		assessments.POST("/:id/finalize", s.FinalizeAssessment)
		assessments.GET("/:id/tracker", s.GetTracker)
		assessments.GET("/:id/challan", s.GetChallan)

		assessments.POST("/:id/payments", s.RecordPayment)
		assessments.GET("/:id/payments", s.ListPayments)

		assessments.POST("/:id/revisions", s.CreateRevision)
		assessments.GET("/:id/revisions", s.ListRevisions)
		assessments.GET("/:id/revision-advice", s.GetRevisionAdvice)
	}

	v1.GET("/companies/:id/mat-credits", s.GetMATCreditSummary)
	v1.GET("/rule-packs", s.ListRulePacks)
	v1.GET("/dashboard/compliance", s.GetComplianceDashboard)
}

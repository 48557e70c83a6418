package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coverbase/claims/internal/claim"
	claimdomain "github.com/coverbase/claims/internal/claim/domain"
	"github.com/coverbase/claims/internal/config"
	"github.com/coverbase/claims/internal/observability"
	obsmiddleware "github.com/coverbase/claims/internal/observability/logger"
	obsmetrics "github.com/coverbase/claims/internal/observability/metrics"
	obstracing "github.com/coverbase/claims/internal/observability/tracing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	claim.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
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
	engine   *gin.Engine
	claimSvc claimdomain.Service
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	ClaimSvc claimdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		claimSvc: p.ClaimSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthMiddleware())
	api.Use(s.OrgContextMiddleware())

	claims := api.Group("/claims")
	claims.POST("", s.CreateClaim)
	claims.GET("", s.ListClaims)
	claims.GET("/stats", s.ClaimStats)
	claims.GET("/export", s.ExportClaims)
	claims.GET("/:id", s.GetClaim)
	claims.PUT("/:id", s.UpdateClaim)

	claims.POST("/:id/submit", s.SubmitClaim)
	claims.POST("/:id/review", s.ReviewClaim)
	claims.POST("/:id/approve", s.ApproveClaim)
	claims.POST("/:id/deny", s.DenyClaim)
	claims.POST("/:id/close", s.CloseClaim)

	claims.GET("/:id/events", s.ListClaimEvents)
	claims.GET("/:id/risk-signals", s.ClaimRiskSignals)

	claims.GET("/:id/notes", s.ListClaimNotes)
	claims.POST("/:id/notes", s.AddClaimNote)

	claims.GET("/:id/attachments", s.ListClaimAttachments)
	claims.POST("/:id/attachments", s.AddClaimAttachment)
	claims.DELETE("/:id/attachments/:attachmentID", s.DeleteClaimAttachment)
}

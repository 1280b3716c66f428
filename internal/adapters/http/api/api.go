// Package api exposes the advisor over a small JSON HTTP surface: machine
// registration, run ingestion, suggestions, prediction curves, and the
// advisor configuration.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	advisor "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/domain/schema"
	"github.com/okian/crema/pkg/logger"
	"github.com/okian/crema/pkg/metrics"
)

type (
	// AdvisorService is the slice of the advisor the handlers depend on.
	AdvisorService interface {
		UpdateWithRun(ctx context.Context, run schema.Run) error
		SuggestParameters(ctx context.Context, beanID, machineID string) (*advisor.Suggestion, error)
		PredictionCurve(ctx context.Context, beanID, machineID string, paramIndex int, opts advisor.CurveOptions) (*advisor.Curve, error)
		IsReady(ctx context.Context, beanID, machineID string) bool
		ObservationCount(ctx context.Context, beanID, machineID string) int
		RebuildFromHistory(ctx context.Context, beanID, machineID string) error
		ClearOptimizer(ctx context.Context, beanID, machineID string) error
		ClearOptimizersForMachine(ctx context.Context, machineID string) error
		ClearOptimizersForBean(ctx context.Context, beanID string) error
		Config(ctx context.Context) advisor.Config
		SetConfig(ctx context.Context, patch advisor.ConfigPatch) (advisor.Config, error)
	}

	// Catalog is the machine and run registry behind the ingestion routes.
	Catalog interface {
		AddMachine(ctx context.Context, m schema.Machine) error
		MachineByID(ctx context.Context, machineID string) (*schema.Machine, error)
		AddRun(ctx context.Context, r schema.Run) error
		DeleteRun(ctx context.Context, runID string) (schema.Run, error)
	}

	// Server wires the handlers to their dependencies.
	Server struct {
		validate *validator.Validate
		advisor  AdvisorService
		catalog  Catalog
		log      logger.Logger
	}

	// ResponseError is the JSON error body.
	ResponseError struct {
		Message string `json:"message"`
	}
)

// NewServer creates the HTTP server facade.
func NewServer(svc AdvisorService, cat Catalog, log logger.Logger) *Server {
	return &Server{
		validate: validator.New(),
		advisor:  svc,
		catalog:  cat,
		log:      log,
	}
}

// Register attaches all routes to the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.Use(requestMetrics)

	e.GET("/healthz", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := e.Group("/v1")
	v1.POST("/machines", s.RegisterMachine)
	v1.POST("/runs", s.RecordRun)
	v1.DELETE("/runs/:id", s.DeleteRun)
	v1.GET("/beans/:bean/machines/:machine/suggestion", s.Suggest)
	v1.POST("/beans/:bean/machines/:machine/curve", s.Curve)
	v1.GET("/beans/:bean/machines/:machine/status", s.Status)
	v1.DELETE("/beans/:bean/machines/:machine/optimizer", s.ClearPair)
	v1.DELETE("/beans/:bean/optimizers", s.ClearBean)
	v1.GET("/config", s.GetConfig)
	v1.PATCH("/config", s.PatchConfig)
}

// Health handles GET /healthz.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

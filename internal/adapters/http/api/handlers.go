package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/okian/crema/internal/adapters/catalog"
	advisor "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/domain/schema"
	"github.com/okian/crema/pkg/logger"
)

type (
	// RunRequest records one brewing run. Rating 0 means unrated.
	RunRequest struct {
		BeanID    string         `json:"bean_id" validate:"required"`
		MachineID string         `json:"machine_id" validate:"required"`
		Values    map[string]any `json:"values" validate:"required"`
		Rating    int            `json:"rating" validate:"gte=0,lte=10"`
	}

	// CurveRequest shapes a prediction-curve extraction.
	CurveRequest struct {
		ParamIndex  int            `json:"param_index" validate:"gte=0"`
		NumPoints   int            `json:"num_points"`
		FixedValues map[string]any `json:"fixed_values"`
	}

	// StatusResponse reports the pair's readiness.
	StatusResponse struct {
		Ready        bool `json:"ready"`
		Observations int  `json:"observations"`
		Threshold    int  `json:"threshold"`
	}
)

// RegisterMachine handles POST /v1/machines. Re-registering a machine
// counts as a schema change and destroys every optimizer state on it.
func (s *Server) RegisterMachine(c echo.Context) error {
	var m schema.Machine
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := m.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx := c.Request().Context()
	if err := s.catalog.AddMachine(ctx, m); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := s.advisor.ClearOptimizersForMachine(ctx, m.ID); err != nil {
		s.log.Error(ctx, "failed to clear optimizers after machine change",
			logger.String("machine", m.ID),
			logger.Error(err),
		)
	}
	return c.JSON(http.StatusCreated, m)
}

// RecordRun handles POST /v1/runs: store the run and feed it to the advisor.
func (s *Server) RecordRun(c echo.Context) error {
	var req RunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx := c.Request().Context()
	machine, err := s.catalog.MachineByID(ctx, req.MachineID)
	if err != nil {
		if errors.Is(err, catalog.ErrMachineNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	run := schema.Run{
		ID:        uuid.NewString(),
		BeanID:    req.BeanID,
		MachineID: req.MachineID,
		Values:    convertValues(machine, req.Values),
		Rating:    req.Rating,
		CreatedAt: time.Now(),
	}

	if err := s.catalog.AddRun(ctx, run); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if err := s.advisor.UpdateWithRun(ctx, run); err != nil {
		if errors.Is(err, advisor.ErrInvalidRating) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, run)
}

// DeleteRun handles DELETE /v1/runs/:id. Deleting a rated run forces a
// rebuild of the pair's optimizer from the remaining history.
func (s *Server) DeleteRun(c echo.Context) error {
	ctx := c.Request().Context()

	run, err := s.catalog.DeleteRun(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	if run.Rated() {
		if err := s.advisor.RebuildFromHistory(ctx, run.BeanID, run.MachineID); err != nil {
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Suggest handles GET /v1/beans/:bean/machines/:machine/suggestion.
func (s *Server) Suggest(c echo.Context) error {
	ctx := c.Request().Context()

	sug, err := s.advisor.SuggestParameters(ctx, c.Param("bean"), c.Param("machine"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if sug == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "not enough data for a suggestion"})
	}
	return c.JSON(http.StatusOK, sug)
}

// Curve handles POST /v1/beans/:bean/machines/:machine/curve.
func (s *Server) Curve(c echo.Context) error {
	var req CurveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := s.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx := c.Request().Context()
	machine, err := s.catalog.MachineByID(ctx, c.Param("machine"))
	if err != nil {
		if errors.Is(err, catalog.ErrMachineNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	opts := advisor.CurveOptions{
		NumPoints:   req.NumPoints,
		FixedValues: convertValues(machine, req.FixedValues),
	}
	curve, err := s.advisor.PredictionCurve(ctx, c.Param("bean"), c.Param("machine"), req.ParamIndex, opts)
	if err != nil {
		if errors.Is(err, advisor.ErrInvalidParamIndex) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if curve == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "not enough data for a curve"})
	}
	return c.JSON(http.StatusOK, curve)
}

// Status handles GET /v1/beans/:bean/machines/:machine/status.
func (s *Server) Status(c echo.Context) error {
	ctx := c.Request().Context()
	beanID, machineID := c.Param("bean"), c.Param("machine")

	return c.JSON(http.StatusOK, StatusResponse{
		Ready:        s.advisor.IsReady(ctx, beanID, machineID),
		Observations: s.advisor.ObservationCount(ctx, beanID, machineID),
		Threshold:    s.advisor.Config(ctx).MinRunsThreshold,
	})
}

// ClearPair handles DELETE /v1/beans/:bean/machines/:machine/optimizer.
func (s *Server) ClearPair(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.advisor.ClearOptimizer(ctx, c.Param("bean"), c.Param("machine")); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearBean handles DELETE /v1/beans/:bean/optimizers.
func (s *Server) ClearBean(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.advisor.ClearOptimizersForBean(ctx, c.Param("bean")); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// GetConfig handles GET /v1/config.
func (s *Server) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, s.advisor.Config(c.Request().Context()))
}

// PatchConfig handles PATCH /v1/config.
func (s *Server) PatchConfig(c echo.Context) error {
	var patch advisor.ConfigPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	cfg, err := s.advisor.SetConfig(c.Request().Context(), patch)
	if err != nil {
		if errors.Is(err, advisor.ErrInvalidConfig) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, cfg)
}

// convertValues interprets loosely-typed JSON values against the machine
// schema, producing tagged parameter values. Unknown ids and mistyped
// values are dropped; the advisor decides whether the rest is usable.
func convertValues(machine *schema.Machine, values map[string]any) map[string]schema.ParamValue {
	out := make(map[string]schema.ParamValue, len(values))
	for _, p := range machine.Params {
		raw, ok := values[p.ID]
		if !ok {
			continue
		}
		switch p.Kind {
		case schema.KindRange, schema.KindNumber:
			if n, ok := toFloat(raw); ok {
				if p.Kind == schema.KindRange {
					out[p.ID] = schema.RangeValue(n)
				} else {
					out[p.ID] = schema.NumberValue(n)
				}
			}
		case schema.KindChoice:
			if sv, ok := raw.(string); ok {
				out[p.ID] = schema.ChoiceValue(sv)
			}
		case schema.KindText:
			if sv, ok := raw.(string); ok {
				out[p.ID] = schema.TextValue(sv)
			}
		}
	}
	return out
}

// toFloat accepts the numeric shapes JSON decoding can produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

package advisor

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/crema/internal/domain/acquisition"
	"github.com/okian/crema/internal/domain/encode"
	"github.com/okian/crema/internal/domain/gp"
	"github.com/okian/crema/internal/domain/schema"
	"github.com/okian/crema/pkg/logger"
	"github.com/okian/crema/pkg/metrics"
)

// SuggestParameters fits the pair's surrogate model and returns the
// parameter vector most worth trying next under UCB. Returns nil without an
// error when the pair has no state or no observations; internal failures
// are logged and also surface as nil, never as an error.
func (s *Service) SuggestParameters(ctx context.Context, beanID, machineID string) (*Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadState(ctx, stateKey(beanID, machineID))
	if err != nil {
		s.log.Error(ctx, "suggestion unavailable", logger.Error(err))
		metrics.RecordSuggestionFailure()
		return nil, nil
	}
	if st == nil || len(st.Observations) == 0 {
		return nil, nil
	}

	reg, err := s.fitRegressor(st)
	if err != nil {
		s.log.Error(ctx, "surrogate fit failed",
			logger.String("bean", beanID),
			logger.String("machine", machineID),
			logger.Error(err),
		)
		metrics.RecordSuggestionFailure()
		return nil, nil
	}

	dim := len(st.ParameterMetadata)
	candidates := acquisition.NewSampler(s.rng).Draw(s.cfg.NumCandidates, dim)

	means, variances, err := reg.Predict(candidates)
	if err == nil {
		var best int
		best, err = acquisition.ArgMax(means, variances, s.cfg.ExplorationFactor)
		if err == nil {
			sug := s.assembleSuggestion(ctx, beanID, machineID, st, candidates[best], means[best], variances[best])
			metrics.RecordSuggestionServed()
			return sug, nil
		}
	}

	s.log.Error(ctx, "candidate scoring failed",
		logger.String("bean", beanID),
		logger.String("machine", machineID),
		logger.Error(err),
	)
	metrics.RecordSuggestionFailure()
	return nil, nil
}

// fitRegressor builds a fresh regressor from the state's captured
// hyperparameters and fits it on all observations.
func (s *Service) fitRegressor(st *State) (*gp.Regressor, error) {
	x := make([][]float64, len(st.Observations))
	y := make([]float64, len(st.Observations))
	for i, obs := range st.Observations {
		x[i] = obs.Parameters
		y[i] = obs.Rating
	}

	kernel := gp.Kernel{
		LengthScale: st.GPHyperparameters.LengthScale,
		OutputScale: st.GPHyperparameters.OutputScale,
	}
	reg := gp.New(kernel, st.GPHyperparameters.Noise)

	start := time.Now()
	err := reg.Fit(x, y)
	metrics.RecordFitDuration(float64(time.Since(start).Nanoseconds()) / 1e6)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// assembleSuggestion decodes the winning candidate into raw machine values.
// Free-text parameters from the current machine schema carry through as
// empty strings.
func (s *Service) assembleSuggestion(ctx context.Context, beanID, machineID string, st *State, point []float64, mean, variance float64) *Suggestion {
	codec := encode.New(s.cfg.NumberParamPadding)

	values := make(map[string]schema.ParamValue, len(st.ParameterMetadata))
	for i, meta := range st.ParameterMetadata {
		values[meta.ID] = codec.Decode(meta, point[i], numberHistory(st, meta))
	}

	// The captured metadata only spans optimizable parameters; free-text
	// ones come from the machine's current schema.
	if machine, err := s.machines.MachineByID(ctx, machineID); err == nil {
		for _, p := range machine.Params {
			if p.Kind == schema.KindText {
				values[p.ID] = schema.TextValue("")
			}
		}
	} else {
		s.log.Debug(ctx, "machine lookup failed while assembling suggestion",
			logger.String("machine", machineID),
			logger.Error(err),
		)
	}

	return &Suggestion{
		ID:             uuid.NewString(),
		BeanID:         beanID,
		MachineID:      machineID,
		Parameters:     values,
		Rating:         "unrated",
		Suggested:      true,
		ExpectedRating: encode.DecodeRating(mean),
		StdDev:         encode.DecodeStdDev(math.Sqrt(math.Max(0, variance))),
	}
}

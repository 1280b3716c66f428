package advisor

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/crema/internal/domain/encode"
	"github.com/okian/crema/internal/domain/schema"
	"github.com/okian/crema/pkg/logger"
	"github.com/okian/crema/pkg/metrics"
)

// defaultCurvePoints is the sample count when the caller does not set one.
const defaultCurvePoints = 50

// PredictionCurve sweeps one captured parameter across its normalized range
// while the others stay fixed, and returns the predicted mean rating and
// standard deviation at each sample. Returns nil without an error when the
// pair has no state or no observations; internal failures are logged and
// also surface as nil. An out-of-range paramIndex is a caller error.
func (s *Service) PredictionCurve(ctx context.Context, beanID, machineID string, paramIndex int, opts CurveOptions) (*Curve, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadState(ctx, stateKey(beanID, machineID))
	if err != nil {
		s.log.Error(ctx, "curve unavailable", logger.Error(err))
		return nil, nil
	}
	if st == nil || len(st.Observations) == 0 {
		return nil, nil
	}
	if paramIndex < 0 || paramIndex >= len(st.ParameterMetadata) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidParamIndex, paramIndex, len(st.ParameterMetadata))
	}

	numPoints := opts.NumPoints
	if numPoints <= 0 {
		numPoints = defaultCurvePoints
	}
	if numPoints < 2 {
		numPoints = 2
	}

	codec := encode.New(s.cfg.NumberParamPadding)

	// Fix every other dimension at the caller-supplied raw value, encoded
	// against the pair's current history.
	fixed := make([]float64, len(st.ParameterMetadata))
	for j, meta := range st.ParameterMetadata {
		if j == paramIndex {
			continue
		}
		v, ok := opts.FixedValues[meta.ID]
		if !ok {
			v = fallbackValue(meta, st, codec)
		}
		u, err := codec.Encode(meta, v, numberHistory(st, meta))
		if err != nil {
			s.log.Warn(ctx, "curve fixed value rejected",
				logger.String("param", meta.ID),
				logger.Error(err),
			)
			return nil, nil
		}
		fixed[j] = u
	}

	points := make([][]float64, numPoints)
	grid := make([]float64, numPoints)
	for k := range points {
		u := float64(k) / float64(numPoints-1)
		grid[k] = u
		row := append([]float64(nil), fixed...)
		row[paramIndex] = u
		points[k] = row
	}

	reg, err := s.fitRegressor(st)
	if err != nil {
		s.log.Error(ctx, "surrogate fit failed for curve",
			logger.String("bean", beanID),
			logger.String("machine", machineID),
			logger.Error(err),
		)
		return nil, nil
	}

	means, variances, err := reg.Predict(points)
	if err != nil {
		s.log.Error(ctx, "curve prediction failed", logger.Error(err))
		return nil, nil
	}

	meta := st.ParameterMetadata[paramIndex]
	history := numberHistory(st, meta)

	curve := &Curve{
		ParamID:     meta.ID,
		ParamName:   meta.Name,
		ParamValues: make([]schema.ParamValue, numPoints),
		Ratings:     make([]float64, numPoints),
		StdDevs:     make([]float64, numPoints),
	}
	for k := range grid {
		curve.ParamValues[k] = codec.Decode(meta, grid[k], history)
		curve.Ratings[k] = encode.DecodeRating(means[k])
		curve.StdDevs[k] = encode.DecodeStdDev(math.Sqrt(math.Max(0, variances[k])))
	}
	if meta.Kind == schema.KindChoice {
		curve.ValidIndices = optionSampleIndices(meta.Config.Options, grid)
	}

	metrics.RecordCurveRequest()
	return curve, nil
}

// fallbackValue pins an unspecified dimension: the declared default when
// present, otherwise a kind-specific midpoint.
func fallbackValue(meta schema.ParamSpec, st *State, codec encode.Codec) schema.ParamValue {
	if meta.Config.Default != nil {
		return *meta.Config.Default
	}
	switch meta.Kind {
	case schema.KindRange:
		return schema.RangeValue((meta.Config.Min + meta.Config.Max) / 2)
	case schema.KindNumber:
		// Midpoint of the history envelope; zero with no history.
		history := numberHistory(st, meta)
		if len(history) == 0 {
			return schema.NumberValue(0)
		}
		return codec.Decode(meta, 0.5, history)
	default:
		return schema.ChoiceValue(meta.Config.Options[0])
	}
}

// optionSampleIndices maps each option of a choice parameter to the sample
// index closest to its canonical normalized position.
func optionSampleIndices(options []string, grid []float64) []int {
	out := make([]int, len(options))
	for j := range options {
		canonical := 0.0
		if len(options) > 1 {
			canonical = float64(j) / float64(len(options)-1)
		}
		best, bestDist := 0, math.Inf(1)
		for k, u := range grid {
			if d := math.Abs(u - canonical); d < bestDist {
				best, bestDist = k, d
			}
		}
		out[j] = best
	}
	return out
}

// Package encode maps raw parameter values into the optimizer's unit
// interval and back. Range parameters scale against their declared bounds,
// choice parameters against their option index, and number parameters
// against an envelope derived from the pair's own history plus padding.
// The envelope is recomputed on every call; it is never stored.
package encode

import (
	"fmt"
	"math"

	"github.com/okian/crema/internal/domain/schema"
)

// ratingSpan is the width of the 1..10 rating scale.
const ratingSpan = 9.0

// Codec normalizes raw parameter values into [0, 1] and back.
type Codec struct {
	// Padding expands the history envelope of number parameters on both
	// sides, as a fraction of the observed spread.
	Padding float64
}

// New creates a codec with the given number-parameter padding.
func New(padding float64) Codec {
	return Codec{Padding: padding}
}

// Encode maps a raw value to [0, 1]. Range values outside the declared
// bounds are not clamped and map outside [0, 1]. For number parameters,
// history holds the raw values already observed for this parameter; the new
// value joins them when the envelope is derived.
func (c Codec) Encode(p schema.ParamSpec, v schema.ParamValue, history []float64) (float64, error) {
	switch p.Kind {
	case schema.KindRange:
		if !v.Numeric() {
			return 0, fmt.Errorf("%w: parameter %q expects a number, got %s", ErrKindMismatch, p.ID, v.Kind)
		}
		return (v.Number - p.Config.Min) / (p.Config.Max - p.Config.Min), nil

	case schema.KindNumber:
		if !v.Numeric() {
			return 0, fmt.Errorf("%w: parameter %q expects a number, got %s", ErrKindMismatch, p.ID, v.Kind)
		}
		lo, hi := c.envelope(append(append([]float64{}, history...), v.Number))
		return (v.Number - lo) / (hi - lo), nil

	case schema.KindChoice:
		if v.Kind != schema.KindChoice {
			return 0, fmt.Errorf("%w: parameter %q expects an option, got %s", ErrKindMismatch, p.ID, v.Kind)
		}
		if len(p.Config.Options) == 1 {
			return 0, nil
		}
		for i, opt := range p.Config.Options {
			if opt == v.Option {
				return float64(i) / float64(len(p.Config.Options)-1), nil
			}
		}
		// Unknown options map to the first position.
		return 0, nil

	default:
		return 0, fmt.Errorf("%w: parameter %q has kind %s", ErrNotOptimizable, p.ID, p.Kind)
	}
}

// Decode maps a normalized coordinate back to a raw value. For number
// parameters, history is the pair's observed raw values; the envelope is
// rebuilt from it without any new value.
func (c Codec) Decode(p schema.ParamSpec, u float64, history []float64) schema.ParamValue {
	switch p.Kind {
	case schema.KindRange:
		y := p.Config.Min + u*(p.Config.Max-p.Config.Min)
		y = math.Round(y/p.Config.Step) * p.Config.Step
		y = math.Min(math.Max(y, p.Config.Min), p.Config.Max)
		return schema.RangeValue(y)

	case schema.KindNumber:
		if len(history) == 0 {
			if p.Config.Default != nil && p.Config.Default.Numeric() {
				return schema.NumberValue(p.Config.Default.Number)
			}
			return schema.NumberValue(0)
		}
		lo, hi := c.envelope(history)
		y := lo + u*(hi-lo)
		return schema.NumberValue(math.Round(y*100) / 100)

	case schema.KindChoice:
		n := len(p.Config.Options)
		if n == 1 {
			return schema.ChoiceValue(p.Config.Options[0])
		}
		i := int(math.Round(u * float64(n-1)))
		if i < 0 {
			i = 0
		}
		if i > n-1 {
			i = n - 1
		}
		return schema.ChoiceValue(p.Config.Options[i])

	default:
		return schema.TextValue("")
	}
}

// envelope derives the scaling interval for a number parameter from the
// given raw values. A spread widens by Padding on both sides; a degenerate
// set falls back to a unit band around the sole value.
func (c Codec) envelope(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi > lo {
		pad := (hi - lo) * c.Padding
		return lo - pad, hi + pad
	}
	return lo - 1, hi + 1
}

// EncodeRating maps an integer rating in [1, 10] onto [0, 1].
func EncodeRating(r int) (float64, error) {
	if r < 1 || r > 10 {
		return 0, fmt.Errorf("%w: %d", ErrRatingOutOfRange, r)
	}
	return float64(r-1) / ratingSpan, nil
}

// DecodeRating maps a normalized predicted rating back onto the 1..10 scale.
func DecodeRating(u float64) float64 {
	return ratingSpan*u + 1
}

// DecodeStdDev maps a normalized standard deviation into rating units.
func DecodeStdDev(s float64) float64 {
	return ratingSpan * s
}

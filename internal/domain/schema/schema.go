// Package schema contains the brewing domain types shared across layers:
// parameter definitions, tagged parameter values, machines, and runs.
package schema

import (
	"fmt"
	"time"
)

// Kind identifies how a parameter is represented and encoded.
type Kind string

const (
	// KindRange is a real value with a fixed [min, max] interval and a
	// quantization step, e.g. a grinder dial.
	KindRange Kind = "range"
	// KindNumber is a real value with no declared interval, e.g. water
	// temperature. Its encoding range follows the pair's own history.
	KindNumber Kind = "number"
	// KindChoice is one option out of a short ordered list, e.g. a grind
	// coarseness preset.
	KindChoice Kind = "choice"
	// KindText is a free-form note. It never enters the optimizer.
	KindText Kind = "text"
)

// Optimizable reports whether values of this kind feed the optimizer.
func (k Kind) Optimizable() bool {
	return k == KindRange || k == KindNumber || k == KindChoice
}

// ParamConfig carries the kind-specific configuration of a parameter.
type ParamConfig struct {
	Min     float64     `json:"min,omitempty"`
	Max     float64     `json:"max,omitempty"`
	Step    float64     `json:"step,omitempty"`
	Options []string    `json:"options,omitempty"`
	Default *ParamValue `json:"default,omitempty"`
}

// ParamSpec describes a single machine parameter.
type ParamSpec struct {
	ID     string      `json:"id" validate:"required"`
	Name   string      `json:"name"`
	Kind   Kind        `json:"kind" validate:"required"`
	Config ParamConfig `json:"config"`
}

// Validate checks the kind-specific constraints of the parameter.
func (p ParamSpec) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: parameter id must not be empty", ErrInvalidSchema)
	}
	switch p.Kind {
	case KindRange:
		if p.Config.Min >= p.Config.Max {
			return fmt.Errorf("%w: parameter %q requires min < max", ErrInvalidSchema, p.ID)
		}
		if p.Config.Step <= 0 {
			return fmt.Errorf("%w: parameter %q requires step > 0", ErrInvalidSchema, p.ID)
		}
	case KindChoice:
		if len(p.Config.Options) == 0 {
			return fmt.Errorf("%w: parameter %q requires at least one option", ErrInvalidSchema, p.ID)
		}
	case KindNumber, KindText:
		// No kind-specific configuration beyond the optional default.
	default:
		return fmt.Errorf("%w: parameter %q has unknown kind %q", ErrInvalidSchema, p.ID, p.Kind)
	}
	return nil
}

// Machine is an ordered set of parameters a brewing machine exposes.
type Machine struct {
	ID     string      `json:"id" validate:"required"`
	Name   string      `json:"name"`
	Params []ParamSpec `json:"params"`
}

// Validate checks the machine schema: every parameter valid, ids unique.
func (m Machine) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: machine id must not be empty", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, len(m.Params))
	for _, p := range m.Params {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate parameter id %q", ErrInvalidSchema, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// OptimizableParams returns the parameters that feed the optimizer, in
// declared order. That order defines the optimizer's input dimensions.
func (m Machine) OptimizableParams() []ParamSpec {
	out := make([]ParamSpec, 0, len(m.Params))
	for _, p := range m.Params {
		if p.Kind.Optimizable() {
			out = append(out, p)
		}
	}
	return out
}

// Run is one brewing experiment: the values used and, once tasted, a rating.
type Run struct {
	ID        string                `json:"id"`
	BeanID    string                `json:"bean_id"`
	MachineID string                `json:"machine_id"`
	Values    map[string]ParamValue `json:"values"`
	// Rating is 0 while the run is unrated, otherwise an integer in [1, 10].
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Rated reports whether the run has been rated.
func (r Run) Rated() bool { return r.Rating != 0 }

package advisor

import (
	"time"

	"github.com/okian/crema/internal/domain/schema"
)

// Observation is one encoded rated run: the normalized vector the optimizer
// consumes, the raw values the number-parameter envelope is rebuilt from,
// and the normalized rating.
type Observation struct {
	Parameters []float64                    `json:"parameters"`
	RawValues  map[string]schema.ParamValue `json:"rawValues"`
	Rating     float64                      `json:"rating"`
}

// Hyperparameters are the kernel settings captured into a state when it is
// created.
type Hyperparameters struct {
	LengthScale float64 `json:"lengthScale"`
	OutputScale float64 `json:"outputScale"`
	Noise       float64 `json:"noise"`
}

// State is the per-(bean, machine) optimizer record held in the durable
// store. ParameterMetadata pins the optimizable parameters, and with them
// the input dimensions, for the lifetime of the state.
type State struct {
	Observations      []Observation      `json:"observations"`
	ParameterMetadata []schema.ParamSpec `json:"parameterMetadata"`
	GPHyperparameters Hyperparameters    `json:"gpHyperparameters"`
	LastUpdated       time.Time          `json:"lastUpdated"`
}

// Suggestion is the next parameter vector worth trying, decoded back into
// raw machine values. Free-text parameters carry through as empty strings.
type Suggestion struct {
	ID        string `json:"id"`
	BeanID    string `json:"bean_id"`
	MachineID string `json:"machine_id"`

	Parameters map[string]schema.ParamValue `json:"parameters"`

	// Rating mirrors the run-record field; a suggestion is always unrated.
	Rating string `json:"rating"`

	// Suggested marks the record as advisor output rather than a brewed run.
	Suggested bool `json:"suggested"`

	// ExpectedRating is the predicted mean rating on the 1..10 scale.
	ExpectedRating float64 `json:"expected_rating"`

	// StdDev is one predicted standard deviation in rating units.
	StdDev float64 `json:"std_dev"`
}

// Curve is a one-dimensional slice through the predicted rating surface:
// one parameter sweeps its normalized range while the others stay fixed.
type Curve struct {
	ParamID   string `json:"param_id"`
	ParamName string `json:"param_name"`

	// ParamValues are the decoded x-axis sample positions.
	ParamValues []schema.ParamValue `json:"param_values"`

	// Ratings is the predicted mean rating at each sample, on 1..10.
	Ratings []float64 `json:"ratings"`

	// StdDevs is one predicted standard deviation per sample, in rating units.
	StdDevs []float64 `json:"std_devs"`

	// ValidIndices maps each option of a choice parameter to the sample
	// index nearest its canonical position. Nil for other kinds.
	ValidIndices []int `json:"valid_indices,omitempty"`
}

// CurveOptions shape a prediction-curve extraction.
type CurveOptions struct {
	// NumPoints is the sample count along the swept parameter. Defaults
	// to defaultCurvePoints when zero.
	NumPoints int

	// FixedValues pins the remaining parameters, keyed by parameter id.
	// Parameters absent from the map fall back to their declared default
	// or a kind-specific midpoint.
	FixedValues map[string]schema.ParamValue
}

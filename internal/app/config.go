package advisor

// Config holds the advisor tunables. A snapshot is captured into each
// optimizer state at creation time for the kernel hyperparameters, so later
// edits only shape states created afterwards.
type Config struct {
	// MinRunsThreshold is the observation count needed before IsReady.
	MinRunsThreshold int `json:"minRunsThreshold" koanf:"min_runs_threshold" validate:"gte=1"`

	// ExplorationFactor is the UCB beta.
	ExplorationFactor float64 `json:"explorationFactor" koanf:"exploration_factor" validate:"gte=0"`

	// NumCandidates is the number of random candidates per suggestion.
	NumCandidates int `json:"numCandidates" koanf:"num_candidates" validate:"gte=1"`

	// KernelLengthScale is the RBF length scale captured at state creation.
	KernelLengthScale float64 `json:"kernelLengthScale" koanf:"kernel_length_scale" validate:"gt=0"`

	// KernelOutputScale is the RBF output scale captured at state creation.
	KernelOutputScale float64 `json:"kernelOutputScale" koanf:"kernel_output_scale" validate:"gt=0"`

	// KernelNoise is the GP observation noise captured at state creation.
	KernelNoise float64 `json:"kernelNoise" koanf:"kernel_noise" validate:"gte=0"`

	// MaxObservations caps the observations retained per state; the oldest
	// are dropped first.
	MaxObservations int `json:"maxObservations" koanf:"max_observations" validate:"gte=1"`

	// NumberParamPadding expands the number-parameter envelope on both
	// sides, as a fraction of the observed spread.
	NumberParamPadding float64 `json:"numberParamPadding" koanf:"number_param_padding" validate:"gte=0"`
}

// DefaultConfig returns the default advisor tunables.
func DefaultConfig() Config {
	return Config{
		MinRunsThreshold:   5,
		ExplorationFactor:  2.0,
		NumCandidates:      100,
		KernelLengthScale:  0.3,
		KernelOutputScale:  1.0,
		KernelNoise:        0.1,
		MaxObservations:    100,
		NumberParamPadding: 0.2,
	}
}

// ConfigPatch updates a subset of the tunables; nil fields keep their
// current value.
type ConfigPatch struct {
	MinRunsThreshold   *int     `json:"minRunsThreshold,omitempty"`
	ExplorationFactor  *float64 `json:"explorationFactor,omitempty"`
	NumCandidates      *int     `json:"numCandidates,omitempty"`
	KernelLengthScale  *float64 `json:"kernelLengthScale,omitempty"`
	KernelOutputScale  *float64 `json:"kernelOutputScale,omitempty"`
	KernelNoise        *float64 `json:"kernelNoise,omitempty"`
	MaxObservations    *int     `json:"maxObservations,omitempty"`
	NumberParamPadding *float64 `json:"numberParamPadding,omitempty"`
}

// apply merges the patch onto a config copy.
func (p ConfigPatch) apply(cfg Config) Config {
	if p.MinRunsThreshold != nil {
		cfg.MinRunsThreshold = *p.MinRunsThreshold
	}
	if p.ExplorationFactor != nil {
		cfg.ExplorationFactor = *p.ExplorationFactor
	}
	if p.NumCandidates != nil {
		cfg.NumCandidates = *p.NumCandidates
	}
	if p.KernelLengthScale != nil {
		cfg.KernelLengthScale = *p.KernelLengthScale
	}
	if p.KernelOutputScale != nil {
		cfg.KernelOutputScale = *p.KernelOutputScale
	}
	if p.KernelNoise != nil {
		cfg.KernelNoise = *p.KernelNoise
	}
	if p.MaxObservations != nil {
		cfg.MaxObservations = *p.MaxObservations
	}
	if p.NumberParamPadding != nil {
		cfg.NumberParamPadding = *p.NumberParamPadding
	}
	return cfg
}

package advisor

import (
	"math/rand"
	"time"

	"github.com/okian/crema/internal/adapters/catalog"
	"github.com/okian/crema/internal/adapters/statestore"
	"github.com/okian/crema/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the durable store the advisor keeps its records in.
func WithStore(store statestore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMachineSource sets the machine-schema source.
func WithMachineSource(machines catalog.MachineSource) Option {
	return func(s *Service) {
		if machines != nil {
			s.machines = machines
		}
	}
}

// WithRunSource sets the rated-run history source used for rebuilds.
func WithRunSource(runs catalog.RunSource) Option {
	return func(s *Service) {
		if runs != nil {
			s.runs = runs
		}
	}
}

// WithRand sets the candidate PRNG. Injecting a seeded source makes
// suggestions reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock sets the time source for state timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDefaultConfig sets the tunables used until a persisted configuration
// record exists, and as the base the first record is written from.
func WithDefaultConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

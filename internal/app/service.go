// Package advisor implements the Bayesian-optimization core of the brew
// advisor: per-pair optimizer lifecycle, observation ingestion, suggestion
// assembly, prediction curves, and configuration management.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/crema/internal/adapters/catalog"
	"github.com/okian/crema/internal/adapters/statestore"
	"github.com/okian/crema/internal/domain/encode"
	"github.com/okian/crema/internal/domain/schema"
	"github.com/okian/crema/pkg/logger"
	"github.com/okian/crema/pkg/metrics"
)

// configKey is the well-known store key of the configuration record. State
// keys always contain the bean/machine separator, so the two never collide.
const configKey = "config"

// Service is the advisor. All operations are synchronous; a single mutex
// serializes the read-modify-write cycles against the durable store.
type Service struct {
	mu sync.Mutex

	store    statestore.Store
	machines catalog.MachineSource
	runs     catalog.RunSource

	rng      *rand.Rand
	now      func() time.Time
	log      logger.Logger
	validate *validator.Validate

	cfg     Config
	started bool
}

// New constructs a Service with default configuration. Collaborators come
// in through options; anything left unset falls back to an in-memory store,
// a time-seeded PRNG, and the wall clock.
func New(opts ...Option) *Service {
	s := &Service{
		store:    statestore.NewMemoryStore(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // candidate sampling, not crypto
		now:      time.Now,
		validate: validator.New(),
		cfg:      DefaultConfig(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the persisted configuration record, writing the defaults if
// none exists yet.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	raw, err := s.store.Load(ctx, configKey)
	switch {
	case errors.Is(err, statestore.ErrNotFound):
		if err := s.persistConfig(ctx); err != nil {
			return err
		}
	case err != nil:
		metrics.RecordStoreError()
		return fmt.Errorf("load config record: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.cfg); err != nil {
			return fmt.Errorf("parse config record: %w", err)
		}
	}

	s.started = true
	s.log.Info(ctx, "advisor service started",
		logger.Int("minRunsThreshold", s.cfg.MinRunsThreshold),
		logger.Int("numCandidates", s.cfg.NumCandidates),
		logger.Int("maxObservations", s.cfg.MaxObservations),
	)
	return nil
}

// InitializeOptimizer writes a fresh empty state for the pair, capturing the
// machine's optimizable parameters and the current kernel hyperparameters.
// Any existing state for the key is overwritten.
func (s *Service) InitializeOptimizer(ctx context.Context, beanID, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.initializeLocked(ctx, beanID, machineID)
	return err
}

// initializeLocked builds and persists a fresh state. Callers hold the mutex.
func (s *Service) initializeLocked(ctx context.Context, beanID, machineID string) (*State, error) {
	machine, err := s.machines.MachineByID(ctx, machineID)
	if err != nil {
		return nil, err
	}

	params := machine.OptimizableParams()
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: machine %s", ErrNoOptimizableParams, machineID)
	}

	st := &State{
		Observations:      []Observation{},
		ParameterMetadata: params,
		GPHyperparameters: Hyperparameters{
			LengthScale: s.cfg.KernelLengthScale,
			OutputScale: s.cfg.KernelOutputScale,
			Noise:       s.cfg.KernelNoise,
		},
		LastUpdated: s.now(),
	}

	if err := s.saveState(ctx, stateKey(beanID, machineID), st); err != nil {
		return nil, err
	}
	s.updateStatesGauge(ctx)
	return st, nil
}

// UpdateWithRun encodes a rated run into an observation and appends it to
// the pair's state, lazily initializing the state when absent. Unrated runs
// and machines without optimizable parameters are no-ops. Runs missing a
// value for any optimizable parameter are rejected without a state change.
func (s *Service) UpdateWithRun(ctx context.Context, run schema.Run) error {
	if !run.Rated() {
		return nil
	}
	if run.Rating < 1 || run.Rating > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, run.Rating)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey(run.BeanID, run.MachineID)
	st, err := s.loadState(ctx, key)
	if err != nil {
		return err
	}
	if st == nil {
		st, err = s.initializeLocked(ctx, run.BeanID, run.MachineID)
		if errors.Is(err, ErrNoOptimizableParams) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	obs, err := s.encodeRun(st, run)
	if err != nil {
		metrics.RecordObservationRejected()
		s.log.Warn(ctx, "run rejected",
			logger.String("run", run.ID),
			logger.String("bean", run.BeanID),
			logger.String("machine", run.MachineID),
			logger.Error(err),
		)
		return nil
	}

	st.Observations = appendCapped(st.Observations, *obs, s.cfg.MaxObservations)
	st.LastUpdated = s.now()

	if err := s.saveState(ctx, key, st); err != nil {
		return err
	}

	metrics.RecordObservationIngested()
	s.log.Debug(ctx, "observation ingested",
		logger.String("bean", run.BeanID),
		logger.String("machine", run.MachineID),
		logger.Int("observations", len(st.Observations)),
	)
	return nil
}

// IsReady reports whether the pair has enough observations for advice.
func (s *Service) IsReady(ctx context.Context, beanID, machineID string) bool {
	return s.ObservationCount(ctx, beanID, machineID) >= s.configSnapshot().MinRunsThreshold
}

// ObservationCount returns the pair's observation count, zero when no state
// exists.
func (s *Service) ObservationCount(ctx context.Context, beanID, machineID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadState(ctx, stateKey(beanID, machineID))
	if err != nil || st == nil {
		return 0
	}
	return len(st.Observations)
}

// ClearOptimizer removes the pair's state. Idempotent.
func (s *Service) ClearOptimizer(ctx context.Context, beanID, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearKeyLocked(ctx, stateKey(beanID, machineID))
}

// ClearOptimizersForMachine removes the state of every pair on the machine.
// Used when the machine's parameter set changes in any way.
func (s *Service) ClearOptimizersForMachine(ctx context.Context, machineID string) error {
	return s.clearMatching(ctx, func(key string) bool {
		return strings.HasSuffix(key, keySeparator+machineID)
	})
}

// ClearOptimizersForBean removes the state of every pair on the bean. Used
// when the bean is deleted.
func (s *Service) ClearOptimizersForBean(ctx context.Context, beanID string) error {
	return s.clearMatching(ctx, func(key string) bool {
		return strings.HasPrefix(key, beanID+keySeparator)
	})
}

// RebuildFromHistory clears the pair's state and replays its rated-run
// history through the normal ingestion path. Used after a run is deleted.
func (s *Service) RebuildFromHistory(ctx context.Context, beanID, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey(beanID, machineID)
	if err := s.clearKeyLocked(ctx, key); err != nil {
		return err
	}
	if s.runs == nil {
		return nil
	}

	history, err := s.runs.RatedRuns(ctx, beanID, machineID)
	if err != nil {
		return fmt.Errorf("load run history: %w", err)
	}
	if len(history) == 0 {
		return nil
	}

	st, err := s.initializeLocked(ctx, beanID, machineID)
	if errors.Is(err, ErrNoOptimizableParams) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, run := range history {
		if run.Rating < 1 || run.Rating > 10 {
			continue
		}
		obs, err := s.encodeRun(st, run)
		if err != nil {
			metrics.RecordObservationRejected()
			s.log.Warn(ctx, "run skipped during rebuild",
				logger.String("run", run.ID),
				logger.Error(err),
			)
			continue
		}
		st.Observations = appendCapped(st.Observations, *obs, s.cfg.MaxObservations)
	}
	st.LastUpdated = s.now()

	if err := s.saveState(ctx, key, st); err != nil {
		return err
	}
	s.log.Info(ctx, "optimizer rebuilt",
		logger.String("bean", beanID),
		logger.String("machine", machineID),
		logger.Int("observations", len(st.Observations)),
	)
	return nil
}

// StateCount returns the number of per-pair states in the store.
func (s *Service) StateCount(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateCountLocked(ctx)
}

// Config returns a snapshot of the current tunables.
func (s *Service) Config(_ context.Context) Config {
	return s.configSnapshot()
}

// SetConfig merges the patch into the current tunables, validates the
// result, and durably persists it. Kernel settings captured into existing
// states are unaffected.
func (s *Service) SetConfig(ctx context.Context, patch ConfigPatch) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := patch.apply(s.cfg)
	if err := s.validate.Struct(merged); err != nil {
		return s.cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	prev := s.cfg
	s.cfg = merged
	if err := s.persistConfig(ctx); err != nil {
		s.cfg = prev
		return s.cfg, err
	}
	return s.cfg, nil
}

// ---- internals ----

const keySeparator = "_"

// stateKey builds the durable-store key for a pair.
func stateKey(beanID, machineID string) string {
	return beanID + keySeparator + machineID
}

func (s *Service) configSnapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// loadState reads and decodes the state under key; nil when absent.
func (s *Service) loadState(ctx context.Context, key string) (*State, error) {
	raw, err := s.store.Load(ctx, key)
	if errors.Is(err, statestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("load state %s: %w", key, err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", key, err)
	}
	return &st, nil
}

func (s *Service) saveState(ctx context.Context, key string, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", key, err)
	}
	if err := s.store.Save(ctx, key, raw); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("save state %s: %w", key, err)
	}
	return nil
}

func (s *Service) persistConfig(ctx context.Context) error {
	raw, err := json.Marshal(s.cfg)
	if err != nil {
		return fmt.Errorf("marshal config record: %w", err)
	}
	if err := s.store.Save(ctx, configKey, raw); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("save config record: %w", err)
	}
	return nil
}

func (s *Service) clearKeyLocked(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	s.updateStatesGauge(ctx)
	return nil
}

// clearMatching removes every state whose key the predicate accepts.
// Best-effort: individual delete failures are logged and the sweep goes on.
func (s *Service) clearMatching(ctx context.Context, match func(string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.store.Keys(ctx)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("enumerate states: %w", err)
	}

	for _, key := range keys {
		if key == configKey || !match(key) {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			metrics.RecordStoreError()
			s.log.Error(ctx, "failed to clear optimizer state",
				logger.String("key", key),
				logger.Error(err),
			)
		}
	}
	s.updateStatesGauge(ctx)
	return nil
}

func (s *Service) stateCountLocked(ctx context.Context) int {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return 0
	}
	n := 0
	for _, key := range keys {
		if key != configKey {
			n++
		}
	}
	return n
}

func (s *Service) updateStatesGauge(ctx context.Context) {
	metrics.UpdateStatesTracked(s.stateCountLocked(ctx))
}

// encodeRun turns a rated run into an observation against the state's
// captured metadata. A missing or mismatched value for any optimizable
// parameter fails the whole encoding.
func (s *Service) encodeRun(st *State, run schema.Run) (*Observation, error) {
	codec := encode.New(s.cfg.NumberParamPadding)

	vector := make([]float64, len(st.ParameterMetadata))
	raw := make(map[string]schema.ParamValue, len(st.ParameterMetadata))

	for i, meta := range st.ParameterMetadata {
		v, ok := run.Values[meta.ID]
		if !ok {
			return nil, fmt.Errorf("missing value for parameter %q", meta.ID)
		}
		u, err := codec.Encode(meta, v, numberHistory(st, meta))
		if err != nil {
			return nil, err
		}
		vector[i] = u
		raw[meta.ID] = v
	}

	rating, err := encode.EncodeRating(run.Rating)
	if err != nil {
		return nil, err
	}

	return &Observation{
		Parameters: vector,
		RawValues:  raw,
		Rating:     rating,
	}, nil
}

// appendCapped appends an observation and drops the oldest entries beyond
// the retention limit.
func appendCapped(obs []Observation, next Observation, limit int) []Observation {
	obs = append(obs, next)
	if len(obs) > limit {
		obs = obs[len(obs)-limit:]
	}
	return obs
}

// numberHistory collects the raw values observed so far for a number
// parameter; the envelope is derived from them on every encode and decode.
func numberHistory(st *State, meta schema.ParamSpec) []float64 {
	if meta.Kind != schema.KindNumber {
		return nil
	}
	var out []float64
	for _, obs := range st.Observations {
		if v, ok := obs.RawValues[meta.ID]; ok && v.Numeric() {
			out = append(out, v.Number)
		}
	}
	return out
}

package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/crema/internal/domain/schema"
)

// Memory implements MachineSource and RunSource with in-process maps. It is
// the registry behind the HTTP surface and the test suites.
type Memory struct {
	mu       sync.RWMutex
	machines map[string]schema.Machine
	runs     []schema.Run
}

// NewMemory creates an empty catalog.
func NewMemory() *Memory {
	return &Memory{machines: make(map[string]schema.Machine)}
}

// AddMachine validates and registers (or replaces) a machine schema.
func (c *Memory) AddMachine(_ context.Context, m schema.Machine) error {
	if err := m.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.machines[m.ID] = m
	return nil
}

// MachineByID returns the machine schema for id.
func (c *Memory) MachineByID(_ context.Context, machineID string) (*schema.Machine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.machines[machineID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, machineID)
	}
	out := m
	return &out, nil
}

// AddRun appends a run to the history.
func (c *Memory) AddRun(_ context.Context, r schema.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, r)
	return nil
}

// DeleteRun removes the run with the given id and returns it.
func (c *Memory) DeleteRun(_ context.Context, runID string) (schema.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, r := range c.runs {
		if r.ID == runID {
			c.runs = append(c.runs[:i], c.runs[i+1:]...)
			return r, nil
		}
	}
	return schema.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

// RatedRuns returns the rated runs for the pair in insertion order.
func (c *Memory) RatedRuns(_ context.Context, beanID, machineID string) ([]schema.Run, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []schema.Run
	for _, r := range c.runs {
		if r.BeanID == beanID && r.MachineID == machineID && r.Rated() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Package catalog defines the read-side adapters the advisor consumes:
// machine schemas and the rated-run history used for rebuilds.
package catalog

import (
	"context"

	"github.com/okian/crema/internal/domain/schema"
)

// MachineSource resolves machine schemas by id.
type MachineSource interface {
	// MachineByID returns the machine schema. Returns ErrMachineNotFound
	// if the machine is unknown.
	MachineByID(ctx context.Context, machineID string) (*schema.Machine, error)
}

// RunSource serves the rated-run history for a (bean, machine) pair, in
// insertion order. The advisor reads it only during an explicit rebuild.
type RunSource interface {
	RatedRuns(ctx context.Context, beanID, machineID string) ([]schema.Run, error)
}

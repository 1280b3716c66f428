package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/crema/internal/domain/schema"
)

func testMachine() schema.Machine {
	return schema.Machine{
		ID: "m1",
		Params: []schema.ParamSpec{
			{ID: "g", Kind: schema.KindRange, Config: schema.ParamConfig{Min: 0, Max: 10, Step: 1}},
		},
	}
}

func TestMemory_Machines(t *testing.T) {
	ctx := context.Background()
	cat := NewMemory()

	if _, err := cat.MachineByID(ctx, "m1"); !errors.Is(err, ErrMachineNotFound) {
		t.Fatalf("expected ErrMachineNotFound, got %v", err)
	}

	if err := cat.AddMachine(ctx, testMachine()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := cat.MachineByID(ctx, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "m1" || len(m.Params) != 1 {
		t.Errorf("unexpected machine: %+v", m)
	}

	// Invalid schemas are rejected at registration.
	bad := testMachine()
	bad.Params[0].Config.Step = 0
	if err := cat.AddMachine(ctx, bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestMemory_RunsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	cat := NewMemory()

	runs := []schema.Run{
		{ID: "r1", BeanID: "b1", MachineID: "m1", Rating: 5},
		{ID: "r2", BeanID: "b1", MachineID: "m1", Rating: 0}, // unrated
		{ID: "r3", BeanID: "b2", MachineID: "m1", Rating: 7}, // other bean
		{ID: "r4", BeanID: "b1", MachineID: "m1", Rating: 8},
	}
	for _, r := range runs {
		_ = cat.AddRun(ctx, r)
	}

	rated, err := cat.RatedRuns(ctx, "b1", "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rated) != 2 || rated[0].ID != "r1" || rated[1].ID != "r4" {
		t.Errorf("unexpected rated runs: %+v", rated)
	}
}

func TestMemory_DeleteRun(t *testing.T) {
	ctx := context.Background()
	cat := NewMemory()

	_ = cat.AddRun(ctx, schema.Run{ID: "r1", BeanID: "b1", MachineID: "m1", Rating: 5})

	run, err := cat.DeleteRun(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID != "r1" {
		t.Errorf("unexpected run: %+v", run)
	}

	if _, err := cat.DeleteRun(ctx, "r1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

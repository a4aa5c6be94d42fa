package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/uismoke/internal/supervisor"
)

// FakeRun scripts how one runner behaves under FakeSupervisor.
type FakeRun struct {
	Exit   supervisor.Exit
	Stdout string
	Stderr string

	// Hang makes AwaitExit report a timeout without sleeping.
	Hang bool

	// SpawnErr makes Spawn fail.
	SpawnErr error

	// OnSpawn runs when the runner is spawned, before AwaitExit.
	OnSpawn func(spec supervisor.Spec)
}

// FakeSupervisor implements supervisor.Supervisor from scripted runs keyed
// by Spec.Name. Unscripted runners exit 0 with no output.
type FakeSupervisor struct {
	Runs map[string]FakeRun

	mu        sync.Mutex
	spawned   []supervisor.Spec
	waits     []time.Duration
	active    int
	maxActive int
}

// NewFakeSupervisor creates a supervisor with the given scripts.
func NewFakeSupervisor(runs map[string]FakeRun) *FakeSupervisor {
	if runs == nil {
		runs = make(map[string]FakeRun)
	}
	return &FakeSupervisor{Runs: runs}
}

// Spawn implements supervisor.Supervisor.
func (f *FakeSupervisor) Spawn(ctx context.Context, spec supervisor.Spec) (supervisor.Process, error) {
	f.mu.Lock()
	run := f.Runs[spec.Name]
	f.spawned = append(f.spawned, spec)
	if run.SpawnErr != nil {
		f.mu.Unlock()
		return nil, run.SpawnErr
	}
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if run.OnSpawn != nil {
		run.OnSpawn(spec)
	}
	return &fakeProcess{sup: f, run: run}, nil
}

// Spawned returns every spec passed to Spawn, in order.
func (f *FakeSupervisor) Spawned() []supervisor.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]supervisor.Spec(nil), f.spawned...)
}

// Waits returns the timeout of every AwaitExit call, in order.
func (f *FakeSupervisor) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

// MaxConcurrent returns the largest number of runners alive at once.
func (f *FakeSupervisor) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

type fakeProcess struct {
	sup    *FakeSupervisor
	run    FakeRun
	once   sync.Once
	exited supervisor.Exit
}

func (p *fakeProcess) AwaitExit(timeout time.Duration) supervisor.Exit {
	p.once.Do(func() {
		p.sup.mu.Lock()
		p.sup.waits = append(p.sup.waits, timeout)
		p.sup.active--
		p.sup.mu.Unlock()

		if p.run.Hang {
			p.exited = supervisor.Exit{Code: -1, TimedOut: true}
			return
		}
		p.exited = p.run.Exit
	})
	return p.exited
}

func (p *fakeProcess) Output() supervisor.Captured {
	return supervisor.Captured{Stdout: p.run.Stdout, Stderr: p.run.Stderr}
}

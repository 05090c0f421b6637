// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbgroup-nagoya-u/gobench/internal/observe"
	"github.com/dbgroup-nagoya-u/gobench/pkg/sketch"
)

// Runner builds workers, spawns their goroutines, synchronizes a common
// start instant, enforces the configured timeout, and aggregates the
// surrendered per-worker sketches. One Runner instance is good for exactly
// one Run call; Target and OperationEngine are borrowed for the duration of
// that call and must outlive it.
type Runner[K ~int, Op any] struct {
	cfg      Config
	target   Target[K, Op]
	engine   OperationEngine[K, Op]
	observer *observe.Observer
	newClock func() StopWatch
}

// RunnerOption configures optional Runner behavior beyond Config.
type RunnerOption[K ~int, Op any] func(*Runner[K, Op])

// WithObserver attaches a telemetry Observer. The Runner reports its state
// machine transitions and end-of-run throughput through it; see package
// internal/observe. Passing nil is a no-op (metrics stay disabled).
func WithObserver[K ~int, Op any](o *observe.Observer) RunnerOption[K, Op] {
	return func(r *Runner[K, Op]) { r.observer = o }
}

// WithStopWatchFactory overrides the StopWatch construction used by every
// worker. Tests use this to substitute a mocked, constant-latency clock;
// production callers should not need it.
func WithStopWatchFactory[K ~int, Op any](f func() StopWatch) RunnerOption[K, Op] {
	return func(r *Runner[K, Op]) { r.newClock = f }
}

// NewRunner validates cfg and returns a Runner ready to drive target with
// operations from engine.
func NewRunner[K ~int, Op any](cfg Config, target Target[K, Op], engine OperationEngine[K, Op], opts ...RunnerOption[K, Op]) (*Runner[K, Op], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner[K, Op]{
		cfg:      cfg,
		target:   target,
		engine:   engine,
		newClock: func() StopWatch { return newWallStopWatch() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner[K, Op]) setState(state string) {
	if r.observer != nil {
		r.observer.SetState(state)
	}
}

// workerOutcome is what a worker goroutine hands back: either its
// surrendered sketch, or the fault that kept it from surrendering one.
type workerOutcome struct {
	sketch *sketch.Sketch
	fault  error
}

// deriveSeeds draws n per-worker seeds sequentially from a single root
// generator, so a given RandomSeed reproduces the same per-worker sequence
// regardless of goroutine scheduling. An unset RandomSeed is replaced with
// OS entropy read once, up front.
func (r *Runner[K, Op]) deriveSeeds(n int) ([]uint64, error) {
	root := uint64(0)
	if r.cfg.RandomSeed != nil {
		root = *r.cfg.RandomSeed
	} else {
		var buf [8]byte
		if _, err := cryptorand.Read(buf[:]); err != nil {
			return nil, err
		}
		root = binary.LittleEndian.Uint64(buf[:])
	}
	rootRand := rand.New(rand.NewPCG(root, 0))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rootRand.Uint64()
	}
	return seeds, nil
}

// Run executes one measurement pass: it builds ThreadCount workers,
// releases them from a common start barrier, lets them run until iterator
// exhaustion, ctx cancellation, or the configured Timeout (whichever comes
// first), and returns the merged sketch. Timeout is not an error: a timed-
// out run returns its partial sketch with a nil error. A worker panic is
// reported as a *WorkerFault and aborts the run.
//
// Run implements the Idle -> Spawning -> Preparing -> Running -> Draining
// -> Reporting -> Idle state machine from spec.md §4.3; cancellation (via
// ctx or Timeout) transitions straight from Running to Draining without
// waiting out the rest of the deadline for every worker.
func (r *Runner[K, Op]) Run(ctx context.Context) (*sketch.Sketch, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	n := r.cfg.ThreadCount

	seeds, err := r.deriveSeeds(n)
	if err != nil {
		return nil, err
	}

	r.setState(observe.StateSpawning)
	r.target.PreProcess()

	var isRunning atomic.Bool
	isRunning.Store(true)
	var ready atomic.Bool
	var workerReadyCount atomic.Int64

	done := make([]chan workerOutcome, n)
	for i := range done {
		done[i] = make(chan workerOutcome, 1)
	}

	faulted := make(chan struct{}, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			counted := false
			defer func() {
				if rec := recover(); rec != nil {
					// A worker that faults before reaching the barrier still
					// counts as ready so the controller does not spin forever.
					if !counted {
						workerReadyCount.Add(1)
					}
					done[id] <- workerOutcome{fault: &WorkerFault{ThreadID: id, Cause: rec}}
					faulted <- struct{}{}
				}
			}()

			w := newWorker[K, Op](r.target, r.engine, &isRunning, id, seeds[id], r.newClock())
			defer w.close()
			workerReadyCount.Add(1)
			counted = true

			// Spin on the release flag: the two-phase barrier (count up,
			// then flag flip) gives every worker a common start instant
			// without per-worker notification channels.
			for !ready.Load() {
				runtime.Gosched()
			}

			w.measure()
			sk, mvErr := w.moveSketch()
			if mvErr != nil {
				done[id] <- workerOutcome{fault: mvErr}
				return
			}
			done[id] <- workerOutcome{sketch: sk}
		}(i)
	}

	r.setState(observe.StatePreparing)
	for workerReadyCount.Load() != int64(n) {
		runtime.Gosched()
	}
	if r.observer != nil {
		r.observer.SetWorkersReady(int64(n))
	}

	deadline := time.Now().Add(r.cfg.Timeout)
	r.setState(observe.StateRunning)
	ready.Store(true)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	r.setState(observe.StateDraining)
	outcomes := make([]workerOutcome, n)
	deadlinePassed := false
	for i := 0; i < n; i++ {
		if deadlinePassed {
			outcomes[i] = <-done[i]
			continue
		}
		select {
		case o := <-done[i]:
			outcomes[i] = o
			if o.fault != nil {
				deadlinePassed = true
				isRunning.Store(false)
			}
		case <-faulted:
			deadlinePassed = true
			isRunning.Store(false)
			outcomes[i] = <-done[i]
		case <-timer.C:
			deadlinePassed = true
			isRunning.Store(false)
			outcomes[i] = <-done[i]
		case <-ctx.Done():
			deadlinePassed = true
			isRunning.Store(false)
			outcomes[i] = <-done[i]
		}
	}
	wg.Wait()

	r.target.PostProcess()
	r.setState(observe.StateReporting)

	agg := sketch.New(r.engine.TotalKinds())
	var fault error
	for _, o := range outcomes {
		if o.fault != nil {
			if fault == nil {
				fault = o.fault
			}
			continue
		}
		if o.sketch != nil {
			if err := agg.Merge(o.sketch); err != nil {
				r.setState(observe.StateIdle)
				return nil, err
			}
		}
	}
	r.setState(observe.StateIdle)
	if fault != nil {
		return nil, fault
	}

	if r.observer != nil {
		r.observer.AddOps(agg.TotalExecCount())
		r.observer.SetLastThroughput(Throughput(agg, n))
	}
	return agg, nil
}

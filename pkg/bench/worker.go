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
	"fmt"
	"sync/atomic"

	"github.com/dbgroup-nagoya-u/gobench/pkg/sketch"
)

// worker owns one Sketch and a non-owning reference to the shared Target
// for the duration of a single measurement run. It is constructed on its
// own goroutine so that SetupForWorker, iterator construction, and any
// per-worker allocation happen on the thread that will later run the
// measurement loop, matching the teacher codebase's worker-owns-its-setup
// convention (internal/ratelimiter/core/worker.go's Start/Stop lifecycle).
type worker[K ~int, Op any] struct {
	target    Target[K, Op]
	iter      OperationIterator[K, Op]
	isRunning *atomic.Bool
	sk        *sketch.Sketch
	sw        StopWatch
	moved     bool
}

func newWorker[K ~int, Op any](target Target[K, Op], engine OperationEngine[K, Op], isRunning *atomic.Bool, threadID int, randSeed uint64, sw StopWatch) *worker[K, Op] {
	iter := engine.GetIter(threadID, randSeed)
	sk := sketch.New(engine.TotalKinds())
	target.SetupForWorker()
	if sw == nil {
		sw = newWallStopWatch()
	}
	return &worker[K, Op]{
		target:    target,
		iter:      iter,
		isRunning: isRunning,
		sk:        sk,
		sw:        sw,
	}
}

// measure drives the sole measurement loop: consume the iterator, time
// each Execute call, and attribute the sample to its kind. The stop flag is
// checked before starting the stopwatch for the next sample, so a worker
// never records a partially-timed sample after cancellation.
func (w *worker[K, Op]) measure() {
	for w.iter.HasMore() && w.isRunning.Load() {
		kind, op := w.iter.Current()
		w.sw.Start()
		count := w.target.Execute(kind, op)
		elapsed := w.sw.Stop()
		// Add only fails on an out-of-range kind, which is an engine bug;
		// surfacing it as a panic lets the Runner's recover/WorkerFault
		// path report it rather than silently dropping samples.
		if err := w.sk.Add(int(kind), int64(count), elapsed); err != nil {
			panic(err)
		}
		w.iter.Advance()
	}
}

// moveSketch surrenders ownership of the worker's sketch exactly once.
// Calling it a second time is a programming error.
func (w *worker[K, Op]) moveSketch() (*sketch.Sketch, error) {
	if w.moved {
		return nil, fmt.Errorf("%w: sketch already moved for this worker", ErrProgrammingError)
	}
	w.moved = true
	sk := w.sk
	w.sk = nil
	return sk, nil
}

// close runs the worker's teardown hook. The Runner defers it as soon as
// newWorker returns, so it runs whether measure returns normally or panics;
// it is not called when newWorker itself panics. This matches the teacher's
// paired Start/Stop lifecycle discipline.
func (w *worker[K, Op]) close() {
	w.target.TeardownForWorker()
}

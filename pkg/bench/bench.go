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

// Package bench is a multi-threaded micro-benchmark harness. Callers plug
// in a Target (the concurrent data structure, lock, or atomic primitive
// under test) and an OperationEngine (a source of operations to drive
// against it); Runner spawns worker goroutines, synchronizes their start so
// measurement begins at a common instant, enforces a wall-clock timeout,
// and aggregates per-worker results into a mergeable quantile sketch.
//
// Target and OperationEngine are generic over K, the operation-kind
// enumeration, and Op, the operation payload type. K is typically a small
// named int type with a TotalKinds-style sentinel constant; Op is whatever
// shape the caller's engine produces. Go generics keep K and Op statically
// typed: one Runner[K, Op] instantiation per benchmark. Target and
// OperationEngine are still held as interface values, so each Execute on the
// hot path is one dynamic interface call.
package bench

// Target is the benchmark subject: a concurrent data structure, lock, or
// atomic primitive. A single Target value is shared by every worker
// goroutine; thread-safety of Execute is the Target's responsibility.
type Target[K ~int, Op any] interface {
	// SetupForWorker is called once per worker, before that worker's
	// measurement loop begins.
	SetupForWorker()
	// TeardownForWorker is called once per worker, after that worker's
	// measurement loop ends.
	TeardownForWorker()
	// PreProcess and PostProcess are reserved whole-run hooks, called once
	// by the Runner before spawning workers and after collecting them.
	// Implementations that need no pre/post behavior leave them as no-ops.
	PreProcess()
	PostProcess()
	// Execute performs one logical step using the given operation kind and
	// payload, and returns the number of logical operations actually
	// performed (always >= 1; lets batched or retried work self-report).
	// Execute is called concurrently, from many worker goroutines, against
	// the same Target value.
	Execute(kind K, op Op) uint64
}

// OperationIterator is a lazy, finite, non-restartable, single-goroutine
// sequence of (kind, operation) pairs. Exhaustion (HasMore returning false)
// is the normal termination condition for a worker's measurement loop.
type OperationIterator[K ~int, Op any] interface {
	// HasMore reports whether Current/Advance may still be called.
	HasMore() bool
	// Current returns the pair at the iterator's current position. It is
	// stable until the next Advance call.
	Current() (K, Op)
	// Advance moves the iterator to the next pair.
	Advance()
}

// OperationEngine supplies per-worker operation iterators. GetIter must be
// safe to call concurrently from multiple worker goroutines (one call per
// worker), but the Iter it returns is only ever used by the worker that
// requested it.
type OperationEngine[K ~int, Op any] interface {
	// TotalKinds is the sentinel operation-kind count: kind values are
	// expected to range over [0, TotalKinds).
	TotalKinds() int
	// GetIter returns a fresh iterator for the given worker. randSeed is
	// derived sequentially from the Runner's configured random seed so a
	// given seed reproduces the same per-worker sequence regardless of how
	// goroutines happen to be scheduled.
	GetIter(threadID int, randSeed uint64) OperationIterator[K, Op]
}

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

// StripedVSA is a contention-reduced variant of VSA: the volatile vector is
// spread across a small number of independent shards instead of living
// behind one mutex, so concurrent benchmark workers calling Update don't all
// serialize on the same memory location. It exists in this package as a
// second Target implementation for the harness, exercising the same
// Update/Available/State/CheckCommit/TryConsume methods as VSA under much
// higher goroutine counts. It adds a TryRefund that VSA does not have, and
// its Commit clamps to the current net, which VSA.Commit does not.
package vsa

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// shardPad keeps adjacent shards on separate cache lines so goroutines
// hammering different shards don't false-share.
const shardPad = 64 - 8

type shard struct {
	val atomic.Int64
	_   [shardPad]byte
}

// StripedVSA tracks the same scalar/vector pair as VSA, but Update lands on
// one of several independent shards rather than a single mutex-guarded
// field, and the commit path folds committed amounts into committedOffset
// instead of zeroing shards in place (zeroing every shard on every commit
// would reintroduce the contention sharding exists to avoid).
type StripedVSA struct {
	scalar          atomic.Int64
	committedOffset atomic.Int64

	shards []shard
	next   atomic.Uint64

	// mu serializes TryConsume, TryRefund, and Commit: all three need an
	// exact read of the net vector across every shard, immediately followed
	// by a write, and that read-then-write has to be atomic as a whole.
	// Update and Available stay lock-free.
	mu sync.Mutex
}

// StripedOptions configures StripedVSA construction.
type StripedOptions struct {
	// Shards sets the number of independent update shards. 0 derives a
	// count from runtime.GOMAXPROCS, clamped to [4, 64].
	Shards int
}

// NewStripedWithOptions creates a StripedVSA with an explicit shard count.
func NewStripedWithOptions(initialScalar int64, opts StripedOptions) *StripedVSA {
	n := opts.Shards
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 4 {
		n = 4
	}
	if n > 64 {
		n = 64
	}
	v := &StripedVSA{shards: make([]shard, n)}
	v.scalar.Store(initialScalar)
	return v
}

// NewStriped creates a StripedVSA with a shard count derived from
// GOMAXPROCS.
func NewStriped(initialScalar int64) *StripedVSA {
	return NewStripedWithOptions(initialScalar, StripedOptions{})
}

// Update applies a change to the volatile vector by adding to one shard,
// chosen by a simple atomic round-robin counter.
func (v *StripedVSA) Update(value int64) {
	v.shards[v.nextShard()].val.Add(value)
}

func (v *StripedVSA) nextShard() int {
	return int(v.next.Add(1)) % len(v.shards)
}

func (v *StripedVSA) currentVector() int64 {
	var sum int64
	for i := range v.shards {
		sum += v.shards[i].val.Load()
	}
	return sum - v.committedOffset.Load()
}

// Available returns S - |net|, net summed across every shard.
func (v *StripedVSA) Available() int64 {
	return v.scalar.Load() - abs(v.currentVector())
}

// State returns the current scalar and effective vector.
func (v *StripedVSA) State() (scalar, vector int64) {
	return v.scalar.Load(), v.currentVector()
}

// CheckCommit reports whether |net| >= threshold, and the net to commit if so.
func (v *StripedVSA) CheckCommit(threshold int64) (bool, int64) {
	net := v.currentVector()
	if abs(net) >= threshold {
		return true, net
	}
	return false, 0
}

// Commit moves up to committedVector's magnitude from the in-memory net
// towards zero, reducing scalar by the same amount.
func (v *StripedVSA) Commit(committedVector int64) {
	if committedVector == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	net := v.currentVector()
	if net == 0 {
		return
	}
	mag := abs(committedVector)
	if mag > abs(net) {
		mag = abs(net)
	}
	delta := mag
	if net < 0 {
		delta = -mag
	}
	v.scalar.Add(-abs(delta))
	v.committedOffset.Add(delta)
}

// TryConsume atomically checks whether at least n units are available and,
// if so, consumes them by adding to a shard. Serializes briefly on mu to
// rule out oversubscription between the check and the write.
func (v *StripedVSA) TryConsume(n int64) bool {
	if n <= 0 {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scalar.Load()-abs(v.currentVector()) < n {
		return false
	}
	v.shards[v.nextShard()].val.Add(n)
	return true
}

// TryRefund undoes up to n units from a positive net without driving it
// negative. Reports whether any refund was applied.
func (v *StripedVSA) TryRefund(n int64) bool {
	if n <= 0 {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	net := v.currentVector()
	if net <= 0 {
		return false
	}
	if n > net {
		n = net
	}
	v.shards[v.nextShard()].val.Add(-n)
	return true
}

// Close exists for symmetry with other Target teardown hooks; StripedVSA
// has no background goroutine to stop.
func (v *StripedVSA) Close() {}

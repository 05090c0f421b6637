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

// Package demo provides reference Target and OperationEngine
// implementations for cmd/bench-demo. These exist to prove the harness
// end-to-end; they are not part of the library's supported surface, which
// is why they live under internal rather than pkg.
package demo

import (
	"sync"
	"sync/atomic"

	"github.com/dbgroup-nagoya-u/gobench/pkg/vsa"
)

// Kind distinguishes the two logical operations every demo target supports.
type Kind int

const (
	// KindIncrement increments the counter by one.
	KindIncrement Kind = iota
	// KindRead reads the counter's current value without mutating it.
	KindRead
	// NumKinds is the number of Kind values; the Sketch this package's
	// engine drives is sized from it.
	NumKinds
)

// Op carries no payload; every demo operation is parameterless.
type Op struct{}

// MutexCounter is the simplest of the demo targets: every Execute call
// takes a single mutex, whether incrementing or reading. It exists as the
// baseline the atomic and striped targets are expected to outperform under
// contention.
type MutexCounter struct {
	mu    sync.Mutex
	value int64
}

func (c *MutexCounter) SetupForWorker()    {}
func (c *MutexCounter) TeardownForWorker() {}
func (c *MutexCounter) PreProcess()        {}
func (c *MutexCounter) PostProcess()       {}

// Execute performs one increment or read and reports 1 logical operation.
func (c *MutexCounter) Execute(kind Kind, _ Op) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == KindIncrement {
		c.value++
	}
	_ = c.value
	return 1
}

// AtomicCounter replaces the mutex with a single atomic.Int64, trading
// generality (no compound read-modify-write spanning more than the counter
// itself) for contention that scales far better with thread count.
type AtomicCounter struct {
	value atomic.Int64
}

func (c *AtomicCounter) SetupForWorker()    {}
func (c *AtomicCounter) TeardownForWorker() {}
func (c *AtomicCounter) PreProcess()        {}
func (c *AtomicCounter) PostProcess()       {}

func (c *AtomicCounter) Execute(kind Kind, _ Op) uint64 {
	if kind == KindIncrement {
		c.value.Add(1)
	} else {
		_ = c.value.Load()
	}
	return 1
}

// MutexVSACounter routes both kinds through a plain, mutex-guarded VSA:
// KindIncrement calls Update(1), KindRead calls Available(). It sits between
// MutexCounter and StripedVSACounter in the comparison — VSA guards its state
// with one sync.RWMutex, so increments serialize as in MutexCounter while
// reads share the read lock, and it exercises the VSA library's
// scalar/vector accounting instead of a bare int64.
type MutexVSACounter struct {
	v *vsa.VSA
}

// NewMutexVSACounter builds a MutexVSACounter backed by a fresh VSA with a
// generously large scalar, so Available never goes negative over the course
// of a benchmark run.
func NewMutexVSACounter() *MutexVSACounter {
	return &MutexVSACounter{v: vsa.New(1 << 40)}
}

func (c *MutexVSACounter) SetupForWorker()    {}
func (c *MutexVSACounter) TeardownForWorker() {}
func (c *MutexVSACounter) PreProcess()        {}
func (c *MutexVSACounter) PostProcess()       {}

func (c *MutexVSACounter) Execute(kind Kind, _ Op) uint64 {
	if kind == KindIncrement {
		c.v.Update(1)
	} else {
		_ = c.v.Available()
	}
	return 1
}

// StripedVSACounter routes both kinds through a StripedVSA: KindIncrement
// calls Update(1), KindRead calls Available(). It demonstrates the
// contention-reduced VSA variant under the same harness used to compare the
// two simpler counters.
type StripedVSACounter struct {
	v *vsa.StripedVSA
}

// NewStripedVSACounter builds a StripedVSACounter backed by a fresh
// StripedVSA with a generously large scalar, so Available never goes
// negative over the course of a benchmark run.
func NewStripedVSACounter() *StripedVSACounter {
	return &StripedVSACounter{v: vsa.NewStriped(1 << 40)}
}

func (c *StripedVSACounter) SetupForWorker()    {}
func (c *StripedVSACounter) TeardownForWorker() {}
func (c *StripedVSACounter) PreProcess()        {}

// PostProcess calls the StripedVSA's Close, which has nothing to stop:
// StripedVSA runs no background goroutine.
func (c *StripedVSACounter) PostProcess() { c.v.Close() }

func (c *StripedVSACounter) Execute(kind Kind, _ Op) uint64 {
	if kind == KindIncrement {
		c.v.Update(1)
	} else {
		_ = c.v.Available()
	}
	return 1
}

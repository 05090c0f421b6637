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

package demo

import (
	"sync"
	"testing"
)

func TestMutexCounterExecuteReturnsOne(t *testing.T) {
	c := &MutexCounter{}
	if got := c.Execute(KindIncrement, Op{}); got != 1 {
		t.Errorf("Execute(KindIncrement) = %d, want 1", got)
	}
	if got := c.Execute(KindRead, Op{}); got != 1 {
		t.Errorf("Execute(KindRead) = %d, want 1", got)
	}
}

func TestAtomicCounterConcurrentIncrements(t *testing.T) {
	c := &AtomicCounter{}
	var wg sync.WaitGroup
	const goroutines, perGoroutine = 50, 200
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.Execute(KindIncrement, Op{})
			}
		}()
	}
	wg.Wait()
	if got := c.value.Load(); got != goroutines*perGoroutine {
		t.Errorf("value = %d, want %d", got, goroutines*perGoroutine)
	}
}

func TestMutexVSACounterReadDoesNotPanic(t *testing.T) {
	c := NewMutexVSACounter()
	c.Execute(KindIncrement, Op{})
	c.Execute(KindRead, Op{})
}

func TestStripedVSACounterReadDoesNotPanic(t *testing.T) {
	c := NewStripedVSACounter()
	defer c.PostProcess()
	c.Execute(KindIncrement, Op{})
	c.Execute(KindRead, Op{})
}

func TestUniformEngineRespectsOpsPerWorker(t *testing.T) {
	e := &UniformEngine{ReadFraction: 0.5, OpsPerWorker: 10}
	it := e.GetIter(0, 42)
	count := 0
	for it.HasMore() {
		it.Current()
		it.Advance()
		count++
	}
	if count != 10 {
		t.Errorf("iterator yielded %d pairs, want 10", count)
	}
}

func TestUniformEngineUnboundedWhenOpsPerWorkerIsZero(t *testing.T) {
	e := &UniformEngine{ReadFraction: 0.5, OpsPerWorker: 0}
	it := e.GetIter(0, 42)
	for i := 0; i < 10000; i++ {
		if !it.HasMore() {
			t.Fatalf("iterator exhausted after %d pairs, want unbounded", i)
		}
		it.Advance()
	}
}

func TestUniformEngineCurrentStableUntilAdvance(t *testing.T) {
	e := &UniformEngine{ReadFraction: 0.5, OpsPerWorker: 5}
	it := e.GetIter(0, 7)
	first, _ := it.Current()
	for i := 0; i < 10; i++ {
		if again, _ := it.Current(); again != first {
			t.Fatalf("Current() changed across repeated calls without Advance: %v then %v", first, again)
		}
	}
}

func TestUniformEngineDeterministicPerSeed(t *testing.T) {
	e := &UniformEngine{ReadFraction: 0.5, OpsPerWorker: 100}
	first := sequenceOf(e.GetIter(3, 99))
	second := sequenceOf(e.GetIter(3, 99))
	if len(first) != len(second) {
		t.Fatalf("sequence lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sequence diverges at index %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func sequenceOf(it interface {
	HasMore() bool
	Current() (Kind, Op)
	Advance()
}) []Kind {
	var out []Kind
	for it.HasMore() {
		k, _ := it.Current()
		out = append(out, k)
		it.Advance()
	}
	return out
}

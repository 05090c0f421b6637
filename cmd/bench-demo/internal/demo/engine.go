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
	"math/rand/v2"

	"github.com/dbgroup-nagoya-u/gobench/pkg/bench"
)

// UniformEngine hands every worker an iterator that draws KindRead with
// probability ReadFraction and KindIncrement otherwise, per-worker seeded
// from the seed the Runner derives for it. OpsPerWorker bounds how many
// operations a single worker runs before its iterator reports exhaustion;
// 0 means unbounded, letting the Runner's timeout be the only stopping
// condition, which is the realistic shape for a throughput benchmark.
type UniformEngine struct {
	ReadFraction float64
	OpsPerWorker int64
}

func (e *UniformEngine) TotalKinds() int { return int(NumKinds) }

func (e *UniformEngine) GetIter(threadID int, seed uint64) bench.OperationIterator[Kind, Op] {
	it := &uniformIterator{
		rng:          rand.New(rand.NewPCG(seed, uint64(threadID)+1)),
		readFraction: e.ReadFraction,
		remaining:    e.OpsPerWorker,
		unbounded:    e.OpsPerWorker <= 0,
	}
	it.draw()
	return it
}

type uniformIterator struct {
	rng          *rand.Rand
	readFraction float64
	remaining    int64
	unbounded    bool
	current      Kind
}

// draw samples the kind for the iterator's current position. Current must
// stay stable across repeated calls at the same position, so sampling
// happens once here rather than on every Current call.
func (it *uniformIterator) draw() {
	if it.rng.Float64() < it.readFraction {
		it.current = KindRead
	} else {
		it.current = KindIncrement
	}
}

func (it *uniformIterator) HasMore() bool {
	return it.unbounded || it.remaining > 0
}

func (it *uniformIterator) Current() (Kind, Op) {
	return it.current, Op{}
}

func (it *uniformIterator) Advance() {
	if !it.unbounded {
		it.remaining--
	}
	if it.HasMore() {
		it.draw()
	}
}

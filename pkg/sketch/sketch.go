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

// Package sketch provides a mergeable, fixed-width approximate-quantile
// store. It is a simplified DDSketch: latencies are bucketed on a
// log-linear scale so the relative error of any recovered quantile is
// bounded regardless of the magnitude of the underlying latency, and two
// sketches of equal shape can be combined with a single elementwise pass.
//
// A Sketch has no internal synchronization. Per the harness's ownership
// model, exactly one goroutine (a worker) calls Add during measurement;
// Merge and Quantile are only meant to be called after that goroutine has
// surrendered the sketch. Callers that need concurrent access must add
// their own locking.
package sketch

import (
	"errors"
	"fmt"
	"math"
)

// BinCount is the number of log-spaced buckets tracked per kind.
const BinCount = 2048

// Alpha is the target relative error of the quantile estimator.
const Alpha = 0.01

// Gamma and logGamma derive the log-linear bucket boundaries: bucket i
// covers the latency range [Gamma^(i-1), Gamma^i).
var (
	Gamma    = (1 + Alpha) / (1 - Alpha)
	logGamma = math.Log(Gamma)
)

// ErrProgrammingError reports an invariant violation: an out-of-range kind
// index, or any other usage that indicates a bug in the caller rather than
// a recoverable runtime condition.
var ErrProgrammingError = errors.New("sketch: programming error")

// ErrShapeMismatch reports an attempt to merge two sketches that were not
// constructed with the same number of kinds.
var ErrShapeMismatch = errors.New("sketch: shape mismatch")

// Sketch is a per-kind approximate-quantile store. All per-kind vectors
// (min, max, exec count, buckets) have length equal to the kinds the
// Sketch was constructed with.
type Sketch struct {
	kinds             int
	min               []int64
	max               []int64
	execCount         []int64
	buckets           [][BinCount]uint32
	totalExecCount    int64
	totalExecTimeNano int64
}

// New allocates a Sketch sized for the given number of operation kinds.
// Per-kind min is initialized to math.MaxInt64 and max to 0, the state of a
// kind with no samples yet; HasSamples itself reads the per-kind exec count.
func New(kinds int) *Sketch {
	s := &Sketch{
		kinds:     kinds,
		min:       make([]int64, kinds),
		max:       make([]int64, kinds),
		execCount: make([]int64, kinds),
		buckets:   make([][BinCount]uint32, kinds),
	}
	for i := range s.min {
		s.min[i] = math.MaxInt64
	}
	return s
}

// Kinds returns the number of operation kinds this sketch was sized for.
func (s *Sketch) Kinds() int { return s.kinds }

func (s *Sketch) checkKind(kind int) error {
	if kind < 0 || kind >= s.kinds {
		return fmt.Errorf("%w: kind %d out of range [0,%d)", ErrProgrammingError, kind, s.kinds)
	}
	return nil
}

// bin maps a latency in nanoseconds to a bucket index, clamped to
// [0, BinCount-1]. A latency of 0 always maps to bin 0.
func bin(latencyNano int64) int {
	if latencyNano <= 0 {
		return 0
	}
	i := int(math.Ceil(math.Log(float64(latencyNano)) / logGamma))
	if i < 0 {
		i = 0
	}
	if i > BinCount-1 {
		i = BinCount - 1
	}
	return i
}

// binMidpoint returns the representative value of bucket i: the midpoint
// of its log-linear value range, floor(2*Gamma^i / (Gamma+1)).
func binMidpoint(i int) int64 {
	return int64(2 * math.Pow(Gamma, float64(i)) / (Gamma + 1))
}

// Add records one timing sample of the given kind. count is the number of
// logical operations the timed call reported performing (folded into the
// throughput totals only); latencyNano is the elapsed wall time of the
// single timed call (folded into both the throughput totals and the
// quantile sketch).
func (s *Sketch) Add(kind int, count int64, latencyNano int64) error {
	if err := s.checkKind(kind); err != nil {
		return err
	}
	s.totalExecCount += count
	s.totalExecTimeNano += latencyNano

	if latencyNano < s.min[kind] {
		s.min[kind] = latencyNano
	}
	if latencyNano > s.max[kind] {
		s.max[kind] = latencyNano
	}
	s.buckets[kind][bin(latencyNano)]++
	s.execCount[kind]++
	return nil
}

// HasSamples reports whether any timing sample of the given kind has been
// recorded.
func (s *Sketch) HasSamples(kind int) bool {
	if err := s.checkKind(kind); err != nil {
		return false
	}
	return s.execCount[kind] > 0
}

// Quantile returns the approximate latency, in nanoseconds, below which a
// fraction q of the recorded samples of the given kind fall. q is clamped
// to [0,1] at the boundaries: q<=0 returns the exact minimum, q>=1 returns
// the exact maximum. If no samples of the kind have been recorded, Quantile
// returns 0.
func (s *Sketch) Quantile(kind int, q float64) (int64, error) {
	if err := s.checkKind(kind); err != nil {
		return 0, err
	}
	if s.execCount[kind] == 0 {
		return 0, nil
	}
	if q <= 0 {
		return s.min[kind], nil
	}
	if q >= 1 {
		return s.max[kind], nil
	}
	bound := int64(q * float64(s.execCount[kind]-1))
	var running int64
	buckets := &s.buckets[kind]
	for i := 0; i < BinCount; i++ {
		running += int64(buckets[i])
		if running > bound {
			return binMidpoint(i), nil
		}
	}
	return s.max[kind], nil
}

// TotalExecCount returns the sum of the count argument across every Add
// call, across all kinds. This is the throughput numerator.
func (s *Sketch) TotalExecCount() int64 { return s.totalExecCount }

// TotalExecTimeNano returns the sum of elapsed nanoseconds across every Add
// call, across all kinds. This feeds the throughput denominator.
func (s *Sketch) TotalExecTimeNano() int64 { return s.totalExecTimeNano }

// Merge folds other into s: per-kind exec counts, buckets, mins and maxes
// are combined, and the two scalar totals are summed. s and other must
// have been constructed with the same number of kinds, or Merge returns
// ErrShapeMismatch and leaves s unmodified.
func (s *Sketch) Merge(other *Sketch) error {
	if other == nil {
		return nil
	}
	if s.kinds != other.kinds {
		return fmt.Errorf("%w: %d kinds vs %d kinds", ErrShapeMismatch, s.kinds, other.kinds)
	}
	s.totalExecCount += other.totalExecCount
	s.totalExecTimeNano += other.totalExecTimeNano
	for k := 0; k < s.kinds; k++ {
		if other.min[k] < s.min[k] {
			s.min[k] = other.min[k]
		}
		if other.max[k] > s.max[k] {
			s.max[k] = other.max[k]
		}
		s.execCount[k] += other.execCount[k]
		for i := 0; i < BinCount; i++ {
			s.buckets[k][i] += other.buckets[k][i]
		}
	}
	return nil
}

// String renders a compact per-kind summary (count, min, max in
// nanoseconds) for diagnostics and test failure messages.
func (s *Sketch) String() string {
	out := fmt.Sprintf("Sketch{kinds=%d totalExecCount=%d totalExecTimeNano=%d", s.kinds, s.totalExecCount, s.totalExecTimeNano)
	for k := 0; k < s.kinds; k++ {
		if !s.HasSamples(k) {
			continue
		}
		out += fmt.Sprintf(" kind[%d]{n=%d min=%d max=%d}", k, s.execCount[k], s.min[k], s.max[k])
	}
	return out + "}"
}

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

import "time"

// StopWatch is the abstract high-resolution timer the measurement loop
// drives. The harness never assumes a particular clock source; callers that
// need a mocked, constant-latency clock for testing provide their own
// implementation via the WithStopWatchFactory RunnerOption.
type StopWatch interface {
	// Start marks the beginning of a timed interval.
	Start()
	// Stop returns the elapsed nanoseconds since the matching Start.
	Stop() int64
}

// wallStopWatch is the default StopWatch, backed by the monotonic clock
// exposed through the standard library's time package.
type wallStopWatch struct {
	start time.Time
}

func newWallStopWatch() *wallStopWatch { return &wallStopWatch{} }

func (w *wallStopWatch) Start() { w.start = time.Now() }

func (w *wallStopWatch) Stop() int64 { return time.Since(w.start).Nanoseconds() }

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
	"errors"
	"fmt"
)

// ErrProgrammingError reports an invariant violation in the harness itself:
// double-moving a worker's sketch, or any other usage bug. There is no
// recovery; the caller should fix the bug.
var ErrProgrammingError = errors.New("bench: programming error")

// ErrConfiguration reports a bad CLI or Config value caught before Run is
// called: zero thread count, a malformed percentile list, and the like.
var ErrConfiguration = errors.New("bench: configuration error")

// WorkerFault reports that a worker goroutine terminated abnormally (a
// panic recovered at the goroutine boundary). The Runner stops every other
// worker cooperatively and surfaces the first fault it observes; Timeout is
// not a WorkerFault, it is normal termination.
type WorkerFault struct {
	ThreadID int
	Cause    any
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("bench: worker %d faulted: %v", f.ThreadID, f.Cause)
}

// Unwrap lets errors.Is/As see through to Cause when it is itself an error,
// e.g. a panic value produced by panic(err).
func (f *WorkerFault) Unwrap() error {
	if err, ok := f.Cause.(error); ok {
		return err
	}
	return nil
}

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
	"io"

	"github.com/dbgroup-nagoya-u/gobench/pkg/sketch"
)

// Throughput computes operations per second from an aggregated sketch:
// exec_count / ((total_exec_time_nano / thread_count) / 1e9). Dividing by
// thread_count first averages per-worker elapsed time so the denominator
// behaves like a wall-clock duration. When worker elapsed times differ
// widely (one worker exhausts its iterator early while another runs to the
// timeout), the averaged denominator is shorter than the run's wall-clock
// span and the reported rate is correspondingly higher. Returns 0 if there
// is no elapsed time to divide by (e.g. an empty operation iterator, or a run that ended
// before any sample was recorded).
func Throughput(sk *sketch.Sketch, threadCount int) float64 {
	totalNano := sk.TotalExecTimeNano()
	if totalNano <= 0 || threadCount <= 0 {
		return 0
	}
	seconds := (float64(totalNano) / float64(threadCount)) / 1e9
	if seconds <= 0 {
		return 0
	}
	return float64(sk.TotalExecCount()) / seconds
}

// WriteThroughput writes the throughput report in the configured format.
func WriteThroughput(w io.Writer, sk *sketch.Sketch, threadCount int, csv bool) error {
	rate := Throughput(sk, threadCount)
	if csv {
		_, err := fmt.Fprintf(w, "%g\n", rate)
		return err
	}
	_, err := fmt.Fprintf(w, "Throughput [OPS/s]: %g\n", rate)
	return err
}

// WriteLatency writes the percentile latency report in the configured
// format, for every kind that has recorded samples.
func WriteLatency(w io.Writer, sk *sketch.Sketch, percentiles []float64, csv bool) error {
	if csv {
		for id := 0; id < sk.Kinds(); id++ {
			if !sk.HasSamples(id) {
				continue
			}
			for _, q := range percentiles {
				ns, err := sk.Quantile(id, q)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "%d,%g,%d\n", id, q, ns); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if _, err := fmt.Fprintln(w, "Percentile Latency [ns]:"); err != nil {
		return err
	}
	for id := 0; id < sk.Kinds(); id++ {
		if !sk.HasSamples(id) {
			continue
		}
		if _, err := fmt.Fprintf(w, " OPS ID %d:\n", id); err != nil {
			return err
		}
		for _, q := range percentiles {
			ns, err := sk.Quantile(id, q)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "  %5.2f:  %12d\n", q*100, ns); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteResult writes either the throughput or the latency report depending
// on measureThroughput, in the format selected by csv.
func WriteResult(w io.Writer, sk *sketch.Sketch, threadCount int, percentiles []float64, measureThroughput, csv bool) error {
	if measureThroughput {
		return WriteThroughput(w, sk, threadCount, csv)
	}
	return WriteLatency(w, sk, percentiles, csv)
}

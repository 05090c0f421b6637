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

// Package observe provides opt-in, low-overhead telemetry for a running
// benchmark: the current run-state, the worker-ready count, the completed
// operation count, and the most recently computed throughput. It is
// designed to be safe to call whether or not metrics export is enabled —
// when disabled, Enable is simply never called and every Observer method
// still runs (the cost is a handful of atomic/Prometheus metric updates
// from the Runner's controller goroutine, never from worker hot paths).
//
// This is adapted from the teacher's in-process churn telemetry
// (internal/ratelimiter/telemetry/churn): same opt-in HTTP-endpoint shape,
// same instruction not to touch hot paths, regrounded on the Runner's
// Idle -> Spawning -> Preparing -> Running -> Draining -> Reporting state
// machine instead of rate-limiter admit/reject counters.
package observe

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	opsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bench_ops_total",
		Help: "Total logical operations completed across all workers in the current/last run.",
	})
	workersReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bench_workers_ready",
		Help: "Number of workers that have completed setup and are spinning on the release barrier.",
	})
	runState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bench_run_state",
		Help: "1 for the Runner's current state, 0 otherwise; labeled by state name.",
	}, []string{"state"})
	lastThroughput = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bench_last_throughput_ops_per_sec",
		Help: "Throughput computed for the most recently completed run, in ops/sec.",
	})
)

func init() {
	prometheus.MustRegister(opsTotal, workersReady, runState, lastThroughput)
}

// States the Runner reports through SetState, matching spec.md §4.3's
// Runner state machine.
const (
	StateIdle      = "idle"
	StateSpawning  = "spawning"
	StatePreparing = "preparing"
	StateRunning   = "running"
	StateDraining  = "draining"
	StateReporting = "reporting"
)

var allStates = []string{StateIdle, StateSpawning, StatePreparing, StateRunning, StateDraining, StateReporting}

// Observer collects the gauges/counters above. A zero-value Observer is
// usable and inert; call Enable to also serve them over HTTP.
type Observer struct {
	enabled atomic.Bool
	server  *http.Server
}

// New returns a disabled Observer. Its Set*/Add* methods are always safe to
// call; they simply won't be scraped until Enable is called.
func New() *Observer {
	return &Observer{}
}

// Enable starts a dedicated HTTP server exposing /metrics on addr. Safe to
// call at most once per Observer; a second call returns an error.
func (o *Observer) Enable(addr string) error {
	if !o.enabled.CompareAndSwap(false, true) {
		return fmt.Errorf("observe: Observer already enabled")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	o.server = &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- o.server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("observe: starting metrics server on %s: %w", addr, err)
		}
	default:
	}
	return nil
}

// Shutdown stops the metrics HTTP server, if one was started.
func (o *Observer) Shutdown(ctx context.Context) error {
	if o.server == nil {
		return nil
	}
	return o.server.Shutdown(ctx)
}

// SetState records the Runner's current state for the bench_run_state
// gauge vector: the named state is set to 1, every other known state to 0.
func (o *Observer) SetState(state string) {
	for _, s := range allStates {
		if s == state {
			runState.WithLabelValues(s).Set(1)
		} else {
			runState.WithLabelValues(s).Set(0)
		}
	}
}

// AddOps increments the completed-operations counter by n.
func (o *Observer) AddOps(n int64) {
	if n > 0 {
		opsTotal.Add(float64(n))
	}
}

// SetWorkersReady records how many workers have reached the release
// barrier.
func (o *Observer) SetWorkersReady(n int64) {
	workersReady.Set(float64(n))
}

// SetLastThroughput records the most recently computed throughput.
func (o *Observer) SetLastThroughput(opsPerSec float64) {
	lastThroughput.Set(opsPerSec)
}

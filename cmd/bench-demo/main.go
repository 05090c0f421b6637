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

// Package main provides the entry point for the benchmark harness demo.
//
// This application is a concrete, runnable demonstration of pkg/bench: it
// drives one of four counter implementations (a mutex-guarded counter, a
// single atomic.Int64, a mutex-guarded VSA, or a StripedVSA) with a uniform-random mix of
// increment and read operations, and prints the resulting throughput or
// percentile latency report. It exists to prove the harness end-to-end; the
// counters themselves live under internal/demo so nothing outside main can
// import them as if they were library API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dbgroup-nagoya-u/gobench/cmd/bench-demo/internal/demo"
	"github.com/dbgroup-nagoya-u/gobench/internal/observe"
	"github.com/dbgroup-nagoya-u/gobench/pkg/bench"
)

func main() {
	threadNum := flag.Int("thread_num", 4, "Worker thread count; must be >= 1")
	randomSeed := flag.String("random_seed", "", "Base random seed; empty means seed from OS entropy")
	measureThroughput := flag.Bool("throughput", true, "If true, print throughput; else print percentile latency")
	csv := flag.Bool("csv", false, "If true, emit machine-parseable output; else human-readable")
	timeoutSeconds := flag.Float64("timeout", 1.0, "Seconds until cancellation")
	targetLatency := flag.String("target_latency", "", "Comma-separated list of quantiles in [0,1]; empty uses the default list")
	skewParameter := flag.Float64("skew_parameter", 0.0, "Read-fraction skew passed to the demo operation engine; must be >= 0")
	target := flag.String("target", "atomic", "Demo target to benchmark: mutex, atomic, vsa, or striped")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address")
	flag.Parse()

	logger := log.New(os.Stderr, "bench-demo: ", log.LstdFlags)

	seed, err := bench.ParseRandomSeed(*randomSeed)
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	percentiles, err := bench.ParsePercentiles(*targetLatency)
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	if err := bench.ValidateSkewParameter(*skewParameter); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	cfg := bench.Config{
		ThreadCount:       *threadNum,
		MeasureThroughput: *measureThroughput,
		OutputCSV:         *csv,
		Timeout:           time.Duration(*timeoutSeconds * float64(time.Second)),
		RandomSeed:        seed,
		TargetPercentiles: percentiles,
	}

	var demoTarget bench.Target[demo.Kind, demo.Op]
	switch *target {
	case "mutex":
		demoTarget = &demo.MutexCounter{}
	case "atomic":
		demoTarget = &demo.AtomicCounter{}
	case "vsa":
		demoTarget = demo.NewMutexVSACounter()
	case "striped":
		demoTarget = demo.NewStripedVSACounter()
	default:
		logger.Fatalf("configuration error: unknown -target %q (want mutex, atomic, vsa, or striped)", *target)
	}

	engine := &demo.UniformEngine{ReadFraction: *skewParameter / (1 + *skewParameter)}

	observer := observe.New()
	if *metricsAddr != "" {
		if err := observer.Enable(*metricsAddr); err != nil {
			logger.Fatalf("starting metrics server: %v", err)
		}
		logger.Printf("metrics listening on %s", *metricsAddr)
	}

	runner, err := bench.NewRunner[demo.Kind, demo.Op](cfg, demoTarget, engine, bench.WithObserver[demo.Kind, demo.Op](observer))
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Print("received shutdown signal, cancelling run")
		cancel()
	}()
	defer signal.Stop(sigCh)

	logger.Printf("starting run: threads=%d target=%s timeout=%s", *threadNum, *target, cfg.Timeout)
	sk, err := runner.Run(ctx)
	cancel()
	if err != nil {
		logger.Fatalf("run failed: %v", err)
	}

	if err := bench.WriteResult(os.Stdout, sk, *threadNum, percentiles, *measureThroughput, *csv); err != nil {
		logger.Fatalf("writing result: %v", err)
	}
	fmt.Fprintln(os.Stderr, sk.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := observer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("metrics server shutdown: %v", err)
	}
}

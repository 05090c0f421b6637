package bench

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestClock() func() StopWatch {
	return func() StopWatch { return &constantStopWatch{nanos: 100} }
}

func TestRunnerSingleThreadedConstantLatency(t *testing.T) {
	target := &countingTarget{}
	engine := &fixedEngine{opsPerWorker: 1000}
	cfg := Config{ThreadCount: 1, Timeout: time.Second}

	r, err := NewRunner[testKind, testOp](cfg, target, engine, WithStopWatchFactory[testKind, testOp](newTestClock()))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	sk, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sk.TotalExecCount(); got != 1000 {
		t.Errorf("TotalExecCount = %d, want 1000", got)
	}
	if got := sk.TotalExecTimeNano(); got != 100000 {
		t.Errorf("TotalExecTimeNano = %d, want 100000", got)
	}
	ns, err := sk.Quantile(int(kindRead), 0.5)
	if err != nil {
		t.Fatalf("Quantile: %v", err)
	}
	if ns != 100 {
		t.Errorf("median = %d, want 100", ns)
	}
	if got := Throughput(sk, 1); got != 1e7 {
		t.Errorf("Throughput = %v, want 1e7", got)
	}
}

func TestRunnerMergesAcrossWorkers(t *testing.T) {
	target := &countingTarget{}
	engine := &fixedEngine{opsPerWorker: 500}
	cfg := Config{ThreadCount: 4, Timeout: time.Second}

	r, err := NewRunner[testKind, testOp](cfg, target, engine, WithStopWatchFactory[testKind, testOp](newTestClock()))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	sk, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sk.TotalExecCount(); got != 2000 {
		t.Errorf("TotalExecCount = %d, want 2000 (4 workers x 500 ops)", got)
	}
	if got := sk.TotalExecTimeNano(); got != 200000 {
		t.Errorf("TotalExecTimeNano = %d, want 200000", got)
	}
	if target.setups.Load() != 4 || target.teardowns.Load() != 4 {
		t.Errorf("expected 4 setups and 4 teardowns, got setups=%d teardowns=%d",
			target.setups.Load(), target.teardowns.Load())
	}
}

func TestRunnerTimeoutReturnsPartialSketchWithoutError(t *testing.T) {
	target := &countingTarget{}
	engine := &infiniteEngine{}
	cfg := Config{ThreadCount: 2, Timeout: 20 * time.Millisecond}

	r, err := NewRunner[testKind, testOp](cfg, target, engine)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	start := time.Now()
	sk, err := r.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run: %v, want nil error on timeout", err)
	}
	if sk.TotalExecCount() <= 0 {
		t.Error("expected at least one recorded sample before timeout")
	}
	if elapsed > 2*time.Second {
		t.Errorf("Run took %s, expected to stop near the 20ms timeout", elapsed)
	}
}

func TestRunnerContextCancellationStopsEarly(t *testing.T) {
	target := &countingTarget{}
	engine := &infiniteEngine{}
	cfg := Config{ThreadCount: 2, Timeout: 10 * time.Second}

	r, err := NewRunner[testKind, testOp](cfg, target, engine)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	sk, err := r.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run: %v, want nil error on ctx cancellation", err)
	}
	if sk.TotalExecCount() <= 0 {
		t.Error("expected at least one recorded sample before cancellation")
	}
	if elapsed > 2*time.Second {
		t.Errorf("Run took %s, expected to stop near the ctx deadline", elapsed)
	}
}

func TestRunnerWorkerPanicSurfacesAsWorkerFault(t *testing.T) {
	target := &panicTarget{}
	engine := &fixedEngine{opsPerWorker: 10}
	cfg := Config{ThreadCount: 1, Timeout: time.Second}

	r, err := NewRunner[testKind, testOp](cfg, target, engine)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	_, err = r.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error from a panicking target")
	}
	var fault *WorkerFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected *WorkerFault, got %v (%T)", err, err)
	}
	if !strings.Contains(fault.Error(), "boom") {
		t.Errorf("WorkerFault.Error() = %q, want it to mention the panic value", fault.Error())
	}
}

func TestRunnerWorkerFaultAbortsSiblingsPromptly(t *testing.T) {
	target := &panicOnceTarget{}
	engine := &infiniteEngine{}
	cfg := Config{ThreadCount: 4, Timeout: 10 * time.Second}

	r, err := NewRunner[testKind, testOp](cfg, target, engine)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	start := time.Now()
	_, err = r.Run(context.Background())
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected an error from a panicking worker")
	}
	var fault *WorkerFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected *WorkerFault, got %v (%T)", err, err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Run took %s to abort on a worker fault, want near-immediate with a 10s timeout untouched", elapsed)
	}
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	target := &countingTarget{}
	engine := &fixedEngine{opsPerWorker: 1}
	cfg := Config{ThreadCount: 0, Timeout: time.Second}

	_, err := NewRunner[testKind, testOp](cfg, target, engine)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

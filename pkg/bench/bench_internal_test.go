package bench

import "sync/atomic"

// Fixtures shared by worker_test.go and runner_test.go.

type testKind int

const (
	kindRead testKind = iota
	kindWrite
	testTotalKinds
)

type testOp struct{}

// fixedIterator yields n pairs of (kind, testOp{}), all of the same kind,
// and is then exhausted.
type fixedIterator struct {
	kind testKind
	n    int
	i    int
}

func (it *fixedIterator) HasMore() bool           { return it.i < it.n }
func (it *fixedIterator) Current() (testKind, testOp) { return it.kind, testOp{} }
func (it *fixedIterator) Advance()                { it.i++ }

// infiniteIterator never exhausts; it only stops via the cancellation flag
// the worker checks, used to exercise the timeout path.
type infiniteIterator struct{ kind testKind }

func (it *infiniteIterator) HasMore() bool               { return true }
func (it *infiniteIterator) Current() (testKind, testOp) { return it.kind, testOp{} }
func (it *infiniteIterator) Advance()                    {}

// fixedEngine hands every worker the same fixed operation count.
type fixedEngine struct{ opsPerWorker int }

func (e *fixedEngine) TotalKinds() int { return int(testTotalKinds) }
func (e *fixedEngine) GetIter(threadID int, seed uint64) OperationIterator[testKind, testOp] {
	return &fixedIterator{kind: kindRead, n: e.opsPerWorker}
}

// mixedKindEngine splits ops between kindRead and kindWrite for a single
// worker, matching spec.md §8 scenario 3.
type mixedKindIterator struct {
	reads, writes int
	i             int
}

func (it *mixedKindIterator) HasMore() bool { return it.i < it.reads+it.writes }
func (it *mixedKindIterator) Current() (testKind, testOp) {
	if it.i < it.reads {
		return kindRead, testOp{}
	}
	return kindWrite, testOp{}
}
func (it *mixedKindIterator) Advance() { it.i++ }

type mixedKindEngine struct{ reads, writes int }

func (e *mixedKindEngine) TotalKinds() int { return int(testTotalKinds) }
func (e *mixedKindEngine) GetIter(threadID int, seed uint64) OperationIterator[testKind, testOp] {
	return &mixedKindIterator{reads: e.reads, writes: e.writes}
}

// infiniteEngine hands every worker a never-exhausting iterator.
type infiniteEngine struct{}

func (e *infiniteEngine) TotalKinds() int { return int(testTotalKinds) }
func (e *infiniteEngine) GetIter(threadID int, seed uint64) OperationIterator[testKind, testOp] {
	return &infiniteIterator{kind: kindRead}
}

// countingTarget counts Execute calls; each call reports 1 logical op.
type countingTarget struct {
	setups, teardowns atomic.Int64
	executes          atomic.Int64
}

func (t *countingTarget) SetupForWorker()    { t.setups.Add(1) }
func (t *countingTarget) TeardownForWorker() { t.teardowns.Add(1) }
func (t *countingTarget) PreProcess()        {}
func (t *countingTarget) PostProcess()       {}
func (t *countingTarget) Execute(kind testKind, op testOp) uint64 {
	t.executes.Add(1)
	return 1
}

// panicTarget panics on every Execute call, to exercise WorkerFault.
type panicTarget struct{}

func (t *panicTarget) SetupForWorker()    {}
func (t *panicTarget) TeardownForWorker() {}
func (t *panicTarget) PreProcess()        {}
func (t *panicTarget) PostProcess()       {}
func (t *panicTarget) Execute(kind testKind, op testOp) uint64 {
	panic("boom")
}

// panicOnceTarget panics on exactly one Execute call, whichever worker gets
// to it first, and behaves like countingTarget afterward. Used to exercise
// Runner aborting the remaining workers promptly on a single worker fault.
type panicOnceTarget struct {
	fired    atomic.Bool
	executes atomic.Int64
}

func (t *panicOnceTarget) SetupForWorker()    {}
func (t *panicOnceTarget) TeardownForWorker() {}
func (t *panicOnceTarget) PreProcess()        {}
func (t *panicOnceTarget) PostProcess()       {}
func (t *panicOnceTarget) Execute(kind testKind, op testOp) uint64 {
	if !t.fired.Swap(true) {
		panic("boom-once")
	}
	t.executes.Add(1)
	return 1
}

// constantStopWatch always reports a fixed elapsed duration, regardless of
// how much real time passed between Start and Stop. This lets tests assert
// exact quantile values instead of tolerating scheduler jitter.
type constantStopWatch struct{ nanos int64 }

func (c *constantStopWatch) Start()    {}
func (c *constantStopWatch) Stop() int64 { return c.nanos }

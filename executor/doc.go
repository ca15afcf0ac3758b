// Package executor is the asynchronous runtime that nativesvc bridges
// blocking callers onto.
//
// An Executor owns a root context and runs every task on its own goroutine
// under a bounded number of concurrent slots. Work submitted with Submit
// yields a Future; BlockOn parks the calling goroutine until that future
// resolves. Fire-and-forget work goes through Spawn, whose failures are
// reported to Config.OnTaskError or logged. Go is Spawn without a slot,
// for stream pumps that slot-holding tasks may be waiting on.
//
//	exec, err := executor.New(executor.Config{Name: "bridge"})
//	defer exec.Close(ctx)
//
//	fut := executor.Submit(exec, func(ctx context.Context) (int, error) {
//	    return compute(ctx)
//	})
//	n, err := executor.BlockOn(ctx, exec, fut)
package executor

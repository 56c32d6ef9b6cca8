package engine

import "context"

// Op is one backend write. Run performs the call; Done receives its result
// and must be invoked on the goroutine that owns the Engine.
type Op struct {
	Name string
	ID   string
	Run  func(ctx context.Context) error
	Done func(err error)
}

// Executor schedules backend writes. The engine does not wait for them; local
// state has already changed when Go is called.
type Executor interface {
	Go(op Op)
}

// SyncExecutor runs each Op to completion inside Go. It suits the CLI and
// tests, where the caller is the only goroutine.
type SyncExecutor struct {
	ctx context.Context
}

// NewSyncExecutor returns a SyncExecutor using ctx for every call.
func NewSyncExecutor(ctx context.Context) *SyncExecutor {
	return &SyncExecutor{ctx: ctx}
}

// Go implements Executor.
func (s *SyncExecutor) Go(op Op) {
	err := op.Run(s.ctx)
	if op.Done != nil {
		op.Done(err)
	}
}

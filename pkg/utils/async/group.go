package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/m-mizutani/ctxlog"
)

// Group runs handlers concurrently with a bounded degree of parallelism
//
// Behavior:
//   - Executes each handler in its own goroutine, at most limit at a time
//   - Recovers from panics and logs them with the stack
//   - Logs errors returned by handlers; result collection is the caller's
//     responsibility (handlers typically write into their own slot)
type Group struct {
	wg  sync.WaitGroup
	sem chan struct{}
}

// NewGroup creates a Group allowing up to limit concurrent handlers.
// A limit below 1 is treated as 1.
func NewGroup(limit int) *Group {
	if limit < 1 {
		limit = 1
	}
	return &Group{sem: make(chan struct{}, limit)}
}

// Go schedules a handler on the group. It blocks while the group is at
// its concurrency limit.
func (g *Group) Go(ctx context.Context, handler func(ctx context.Context) error) {
	g.sem <- struct{}{}
	g.wg.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				ctxlog.From(ctx).Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
			}
			<-g.sem
			g.wg.Done()
		}()

		if err := handler(ctx); err != nil {
			ctxlog.From(ctx).Error("error in async handler", "error", err)
		}
	}()
}

// Wait blocks until every scheduled handler has finished
func (g *Group) Wait() {
	g.wg.Wait()
}

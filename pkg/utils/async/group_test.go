package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"

	"github.com/remix-community/remixget/pkg/utils/async"
)

// safeBuffer is a thread-safe buffer for concurrent logging
type safeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.Write(p)
}

func (sb *safeBuffer) String() string {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.String()
}

func loggedContext(buf *safeBuffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return ctxlog.With(context.Background(), logger)
}

func TestGroup_RunsAllHandlers(t *testing.T) {
	ctx := context.Background()
	group := async.NewGroup(2)

	var count atomic.Int32
	for range 5 {
		group.Go(ctx, func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}
	group.Wait()

	gt.Equal(t, count.Load(), int32(5))
}

func TestGroup_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	group := async.NewGroup(2)

	var active, peak atomic.Int32
	for range 6 {
		group.Go(ctx, func(ctx context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		})
	}
	group.Wait()

	gt.True(t, peak.Load() <= 2)
}

func TestGroup_RecoversPanic(t *testing.T) {
	var buf safeBuffer
	ctx := loggedContext(&buf)

	group := async.NewGroup(1)
	group.Go(ctx, func(ctx context.Context) error {
		panic("handler exploded")
	})
	group.Wait()

	// Wait must return despite the panic, and the panic must be logged
	// with its stack
	out := buf.String()
	gt.True(t, strings.Contains(out, "panic in async handler"))
	gt.True(t, strings.Contains(out, "handler exploded"))
	gt.True(t, strings.Contains(out, "goroutine"))
}

func TestGroup_LogsHandlerError(t *testing.T) {
	var buf safeBuffer
	ctx := loggedContext(&buf)

	group := async.NewGroup(1)
	group.Go(ctx, func(ctx context.Context) error {
		return errors.New("handler failure")
	})
	group.Wait()

	out := buf.String()
	gt.True(t, strings.Contains(out, "error in async handler"))
	gt.True(t, strings.Contains(out, "handler failure"))
}

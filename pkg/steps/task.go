package steps

import (
	"context"
	"time"

	"github.com/go-go-golems/palaver/pkg/helpers"
)

// EmitFunc sends an intermediate value to the consumer of a running task.
// It returns false once the task has been cancelled.
type EmitFunc[T any] func(v T) bool

// Go runs f in its own goroutine and exposes it as a StepResult. Every value emitted by f
// is forwarded on the channel. A non-nil error returned by f is always sent as the final
// result, also after cancellation. The channel is closed when f returns.
func Go[T any](ctx context.Context, metadata *StepMetadata, f func(ctx context.Context, emit EmitFunc[T]) error) *StepResultImpl[T] {
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan helpers.Result[T], 1)
	ret := NewStepResult[T](c, WithCancel[T](cancel), WithMetadata[T](metadata))

	emit := func(v T) bool {
		select {
		case c <- helpers.NewValueResult[T](v):
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(c)
		defer cancel()

		err := f(ctx, emit)
		if err == nil {
			return
		}
		res := helpers.NewErrorResult[T](err)
		select {
		case c <- res:
		case <-ctx.Done():
			// an unread value gives way to the error if nobody reads anymore
			select {
			case c <- res:
			default:
				select {
				case <-c:
				default:
				}
				c <- res
			}
		}
	}()

	return ret
}

// After resolves to the value of f once d has elapsed. Cancelling the result before the
// deadline rejects it with the context error and f is never called.
func After[T any](ctx context.Context, d time.Duration, metadata *StepMetadata, f func(ctx context.Context) (T, error)) *StepResultImpl[T] {
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan helpers.Result[T], 1)
	ret := NewStepResult[T](c, WithCancel[T](cancel), WithMetadata[T](metadata))

	go func() {
		defer close(c)
		defer cancel()

		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			c <- helpers.NewErrorResult[T](ctx.Err())
		case <-t.C:
			c <- helpers.NewResult[T](f(ctx))
		}
	}()

	return ret
}

package copilot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/copilot/pkg/prompt"
	"github.com/google/uuid"
)

// Completer produces one completion for a prompt. *Copilot implements it.
type Completer interface {
	Complete(ctx context.Context, p prompt.Prompt) (string, bool, error)
}

var _ Completer = (*Copilot)(nil)

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, p prompt.Prompt) (string, bool, error)

// Complete calls the underlying function.
func (f CompleterFunc) Complete(ctx context.Context, p prompt.Prompt) (string, bool, error) {
	return f(ctx, p)
}

// Middleware wraps a Completer, returning a new Completer with added behaviour.
type Middleware func(next Completer) Completer

// Chain wraps c with mws. The first middleware is the outermost.
func Chain(c Completer, mws ...Middleware) Completer {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// --- Timeout middleware ---

// Timeout returns a Middleware that bounds each call with a deadline. A
// non-positive d leaves the context untouched.
func Timeout(d time.Duration) Middleware {
	return func(next Completer) Completer {
		if d <= 0 {
			return next
		}

		return CompleterFunc(func(ctx context.Context, p prompt.Prompt) (string, bool, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Complete(ctx, p)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next Completer) Completer {
		return CompleterFunc(func(ctx context.Context, p prompt.Prompt) (text string, ok bool, err error) {
			defer func() {
				if r := recover(); r != nil {
					text, ok = "", false
					err = fmt.Errorf("copilot: completion panicked: %v", r)
				}
			}()

			return next.Complete(ctx, p)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs each call's outcome and duration
// under a fresh request id. backend labels the entries, typically
// Copilot.String(). Prompt and completion text are never logged.
func Logger(log *slog.Logger, backend string) Middleware {
	return func(next Completer) Completer {
		return CompleterFunc(func(ctx context.Context, p prompt.Prompt) (string, bool, error) {
			reqID := uuid.NewString()

			log.DebugContext(ctx, "completion started",
				"backend", backend,
				"request_id", reqID,
				"system_len", len(p.System),
				"user_len", len(p.User),
			)

			start := time.Now()

			text, ok, err := next.Complete(ctx, p)

			duration := time.Since(start)

			switch {
			case err != nil:
				log.ErrorContext(ctx, "completion failed",
					"backend", backend,
					"request_id", reqID,
					"duration", duration,
					"error", err,
				)
			case !ok:
				log.WarnContext(ctx, "completion empty",
					"backend", backend,
					"request_id", reqID,
					"duration", duration,
				)
			default:
				log.InfoContext(ctx, "completion finished",
					"backend", backend,
					"request_id", reqID,
					"duration", duration,
					"completion_len", len(text),
				)
			}

			return text, ok, err
		})
	}
}

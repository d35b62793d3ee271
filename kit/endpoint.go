// CLAUDE:SUMMARY Endpoint abstraction and middleware chaining for transport-agnostic tool handlers.
// Package kit provides the endpoint abstraction shared by every transport:
// a handler is an Endpoint, cross-cutting behavior is Middleware, and a
// transport (MCP, CLI) adapts requests onto endpoints.
package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is a single request/response interaction.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left to right: the first argument is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging records each call's duration and outcome, tagged with the
// transport identity the serving layer attached to the context.
func Logging(log *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{"endpoint", name, "transport", GetTransport(ctx), "duration", time.Since(start)}
			if sid := GetSessionID(ctx); sid != "" {
				attrs = append(attrs, "session", sid)
			}
			if addr := GetRemoteAddr(ctx); addr != "" {
				attrs = append(attrs, "remote", addr)
			}
			if err != nil {
				log.Warn("endpoint failed", append(attrs, "error", err)...)
			} else {
				log.Debug("endpoint served", attrs...)
			}
			return resp, err
		}
	}
}

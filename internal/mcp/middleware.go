package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware returns middleware that logs every incoming method call
// with its duration. Failures log at error level with the cause.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start).Milliseconds()

			if err != nil {
				slog.ErrorContext(ctx, "method call failed",
					"method", method, "duration_ms", elapsed, "error", err)
				return result, err
			}
			slog.InfoContext(ctx, "method call completed",
				"method", method, "duration_ms", elapsed)
			return result, nil
		}
	}
}

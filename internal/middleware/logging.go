package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// callerKey holds the *caller a logging interceptor reads after the call.
type callerKey struct{}

// caller records the identity an inner auth interceptor resolved.
type caller struct {
	userID string
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call,
// including calls an inner auth interceptor rejects.
// Client errors (connect codes other than Internal/Unknown) log at warn.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			c := &caller{userID: GetUserID(ctx)}
			resp, err := next(context.WithValue(ctx, callerKey{}, c), req)

			attrs := []any{
				"procedure", procedure,
				"user_id", c.userID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				logger.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeUnknown {
				logger.WarnContext(ctx, "RPC error",
					append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())...)
			} else {
				logger.ErrorContext(ctx, "RPC error",
					append(attrs, "code", connect.CodeOf(err).String(), "error", err)...)
			}
			return resp, err
		}
	}
}

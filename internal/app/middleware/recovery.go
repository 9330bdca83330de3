package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"pr-reviewer/internal/domain"
)

// Recovery is a middleware that recovers from panics and answers with a
// SERVER_ERROR envelope.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error("panic recovered",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()),
					)

					WriteErrorResponse(w, fmt.Errorf("%w: panic: %v", domain.ErrInternal, rec), logger)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

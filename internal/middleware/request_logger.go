package middleware

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/internal/metrics"
	"github.com/fastygo/todomore/pkg/httpcontext"
)

// RequestLogger logs every request and records it in m. The route template
// is used as the path label when the router saved it.
func RequestLogger(m *metrics.Metrics, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			reqID := httpcontext.RequestID(ctx)

			next(ctx)

			elapsed := time.Since(start)
			path, _ := ctx.UserValue(router.MatchedRoutePathParam).(string)
			if path == "" {
				path = "unmatched"
			}
			method := string(ctx.Method())
			status := ctx.Response.StatusCode()

			m.ObserveRequest(method, path, status, elapsed)
			logger.Info("http_request",
				zap.String("request_id", reqID),
				zap.String("method", method),
				zap.ByteString("uri", ctx.RequestURI()),
				zap.String("route", path),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
				zap.String("client_ip", ctx.RemoteIP().String()),
			)
		}
	}
}

// Recovery turns a handler panic into a 500 response.
func Recovery(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic_recovered",
						zap.String("request_id", httpcontext.RequestID(ctx)),
						zap.Any("panic", r),
						zap.Stack("stack"))
					writeError(ctx, fasthttp.StatusInternalServerError, string(domain.ErrCodeInternal), "internal server error")
				}
			}()
			next(ctx)
		}
	}
}

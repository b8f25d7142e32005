package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/api/transport"
	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/pkg/httpcontext"
	appLogger "github.com/fastygo/todomore/pkg/logger"
	"github.com/fastygo/todomore/repository"
)

const defaultLimit = 50

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if status == http.StatusNoContent {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	h.respondPartial(ctx, err, nil)
}

// respondPartial reports err while still returning what was persisted.
func (h baseHandler) respondPartial(ctx *fasthttp.RequestCtx, err error, data interface{}) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		reqCtx := appLogger.ContextWithRequestID(context.Background(), httpcontext.RequestID(ctx))
		appLogger.WithRequestID(reqCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), data))
}

// userID returns the authenticated subject, answering 401 when there is none.
func (h baseHandler) userID(ctx *fasthttp.RequestCtx) string {
	userID := httpcontext.UserID(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
	}
	return userID
}

// decode unmarshals and validates the request body into dst, answering 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err))
		return false
	}
	if err := transport.Validate(dst); err != nil {
		h.respondError(ctx, err)
		return false
	}
	return true
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func pagination(ctx *fasthttp.RequestCtx) (int, int) {
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}
	offset := parseInt(string(ctx.QueryArgs().Peek("offset")), 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

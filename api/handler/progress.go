package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/pkg/httpcontext"
	dashboardUC "github.com/fastygo/todomore/usecase/dashboard"
	streakUC "github.com/fastygo/todomore/usecase/streak"
)

// ProgressHandler serves the read-only derived views: streak and dashboard.
type ProgressHandler struct {
	baseHandler
	streaks   *streakUC.UseCase
	dashboard *dashboardUC.UseCase
}

func NewProgressHandler(streaks *streakUC.UseCase, dashboard *dashboardUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		baseHandler: newBaseHandler(adapter, logger),
		streaks:     streaks,
		dashboard:   dashboard,
	}
}

// @Summary Current streak
// @Tags progress
// @Router /api/v1/streak [get]
func (h *ProgressHandler) GetStreak(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	streak, err := h.streaks.Get(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, streak)
}

// @Summary Dashboard summary
// @Tags progress
// @Router /api/v1/dashboard [get]
func (h *ProgressHandler) GetDashboard(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	summary, err := h.dashboard.Summary(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, summary)
}

package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/api/transport"
	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/pkg/httpcontext"
	"github.com/fastygo/todomore/repository"
	goalUC "github.com/fastygo/todomore/usecase/goal"
)

type GoalHandler struct {
	baseHandler
	uc *goalUC.UseCase
}

func NewGoalHandler(uc *goalUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List goals
// @Tags goals
// @Router /api/v1/goals [get]
func (h *GoalHandler) ListGoals(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	status := domain.GoalStatus(ctx.QueryArgs().Peek("status"))
	if status != "" && !status.Valid() {
		h.respondError(ctx, domain.Invalid("unknown goal status"))
		return
	}
	limit, offset := pagination(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goals, err := h.uc.ListGoals(stdCtx, repository.GoalFilter{
		UserID: userID,
		Status: string(status),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(goals, transport.PageMeta{Limit: limit, Offset: offset, Count: len(goals)}))
}

// @Summary Get goal
// @Tags goals
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) GetGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.GetGoal(stdCtx, userID, pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goal)
}

// @Summary Create goal
// @Tags goals
// @Router /api/v1/goals [post]
func (h *GoalHandler) CreateGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.GoalCreateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.CreateGoal(stdCtx, req.ToGoal(userID))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, goal)
}

// @Summary Update goal
// @Tags goals
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) UpdateGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.GoalUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.UpdateGoal(stdCtx, userID, pathID(ctx), req.ToPatch())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goal)
}

// @Summary Delete goal
// @Tags goals
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteGoal(stdCtx, userID, pathID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Recompute goal progress
// @Tags goals
// @Router /api/v1/goals/{id}/progress [post]
func (h *GoalHandler) RecalculateProgress(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.GetGoal(stdCtx, userID, pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	updated, err := h.uc.RecalculateProgress(stdCtx, goal.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/api/transport"
	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/pkg/httpcontext"
	"github.com/fastygo/todomore/repository"
	taskUC "github.com/fastygo/todomore/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	status := domain.TaskStatus(ctx.QueryArgs().Peek("status"))
	if status != "" && !status.Valid() {
		h.respondError(ctx, domain.Invalid("unknown task status"))
		return
	}
	limit, offset := pagination(ctx)
	filter := repository.TaskFilter{
		UserID: userID,
		Status: string(status),
		GoalID: string(ctx.QueryArgs().Peek("goal_id")),
		Limit:  limit,
		Offset: offset,
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(tasks, transport.PageMeta{Limit: limit, Offset: offset, Count: len(tasks)}))
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, userID, pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.CreateTask(stdCtx, req.ToTask(userID))
	h.respondResult(ctx, http.StatusCreated, res, err)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.UpdateTask(stdCtx, userID, pathID(ctx), req.ToPatch())
	h.respondResult(ctx, http.StatusOK, res, err)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := h.uc.DeleteTask(stdCtx, userID, pathID(ctx))
	h.respondResult(ctx, http.StatusOK, res, err)
}

// respondResult answers 202 for buffered mutations and keeps the persisted
// task in the body when a derived-state update failed.
func (h *TaskHandler) respondResult(ctx *fasthttp.RequestCtx, status int, res *taskUC.Result, err error) {
	switch {
	case err != nil && res != nil:
		h.respondPartial(ctx, err, res)
	case err != nil:
		h.respondError(ctx, err)
	case res.Buffered:
		h.respondSuccess(ctx, http.StatusAccepted, res)
	default:
		h.respondSuccess(ctx, status, res)
	}
}

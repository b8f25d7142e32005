package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/todomore/api/handler"
)

type Handlers struct {
	Task     *apiHandler.TaskHandler
	Goal     *apiHandler.GoalHandler
	Progress *apiHandler.ProgressHandler
	Health   *apiHandler.HealthHandler
}

// Options toggles the operational endpoints. A nil Metrics handler disables /metrics.
type Options struct {
	Metrics fasthttp.RequestHandler
	Pprof   bool
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authMiddleware Middleware, opts Options) *router.Router {
	r := router.New()
	r.SaveMatchedRoutePath = true

	r.GET("/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics)
	}
	if opts.Pprof {
		r.ANY("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	api := r.Group("/api/v1")

	api.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	api.GET("/goals", authMiddleware(handlers.Goal.ListGoals))
	api.POST("/goals", authMiddleware(handlers.Goal.CreateGoal))
	api.GET("/goals/{id}", authMiddleware(handlers.Goal.GetGoal))
	api.PUT("/goals/{id}", authMiddleware(handlers.Goal.UpdateGoal))
	api.DELETE("/goals/{id}", authMiddleware(handlers.Goal.DeleteGoal))
	api.POST("/goals/{id}/progress", authMiddleware(handlers.Goal.RecalculateProgress))

	api.GET("/streak", authMiddleware(handlers.Progress.GetStreak))
	api.GET("/dashboard", authMiddleware(handlers.Progress.GetDashboard))

	return r
}

// Chain wraps h so the first middleware is outermost.
func Chain(h fasthttp.RequestHandler, middlewares ...Middleware) fasthttp.RequestHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

package httpserver

import (
	"net/http"

	"elevmaint/backend/services/maintenance-service/internal/http/handlers"
	"elevmaint/backend/services/maintenance-service/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Sessions       *handlers.SessionsHandlers
	Elevators      *handlers.ElevatorsHandlers
	Health         http.HandlerFunc
	Metrics        http.Handler
	LiveFeed       http.HandlerFunc
	AuthMiddleware func(http.Handler) http.Handler
	LogMiddleware  func(http.Handler) http.Handler
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	if deps.Health != nil {
		mux.Handle("GET /health", deps.Health)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, deps.AuthMiddleware)
	}

	if deps.LiveFeed != nil {
		mux.Handle("GET /ws/live", authenticated(deps.LiveFeed))
	}

	if e := deps.Elevators; e != nil {
		mux.Handle("GET /elevators", authenticated(e.List))
		mux.Handle("POST /elevators", authenticated(e.Add))
		mux.Handle("GET /elevators/{id}/sessions", authenticated(e.Sessions))
		mux.Handle("GET /elevators/{id}/stats", authenticated(e.Stats))
	}

	if s := deps.Sessions; s != nil {
		mux.Handle("POST /sessions/start", authenticated(s.Start))
		mux.Handle("GET /sessions/current", authenticated(s.Current))
		mux.Handle("POST /sessions/current/issues", authenticated(s.AddIssue))
		mux.Handle("POST /sessions/current/issues/{issueId}/toggle", authenticated(s.ToggleIssue))
		mux.Handle("POST /sessions/current/floor", authenticated(s.ChangeFloor))
		mux.Handle("POST /sessions/current/end", authenticated(s.End))
		mux.Handle("GET /sessions", authenticated(s.List))
		mux.Handle("GET /sessions/{id}", authenticated(s.Get))
		mux.Handle("GET /sessions/{id}/heatmap", authenticated(s.HeatMap))
		mux.Handle("GET /sessions/{id}/vertical", authenticated(s.Vertical))
		mux.Handle("GET /sessions/{id}/report", authenticated(s.Report))
	}

	return middleware.Chain(mux, deps.LogMiddleware)
}

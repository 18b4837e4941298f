package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/talent-grid-api/internal/middleware"
)

// Router настраивает маршруты API
type Router struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	sessionHandler *SessionHandler
}

// NewRouter создаёт новый роутер
func NewRouter(sessionHandler *SessionHandler, logger *slog.Logger) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		logger:         logger,
		sessionHandler: sessionHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	// Регистрируем обработчики
	r.mux.HandleFunc("/sessions/", r.sessionsRouter)
	r.mux.HandleFunc("/sessions", r.sessionsRouter)

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Применяем middleware
	handler := middleware.ContentType(r.mux)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}

// sessionsRouter обрабатывает все запросы к /sessions/
func (r *Router) sessionsRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/sessions")
	path = strings.Trim(path, "/")

	// POST /sessions/ - загрузка ростера и создание сессии
	if path == "" && req.Method == http.MethodPost {
		r.sessionHandler.CreateSession(w, req)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	sessionID := parts[0]

	switch len(parts) {
	case 2:
		switch parts[1] {
		case "employees":
			// GET /sessions/{id}/employees
			if req.Method == http.MethodGet {
				r.sessionHandler.GetEmployees(w, req, sessionID)
				return
			}
		case "search":
			// POST /sessions/{id}/search
			if req.Method == http.MethodPost {
				r.sessionHandler.Search(w, req, sessionID)
				return
			}
		case "statistics":
			// POST /sessions/{id}/statistics
			if req.Method == http.MethodPost {
				r.sessionHandler.Statistics(w, req, sessionID)
				return
			}
		case "managers":
			// GET /sessions/{id}/managers?min_team_size=N
			if req.Method == http.MethodGet {
				r.sessionHandler.GetManagers(w, req, sessionID, minTeamSize(req))
				return
			}
		case "org-tree":
			// GET /sessions/{id}/org-tree?min_team_size=N
			if req.Method == http.MethodGet {
				r.sessionHandler.GetOrgTree(w, req, sessionID, minTeamSize(req))
				return
			}
		}

	case 3:
		if parts[1] == "employees" {
			if parts[2] == "filter" {
				// POST /sessions/{id}/employees/filter
				if req.Method == http.MethodPost {
					r.sessionHandler.FilterEmployees(w, req, sessionID)
					return
				}
			} else {
				// PATCH /sessions/{id}/employees/{employeeId}
				employeeID, err := strconv.ParseInt(parts[2], 10, 64)
				if err != nil {
					http.Error(w, `{"error":"invalid employee id"}`, http.StatusBadRequest)
					return
				}
				if req.Method == http.MethodPatch {
					r.sessionHandler.UpdateEmployee(w, req, sessionID, employeeID)
					return
				}
			}
		}

	case 4:
		if parts[1] == "employees" {
			employeeID, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				http.Error(w, `{"error":"invalid employee id"}`, http.StatusBadRequest)
				return
			}
			if req.Method == http.MethodGet {
				switch parts[3] {
				case "reports":
					// GET /sessions/{id}/employees/{employeeId}/reports
					r.sessionHandler.GetReports(w, req, sessionID, employeeID)
					return
				case "chain":
					// GET /sessions/{id}/employees/{employeeId}/chain
					r.sessionHandler.GetChain(w, req, sessionID, employeeID)
					return
				}
			}
		}
	}

	if req.Method != http.MethodGet && req.Method != http.MethodPost && req.Method != http.MethodPatch {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// minTeamSize читает min_team_size из строки запроса, по умолчанию 1
func minTeamSize(req *http.Request) int {
	if raw := req.URL.Query().Get("min_team_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 1
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/auth"
	"github.com/sakif/codecraft/internal/service"
)

// ExecuteHandler serves the execution log and server-side runs.
type ExecuteHandler struct {
	execs  *service.ExecutionService
	logger *slog.Logger
}

func NewExecuteHandler(execs *service.ExecutionService, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{execs: execs, logger: logger}
}

type recordExecutionRequest struct {
	Language string  `json:"language" validate:"required,language"`
	Code     string  `json:"code"     validate:"max=100000"`
	Output   *string `json:"output"`
	Error    *string `json:"error"`
}

type executeRequest struct {
	Language string `json:"language" validate:"required,language"`
	Code     string `json:"code"`
}

// HandleRecord appends a client-side run to the caller's execution log.
//
// HTTP: POST /api/executions
func (h *ExecuteHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordExecutionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())
	exec, err := h.execs.Record(r.Context(), callerID, req.Language, req.Code, req.Output, req.Error)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exec)
}

// HandleList returns one page of a user's executions.
//
// HTTP: GET /api/users/{id}/executions?cursor=xxx&limit=20
func (h *ExecuteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, apperror.ValidationFailed("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	page, err := h.execs.List(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleExecute runs code on the configured backend and records the outcome.
// A program that fails to compile or exits non-zero is still a 200; only an
// unreachable backend is an error.
//
// HTTP: POST /api/execute
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())
	h.logger.Info("executing code snippet",
		slog.String("language", req.Language),
		slog.String("user_id", callerID),
	)

	result, err := h.execs.Run(r.Context(), callerID, req.Language, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

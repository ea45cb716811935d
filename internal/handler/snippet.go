package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codecraft/internal/auth"
	"github.com/sakif/codecraft/internal/service"
)

// SnippetHandler serves snippets and the comments and stars hanging off them.
type SnippetHandler struct {
	snippets *service.SnippetService
	stars    *service.StarService
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, stars *service.StarService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, stars: stars, logger: logger}
}

type createSnippetRequest struct {
	Title    string `json:"title"    validate:"required,max=100"`
	Language string `json:"language" validate:"required,language"`
	Code     string `json:"code"     validate:"max=100000"`
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type starResponse struct {
	Starred bool `json:"starred"`
}

type countResponse struct {
	Count int `json:"count"`
}

// HandleList returns every snippet, newest first.
//
// HTTP: GET /api/snippets
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns one snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate saves a new snippet owned by the caller.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"title": "hello", "language": "python", "code": "print('hi')"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSnippetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())
	snippet, err := h.snippets.Create(r.Context(), callerID, req.Title, req.Language, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleDelete removes a snippet with its comments and stars. Only the owner
// may delete; anonymous callers get 403.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())
	if err := h.snippets.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleStar flips the caller's star on a snippet.
//
// HTTP: POST /api/snippets/{id}/star
func (h *SnippetHandler) HandleToggleStar(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())
	starred, err := h.stars.Toggle(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, starResponse{Starred: starred})
}

// HTTP: GET /api/snippets/{id}/star
func (h *SnippetHandler) HandleIsStarred(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())
	starred, err := h.stars.IsStarred(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, starResponse{Starred: starred})
}

// HTTP: GET /api/snippets/{id}/stars
func (h *SnippetHandler) HandleStarCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.stars.Count(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// HTTP: GET /api/snippets/{id}/comments
func (h *SnippetHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.snippets.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HTTP: POST /api/snippets/{id}/comments
func (h *SnippetHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	callerID, _ := auth.UserIDFromContext(r.Context())
	comment, err := h.snippets.AddComment(r.Context(), callerID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

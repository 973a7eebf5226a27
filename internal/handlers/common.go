package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/generate"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/internal/storage"
	"github.com/dafterai/dafter/pkg/api"
)

var errInvalidJSON = errors.New("invalid JSON")

type Handler struct {
	sessionStore *storage.SessionStore
	editor       *api.Editor
	layout       document.LayoutConfig
}

func New(editor *api.Editor, store *storage.SessionStore) *Handler {
	if editor == nil {
		editor = api.New()
	}
	if store == nil {
		store = storage.New(editor.Options().HistoryDepth)
	}
	return &Handler{
		sessionStore: store,
		editor:       editor,
		layout:       document.DefaultLayout(),
	}
}

// SetDefaultLayout sets the layout of documents created without one
func (h *Handler) SetDefaultLayout(layout document.LayoutConfig) {
	h.layout = layout
}

// Routes returns the API mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	mux.HandleFunc("GET /api/documents", h.HandleListDocuments)
	mux.HandleFunc("POST /api/documents", h.HandleCreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", h.HandleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", h.HandleDeleteDocument)
	mux.HandleFunc("PUT /api/documents/{id}/brand", h.HandleSetBrand)
	mux.HandleFunc("PUT /api/documents/{id}/layout", h.HandleSetLayout)
	mux.HandleFunc("POST /api/documents/{id}/reflow", h.HandleReflow)

	mux.HandleFunc("POST /api/documents/{id}/pages", h.HandleAddPage)
	mux.HandleFunc("DELETE /api/documents/{id}/pages", h.HandleClearPages)
	mux.HandleFunc("DELETE /api/documents/{id}/pages/{pageID}", h.HandleDeletePage)
	mux.HandleFunc("PUT /api/documents/{id}/pages/{pageID}/content", h.HandleContent)
	mux.HandleFunc("POST /api/documents/{id}/pages/{pageID}/measure", h.HandleMeasure)
	mux.HandleFunc("POST /api/documents/{id}/pages/{pageID}/split", h.HandleSplit)
	mux.HandleFunc("POST /api/documents/{id}/pages/{pageID}/undo", h.HandleUndo)
	mux.HandleFunc("POST /api/documents/{id}/pages/{pageID}/redo", h.HandleRedo)
	mux.HandleFunc("POST /api/documents/{id}/pages/{pageID}/callouts", h.HandleCallout)

	mux.HandleFunc("POST /api/documents/{id}/generate", h.HandleGenerate)
	mux.HandleFunc("GET /api/documents/{id}/export/{format}", h.HandleExport)
	return mux
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeStatusJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	http.Error(w, message, code)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, document.ErrUnknownCallout),
		errors.Is(err, document.ErrDuplicateID),
		errors.Is(err, generate.ErrMissingTopic),
		errors.Is(err, generate.ErrMissingContent),
		errors.Is(err, generate.ErrPageCount),
		errors.Is(err, api.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrNoGenerator):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (*storage.Session, bool) {
	session, exists := h.sessionStore.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "Document not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// editorFor returns an editor recording undo snapshots in the session history
func (h *Handler) editorFor(session *storage.Session) *api.Editor {
	return h.editor.WithHistory(session.History())
}

// measurer turns an optional reported measurement into a Measurer. A nil
// measurement falls back to the server-side estimator.
func measurer(m *pagination.Measurement) pagination.Measurer {
	if m == nil {
		return nil
	}
	return (*pagination.Reported)(m)
}

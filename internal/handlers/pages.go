package handlers

import (
	"net/http"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/pkg/api"
)

type contentRequest struct {
	Content     string                  `json:"content"`
	Measurement *pagination.Measurement `json:"measurement,omitempty"`
}

type measureRequest struct {
	Measurement *pagination.Measurement `json:"measurement,omitempty"`
}

type calloutRequest struct {
	Kind        document.CalloutKind    `json:"kind"`
	Body        string                  `json:"body"`
	Measurement *pagination.Measurement `json:"measurement,omitempty"`
}

type pageResponse struct {
	documentResponse
	Report *pagination.Report `json:"report,omitempty"`
	Split  *api.SplitResult   `json:"split,omitempty"`
	// Applied is set by undo and redo
	Applied *bool `json:"applied,omitempty"`
}

func (h *Handler) HandleContent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	var report pagination.Report
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		next, rep, err := h.editorFor(session).OnContentChanged(d, r.PathValue("pageID"), req.Content, measurer(req.Measurement))
		report = rep
		return next, err
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, pageResponse{documentResponse: respond(session, doc), Report: &report})
}

// HandleMeasure re-evaluates a page without changing it, for instance after
// an image finished loading.
func (h *Handler) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var req measureRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	report, err := h.editorFor(session).Check(session.Document(), r.PathValue("pageID"), measurer(req.Measurement))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, report)
}

func (h *Handler) HandleSplit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var req measureRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	var result api.SplitResult
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		next, res, err := h.editorFor(session).OnSplitRequested(d, r.PathValue("pageID"), measurer(req.Measurement))
		result = res
		return next, err
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, pageResponse{documentResponse: respond(session, doc), Split: &result})
}

func (h *Handler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*api.Editor).Undo)
}

func (h *Handler) HandleRedo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*api.Editor).Redo)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, fn func(*api.Editor, document.Document, string) (document.Document, bool, error)) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var applied bool
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		next, ok, err := fn(h.editorFor(session), d, r.PathValue("pageID"))
		applied = ok
		return next, err
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, pageResponse{documentResponse: respond(session, doc), Applied: &applied})
}

func (h *Handler) HandleCallout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var req calloutRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	var report pagination.Report
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		next, rep, err := h.editorFor(session).InsertCallout(d, r.PathValue("pageID"), req.Kind, req.Body, measurer(req.Measurement))
		report = rep
		return next, err
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, pageResponse{documentResponse: respond(session, doc), Report: &report})
}

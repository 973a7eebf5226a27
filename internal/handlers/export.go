package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/generate"
	"github.com/dafterai/dafter/pkg/api"
)

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var req generate.Request
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, err)
		return
	}

	slog.Info("Generating notebook", "id", session.ID, "topic", req.Topic, "pages", req.PageCount)
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		return h.editorFor(session).Generate(r.Context(), d, req)
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	slog.Info("Notebook generated", "id", session.ID, "pages", doc.Pages.Len())
	h.writeJSON(w, respond(session, doc))
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	format, err := api.ParseFormat(r.PathValue("format"))
	if err != nil {
		h.fail(w, err)
		return
	}
	doc := session.Document()

	if format == api.FormatClipboard {
		clip, err := h.editor.Clipboard(doc)
		if err != nil {
			h.fail(w, err)
			return
		}
		h.writeJSON(w, clip)
		return
	}

	var buf bytes.Buffer
	if err := h.editor.Export(r.Context(), doc, format, &buf); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if format == api.FormatPDF {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "notebook"+format.Extension()))
	}
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Unable to write export", "format", format, "err", err)
	}
}

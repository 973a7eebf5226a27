package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/internal/storage"
)

type documentResponse struct {
	ID        string              `json:"id"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Document  document.Document   `json:"document"`
	Page      *document.Page      `json:"page,omitempty"`
	Reports   []pagination.Report `json:"reports,omitempty"`
	Stats     *pagination.Stats   `json:"stats,omitempty"`
}

type documentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type createRequest struct {
	Brand    *document.Brand    `json:"brand,omitempty"`
	Document *document.Document `json:"document,omitempty"`
}

func respond(session *storage.Session, doc document.Document) documentResponse {
	return documentResponse{ID: session.ID, UpdatedAt: session.UpdatedAt(), Document: doc}
}

func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.List()
	list := make([]documentSummary, 0, len(sessions))
	for _, s := range sessions {
		doc := s.Document()
		list = append(list, documentSummary{
			ID:        s.ID,
			Title:     doc.Title,
			Pages:     doc.Pages.Len(),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt(),
		})
	}
	h.writeJSON(w, list)
}

func (h *Handler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	var doc document.Document
	switch {
	case req.Document != nil:
		doc = *req.Document
	case req.Brand != nil:
		doc = document.New(*req.Brand).WithLayout(h.layout)
	default:
		doc = document.New(document.Brand{}).WithLayout(h.layout)
	}

	session := h.sessionStore.Create(doc)
	slog.Info("Document created", "id", session.ID, "pages", doc.Pages.Len())
	h.writeStatusJSON(w, http.StatusCreated, respond(session, doc))
}

func (h *Handler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, respond(session, session.Document()))
}

func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.sessionStore.Delete(session.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetBrand(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var brand document.Brand
	if err := decode(r, &brand); err != nil {
		h.fail(w, err)
		return
	}

	var reports []pagination.Report
	doc, _ := session.Update(func(d document.Document) (document.Document, error) {
		next := d.WithBrand(brand)
		reports = h.editorFor(session).CheckAll(next, nil)
		return next, nil
	})
	resp := respond(session, doc)
	resp.Reports = reports
	h.writeJSON(w, resp)
}

func (h *Handler) HandleSetLayout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	var layout document.LayoutConfig
	if err := decode(r, &layout); err != nil {
		h.fail(w, err)
		return
	}

	var reports []pagination.Report
	doc, _ := session.Update(func(d document.Document) (document.Document, error) {
		var next document.Document
		next, reports = h.editorFor(session).SetLayout(d, layout, nil)
		return next, nil
	})
	resp := respond(session, doc)
	resp.Reports = reports
	h.writeJSON(w, resp)
}

func (h *Handler) HandleReflow(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var stats pagination.Stats
	doc, _ := session.Update(func(d document.Document) (document.Document, error) {
		var next document.Document
		next, stats = h.editorFor(session).Reflow(d, nil)
		return next, nil
	})
	resp := respond(session, doc)
	resp.Stats = &stats
	h.writeJSON(w, resp)
}

func (h *Handler) HandleAddPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}

	var page document.Page
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		next, p, err := d.AddPage()
		if err != nil {
			return d, err
		}
		page = p
		session.History().Record(p.ID, p.Content)
		return next, nil
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := respond(session, doc)
	resp.Page = &page
	h.writeStatusJSON(w, http.StatusCreated, resp)
}

func (h *Handler) HandleClearPages(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	doc, _ := session.Update(func(d document.Document) (document.Document, error) {
		for _, p := range d.Pages.Pages() {
			session.History().Forget(p.ID)
		}
		return d.Clear(), nil
	})
	h.writeJSON(w, respond(session, doc))
}

func (h *Handler) HandleDeletePage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	pageID := r.PathValue("pageID")
	doc, err := session.Update(func(d document.Document) (document.Document, error) {
		return d.DeletePage(pageID)
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	session.History().Forget(pageID)
	h.writeJSON(w, respond(session, doc))
}

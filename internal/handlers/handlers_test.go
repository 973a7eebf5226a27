package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/internal/pagination"
	"github.com/dafterai/dafter/pkg/api"
)

type pageResult struct {
	ID       string              `json:"id"`
	Document document.Document   `json:"document"`
	Page     *document.Page      `json:"page"`
	Report   *pagination.Report  `json:"report"`
	Reports  []pagination.Report `json:"reports"`
	Split    *api.SplitResult    `json:"split"`
	Applied  *bool               `json:"applied"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(api.New(), nil).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResult(t *testing.T, resp *http.Response) pageResult {
	t.Helper()
	var out pageResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func paragraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>block %d</p>\n", i)
	}
	return b.String()
}

func measurement(heights ...float64) *pagination.Measurement {
	m := &pagination.Measurement{}
	for _, h := range heights {
		m.Blocks = append(m.Blocks, pagination.Metrics{Height: h})
		m.ContentHeight += h
	}
	return m
}

// createWithPage creates a document and appends one content page
func createWithPage(t *testing.T, srv *httptest.Server) (docID, pageID string) {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/documents", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	docID = decodeResult(t, resp).ID

	resp = call(t, srv, http.MethodPost, "/api/documents/"+docID+"/pages", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	page := decodeResult(t, resp).Page
	require.NotNil(t, page)
	return docID, page.ID
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newServer(t)

	resp := call(t, srv, http.MethodPost, "/api/documents", createRequest{Brand: &document.Brand{Name: "Acme"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	created := decodeResult(t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Document.Pages.Len())
	assert.Equal(t, "Acme", created.Document.Brand.Name)

	resp = call(t, srv, http.MethodGet, "/api/documents/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodeResult(t, resp).ID)

	resp = call(t, srv, http.MethodGet, "/api/documents", nil)
	var list []documentSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Pages)

	resp = call(t, srv, http.MethodDelete, "/api/documents/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = call(t, srv, http.MethodGet, "/api/documents/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateInvalidJSON(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/documents", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPages(t *testing.T) {
	srv := newServer(t)
	docID, pageID := createWithPage(t, srv)

	resp := call(t, srv, http.MethodDelete, "/api/documents/"+docID+"/pages/"+pageID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeResult(t, resp).Document.Pages.Len())

	resp = call(t, srv, http.MethodDelete, "/api/documents/"+docID+"/pages/"+pageID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, srv, http.MethodDelete, "/api/documents/"+docID+"/pages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decodeResult(t, resp).Document.Pages.Len())
}

func TestContentSplitUndo(t *testing.T) {
	srv := newServer(t)
	docID, pageID := createWithPage(t, srv)
	base := "/api/documents/" + docID + "/pages/" + pageID

	resp := call(t, srv, http.MethodPut, base+"/content", contentRequest{
		Content:     paragraphs(5),
		Measurement: measurement(250, 250, 250, 250, 250),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeResult(t, resp)
	require.NotNil(t, out.Report)
	assert.True(t, out.Report.Overflowing)
	assert.True(t, out.Report.Splittable)

	resp = call(t, srv, http.MethodPost, base+"/split", measureRequest{Measurement: measurement(250, 250, 250, 250, 250)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decodeResult(t, resp)
	require.NotNil(t, out.Split)
	assert.True(t, out.Split.Applied)
	assert.Equal(t, "threshold", out.Split.Reason)
	require.Equal(t, 3, out.Document.Pages.Len())
	assert.Equal(t, out.Split.NewPageID, out.Document.Pages.At(2).ID)
	assert.Equal(t, paragraphs(5), out.Document.Pages.At(1).Content+out.Document.Pages.At(2).Content)

	resp = call(t, srv, http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decodeResult(t, resp)
	require.NotNil(t, out.Applied)
	assert.True(t, *out.Applied)
	assert.Equal(t, 2, out.Document.Pages.Len(), "undoing a split removes the continuation")
	page, err := out.Document.Pages.Get(pageID)
	require.NoError(t, err)
	assert.Equal(t, paragraphs(5), page.Content)

	resp = call(t, srv, http.MethodPost, base+"/redo", nil)
	out = decodeResult(t, resp)
	assert.True(t, *out.Applied)
	assert.Equal(t, 3, out.Document.Pages.Len())
}

func TestSplitCoverIsNoop(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, http.MethodPost, "/api/documents", nil)
	docID := decodeResult(t, resp).ID

	resp = call(t, srv, http.MethodPost, "/api/documents/"+docID+"/pages/"+document.WelcomePageID+"/split",
		measureRequest{Measurement: measurement(3000, 10)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeResult(t, resp)
	assert.False(t, out.Split.Applied)
	assert.Equal(t, pagination.ErrCoverPage.Error(), out.Split.Reason)
	assert.Equal(t, 1, out.Document.Pages.Len())
}

func TestMeasure(t *testing.T) {
	srv := newServer(t)
	docID, pageID := createWithPage(t, srv)

	resp := call(t, srv, http.MethodPost, "/api/documents/"+docID+"/pages/"+pageID+"/measure",
		measureRequest{Measurement: &pagination.Measurement{ContentHeight: 1200}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report pagination.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Overflowing)
	assert.Equal(t, 1200.0, report.ContentHeight)

	resp = call(t, srv, http.MethodPost, "/api/documents/"+docID+"/pages/missing/measure", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCallouts(t *testing.T) {
	srv := newServer(t)
	docID, pageID := createWithPage(t, srv)
	base := "/api/documents/" + docID + "/pages/" + pageID + "/callouts"

	resp := call(t, srv, http.MethodPost, base, calloutRequest{Kind: document.CalloutWarning, Body: "careful"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := decodeResult(t, resp).Document.Pages.Get(pageID)
	require.NoError(t, err)
	assert.Contains(t, page.Content, "callout-warning")
	assert.Contains(t, page.Content, "careful")

	resp = call(t, srv, http.MethodPost, base, calloutRequest{Kind: "bogus"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLayoutAndBrand(t *testing.T) {
	srv := newServer(t)
	docID, _ := createWithPage(t, srv)

	resp := call(t, srv, http.MethodPut, "/api/documents/"+docID+"/layout", document.LayoutConfig{HeaderTopGap: 10, MarginLeft: 15, MarginRight: 15})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeResult(t, resp)
	assert.Equal(t, 10.0, out.Document.Layout.HeaderTopGap)
	assert.Len(t, out.Reports, 2)

	resp = call(t, srv, http.MethodPut, "/api/documents/"+docID+"/brand", document.Brand{Name: "Nova", Theme: document.ThemeProfessional})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decodeResult(t, resp)
	assert.Equal(t, "Nova", out.Document.Brand.Name)
	assert.Equal(t, "Nova", out.Document.Pages.At(1).Footer)
}

func TestReflow(t *testing.T) {
	srv := newServer(t)
	docID, pageID := createWithPage(t, srv)

	call(t, srv, http.MethodPut, "/api/documents/"+docID+"/pages/"+pageID+"/content", contentRequest{Content: paragraphs(120)})
	resp := call(t, srv, http.MethodPost, "/api/documents/"+docID+"/reflow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Document document.Document `json:"document"`
		Stats    pagination.Stats  `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Greater(t, out.Stats.Splits, 0)
	assert.Greater(t, out.Document.Pages.Len(), 2)
}

func TestGenerateErrors(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, http.MethodPost, "/api/documents", nil)
	docID := decodeResult(t, resp).ID

	resp = call(t, srv, http.MethodPost, "/api/documents/"+docID+"/generate", map[string]string{"topic": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/api/documents/"+docID+"/generate", map[string]string{"topic": "t", "rawContent": "c"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestExport(t *testing.T) {
	srv := newServer(t)
	docID, _ := createWithPage(t, srv)
	base := "/api/documents/" + docID + "/export/"

	resp := call(t, srv, http.MethodGet, base+"html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "dafter-pagination")

	resp = call(t, srv, http.MethodGet, base+"pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body.Reset()
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body.Bytes(), []byte("%PDF-")))

	resp = call(t, srv, http.MethodGet, base+"clipboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var clip struct {
		HTML string `json:"html"`
		Text string `json:"text"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&clip))
	assert.NotEmpty(t, clip.HTML)

	resp = call(t, srv, http.MethodGet, base+"docx", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printforge/bindery/internal/archive"
	"github.com/printforge/bindery/internal/assets"
	"github.com/printforge/bindery/internal/config"
	deliverymemory "github.com/printforge/bindery/internal/delivery/memory"
	fetchmemory "github.com/printforge/bindery/internal/fetch/memory"
	ledgermemory "github.com/printforge/bindery/internal/ledger/memory"
	"github.com/printforge/bindery/internal/pdf"
	persistlocal "github.com/printforge/bindery/internal/persist/local"
	"github.com/printforge/bindery/internal/pipeline"
	"github.com/printforge/bindery/internal/testsupport"
	"github.com/printforge/bindery/internal/workspace"
)

func newTestServer(t *testing.T, archives map[string][]byte, cfg config.Config) *Server {
	t.Helper()

	workspaces, err := workspace.NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	persister, err := persistlocal.New(persistlocal.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	project := pipeline.NewProject(
		fetchmemory.New(archives),
		archive.New(),
		assets.New(),
		pdf.New(),
		persister,
		workspaces,
		zap.NewNop(),
	)
	batch := pipeline.NewBatch(project, deliverymemory.New(), ledgermemory.New(), nil, 1.0, zap.NewNop())
	return NewServer(batch, cfg, zap.NewNop())
}

func webhookBody(t *testing.T, orderID string, urls ...string) *bytes.Reader {
	t.Helper()

	type manifestFile struct {
		Filename string `json:"filename"`
	}
	type render struct {
		URL   string         `json:"url"`
		Files []manifestFile `json:"files"`
	}
	type project struct {
		Render render `json:"render"`
	}
	payload := struct {
		OrderID  string    `json:"order_id"`
		Projects []project `json:"projects"`
	}{OrderID: orderID}
	for _, u := range urls {
		payload.Projects = append(payload.Projects, project{Render: render{
			URL:   u,
			Files: []manifestFile{{Filename: "p_cover.pdf"}, {Filename: "p_pages.pdf"}},
		}})
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func goodArchive(t *testing.T) []byte {
	t.Helper()
	return testsupport.TarArchive(t, map[string][]byte{
		"p_cover.pdf": testsupport.MinimalPDF(2),
		"p_pages.pdf": testsupport.MinimalPDF(8),
	})
}

func TestRenderCompleteSuccess(t *testing.T) {
	t.Parallel()

	const url = "https://render.example.com/ORD1/1.tar"
	srv := newTestServer(t, map[string][]byte{url: goodArchive(t)}, config.Config{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete", webhookBody(t, "ORD1", url))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp struct {
		OrderID  string `json:"order_id"`
		Status   string `json:"status"`
		Projects []struct {
			Index     int    `json:"index"`
			Status    string `json:"status"`
			PageCount int    `json:"page_count"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD1", resp.OrderID)
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, 8, resp.Projects[0].PageCount)
}

func TestRenderCompletePartial(t *testing.T) {
	t.Parallel()

	const url = "https://render.example.com/ORD2/1.tar"
	srv := newTestServer(t, map[string][]byte{url: goodArchive(t)}, config.Config{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete",
		webhookBody(t, "ORD2", url, "https://render.example.com/ORD2/unreachable.tar"))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMultiStatus, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Projects []struct {
			Status    string `json:"status"`
			ErrorKind string `json:"error_kind"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	require.Len(t, resp.Projects, 2)
	assert.Equal(t, "success", resp.Projects[0].Status)
	assert.Equal(t, "failure", resp.Projects[1].Status)
	assert.Equal(t, "download", resp.Projects[1].ErrorKind)
}

func TestRenderCompleteAllFailed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil, config.Config{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete",
		webhookBody(t, "ORD3", "https://render.example.com/ORD3/unreachable.tar"))
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRenderCompleteBadRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil, config.Config{})

	t.Run("invalid JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete", bytes.NewReader([]byte("{nope")))
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing order_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete", webhookBody(t, "  "))
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWebhookSecret(t *testing.T) {
	t.Parallel()

	const url = "https://render.example.com/ORD4/1.tar"
	cfg := config.Config{}
	cfg.Server.WebhookSecret = "s3cret"
	srv := newTestServer(t, map[string][]byte{url: goodArchive(t)}, cfg)

	t.Run("missing secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete", webhookBody(t, "ORD4", url))
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete", webhookBody(t, "ORD4", url))
		req.Header.Set("X-Webhook-Secret", "wrong")
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("correct secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/render-complete", webhookBody(t, "ORD4", url))
		req.Header.Set("X-Webhook-Secret", "s3cret")
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health endpoint stays open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil, config.Config{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

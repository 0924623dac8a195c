package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datatoolkit/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(&config.Config{
		Addr:              ":0",
		MaxUploadBytes:    1 << 20,
		DefaultPageSize:   10,
		MaxPageSize:       50,
		AllowedExtensions: []string{".json", ".csv", ".xlsx", ".xls"},
		CORSOrigins:       []string{"http://localhost:3000"},
	})
}

// uploadRequest builds a multipart POST with a "file" part and extra form
// fields.
func uploadRequest(t *testing.T, url, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestPreview(t *testing.T) {
	s := testServer(t)
	content := []byte(`[{"id": "1", "name": "a"}, {"id": "2", "name": "b"}, {"id": "3", "name": "c"}]`)
	req := uploadRequest(t, "/api/preview", "rows.json", content, map[string]string{
		"page":      "1",
		"page_size": "2",
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		DetectedType string      `json:"detected_type"`
		Columns      []string    `json:"columns"`
		Rows         [][]*string `json:"rows"`
		TotalRows    int         `json:"total_rows"`
		CurrentPage  int         `json:"current_page"`
		TotalPages   int         `json:"total_pages"`
		PageSize     int         `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "json", resp.DetectedType)
	assert.Equal(t, []string{"id", "name"}, resp.Columns)
	require.Len(t, resp.Rows, 2)
	require.NotNil(t, resp.Rows[0][1])
	assert.Equal(t, "a", *resp.Rows[0][1])
	assert.Equal(t, 3, resp.TotalRows)
	assert.Equal(t, 1, resp.CurrentPage)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 2, resp.PageSize)
}

func TestPreviewNullCell(t *testing.T) {
	s := testServer(t)
	content := []byte(`[{"a": "1", "b": "x"}, {"a": "2"}]`)
	req := uploadRequest(t, "/api/preview", "rows.json", content, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows [][]*string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 2)
	assert.Nil(t, resp.Rows[1][1])
}

func TestPreviewClampsPageSize(t *testing.T) {
	s := testServer(t)
	content := []byte(`[{"a": "1"}]`)
	req := uploadRequest(t, "/api/preview", "rows.json", content, map[string]string{
		"page_size": "9999",
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		PageSize int `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.PageSize)
}

func TestPreviewBadPage(t *testing.T) {
	s := testServer(t)
	req := uploadRequest(t, "/api/preview", "rows.json", []byte(`[{"a": "1"}]`), map[string]string{
		"page": "0",
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertEndpoint(t *testing.T) {
	s := testServer(t)
	content := []byte(`[{"id": "007", "name": "Bond"}]`)
	req := uploadRequest(t, "/api/convert", "agents.json", content, map[string]string{
		"output_format": "csv",
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="agents.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,name\n007,Bond\n", rec.Body.String())
}

func TestConvertRejectsBadTarget(t *testing.T) {
	s := testServer(t)
	req := uploadRequest(t, "/api/convert", "a.json", []byte(`[{"a": "1"}]`), map[string]string{
		"output_format": "pdf",
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertRejectsUnsupportedPair(t *testing.T) {
	s := testServer(t)
	req := uploadRequest(t, "/api/convert", "a.json", []byte(`[{"a": "1"}]`), map[string]string{
		"output_format": "xls",
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported conversion")
}

func TestUploadValidation(t *testing.T) {
	s := testServer(t)

	t.Run("missing file field", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("output_format", "csv"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		req := uploadRequest(t, "/api/convert", "a.json", nil, map[string]string{"output_format": "csv"})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "empty")
	})

	t.Run("disallowed extension", func(t *testing.T) {
		req := uploadRequest(t, "/api/convert", "a.exe", []byte("x"), map[string]string{"output_format": "csv"})
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "not allowed")
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.csv", "report.csv"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{`a"b;c.csv`, "a_b_c.csv"},
		{"bad\x00name.csv", "badname.csv"},
		{".. ", "download"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}

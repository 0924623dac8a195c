package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"datatoolkit/internal/logging"
	"datatoolkit/pkg/convert"
	"datatoolkit/pkg/convert/tabular"
)

// previewResponse is the preview payload: column names plus one page of
// rows, each row an array of cells in column order.
type previewResponse struct {
	DetectedType string            `json:"detected_type"`
	Columns      []string          `json:"columns"`
	Rows         [][]tabular.Value `json:"rows"`
	TotalRows    int               `json:"total_rows"`
	CurrentPage  int               `json:"current_page"`
	TotalPages   int               `json:"total_pages"`
	PageSize     int               `json:"page_size"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	content, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	page := formInt(r, "page", 1)
	pageSize := formInt(r, "page_size", s.cfg.DefaultPageSize)
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	preview, err := convert.DetectAndPreview(content, filename, page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := make([][]tabular.Value, 0, len(preview.Page.Rows))
	for _, row := range preview.Page.Rows {
		cells := make([]tabular.Value, len(preview.Columns))
		for i, col := range preview.Columns {
			cells[i] = row.Get(col)
		}
		rows = append(rows, cells)
	}

	writeJSON(w, http.StatusOK, previewResponse{
		DetectedType: string(preview.Type),
		Columns:      preview.Columns,
		Rows:         rows,
		TotalRows:    preview.Page.TotalRows,
		CurrentPage:  preview.Page.Page,
		TotalPages:   preview.Page.TotalPages,
		PageSize:     preview.Page.PageSize,
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	content, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	target, err := convert.ParseTarget(r.FormValue("output_format"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := convert.Convert(content, filename, target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := sanitizeFilename(out.Filename)
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

// readUpload extracts the multipart "file" field, enforcing the upload
// policy. On failure it writes the response itself and reports false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "no file uploaded")
		return nil, "", false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "could not read uploaded file")
		return nil, "", false
	}

	filename := header.Filename
	if err := convert.ValidateUpload(content, filename, s.cfg.MaxUploadBytes, s.cfg.AllowedExtensions); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return nil, "", false
	}
	return content, filename, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if convert.IsUserError(err) {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	logging.FromContext(r.Context()).Error("request failed", "error", err)
	writeErrorJSON(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func formInt(r *http.Request, key string, fallback int) int {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// sanitizeFilename strips anything that could escape a Content-Disposition
// header or smuggle a path: separators, quotes, control characters.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == '"' || r == ';':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7F:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), ". ")
	if out == "" {
		return "download"
	}
	return out
}

// Package drivetest provides an in-memory Google Drive API server for tests.
package drivetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// File is a stored Drive file. Content is served for downloads; Export is
// served for files.export regardless of the requested MIME type.
type File struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime string
	Content      []byte
	Export       []byte
}

// Server serves files.list, files.get (metadata and alt=media) and files.export.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	order []string
	files map[string]File
	calls map[string]int
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		files: make(map[string]File),
		calls: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /files", s.handleList)
	mux.HandleFunc("GET /files/{id}", s.handleGet)
	mux.HandleFunc("GET /files/{id}/export", s.handleExport)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// ClientOptions returns options that point a Drive client at the server.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithHTTPClient(s.Client()),
	}
}

// AddFile stores f. Files are listed in insertion order.
func (s *Server) AddFile(f File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[f.ID]; !ok {
		s.order = append(s.order, f.ID)
	}
	s.files[f.ID] = f
}

// Calls returns how many requests hit an endpoint: "list", "get",
// "download" or "export".
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["list"]++

	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize <= 0 {
		pageSize = 100
	}
	offset, _ := strconv.Atoi(q.Get("pageToken"))
	offset = min(offset, len(s.order))
	end := min(offset+pageSize, len(s.order))

	resp := &drive.FileList{Kind: "drive#fileList"}
	for _, id := range s.order[offset:end] {
		f := s.files[id]
		resp.Files = append(resp.Files, &drive.File{
			Id:           f.ID,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
		})
	}
	if end < len(s.order) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[r.PathValue("id")]
	if r.URL.Query().Get("alt") == "media" {
		s.calls["download"]++
		if !ok {
			writeError(w, http.StatusNotFound, "File not found.")
			return
		}
		w.Header().Set("Content-Type", f.MimeType)
		_, _ = w.Write(f.Content)
		return
	}

	s.calls["get"]++
	if !ok {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}
	writeJSON(w, &drive.File{Id: f.ID, Name: f.Name, MimeType: f.MimeType})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["export"]++

	f, ok := s.files[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "File not found.")
		return
	}
	if f.Export == nil {
		writeError(w, http.StatusForbidden, "Export only supports Docs Editors files.")
		return
	}
	w.Header().Set("Content-Type", r.URL.Query().Get("mimeType"))
	_, _ = w.Write(f.Export)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}

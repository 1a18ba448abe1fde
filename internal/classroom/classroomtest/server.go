// Package classroomtest provides an in-memory Classroom API server for tests.
package classroomtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	classroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"
)

// Server serves courses.list, PageSize courses per page.
type Server struct {
	*httptest.Server

	PageSize int

	mu      sync.Mutex
	courses []string
	calls   int
}

// NewServer starts a Server holding the given course names.
func NewServer(t testing.TB, courses ...string) *Server {
	t.Helper()

	s := &Server{PageSize: 2, courses: courses}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/courses", s.handleList)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// ClientOptions returns options that point a Classroom client at the server.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithHTTPClient(s.Client()),
	}
}

// Calls returns the number of courses.list requests served.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	offset = min(offset, len(s.courses))
	end := min(offset+max(s.PageSize, 1), len(s.courses))

	// An empty account returns {} with no courses key.
	resp := &classroom.ListCoursesResponse{}
	for i, name := range s.courses[offset:end] {
		resp.Courses = append(resp.Courses, &classroom.Course{
			Id:   strconv.Itoa(offset + i + 1),
			Name: name,
		})
	}
	if end < len(s.courses) {
		resp.NextPageToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

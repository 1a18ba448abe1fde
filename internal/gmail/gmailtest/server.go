// Package gmailtest provides an in-memory Gmail API server for tests.
package gmailtest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Server serves messages.list, messages.get and messages.modify from memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	order    []string
	messages map[string]*gmail.Message
	calls    map[string]int
	failWith int
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		messages: make(map[string]*gmail.Message),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", s.handleList)
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", s.handleGet)
	mux.HandleFunc("POST /gmail/v1/users/me/messages/{id}/modify", s.handleModify)

	s.Server = httptest.NewServer(s.failing(mux))
	t.Cleanup(s.Close)
	return s
}

// ClientOptions returns options that point a Gmail client at the server.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithHTTPClient(s.Client()),
	}
}

// AddMessage stores msg. Messages are listed in insertion order.
func (s *Server) AddMessage(msg *gmail.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.Id]; !ok {
		s.order = append(s.order, msg.Id)
	}
	s.messages[msg.Id] = msg
}

// Labels returns the current labels of a message.
func (s *Server) Labels(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg, ok := s.messages[id]; ok {
		return append([]string(nil), msg.LabelIds...)
	}
	return nil
}

// Calls returns how many requests hit an endpoint: "list", "get" or "modify".
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// FailWith makes every subsequent request fail with the given HTTP status.
// Zero restores normal behaviour.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = status
}

// Message builds a message with Subject and From headers and a plain body.
// Empty subject or from omits the header.
func Message(id, subject, from, body string, labels ...string) *gmail.Message {
	var headers []*gmail.MessagePartHeader
	if subject != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "Subject", Value: subject})
	}
	if from != "" {
		headers = append(headers, &gmail.MessagePartHeader{Name: "From", Value: from})
	}
	return &gmail.Message{
		Id:       id,
		ThreadId: id,
		LabelIds: labels,
		Snippet:  body,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers:  headers,
			Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(body))},
		},
	}
}

func (s *Server) failing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failWith
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["list"]++

	q := r.URL.Query()
	want := q["labelIds"]
	maxResults, _ := strconv.Atoi(q.Get("maxResults"))
	if maxResults <= 0 {
		maxResults = 100
	}
	offset, _ := strconv.Atoi(q.Get("pageToken"))

	var matched []string
	for _, id := range s.order {
		if hasAll(s.messages[id].LabelIds, want) {
			matched = append(matched, id)
		}
	}

	resp := &gmail.ListMessagesResponse{ResultSizeEstimate: int64(len(matched))}
	end := min(offset+maxResults, len(matched))
	for _, id := range matched[min(offset, len(matched)):end] {
		resp.Messages = append(resp.Messages, &gmail.Message{Id: id, ThreadId: id})
	}
	if end < len(matched) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["get"]++

	msg, ok := s.messages[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}
	writeJSON(w, msg)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["modify"]++

	msg, ok := s.messages[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return
	}

	var req gmail.ModifyMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	labels := make([]string, 0, len(msg.LabelIds)+len(req.AddLabelIds))
	for _, l := range msg.LabelIds {
		if !contains(req.RemoveLabelIds, l) {
			labels = append(labels, l)
		}
	}
	for _, l := range req.AddLabelIds {
		if !contains(labels, l) {
			labels = append(labels, l)
		}
	}
	msg.LabelIds = labels
	writeJSON(w, msg)
}

func hasAll(labels, want []string) bool {
	for _, w := range want {
		if !contains(labels, w) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
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

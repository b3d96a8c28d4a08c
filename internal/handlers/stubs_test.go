package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/GregMSThompson/finance-dashboard/internal/query"
)

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error

	errorWriteCalled bool
	errorWriteStatus int
	errorWriteCode   string
	errorWriteMsg    string
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":true}`))
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.errorWriteCalled = true
	s.errorWriteStatus = status
	s.errorWriteCode = code
	s.errorWriteMsg = message
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

type stubSessions struct {
	mu      sync.Mutex
	clients map[string]*query.Client
	removed []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{clients: make(map[string]*query.Client)}
}

func (s *stubSessions) Get(_ context.Context, id string) *query.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		c = query.NewClient()
		s.clients[id] = c
	}
	return c
}

func (s *stubSessions) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
	_, ok := s.clients[id]
	delete(s.clients, id)
	return ok
}

// Package progresstest provides a recording progress endpoint for tests.
package progresstest

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipekit/progress"
)

// Received is one event captured by the Server.
type Received struct {
	progress.Event
	CorrelationID string
}

// Server is an httptest server that records every progress event it
// receives.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	events   []Received
	status   int
	header   string
	failNext int
	failWith int
}

// NewServer starts a recording endpoint at path using the default
// correlation header.
func NewServer(path string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{status: http.StatusOK, header: progress.DefaultCorrelationHeader}
	router := gin.New()
	router.POST(path, s.record)
	s.Server = httptest.NewServer(router)
	return s
}

func (s *Server) record(c *gin.Context) {
	var ev progress.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.events = append(s.events, Received{Event: ev, CorrelationID: c.GetHeader(s.header)})
	status := s.status
	if s.failNext > 0 {
		s.failNext--
		status = s.failWith
	}
	s.mu.Unlock()

	c.Status(status)
}

// RespondWith makes subsequent requests answer with status after recording.
func (s *Server) RespondWith(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// FailNext makes the next n requests answer with status, after which the
// RespondWith status applies again.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	s.failNext = n
	s.failWith = status
	s.mu.Unlock()
}

// Events returns a copy of the recorded events in arrival order.
func (s *Server) Events() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Received, len(s.events))
	copy(out, s.events)
	return out
}

// Trail returns "step:status" for every recorded event.
func (s *Server) Trail() []string {
	events := s.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Step + ":" + string(ev.Status)
	}
	return out
}

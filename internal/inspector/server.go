// Package inspector serves a read-only HTTP view of a harness run: the
// event history, a live event stream, the registered tools and the last
// report.
package inspector

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/harness"
	"github.com/cgast/edgebench/pkg/tools"
)

// DefaultAddr is used when no listen address is given.
const DefaultAddr = "localhost:4200"

// Server is the inspector HTTP server.
type Server struct {
	bus       events.EventBus
	registry  *tools.Registry
	logger    *zap.Logger
	mux       *http.ServeMux
	startTime time.Time

	mu     sync.RWMutex
	report *harness.Report
}

// New creates an inspector over bus and registry. logger may be nil.
func New(bus events.EventBus, registry *tools.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		bus:       bus,
		registry:  registry,
		logger:    logger,
		mux:       http.NewServeMux(),
		startTime: time.Now(),
	}

	s.mux.HandleFunc("/events", s.handleStream)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/tools", s.handleTools)
	s.mux.HandleFunc("/api/report", s.handleReport)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// SetReport publishes the report served at /api/report.
func (s *Server) SetReport(r *harness.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

// StartAsync serves on addr in a goroutine and returns immediately.
func (s *Server) StartAsync(addr string) {
	if addr == "" {
		addr = DefaultAddr
	}
	go func() {
		if err := http.ListenAndServe(addr, s.mux); err != nil && err != http.ErrServerClosed {
			s.logger.Error("inspector stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	s.logger.Info("inspector listening", zap.String("addr", addr))
}

// handleStream sends the event history followed by live events as
// Server-Sent Events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for _, ev := range s.bus.History() {
		writeEvent(w, ev)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// Status summarizes the run so far.
type Status struct {
	Uptime           string `json:"uptime"`
	Events           int    `json:"events"`
	TasksCompleted   int    `json:"tasks_completed"`
	TasksSkipped     int    `json:"tasks_skipped"`
	ProviderFailures int    `json:"provider_failures"`
	IndexRebuilds    int    `json:"index_rebuilds"`
	Tools            int    `json:"tools"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	history := s.bus.History()
	st := Status{
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
		Events: len(history),
		Tools:  len(s.registry.Names()),
	}
	for _, ev := range history {
		switch ev.Type {
		case events.EventTaskCompleted:
			st.TasksCompleted++
		case events.EventTaskSkipped:
			st.TasksSkipped++
		case events.EventProviderFailed:
			st.ProviderFailures++
		case events.EventIndexRebuild:
			st.IndexRebuilds++
		}
	}
	writeJSON(w, st)
}

// handleHistory returns past events, optionally filtered with ?type=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var filter []events.EventType
	for _, t := range r.URL.Query()["type"] {
		filter = append(filter, events.EventType(t))
	}
	history := s.bus.History(filter...)
	if history == nil {
		history = []events.Event{}
	}
	writeJSON(w, history)
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Namespace   string       `json:"namespace"`
	InputSchema tools.Schema `json:"input_schema"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List("")
	infos := make([]ToolInfo, len(list))
	for i, t := range list {
		infos[i] = ToolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			Namespace:   t.Namespace(),
			InputSchema: t.InputSchema(),
		}
	}
	writeJSON(w, infos)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()
	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

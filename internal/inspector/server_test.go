package inspector

import (
	"bufio"
	gocontext "context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cgast/edgebench/pkg/events"
	"github.com/cgast/edgebench/pkg/harness"
	"github.com/cgast/edgebench/pkg/tools"
	"github.com/cgast/edgebench/pkg/tools/env"
)

func newInspector(t *testing.T) (*Server, *events.MemoryBus) {
	t.Helper()
	bus := events.NewMemoryBus()
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(&env.SetTool{}))
	return New(bus, reg, zaptest.NewLogger(t)), bus
}

func get(t *testing.T, s *Server, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestStatusCountsRunEvents(t *testing.T) {
	s, bus := newInspector(t)
	bus.Publish(events.NewEvent(events.EventTaskCompleted, "a", nil))
	bus.Publish(events.NewEvent(events.EventTaskCompleted, "b", nil))
	bus.Publish(events.NewEvent(events.EventTaskSkipped, "c", nil))
	bus.Publish(events.NewEvent(events.EventProviderFailed, "a", nil))
	bus.Publish(events.NewEvent(events.EventIndexRebuild, "/data", nil))

	var st Status
	require.Equal(t, http.StatusOK, get(t, s, "/api/status", &st))
	assert.Equal(t, 5, st.Events)
	assert.Equal(t, 2, st.TasksCompleted)
	assert.Equal(t, 1, st.TasksSkipped)
	assert.Equal(t, 1, st.ProviderFailures)
	assert.Equal(t, 1, st.IndexRebuilds)
	assert.Equal(t, 1, st.Tools)
}

func TestHistoryFilter(t *testing.T) {
	s, bus := newInspector(t)
	bus.Publish(events.NewEvent(events.EventTaskStart, "a", nil))
	bus.Publish(events.NewEvent(events.EventTaskSkipped, "a", nil))

	var all []events.Event
	require.Equal(t, http.StatusOK, get(t, s, "/api/history", &all))
	assert.Len(t, all, 2)

	var skipped []events.Event
	require.Equal(t, http.StatusOK, get(t, s, "/api/history?type=task.skipped", &skipped))
	require.Len(t, skipped, 1)
	assert.Equal(t, events.EventTaskSkipped, skipped[0].Type)
}

func TestToolsListing(t *testing.T) {
	s, _ := newInspector(t)
	var infos []ToolInfo
	require.Equal(t, http.StatusOK, get(t, s, "/api/tools", &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "env:set", infos[0].Name)
	assert.Contains(t, infos[0].InputSchema.Required, "name")
}

func TestReport(t *testing.T) {
	s, _ := newInspector(t)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/report", nil))

	s.SetReport(&harness.Report{RunID: "run-7", Summary: harness.Summary{GeneralAvg: 0.5, TaskCount: 2}})
	var doc map[string]any
	require.Equal(t, http.StatusOK, get(t, s, "/api/report", &doc))
	assert.Equal(t, "run-7", doc["runId"])
}

func TestStreamReplaysHistory(t *testing.T) {
	s, bus := newInspector(t)
	bus.Publish(events.NewEvent(events.EventRunStart, "run-1", nil))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := gocontext.WithTimeout(gocontext.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"run.start"`)
}

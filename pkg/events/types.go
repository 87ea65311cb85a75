package events

import "time"

// EventType identifies the kind of event emitted during a run.
type EventType string

const (
	EventRunStart       EventType = "run.start"
	EventRunEnd         EventType = "run.end"
	EventTaskStart      EventType = "task.start"
	EventTaskSkipped    EventType = "task.skipped"
	EventTaskCompleted  EventType = "task.completed"
	EventProviderFailed EventType = "provider.failed"
	EventReportWritten  EventType = "report.written"
	EventIndexRebuild   EventType = "index.rebuild"
	EventIndexReuse     EventType = "index.reuse"
	EventToolCall       EventType = "tool.call"
)

// Event represents a single runtime event. Subject names what the event is
// about: a task name, a data directory or a tool name.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Subject   string        `json:"subject,omitempty"`
	Data      any           `json:"data,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NewEvent creates a new Event with the current timestamp.
func NewEvent(typ EventType, subject string, data any) Event {
	return Event{
		Type:      typ,
		Timestamp: time.Now(),
		Subject:   subject,
		Data:      data,
	}
}

// Publisher is the write side of a bus. Components that only emit events
// accept a Publisher; a nil Publisher is valid and drops everything.
type Publisher interface {
	Publish(event Event)
}

// Emit publishes on p when p is non-nil.
func Emit(p Publisher, event Event) {
	if p != nil {
		p.Publish(event)
	}
}

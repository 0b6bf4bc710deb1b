package editing

// EventType names a session state change
type EventType string

const (
	EventImported        EventType = "imported"
	EventFilterAttached  EventType = "filter_attached"
	EventFilterFailed    EventType = "filter_failed"
	EventFilterCleared   EventType = "filter_cleared"
	EventTrimChanged     EventType = "trim_changed"
	EventExportStarted   EventType = "export_started"
	EventExportCompleted EventType = "export_completed"
	EventExportFailed    EventType = "export_failed"
	EventClosed          EventType = "closed"
)

// Event is emitted after each state change with a copy of the session
type Event struct {
	Type    EventType
	Session EditSession
	Err     error
}

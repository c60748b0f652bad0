package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldComponent = "component"
	FieldEvent     = "event"
	FieldVideoID   = "video_id"
	FieldRequestID = "request_id"

	// Playback fields
	FieldPosition = "position"
	FieldDuration = "duration"
	FieldPaused   = "paused"

	// Navigation fields
	FieldURL    = "url"
	FieldSource = "source"
	FieldPath   = "path"

	// Storage fields
	FieldBackend = "backend"
	FieldRecords = "records"
	FieldEvicted = "evicted"
)

// Package audit provides components for capturing security-relevant events:
// report creation, file downloads and rejected path resolutions.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action represents the type of action performed in an audit event.
type Action string

const (
	// ActionCreate indicates a report creation attempt.
	ActionCreate Action = "CREATE"
	// ActionDownload indicates a report file download attempt.
	ActionDownload Action = "DOWNLOAD"
	// ActionExport indicates a collections export.
	ActionExport Action = "EXPORT"
)

// Outcome represents the result of an audit action.
type Outcome string

const (
	// OutcomeSuccess indicates that the action completed successfully.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure indicates that the action failed due to an error.
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeDenied indicates that the action was denied, typically due to
	// missing privileges or a rejected path.
	OutcomeDenied Outcome = "DENIED"
)

// Entry represents a single audit log record.
type Entry struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Action       Action         `json:"action"`
	Outcome      Outcome        `json:"outcome"`
	AdminID      int64          `json:"admin_id,omitempty"`
	ClientIP     string         `json:"client_ip,omitempty"`
	Resource     string         `json:"resource,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewEntry creates an entry with a fresh ID and the current timestamp.
func NewEntry(action Action, outcome Outcome) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Outcome:   outcome,
	}
}

// WithAdmin sets the acting admin identity.
func (e *Entry) WithAdmin(adminID int64) *Entry {
	e.AdminID = adminID
	return e
}

// WithResource sets the affected resource type and ID.
func (e *Entry) WithResource(resource, id string) *Entry {
	e.Resource = resource
	e.ResourceID = id
	return e
}

// WithClientIP sets the originating network address.
func (e *Entry) WithClientIP(ip string) *Entry {
	e.ClientIP = ip
	return e
}

// WithError records the failure code and message.
func (e *Entry) WithError(code, message string) *Entry {
	e.ErrorCode = code
	e.ErrorMessage = message
	return e
}

// WithMetadata adds a metadata key-value pair.
func (e *Entry) WithMetadata(key string, value any) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// Logger is the interface that audit loggers must implement.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, entry *Entry) error
	// Close flushes buffered entries and releases resources.
	Close() error
}

// Config contains settings for constructing a Logger.
type Config struct {
	Enabled     bool
	Backend     string // file, stdout, noop
	FilePath    string
	BufferSize  int
	FlushPeriod time.Duration
}

// New constructs a Logger for the configured backend.
// A disabled config always yields the no-op logger.
func New(cfg *Config) (Logger, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNopLogger(), nil
	}

	switch cfg.Backend {
	case "stdout":
		return NewStdoutLogger(cfg), nil
	case "noop", "":
		return NewNopLogger(), nil
	default:
		return NewFileLogger(cfg)
	}
}

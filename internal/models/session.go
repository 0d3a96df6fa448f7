package models

import "time"

// SessionStatus represents the status of an editing session.
type SessionStatus string

const (
	SessionStatusOpen  SessionStatus = "open"
	SessionStatusError SessionStatus = "error" // nothing could be recovered
)

// ShapeSession represents a shapes file opened for editing.
type ShapeSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	Status           SessionStatus `json:"status"`
	Strategy         string        `json:"strategy,omitempty"` // parser strategy that produced the model
	ShapeCount       int           `json:"shapeCount"`
	NothingRecovered bool          `json:"nothingRecovered,omitempty"`
	Revision         int           `json:"revision"` // bumped on every model replacement
	OpenedAt         time.Time     `json:"openedAt"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	Errors           []ParseError  `json:"errors,omitempty"`
}

// ParseError represents a problem encountered while parsing a shapes file.
// Line is 0 when the underlying grammar did not report a location.
type ParseError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// NewShapeSession creates a new ShapeSession in open status.
func NewShapeSession(id, fileID string) *ShapeSession {
	return &ShapeSession{
		ID:       id,
		FileID:   fileID,
		Status:   SessionStatusOpen,
		OpenedAt: time.Now(),
		Errors:   make([]ParseError, 0),
	}
}

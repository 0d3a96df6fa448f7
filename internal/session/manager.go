package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shape-editor/backend/internal/models"
	"github.com/shape-editor/backend/internal/parser"
	"github.com/shape-editor/backend/internal/serializer"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 32

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrShapeNotFound is returned when a session holds no shape with the id.
	ErrShapeNotFound = errors.New("shape not found")
)

// Manager holds shapes files opened for editing. Callers only ever see
// copies of the stored model.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	opts     parser.Options
	logger   *zap.Logger
}

// SessionState holds the session metadata and the current model.
type SessionState struct {
	Session      *models.ShapeSession
	File         *models.ShapesFile
	Report       *parser.LenientReport // set when the lenient parser produced File
	LastAccessed time.Time             // Last time the session was accessed (for keep-alive)
}

// NewManager creates a session manager that parses with opts.
func NewManager(opts parser.Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		opts:     opts,
		logger:   logger.Named("session"),
	}
}

// Open parses content and starts a session for it. Parsing never fails;
// a grammar rejection is recorded in the session's Errors.
func (m *Manager) Open(fileID string, content []byte) (*models.ShapeSession, error) {
	start := time.Now()
	res := parser.ParseWithOptions(string(content), m.opts)
	return m.register(fileID, res, time.Since(start)), nil
}

// OpenFile reads and parses the file at path. Only I/O failures are
// returned as errors.
func (m *Manager) OpenFile(fileID, path string) (*models.ShapeSession, error) {
	start := time.Now()
	res, err := parser.ParseFileWithOptions(path, m.opts)
	if err != nil {
		m.logger.Warn("open failed", zap.String("fileId", fileID), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return m.register(fileID, res, time.Since(start)), nil
}

func (m *Manager) register(fileID string, res *parser.Result, elapsed time.Duration) *models.ShapeSession {
	sess := models.NewShapeSession(uuid.New().String(), fileID)
	sess.Strategy = string(res.Strategy)
	sess.ShapeCount = len(res.File.Shapes)
	sess.NothingRecovered = res.NothingRecovered()
	if sess.NothingRecovered {
		sess.Status = models.SessionStatusError
	}
	sess.ProcessingTimeMs = elapsed.Milliseconds()
	if res.StrictErr != nil {
		sess.Errors = append(sess.Errors, parseErrorFrom(res.StrictErr))
	}

	state := &SessionState{
		Session:      sess,
		File:         res.File,
		Report:       res.Report,
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.evictLocked()
	m.sessions[sess.ID] = state
	m.mu.Unlock()

	m.logger.Info("session opened",
		zap.String("session", sess.ID),
		zap.String("fileId", fileID),
		zap.String("strategy", sess.Strategy),
		zap.Int("shapes", sess.ShapeCount),
		zap.Bool("nothingRecovered", sess.NothingRecovered),
		zap.Duration("elapsed", elapsed))

	return copySession(sess)
}

func parseErrorFrom(err error) models.ParseError {
	var grammarErr *parser.GrammarError
	if errors.As(err, &grammarErr) {
		return models.ParseError{Line: grammarErr.Line, Reason: grammarErr.Message}
	}
	return models.ParseError{Reason: err.Error()}
}

// GetSession retrieves the session metadata.
func (m *Manager) GetSession(id string) (*models.ShapeSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return copySession(state.Session), true
}

// GetFile returns a deep copy of the session's model.
func (m *Manager) GetFile(id string) (*models.ShapesFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = time.Now()
	return state.File.Clone(), true
}

// GetReport returns the lenient scan report, if the lenient parser ran.
func (m *Manager) GetReport(id string) (*parser.LenientReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Report == nil {
		return nil, false
	}
	r := *state.Report
	return &r, true
}

// TouchSession updates the last accessed time for a session (keep-alive).
// Returns true if the session exists, false otherwise.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// ReplaceShapes swaps the whole model for a copy of file.
func (m *Manager) ReplaceShapes(id string, file *models.ShapesFile) (*models.ShapeSession, error) {
	if file == nil {
		file = models.NewShapesFile()
	}
	next := file.Clone()
	return m.update(id, func(state *SessionState) error {
		state.File = next
		return nil
	})
}

// UpsertShape replaces the first shape with shape.ID, or appends shape when
// no such shape exists.
func (m *Manager) UpsertShape(id string, shape models.Shape) (*models.ShapeSession, error) {
	next := shape.Clone()
	return m.update(id, func(state *SessionState) error {
		for i := range state.File.Shapes {
			if state.File.Shapes[i].ID == next.ID {
				state.File.Shapes[i] = next
				return nil
			}
		}
		state.File.Shapes = append(state.File.Shapes, next)
		return nil
	})
}

// DeleteShape removes every shape with shapeID; duplicates go together.
func (m *Manager) DeleteShape(id string, shapeID int) (*models.ShapeSession, error) {
	return m.update(id, func(state *SessionState) error {
		kept := state.File.Shapes[:0]
		for _, s := range state.File.Shapes {
			if s.ID != shapeID {
				kept = append(kept, s)
			}
		}
		if len(kept) == len(state.File.Shapes) {
			return fmt.Errorf("%w: %d", ErrShapeNotFound, shapeID)
		}
		clear(state.File.Shapes[len(kept):])
		state.File.Shapes = kept
		return nil
	})
}

// update applies fn under the write lock and bumps the revision on success.
func (m *Manager) update(id string, fn func(*SessionState) error) (*models.ShapeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := fn(state); err != nil {
		return nil, err
	}

	state.Session.Revision++
	state.Session.ShapeCount = len(state.File.Shapes)
	state.Session.NothingRecovered = false
	state.Session.Status = models.SessionStatusOpen
	state.LastAccessed = time.Now()

	m.logger.Debug("session updated",
		zap.String("session", id),
		zap.Int("revision", state.Session.Revision),
		zap.Int("shapes", state.Session.ShapeCount))

	return copySession(state.Session), nil
}

// Export renders the session's model as canonical shapes text.
func (m *Manager) Export(id string) (string, error) {
	file, ok := m.GetFile(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return serializer.Serialize(file), nil
}

// Close drops a session.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Info("session closed", zap.String("session", id))
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// evictLocked drops least recently used sessions until one more fits.
// m.mu must be held.
func (m *Manager) evictLocked() {
	for len(m.sessions) >= MaxSessions {
		var oldestID string
		var oldest time.Time
		for id, state := range m.sessions {
			if oldestID == "" || state.LastAccessed.Before(oldest) {
				oldestID, oldest = id, state.LastAccessed
			}
		}
		delete(m.sessions, oldestID)
		m.logger.Info("evicted session at capacity", zap.String("session", oldestID))
	}
}

// CleanupOldSessions removes sessions not accessed within maxAge.
// Should be called periodically by a background goroutine.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, state := range m.sessions {
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("cleaned up idle sessions", zap.Int("removed", removed), zap.Int("remaining", len(m.sessions)))
	}
	return removed
}

func copySession(s *models.ShapeSession) *models.ShapeSession {
	c := *s
	c.Errors = append([]models.ParseError(nil), s.Errors...)
	return &c
}

// handlers_session.go - Editing session handlers
package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shape-editor/backend/internal/models"
	"github.com/shape-editor/backend/internal/parser"
	"github.com/shape-editor/backend/internal/serializer"
	"github.com/shape-editor/backend/internal/session"
	"github.com/shape-editor/backend/internal/storage"
)

// headerRevision carries the session revision on model responses
const headerRevision = "X-Session-Revision"

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(store storage.Store, sessionMgr SessionManager, logger *zap.Logger) SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		logger:     logger,
	}
}

// HandleOpenSession parses a stored file into a new editing session
func (h *SessionHandlerImpl) HandleOpenSession(c echo.Context) error {
	var req openSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	content, err := h.store.ReadContent(req.FileID)
	if err != nil {
		return fromDomainError(err, "file", req.FileID)
	}

	sess, err := h.sessionMgr.Open(req.FileID, content)
	if err != nil {
		return NewInternalError("failed to open session", err)
	}

	status := "opened"
	if sess.NothingRecovered {
		status = "error"
	}
	if err := h.store.SetStatus(req.FileID, status); err != nil {
		h.logger.Warn("failed to record file status", zap.String("fileId", req.FileID), zap.Error(err))
	}

	return c.JSON(http.StatusCreated, sess)
}

// HandleGetSession returns the session's model; ?format=json|yaml|msgpack|lua
// selects the encoding
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	format, err := serializer.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return NewValidationError("format")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	file, ok := h.sessionMgr.GetFile(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	data, err := serializer.Encode(file, format)
	if err != nil {
		return NewInternalError("failed to encode shapes", err)
	}

	c.Response().Header().Set(headerRevision, strconv.Itoa(sess.Revision))
	c.Response().Header().Set(headerStrategy, sess.Strategy)
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

// HandleGetSessionStatus returns session metadata and, for lenient parses,
// the scan report
func (h *SessionHandlerImpl) HandleGetSessionStatus(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	resp := sessionStatusResponse{ShapeSession: sess}
	if report, ok := h.sessionMgr.GetReport(id); ok {
		resp.Report = report
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleSessionKeepAlive extends session lifetime while the editor is open
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if !h.sessionMgr.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleCloseSession drops a session
func (h *SessionHandlerImpl) HandleCloseSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if !h.sessionMgr.Close(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleReplaceShapes replaces the whole model. The body encoding follows
// Content-Type: JSON (default), YAML or msgpack.
func (h *SessionHandlerImpl) HandleReplaceShapes(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	file, err := decodeShapesBody(c)
	if err != nil {
		return err
	}

	sess, err := h.sessionMgr.ReplaceShapes(id, file)
	if err != nil {
		return fromDomainError(err, "session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleUpsertShape replaces or appends a single shape. The path id wins
// over any id in the body.
func (h *SessionHandlerImpl) HandleUpsertShape(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	shapeID, err := strconv.Atoi(c.Param("shapeId"))
	if err != nil {
		return NewValidationError("shapeId")
	}

	var shape models.Shape
	if err := json.NewDecoder(c.Request().Body).Decode(&shape); err != nil {
		return NewBadRequestError("invalid shape body", err)
	}
	shape.ID = shapeID

	sess, err := h.sessionMgr.UpsertShape(id, shape)
	if err != nil {
		return fromDomainError(err, "session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteShape removes every shape with the path id
func (h *SessionHandlerImpl) HandleDeleteShape(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	raw := c.Param("shapeId")
	shapeID, err := strconv.Atoi(raw)
	if err != nil {
		return NewValidationError("shapeId")
	}

	sess, err := h.sessionMgr.DeleteShape(id, shapeID)
	if errors.Is(err, session.ErrShapeNotFound) {
		return NewNotFoundError("shape", raw)
	}
	if err != nil {
		return fromDomainError(err, "session", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleExportSession renders the model as canonical shapes text. With
// ?save=true the text also replaces the session's source file.
func (h *SessionHandlerImpl) HandleExportSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	text, err := h.sessionMgr.Export(id)
	if err != nil {
		return fromDomainError(err, "session", id)
	}

	if save, _ := strconv.ParseBool(c.QueryParam("save")); save {
		if _, err := h.store.WriteContent(sess.FileID, []byte(text)); err != nil {
			return fromDomainError(err, "file", sess.FileID)
		}
		h.logger.Info("session exported to source file",
			zap.String("session", id),
			zap.String("fileId", sess.FileID),
			zap.Int("revision", sess.Revision))
	}

	c.Response().Header().Set(headerRevision, strconv.Itoa(sess.Revision))
	return c.Blob(http.StatusOK, luaContentType, []byte(text))
}

// decodeShapesBody reads a model document in the encoding named by the
// request's Content-Type.
func decodeShapesBody(c echo.Context) (*models.ShapesFile, error) {
	mediaType := echo.MIMEApplicationJSON
	if ct := c.Request().Header.Get(echo.HeaderContentType); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, NewBadRequestError("invalid Content-Type", err)
		}
		mediaType = parsed
	}

	var decode func(io.Reader) (*models.ShapesFile, error)
	switch mediaType {
	case serializer.FormatJSON.ContentType():
		decode = serializer.DecodeJSON
	case serializer.FormatYAML.ContentType(), "application/x-yaml", "text/yaml":
		decode = serializer.DecodeYAML
	case serializer.FormatMsgpack.ContentType(), "application/x-msgpack":
		decode = serializer.DecodeMsgpack
	default:
		return nil, NewUnsupportedMediaTypeError("unsupported model encoding: " + mediaType)
	}

	file, err := decode(c.Request().Body)
	if err != nil {
		return nil, NewBadRequestError("invalid shapes body", err)
	}
	return file, nil
}

// Request/Response types

type openSessionRequest struct {
	FileID string `json:"fileId"`
}

type sessionStatusResponse struct {
	*models.ShapeSession
	Report *parser.LenientReport `json:"report,omitempty"`
}

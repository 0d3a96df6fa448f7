// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/shape-editor/backend/internal/models"
	"github.com/shape-editor/backend/internal/parser"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// FileHandler handles stored shapes file operations
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleGetFileContent(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// ShapesHandler handles stateless transforms of posted shapes text
type ShapesHandler interface {
	HandleParse(c echo.Context) error
	HandleFormat(c echo.Context) error
	HandleRepair(c echo.Context) error
}

// SessionHandler handles editing session operations
type SessionHandler interface {
	HandleOpenSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleGetSessionStatus(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleCloseSession(c echo.Context) error
	HandleReplaceShapes(c echo.Context) error
	HandleUpsertShape(c echo.Context) error
	HandleDeleteShape(c echo.Context) error
	HandleExportSession(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Open(fileID string, content []byte) (*models.ShapeSession, error)
	GetSession(id string) (*models.ShapeSession, bool)
	GetFile(id string) (*models.ShapesFile, bool)
	GetReport(id string) (*parser.LenientReport, bool)
	TouchSession(id string) bool
	Close(id string) bool
	ReplaceShapes(id string, file *models.ShapesFile) (*models.ShapeSession, error)
	UpsertShape(id string, shape models.Shape) (*models.ShapeSession, error)
	DeleteShape(id string, shapeID int) (*models.ShapeSession, error)
	Export(id string) (string, error)
}

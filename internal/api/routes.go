// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shape-editor/backend/internal/parser"
	"github.com/shape-editor/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	SessionMgr        SessionManager
	Registry          *parser.Registry // nil uses the global registry
	ParserOptions     parser.Options
	DefaultStrategy   string // auto, strict or legacy; empty means auto
	AllowFile         func(name string) bool
	AllowFileDeletion bool
	Logger            *zap.Logger
	Version           string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Files   FileHandler
	Shapes  ShapesHandler
	Session SessionHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Files:   NewFileHandler(deps.Store, deps.AllowFile, deps.AllowFileDeletion),
		Shapes:  NewShapesHandler(deps.Registry, deps.ParserOptions, deps.DefaultStrategy),
		Session: NewSessionHandler(deps.Store, deps.SessionMgr, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Stored file routes
	fileGroup := apiGroup.Group("/files")
	fileGroup.POST("/upload", handlers.Files.HandleUploadFile)
	fileGroup.GET("/recent", handlers.Files.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Files.HandleGetFile)
	fileGroup.GET("/:id/content", handlers.Files.HandleGetFileContent)
	fileGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)
	fileGroup.PUT("/:id", handlers.Files.HandleRenameFile)

	// Stateless text transforms
	shapesGroup := apiGroup.Group("/shapes")
	shapesGroup.POST("/parse", handlers.Shapes.HandleParse)
	shapesGroup.POST("/format", handlers.Shapes.HandleFormat)
	shapesGroup.POST("/repair", handlers.Shapes.HandleRepair)

	// Editing session routes
	sessionGroup := apiGroup.Group("/sessions")
	sessionGroup.POST("", handlers.Session.HandleOpenSession)
	sessionGroup.GET("/:sessionId", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:sessionId", handlers.Session.HandleCloseSession)
	sessionGroup.GET("/:sessionId/status", handlers.Session.HandleGetSessionStatus)
	sessionGroup.POST("/:sessionId/keepalive", handlers.Session.HandleSessionKeepAlive)
	sessionGroup.PUT("/:sessionId/shapes", handlers.Session.HandleReplaceShapes)
	sessionGroup.PUT("/:sessionId/shapes/:shapeId", handlers.Session.HandleUpsertShape)
	sessionGroup.DELETE("/:sessionId/shapes/:shapeId", handlers.Session.HandleDeleteShape)
	sessionGroup.GET("/:sessionId/export", handlers.Session.HandleExportSession)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}

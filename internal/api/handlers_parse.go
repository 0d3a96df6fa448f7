// handlers_parse.go - Stateless shapes text handlers
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shape-editor/backend/internal/models"
	"github.com/shape-editor/backend/internal/parser"
	"github.com/shape-editor/backend/internal/serializer"
)

const (
	luaContentType = "text/x-lua; charset=utf-8"

	// headerStrategy reports which parser produced a response
	headerStrategy = "X-Parse-Strategy"
)

// ShapesHandlerImpl implements the ShapesHandler interface
type ShapesHandlerImpl struct {
	registry        *parser.Registry
	opts            parser.Options
	defaultStrategy string
}

// NewShapesHandler creates a new shapes handler instance. defaultStrategy
// applies when a request names none; empty means auto.
func NewShapesHandler(registry *parser.Registry, opts parser.Options, defaultStrategy string) ShapesHandler {
	if registry == nil {
		registry = parser.GetGlobalRegistry()
	}
	return &ShapesHandlerImpl{
		registry:        registry,
		opts:            opts,
		defaultStrategy: defaultStrategy,
	}
}

// HandleParse parses the posted text. ?strategy=auto|strict|legacy selects
// the parser; ?format=json|yaml|msgpack the response encoding.
func (h *ShapesHandlerImpl) HandleParse(c echo.Context) error {
	text, err := h.readText(c)
	if err != nil {
		return err
	}

	format, err := serializer.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return NewValidationError("format")
	}

	strategy := c.QueryParam("strategy")
	if strategy == "" {
		strategy = h.defaultStrategy
	}
	resp, err := h.parse(text, strategy)
	if err != nil {
		return err
	}
	c.Response().Header().Set(headerStrategy, string(resp.Strategy))

	if format != serializer.FormatJSON {
		data, err := serializer.Encode(resp.File, format)
		if err != nil {
			return NewInternalError("failed to encode shapes", err)
		}
		return c.Blob(http.StatusOK, format.ContentType(), data)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ShapesHandlerImpl) parse(text, strategy string) (*parseResponse, error) {
	var res *parser.Result
	switch strings.ToLower(strategy) {
	case "", "auto":
		res = parser.ParseWithOptions(text, h.opts)
	default:
		p, err := h.registry.GetParserByName(strategy)
		if err != nil {
			return nil, NewBadRequestError("unknown strategy", err)
		}
		res, err = parser.ParseWith(p, text, h.opts)
		if err != nil {
			return nil, NewParseError(err)
		}
	}

	resp := &parseResponse{
		Strategy:         res.Strategy,
		File:             res.File,
		Report:           res.Report,
		NothingRecovered: res.NothingRecovered(),
	}
	if res.StrictErr != nil {
		resp.Errors = []models.ParseError{toParseError(res.StrictErr)}
	}
	return resp, nil
}

// HandleFormat parses the posted text and returns it in canonical form
func (h *ShapesHandlerImpl) HandleFormat(c echo.Context) error {
	text, err := h.readText(c)
	if err != nil {
		return err
	}

	res := parser.ParseWithOptions(text, h.opts)
	if len(res.File.Shapes) == 0 && res.StrictErr != nil {
		return NewParseError(res.StrictErr)
	}

	c.Response().Header().Set(headerStrategy, string(res.Strategy))
	return c.Blob(http.StatusOK, luaContentType, []byte(serializer.Serialize(res.File)))
}

// HandleRepair returns the posted text after the repair pass
func (h *ShapesHandlerImpl) HandleRepair(c echo.Context) error {
	text, err := h.readText(c)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, luaContentType, []byte(parser.Repair(text)))
}

// readText reads the request body, enforcing the configured size limit.
func (h *ShapesHandlerImpl) readText(c echo.Context) (string, error) {
	body := io.Reader(c.Request().Body)
	if h.opts.MaxFileSize > 0 {
		body = io.LimitReader(body, h.opts.MaxFileSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", NewBadRequestError("failed to read body", err)
	}
	if h.opts.MaxFileSize > 0 && int64(len(data)) > h.opts.MaxFileSize {
		return "", fromDomainError(fmt.Errorf("%w: limit %d bytes", parser.ErrFileTooLarge, h.opts.MaxFileSize), "shapes", "")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", NewValidationError("body")
	}
	return string(data), nil
}

// Request/Response types

type parseResponse struct {
	Strategy         parser.Strategy       `json:"strategy"`
	File             *models.ShapesFile    `json:"file"`
	Report           *parser.LenientReport `json:"report,omitempty"`
	NothingRecovered bool                  `json:"nothingRecovered,omitempty"`
	Errors           []models.ParseError   `json:"errors,omitempty"`
}

func toParseError(err error) models.ParseError {
	apiErr := NewParseError(err)
	return models.ParseError{Line: apiErr.Line, Reason: apiErr.Details}
}

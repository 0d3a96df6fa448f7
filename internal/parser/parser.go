package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/shape-editor/backend/internal/models"
)

// Strategy names one way of turning shapes text into a model.
type Strategy string

const (
	// StrategyStrict is the grammar-driven parser.
	StrategyStrict Strategy = "strict"
	// StrategyLegacy is the line-scanning fallback.
	StrategyLegacy Strategy = "legacy"
)

// ShapeParser defines the interface for shapes parsing strategies.
type ShapeParser interface {
	// Name returns the unique name of the strategy.
	Name() string
	// Parse converts shapes text into a model.
	Parse(text string) (*models.ShapesFile, error)
}

// DetailedParser is a ShapeParser that also reports diagnostics.
type DetailedParser interface {
	ShapeParser
	ParseDetailed(text string) *Result
}

// ErrFileTooLarge is wrapped in an *IOError when a file exceeds Options.MaxFileSize.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Options controls the composed pipeline.
type Options struct {
	EnableRepair   bool
	EnableFallback bool
	MaxFileSize    int64 // bytes; 0 means unlimited
}

// DefaultOptions runs repair and fallback with no size limit.
func DefaultOptions() Options {
	return Options{EnableRepair: true, EnableFallback: true}
}

// Result is the outcome of the composed pipeline.
type Result struct {
	File      *models.ShapesFile `json:"file"`
	Strategy  Strategy           `json:"strategy"`
	StrictErr error              `json:"-"`
	Report    *LenientReport     `json:"report,omitempty"` // set when the fallback ran
}

// NothingRecovered reports whether the fallback ran and found shape-like
// lines without recovering any shape.
func (r *Result) NothingRecovered() bool {
	return r.Report != nil && r.Report.NothingRecovered()
}

// ParseShapesContent runs repair, then the strict parser, then the line
// scanner when the strict parser fails or finds nothing. It never returns
// an error; the fallback result is returned even when empty.
func ParseShapesContent(text string) (*models.ShapesFile, error) {
	return ParseShapesContentDetailed(text).File, nil
}

// ParseShapesContentDetailed is ParseShapesContent with diagnostics.
func ParseShapesContentDetailed(text string) *Result {
	return ParseWithOptions(text, DefaultOptions())
}

// ParseWithOptions runs the pipeline as configured by opts. With fallback
// disabled a strict failure yields an empty file and StrictErr is set.
func ParseWithOptions(text string, opts Options) *Result {
	if opts.EnableRepair {
		text = Repair(text)
	}

	file, err := ParseStrict(text)
	if err == nil && len(file.Shapes) > 0 {
		return &Result{File: file, Strategy: StrategyStrict}
	}

	res := &Result{StrictErr: err}
	if !opts.EnableFallback {
		res.File = models.NewShapesFile()
		res.Strategy = StrategyStrict
		return res
	}

	lenient, report := ParseLenient(text)
	res.File = lenient
	res.Strategy = StrategyLegacy
	res.Report = &report
	return res
}

// ParseWith runs the single parser p, repairing text first when opts say
// so. Fallback does not apply. A DetailedParser's report is kept.
func ParseWith(p ShapeParser, text string, opts Options) (*Result, error) {
	if opts.EnableRepair {
		text = Repair(text)
	}
	if d, ok := p.(DetailedParser); ok {
		return d.ParseDetailed(text), nil
	}
	file, err := p.Parse(text)
	if err != nil {
		return nil, err
	}
	return &Result{File: file, Strategy: Strategy(p.Name())}, nil
}

// ParseShapesFile reads path and parses its contents. Read failures are
// returned as *IOError; parse problems never are.
func ParseShapesFile(path string) (*models.ShapesFile, error) {
	res, err := ParseFileWithOptions(path, DefaultOptions())
	if err != nil {
		return nil, err
	}
	return res.File, nil
}

// ParseFileWithOptions is ParseShapesFile with diagnostics and options.
func ParseFileWithOptions(path string, opts Options) (*Result, error) {
	text, err := readShapesFile(path, opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return ParseWithOptions(text, opts), nil
}

func readShapesFile(path string, limit int64) (string, error) {
	if limit > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", &IOError{Op: "stat", Path: path, Err: err}
		}
		if info.Size() > limit {
			return "", &IOError{Op: "read", Path: path, Err: fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, info.Size(), limit)}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

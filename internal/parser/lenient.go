package parser

import (
	"regexp"
	"strings"

	"github.com/shape-editor/backend/internal/models"
)

// LegacyParser is the line-scanning strategy used when the grammar rejects
// the input. It recovers ids, scales and the launcher_radial flag only.
type LegacyParser struct{}

func NewLegacyParser() *LegacyParser {
	return &LegacyParser{}
}

func (p *LegacyParser) Name() string {
	return string(StrategyLegacy)
}

// Parse never fails; an input that matches nothing yields an empty file.
func (p *LegacyParser) Parse(text string) (*models.ShapesFile, error) {
	file, _ := ParseLenient(text)
	return file, nil
}

// ParseDetailed is Parse with the scan report attached.
func (p *LegacyParser) ParseDetailed(text string) *Result {
	file, report := ParseLenient(text)
	return &Result{File: file, Strategy: StrategyLegacy, Report: &report}
}

// LenientReport summarizes what the line scanner saw.
type LenientReport struct {
	Shapes         int `json:"shapes"`
	CandidateLines int `json:"candidateLines"` // top-level lines that looked like a shape start
	DroppedRows    int `json:"droppedRows"`    // vertex or port rows that failed to parse
}

// NothingRecovered reports whether shape-like lines were present but no
// shape could be recovered from them.
func (r LenientReport) NothingRecovered() bool {
	return r.Shapes == 0 && r.CandidateLines > 0
}

var (
	// innermost {...} group with no nested braces
	rowRegex = regexp.MustCompile(`\{([^{}]*)\}`)
	// section keywords inside a scale
	sectionRegex = regexp.MustCompile(`verts|ports`)
)

type scanMode int

const (
	scanNone scanMode = iota
	scanVerts
	scanPorts
)

// lenientScanner holds the state of one pass over the input.
type lenientScanner struct {
	file   *models.ShapesFile
	report LenientReport

	shape *models.Shape
	depth int
	mode  scanMode
}

// ParseLenient recovers shapes from text that may not be valid grammar.
// It is total: malformed rows are dropped and counted in the report.
func ParseLenient(text string) (*models.ShapesFile, LenientReport) {
	s := &lenientScanner{file: models.NewShapesFile()}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		if s.shape == nil {
			s.startShape(line)
			continue
		}
		s.inspect(line)
		s.depth += braceBalance(line)
		if s.depth <= 0 {
			s.finishShape()
		}
	}
	// an unterminated shape is kept as far as it was read
	s.finishShape()

	s.report.Shapes = len(s.file.Shapes)
	return s.file, s.report
}

// startShape opens a shape if line is "{id, ..." with an unsigned integer id.
// Depth starts at 1 for the shape's own brace plus whatever the rest of the
// line opens or closes.
func (s *lenientScanner) startShape(line string) {
	if !strings.HasPrefix(line, "{") {
		return
	}
	head := strings.TrimLeft(line, "{ \t")
	end := strings.IndexAny(head, ",{}")
	if end < 0 {
		end = len(head)
	}
	token := strings.TrimSpace(head[:end])
	if token == "" {
		return
	}
	s.report.CandidateLines++

	id, ok := parseUnsigned(token)
	if !ok {
		return
	}

	shape := models.NewShape(id)
	s.shape = &shape
	s.mode = scanNone

	rest := head[end:]
	s.inspect(rest)
	s.depth = 1 + braceBalance(rest)
	if s.depth <= 0 {
		s.finishShape()
	}
}

// inspect handles the content of one line inside a shape.
func (s *lenientScanner) inspect(line string) {
	if idx := strings.Index(line, "launcher_radial"); idx >= 0 {
		on := !strings.Contains(line[idx:], "false")
		s.shape.LauncherRadial = &on
	}

	if line == "}" || line == "}," {
		s.mode = scanNone
		return
	}

	// walk section keywords and row groups in offset order
	sections := sectionRegex.FindAllStringIndex(line, -1)
	next := 0
	apply := func(upTo int) {
		for next < len(sections) && sections[next][0] < upTo {
			at := sections[next][0]
			if line[at:sections[next][1]] == "verts" {
				if strings.Contains(line[at:], "{") {
					s.openScale()
				}
				s.mode = scanVerts
			} else {
				s.mode = scanPorts
			}
			next++
		}
	}

	for _, loc := range rowRegex.FindAllStringSubmatchIndex(line, -1) {
		apply(loc[0])
		s.addRow(line[loc[2]:loc[3]])
	}
	apply(len(line))
}

func (s *lenientScanner) addRow(body string) {
	if s.mode == scanNone || strings.TrimSpace(body) == "" {
		return
	}
	fields := splitRow(body)
	scale := s.currentScale()

	switch s.mode {
	case scanVerts:
		if len(fields) != 2 {
			s.report.DroppedRows++
			return
		}
		x, okX := parseNumber(fields[0], 32)
		y, okY := parseNumber(fields[1], 32)
		if !okX || !okY {
			s.report.DroppedRows++
			return
		}
		scale.Verts = append(scale.Verts, models.Vertex{X: float32(x), Y: float32(y)})
	case scanPorts:
		if len(fields) < 2 || len(fields) > 3 {
			s.report.DroppedRows++
			return
		}
		edge, okEdge := parseUnsigned(fields[0])
		pos, okPos := parseNumber(fields[1], 32)
		if !okEdge || !okPos {
			s.report.DroppedRows++
			return
		}
		port := models.Port{Edge: edge, Position: float32(pos)}
		if len(fields) == 3 {
			port.Type = models.ParsePortType(strings.Trim(fields[2], `"'`))
		}
		scale.Ports = append(scale.Ports, port)
	}
}

func (s *lenientScanner) openScale() {
	s.shape.Scales = append(s.shape.Scales, models.Scale{
		Verts: make([]models.Vertex, 0),
		Ports: make([]models.Port, 0),
	})
}

// currentScale returns the last scale, opening one if the shape has none.
func (s *lenientScanner) currentScale() *models.Scale {
	if len(s.shape.Scales) == 0 {
		s.openScale()
	}
	return &s.shape.Scales[len(s.shape.Scales)-1]
}

func (s *lenientScanner) finishShape() {
	if s.shape == nil {
		return
	}
	s.file.Shapes = append(s.file.Shapes, *s.shape)
	s.shape = nil
	s.depth = 0
	s.mode = scanNone
}

// splitRow splits "a, b, c" into trimmed fields, dropping one trailing empty field.
func splitRow(body string) []string {
	parts := strings.Split(body, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

func braceBalance(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}

// stripComment removes a trailing "--" comment.
func stripComment(line string) string {
	if idx := strings.Index(line, "--"); idx >= 0 {
		return line[:idx]
	}
	return line
}

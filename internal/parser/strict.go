package parser

import (
	"errors"
	"strings"

	"github.com/shape-editor/backend/internal/models"
	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// StrictParser is the grammar-driven strategy. It parses the text with a
// Lua table-literal grammar and walks the resulting expression tree.
type StrictParser struct{}

func NewStrictParser() *StrictParser {
	return &StrictParser{}
}

func (p *StrictParser) Name() string {
	return string(StrategyStrict)
}

func (p *StrictParser) Parse(text string) (*models.ShapesFile, error) {
	return ParseStrict(text)
}

// ParseStrict parses text as a shapes table. It fails with a *GrammarError
// when the grammar rejects the text, when no shapes table can be located,
// or when the table yields zero shapes. It performs no repair or fallback.
func ParseStrict(text string) (*models.ShapesFile, error) {
	chunk, err := parseChunk(text)
	if err != nil {
		return nil, err
	}

	table := locateShapesTable(chunk)
	if table == nil {
		return nil, &GrammarError{Message: ErrNoShapesTable.Error(), Cause: ErrNoShapesTable}
	}

	w := &walker{lines: strings.Split(text, "\n")}
	file := models.NewShapesFile()
	for _, entry := range table.Positional() {
		shapeTable, ok := entry.(*TableExpr)
		if !ok {
			continue
		}
		if shape, ok := w.shape(shapeTable); ok {
			file.Shapes = append(file.Shapes, shape)
		}
	}

	if len(file.Shapes) == 0 {
		return nil, &GrammarError{Message: ErrNoShapes.Error(), Line: table.Line(), Cause: ErrNoShapes}
	}
	return file, nil
}

// parseChunk parses text as the value of a return statement. If that fails
// the text is parsed as a chunk on its own, which accepts assignment forms
// such as "shapes = {...}".
func parseChunk(text string) ([]ast.Stmt, error) {
	chunk, err := parse.Parse(strings.NewReader("return "+text), "shapes.lua")
	if err == nil {
		return chunk, nil
	}
	if alt, altErr := parse.Parse(strings.NewReader(text), "shapes.lua"); altErr == nil {
		return alt, nil
	}
	return nil, newGrammarError(err)
}

func newGrammarError(err error) *GrammarError {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return &GrammarError{Message: perr.Message, Line: perr.Pos.Line, Cause: err}
	}
	return &GrammarError{Message: err.Error(), Cause: err}
}

// locateShapesTable finds the shapes table in order: a returned table, the
// right-hand side of the first table assignment, the first table local.
func locateShapesTable(chunk []ast.Stmt) *TableExpr {
	for _, stmt := range chunk {
		if ret, ok := stmt.(*ast.ReturnStmt); ok && len(ret.Exprs) > 0 {
			if t, ok := ret.Exprs[0].(*ast.TableExpr); ok {
				return lowerExpr(t).(*TableExpr)
			}
		}
	}
	for _, stmt := range chunk {
		if assign, ok := stmt.(*ast.AssignStmt); ok && len(assign.Rhs) > 0 {
			if t, ok := assign.Rhs[0].(*ast.TableExpr); ok {
				return lowerExpr(t).(*TableExpr)
			}
		}
	}
	for _, stmt := range chunk {
		if local, ok := stmt.(*ast.LocalAssignStmt); ok && len(local.Exprs) > 0 {
			if t, ok := local.Exprs[0].(*ast.TableExpr); ok {
				return lowerExpr(t).(*TableExpr)
			}
		}
	}
	return nil
}

// walker turns shape tables into models. lines holds the parsed source so
// display names can be read from trailing comments.
type walker struct {
	lines []string
}

// shape reads one shape table. The first positional entry must be an
// integer literal id; otherwise the shape is dropped.
func (w *walker) shape(t *TableExpr) (models.Shape, bool) {
	pos := t.Positional()
	if len(pos) == 0 {
		return models.Shape{}, false
	}
	idExpr, ok := pos[0].(*NumberExpr)
	if !ok {
		return models.Shape{}, false
	}
	id, ok := parseInteger(idExpr.Raw)
	if !ok || id < 0 {
		return models.Shape{}, false
	}

	shape := models.NewShape(int(id))
	shape.Name = w.trailingComment(idExpr.Line())

	if len(pos) > 1 {
		if block, ok := pos[1].(*TableExpr); ok {
			w.block(&shape, block)
		}
	}

	for _, f := range t.Fields {
		if f.Keyed && f.Key != "" {
			applyProperty(&shape, f.Key, f.Value)
		}
	}
	return shape, true
}

// block reads the properties block: positional tables are scales, named
// entries are extended properties.
func (w *walker) block(shape *models.Shape, t *TableExpr) {
	for _, f := range t.Fields {
		if !f.Keyed {
			if scaleTable, ok := f.Value.(*TableExpr); ok {
				shape.Scales = append(shape.Scales, readScale(scaleTable))
			}
			continue
		}
		if f.Key != "" {
			applyProperty(shape, f.Key, f.Value)
		}
	}
}

func (w *walker) trailingComment(line int) string {
	if line < 1 || line > len(w.lines) {
		return ""
	}
	src := w.lines[line-1]
	idx := strings.Index(src, "--")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(src[idx+2:])
}

func readScale(t *TableExpr) models.Scale {
	scale := models.Scale{
		Verts: make([]models.Vertex, 0),
		Ports: make([]models.Port, 0),
	}

	if v, ok := t.Named("verts"); ok {
		if verts, ok := v.(*TableExpr); ok {
			for _, entry := range verts.Positional() {
				if vert, ok := readVertex(entry); ok {
					scale.Verts = append(scale.Verts, vert)
				}
			}
		}
	}

	if v, ok := t.Named("ports"); ok {
		if ports, ok := v.(*TableExpr); ok {
			for _, entry := range ports.Positional() {
				if port, ok := readPort(entry); ok {
					scale.Ports = append(scale.Ports, port)
				}
			}
		}
	}

	return scale
}

// readVertex accepts {x, y} where each coordinate is a number or a negated number.
func readVertex(e Expr) (models.Vertex, bool) {
	t, ok := e.(*TableExpr)
	if !ok {
		return models.Vertex{}, false
	}
	pos := t.Positional()
	if len(pos) != 2 {
		return models.Vertex{}, false
	}
	x, okX := float32Value(pos[0])
	y, okY := float32Value(pos[1])
	if !okX || !okY {
		return models.Vertex{}, false
	}
	return models.Vertex{X: x, Y: y}, true
}

// readPort accepts {edge, position} or {edge, position, TYPE}.
func readPort(e Expr) (models.Port, bool) {
	t, ok := e.(*TableExpr)
	if !ok {
		return models.Port{}, false
	}
	pos := t.Positional()
	if len(pos) < 2 || len(pos) > 3 {
		return models.Port{}, false
	}
	edge, ok := integerValue(pos[0])
	if !ok {
		return models.Port{}, false
	}
	position, ok := float32Value(pos[1])
	if !ok {
		return models.Port{}, false
	}

	port := models.Port{Edge: int(edge), Position: position}
	if len(pos) == 3 {
		if tok, ok := tokenValue(pos[2]); ok {
			port.Type = models.ParsePortType(tok)
		}
	}
	return port, true
}

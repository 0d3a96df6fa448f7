package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shape-editor/backend/internal/models"
)

const squareShapes = "{\n  {5001, --Square\n    {\n      {\n        verts={\n          {5,-5},{-5,-5},{-5,5},{5,5}\n        },\n        ports={\n          {0,0.5},{1,0.5,THRUSTER_OUT}\n        }\n      }\n    }\n  },\n}\n"

func squareModel(name string) models.Shape {
	shape := models.NewShape(5001)
	shape.Name = name
	shape.Scales = []models.Scale{{
		Verts: []models.Vertex{{X: 5, Y: -5}, {X: -5, Y: -5}, {X: -5, Y: 5}, {X: 5, Y: 5}},
		Ports: []models.Port{
			{Edge: 0, Position: 0.5},
			{Edge: 1, Position: 0.5, Type: models.PortTypeThrusterOut},
		},
	}}
	return shape
}

func TestParseShapesContentSquare(t *testing.T) {
	file, err := ParseShapesContent(squareShapes)
	if err != nil {
		t.Fatalf("ParseShapesContent() error = %v", err)
	}
	if len(file.Shapes) != 1 {
		t.Fatalf("Expected 1 shape, got %d", len(file.Shapes))
	}
	if diff := cmp.Diff(squareModel("Square"), file.Shapes[0]); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShapesContentMissingIDComma(t *testing.T) {
	text := strings.Replace(squareShapes, "{5001,", "{5001", 1)

	res := ParseShapesContentDetailed(text)
	if res.Strategy != StrategyLegacy {
		t.Fatalf("Expected legacy strategy, got %s", res.Strategy)
	}
	if res.StrictErr == nil {
		t.Error("Expected strict error to be recorded")
	}
	if len(res.File.Shapes) != 1 {
		t.Fatalf("Expected 1 shape, got %d", len(res.File.Shapes))
	}
	// names are not recovered by the fallback
	if diff := cmp.Diff(squareModel(""), res.File.Shapes[0]); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShapesContentEmptyTable(t *testing.T) {
	res := ParseShapesContentDetailed("{\n}\n")
	if res.File == nil {
		t.Fatal("Expected non-nil file")
	}
	if len(res.File.Shapes) != 0 {
		t.Errorf("Expected 0 shapes, got %d", len(res.File.Shapes))
	}
	if res.NothingRecovered() {
		t.Error("An empty table should not be reported as a recovery failure")
	}
}

func TestParseShapesContentUnknownPortType(t *testing.T) {
	text := "{\n  {200,\n    {\n      {\n        verts={{0,0},{1,0},{1,1}},\n        ports={{0, 0.5, BOGUS}}\n      }\n    }\n  },\n}\n"

	file, err := ParseShapesContent(text)
	if err != nil {
		t.Fatalf("ParseShapesContent() error = %v", err)
	}
	if len(file.Shapes) != 1 || len(file.Shapes[0].Scales) != 1 {
		t.Fatalf("unexpected result: %+v", file)
	}
	ports := file.Shapes[0].Scales[0].Ports
	if len(ports) != 1 {
		t.Fatalf("Expected 1 port, got %d", len(ports))
	}
	if ports[0].Type != models.PortTypeDefault {
		t.Errorf("Expected default port type, got %s", ports[0].Type)
	}
}

func TestParseShapesContentNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"{",
		"{\n  {5001,\n    {\n      {\n        verts={\n          {1,2},\n",
		"this is not lua at all",
		"{{{{}}}}}}}",
	}
	for _, in := range inputs {
		file, err := ParseShapesContent(in)
		if err != nil {
			t.Errorf("ParseShapesContent(%q) error = %v", in, err)
		}
		if file == nil {
			t.Errorf("ParseShapesContent(%q) returned nil file", in)
		}
	}
}

func TestParseShapesContentUnterminated(t *testing.T) {
	text := "{\n  {5001,\n    {\n      {\n        verts={\n          {1,2},\n          {3,4},\n"

	res := ParseShapesContentDetailed(text)
	if res.Strategy != StrategyLegacy {
		t.Fatalf("Expected legacy strategy, got %s", res.Strategy)
	}
	if len(res.File.Shapes) != 1 {
		t.Fatalf("Expected 1 shape, got %d", len(res.File.Shapes))
	}
	verts := res.File.Shapes[0].Scales[0].Verts
	if len(verts) != 2 {
		t.Errorf("Expected 2 verts, got %d", len(verts))
	}
}

func TestParseShapesContentNothingRecovered(t *testing.T) {
	res := ParseShapesContentDetailed("{\n  {abc, broken\n")
	if len(res.File.Shapes) != 0 {
		t.Fatalf("Expected 0 shapes, got %d", len(res.File.Shapes))
	}
	if !res.NothingRecovered() {
		t.Error("Expected NothingRecovered for shape-like input")
	}
}

func TestParseWithOptionsNoFallback(t *testing.T) {
	res := ParseWithOptions("{5001", Options{EnableRepair: true})
	if res.Report != nil {
		t.Error("fallback should not have run")
	}
	if res.StrictErr == nil {
		t.Error("Expected strict error")
	}
	if len(res.File.Shapes) != 0 {
		t.Errorf("Expected empty file, got %d shapes", len(res.File.Shapes))
	}
}

func TestParseWithOptionsRepairDisabled(t *testing.T) {
	text := "{\n{100, {{verts={{0,0},{1,0}}, ports={}}}}\n{101, {{verts={{0,0},{1,0}}, ports={}}}}\n}\n"

	repaired := ParseWithOptions(text, DefaultOptions())
	if repaired.Strategy != StrategyStrict {
		t.Fatalf("Expected strict strategy after repair, got %s (%v)", repaired.Strategy, repaired.StrictErr)
	}
	if len(repaired.File.Shapes) != 2 {
		t.Errorf("Expected 2 shapes, got %d", len(repaired.File.Shapes))
	}

	raw := ParseWithOptions(text, Options{EnableFallback: true})
	if raw.Strategy != StrategyLegacy {
		t.Errorf("Expected legacy strategy without repair, got %s", raw.Strategy)
	}
}

func TestParseShapesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shapes.lua")
	if err := os.WriteFile(path, []byte(squareShapes), 0644); err != nil {
		t.Fatal(err)
	}

	file, err := ParseShapesFile(path)
	if err != nil {
		t.Fatalf("ParseShapesFile() error = %v", err)
	}
	if len(file.Shapes) != 1 || file.Shapes[0].ID != 5001 {
		t.Errorf("unexpected shapes: %+v", file.Shapes)
	}
}

func TestParseShapesFileMissing(t *testing.T) {
	_, err := ParseShapesFile(filepath.Join(t.TempDir(), "missing.lua"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !IsIOError(err) {
		t.Errorf("Expected *IOError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected error to wrap os.ErrNotExist, got %v", err)
	}
}

func TestParseFileWithOptionsTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.lua")
	if err := os.WriteFile(path, []byte(squareShapes), 0644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.MaxFileSize = 10
	_, err := ParseFileWithOptions(path, opts)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
	if !IsIOError(err) {
		t.Errorf("Expected *IOError, got %T", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if diff := cmp.Diff([]string{"strict", "legacy"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	p, err := r.GetParserByName("STRICT")
	if err != nil {
		t.Fatalf("GetParserByName() error = %v", err)
	}
	if _, err := p.Parse("{5001"); err == nil {
		t.Error("strict parser should reject malformed input")
	}

	legacy, err := r.GetParserByName("legacy")
	if err != nil {
		t.Fatalf("GetParserByName() error = %v", err)
	}
	file, err := legacy.Parse("{5001")
	if err != nil {
		t.Errorf("legacy parser should never fail, got %v", err)
	}
	if len(file.Shapes) != 1 {
		t.Errorf("Expected 1 shape from legacy parser, got %d", len(file.Shapes))
	}

	if _, err := r.GetParserByName("bogus"); err == nil {
		t.Error("Expected error for unknown parser")
	}
}

func TestParseWithLegacyKeepsReport(t *testing.T) {
	res, err := ParseWith(NewLegacyParser(), "{\n  {abc, broken\n", DefaultOptions())
	if err != nil {
		t.Fatalf("ParseWith() error = %v", err)
	}
	if res.Strategy != StrategyLegacy {
		t.Errorf("Expected legacy strategy, got %s", res.Strategy)
	}
	if res.Report == nil {
		t.Fatal("Expected a lenient report")
	}
	if !res.NothingRecovered() {
		t.Errorf("Expected NothingRecovered, report = %+v", *res.Report)
	}
}

func TestParseWithStrict(t *testing.T) {
	res, err := ParseWith(NewStrictParser(), squareShapes, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseWith() error = %v", err)
	}
	if res.Strategy != StrategyStrict || res.Report != nil {
		t.Errorf("unexpected result: strategy %s, report %v", res.Strategy, res.Report)
	}
	if len(res.File.Shapes) != 1 {
		t.Errorf("Expected 1 shape, got %d", len(res.File.Shapes))
	}

	if _, err := ParseWith(NewStrictParser(), "{5001", DefaultOptions()); err == nil {
		t.Error("strict parser should reject malformed input")
	}
}

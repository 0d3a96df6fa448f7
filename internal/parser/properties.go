package parser

import (
	"strconv"
	"strings"

	"github.com/shape-editor/backend/internal/models"
)

// applyProperty sets one extended property on shape. Unknown names and
// values of the wrong kind are ignored.
func applyProperty(shape *models.Shape, name string, value Expr) {
	switch name {
	case "launcher_radial":
		on := true
		if b, ok := value.(*BoolExpr); ok && !b.Value {
			on = false
		}
		shape.LauncherRadial = &on
	case "mirror_of":
		if v, ok := integerValue(value); ok {
			id := int(v)
			shape.MirrorOf = &id
		}
	case "group":
		if v, ok := integerValue(value); ok {
			g := int(v)
			shape.Group = &g
		}
	case "features":
		if features, ok := readFeatures(value); ok {
			shape.Features = features
		}
	case "fillColor":
		shape.FillColor = colorPtr(value, shape.FillColor)
	case "fillColor1":
		shape.FillColor1 = colorPtr(value, shape.FillColor1)
	case "lineColor":
		shape.LineColor = colorPtr(value, shape.LineColor)
	case "durability":
		shape.Durability = floatPtr(value, shape.Durability)
	case "density":
		shape.Density = floatPtr(value, shape.Density)
	case "growRate":
		shape.GrowRate = floatPtr(value, shape.GrowRate)
	case "shroud":
		if t, ok := value.(*TableExpr); ok {
			shape.Shroud = readShroud(t)
		}
	case "cannon":
		if t, ok := value.(*TableExpr); ok {
			shape.Cannon = readCannon(t)
		}
	case "thruster":
		if t, ok := value.(*TableExpr); ok {
			shape.Thruster = readThruster(t)
		}
	}
}

func colorValue(e Expr) (uint32, bool) {
	n, ok := e.(*NumberExpr)
	if !ok {
		return 0, false
	}
	return parseColor(n.Raw)
}

func colorPtr(e Expr, prev *uint32) *uint32 {
	if c, ok := colorValue(e); ok {
		return &c
	}
	return prev
}

func floatPtr(e Expr, prev *float32) *float32 {
	if f, ok := float32Value(e); ok {
		return &f
	}
	return prev
}

// readFeatures accepts "A|B", a bare identifier, or a table of tags.
func readFeatures(e Expr) ([]string, bool) {
	switch n := e.(type) {
	case *StringExpr:
		return splitFeatures(n.Value), true
	case *IdentExpr:
		return []string{n.Name}, true
	case *TableExpr:
		out := make([]string, 0)
		for _, entry := range n.Positional() {
			if tok, ok := tokenValue(entry); ok {
				out = append(out, splitFeatures(tok)...)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func splitFeatures(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// record reads the named numeric fields of a flat property table.
type record struct {
	t *TableExpr
}

func (r record) number(key string) float32 {
	if v, ok := r.t.Named(key); ok {
		if f, ok := float32Value(v); ok {
			return f
		}
	}
	return 0
}

func (r record) integer(key string) int {
	if v, ok := r.t.Named(key); ok {
		if n, ok := integerValue(v); ok {
			return int(n)
		}
	}
	return 0
}

func (r record) color(key string) *uint32 {
	if v, ok := r.t.Named(key); ok {
		if c, ok := colorValue(v); ok {
			return &c
		}
	}
	return nil
}

// floats reads a positional tuple of numbers into dst; missing entries stay zero.
func (r record) floats(key string, dst []float32) {
	v, ok := r.t.Named(key)
	if !ok {
		return
	}
	t, ok := v.(*TableExpr)
	if !ok {
		return
	}
	for i, entry := range t.Positional() {
		if i >= len(dst) {
			break
		}
		if f, ok := float32Value(entry); ok {
			dst[i] = f
		}
	}
}

func readShroud(t *TableExpr) []models.ShroudComponent {
	out := make([]models.ShroudComponent, 0)
	for _, entry := range t.Positional() {
		ct, ok := entry.(*TableExpr)
		if !ok {
			continue
		}
		r := record{ct}
		var c models.ShroudComponent
		r.floats("size", c.Size[:])
		r.floats("offset", c.Offset[:])
		c.Taper = r.number("taper")
		c.Count = r.integer("count")
		c.Angle = r.number("angle")
		c.TriColorID = r.integer("tri_color_id")
		c.TriColor1ID = r.integer("tri_color1_id")
		c.LineColorID = r.integer("line_color_id")
		c.Shape = r.integer("shape")
		out = append(out, c)
	}
	return out
}

func readCannon(t *TableExpr) *models.CannonProperties {
	r := record{t}
	c := &models.CannonProperties{
		Damage:       r.number("damage"),
		Power:        r.number("power"),
		RoundsPerSec: r.number("roundsPerSec"),
		MuzzleVel:    r.number("muzzleVel"),
		Range:        r.number("range"),
		Spread:       r.number("spread"),
		Color:        r.color("color"),
	}
	if v, ok := t.Named("roundsPerBurst"); ok {
		if n, ok := integerValue(v); ok {
			rounds := int(n)
			c.RoundsPerBurst = &rounds
		}
	}
	if v, ok := t.Named("burstyness"); ok {
		if f, ok := float32Value(v); ok {
			c.Burstyness = &f
		}
	}
	if v, ok := t.Named("explosive"); ok {
		c.Explosive = flagText(v)
	}
	if v, ok := t.Named("fragment"); ok {
		if ft, ok := v.(*TableExpr); ok {
			c.Fragment = readFragment(ft)
		}
	}
	return c
}

func readFragment(t *TableExpr) *models.FragmentProperties {
	r := record{t}
	f := &models.FragmentProperties{
		RoundsPerBurst: r.integer("roundsPerBurst"),
		MuzzleVel:      r.number("muzzleVel"),
		Spread:         r.number("spread"),
		Damage:         r.number("damage"),
		Range:          r.number("range"),
		Color:          r.color("color"),
	}
	if v, ok := t.Named("pattern"); ok {
		if s, ok := tokenValue(v); ok {
			f.Pattern = s
		}
	}
	return f
}

func readThruster(t *TableExpr) *models.ThrusterProperties {
	r := record{t}
	return &models.ThrusterProperties{
		Force: r.number("force"),
		Power: r.number("power"),
		Color: r.color("color"),
	}
}

// flagText returns the source text of a bare flag expression.
func flagText(e Expr) string {
	switch n := e.(type) {
	case *IdentExpr:
		return n.Name
	case *StringExpr:
		return n.Value
	case *NumberExpr:
		return n.Raw
	case *BoolExpr:
		return strconv.FormatBool(n.Value)
	case *UnaryMinusExpr:
		if inner := flagText(n.Operand); inner != "" {
			return "-" + inner
		}
	}
	return ""
}

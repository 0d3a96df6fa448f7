// Package serializer renders the shapes model back to Lua and to the
// interchange encodings served by the API.
package serializer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shape-editor/backend/internal/models"
)

const indent = "    "

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// luaReserved holds the keywords that cannot stand as a bare flag. true and
// false are absent: they read back as the same text.
var luaReserved = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "for": true, "function": true, "goto": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "until": true, "while": true,
}

// Serialize renders file in canonical form. Output depends only on the
// model: optional properties are emitted in a fixed order.
func Serialize(file *models.ShapesFile) string {
	var b strings.Builder
	b.WriteString("{\n")
	if file != nil {
		for i := range file.Shapes {
			writeShape(&b, &file.Shapes[i])
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func writeShape(b *strings.Builder, s *models.Shape) {
	line(b, 1, "{%d,%s", s.ID, nameComment(s.Name))
	line(b, 2, "{")

	for _, scale := range s.Scales {
		writeScale(b, scale)
	}

	if s.Group != nil {
		line(b, 3, "group = %d,", *s.Group)
	}
	if s.Features != nil {
		line(b, 3, "features = %s,", strconv.Quote(strings.Join(s.Features, "|")))
	}
	if s.FillColor != nil {
		line(b, 3, "fillColor = %s,", color(*s.FillColor))
	}
	if s.FillColor1 != nil {
		line(b, 3, "fillColor1 = %s,", color(*s.FillColor1))
	}
	if s.LineColor != nil {
		line(b, 3, "lineColor = %s,", color(*s.LineColor))
	}
	if s.Durability != nil {
		line(b, 3, "durability = %s,", number(*s.Durability))
	}
	if s.Density != nil {
		line(b, 3, "density = %s,", number(*s.Density))
	}
	if s.GrowRate != nil {
		line(b, 3, "growRate = %s,", number(*s.GrowRate))
	}
	if s.LauncherRadial != nil {
		line(b, 3, "launcher_radial = %t,", *s.LauncherRadial)
	}
	if s.MirrorOf != nil {
		line(b, 3, "mirror_of = %d,", *s.MirrorOf)
	}
	if s.Shroud != nil {
		writeShroud(b, s.Shroud)
	}
	if s.Cannon != nil {
		writeCannon(b, s.Cannon)
	}
	if s.Thruster != nil {
		line(b, 3, "thruster = {")
		line(b, 4, "force = %s,", number(s.Thruster.Force))
		line(b, 4, "power = %s,", number(s.Thruster.Power))
		if s.Thruster.Color != nil {
			line(b, 4, "color = %s,", color(*s.Thruster.Color))
		}
		line(b, 3, "},")
	}

	line(b, 2, "}")
	line(b, 1, "},")
}

func writeScale(b *strings.Builder, sc models.Scale) {
	line(b, 3, "{")

	if len(sc.Verts) == 0 {
		line(b, 4, "verts = {},")
	} else {
		line(b, 4, "verts = {")
		for _, v := range sc.Verts {
			line(b, 5, "{%s, %s},", number(v.X), number(v.Y))
		}
		line(b, 4, "},")
	}

	if len(sc.Ports) == 0 {
		line(b, 4, "ports = {}")
	} else {
		line(b, 4, "ports = {")
		for _, p := range sc.Ports {
			if p.Type.IsDefault() {
				line(b, 5, "{%d, %s},", p.Edge, number(p.Position))
			} else {
				line(b, 5, "{%d, %s, %s},", p.Edge, number(p.Position), p.Type.Token())
			}
		}
		line(b, 4, "}")
	}

	line(b, 3, "},")
}

func writeShroud(b *strings.Builder, shroud []models.ShroudComponent) {
	line(b, 3, "shroud = {")
	for _, c := range shroud {
		line(b, 4, "{size = {%s, %s}, offset = {%s, %s, %s}, taper = %s, count = %d, angle = %s, tri_color_id = %d, tri_color1_id = %d, line_color_id = %d, shape = %d},",
			number(c.Size[0]), number(c.Size[1]),
			number(c.Offset[0]), number(c.Offset[1]), number(c.Offset[2]),
			number(c.Taper), c.Count, number(c.Angle),
			c.TriColorID, c.TriColor1ID, c.LineColorID, c.Shape)
	}
	line(b, 3, "},")
}

func writeCannon(b *strings.Builder, c *models.CannonProperties) {
	line(b, 3, "cannon = {")
	line(b, 4, "damage = %s,", number(c.Damage))
	line(b, 4, "power = %s,", number(c.Power))
	line(b, 4, "roundsPerSec = %s,", number(c.RoundsPerSec))
	line(b, 4, "muzzleVel = %s,", number(c.MuzzleVel))
	line(b, 4, "range = %s,", number(c.Range))
	line(b, 4, "spread = %s,", number(c.Spread))
	if c.RoundsPerBurst != nil {
		line(b, 4, "roundsPerBurst = %d,", *c.RoundsPerBurst)
	}
	if c.Burstyness != nil {
		line(b, 4, "burstyness = %s,", number(*c.Burstyness))
	}
	if c.Color != nil {
		line(b, 4, "color = %s,", color(*c.Color))
	}
	if c.Explosive != "" {
		line(b, 4, "explosive = %s,", flagLiteral(c.Explosive))
	}
	if f := c.Fragment; f != nil {
		line(b, 4, "fragment = {")
		line(b, 5, "roundsPerBurst = %d,", f.RoundsPerBurst)
		line(b, 5, "muzzleVel = %s,", number(f.MuzzleVel))
		line(b, 5, "spread = %s,", number(f.Spread))
		if f.Pattern != "" {
			line(b, 5, "pattern = %s,", strconv.Quote(f.Pattern))
		}
		line(b, 5, "damage = %s,", number(f.Damage))
		line(b, 5, "range = %s,", number(f.Range))
		if f.Color != nil {
			line(b, 5, "color = %s,", color(*f.Color))
		}
		line(b, 4, "},")
	}
	line(b, 3, "},")
}

func line(b *strings.Builder, depth int, format string, args ...any) {
	for i := 0; i < depth; i++ {
		b.WriteString(indent)
	}
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

func nameComment(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\n", " "))
	if name == "" {
		return ""
	}
	return " --" + name
}

// number renders the shortest decimal that reads back as the same float32.
func number(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// flagLiteral writes a flag bare when it is a single identifier and quoted
// otherwise, so values like "FINAL|PROXIMITY" stay valid Lua.
func flagLiteral(s string) string {
	if identRegex.MatchString(s) && !luaReserved[s] {
		return s
	}
	return strconv.Quote(s)
}

func color(c uint32) string {
	return fmt.Sprintf("0x%08x", c)
}

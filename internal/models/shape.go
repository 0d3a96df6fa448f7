// Package models contains domain types for the Reassembly shape editor backend.
package models

// ShapesFile is the parsed contents of a shapes.lua file.
// Shape order is significant and duplicate ids are allowed.
type ShapesFile struct {
	Shapes []Shape `json:"shapes" yaml:"shapes"`
}

// NewShapesFile creates an empty ShapesFile.
func NewShapesFile() *ShapesFile {
	return &ShapesFile{Shapes: make([]Shape, 0)}
}

// ByID returns the first shape with the given id.
func (f *ShapesFile) ByID(id int) (*Shape, bool) {
	for i := range f.Shapes {
		if f.Shapes[i].ID == id {
			return &f.Shapes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the file.
func (f *ShapesFile) Clone() *ShapesFile {
	if f == nil {
		return nil
	}
	out := &ShapesFile{Shapes: make([]Shape, len(f.Shapes))}
	for i := range f.Shapes {
		out.Shapes[i] = f.Shapes[i].Clone()
	}
	return out
}

// Shape is one block silhouette definition.
// Pointer and slice fields are optional; nil means the property is absent.
type Shape struct {
	ID             int                 `json:"id" yaml:"id"`
	Name           string              `json:"name,omitempty" yaml:"name,omitempty"` // from the trailing comment on the id line
	Scales         []Scale             `json:"scales" yaml:"scales"`
	LauncherRadial *bool               `json:"launcherRadial,omitempty" yaml:"launcher_radial,omitempty"`
	MirrorOf       *int                `json:"mirrorOf,omitempty" yaml:"mirror_of,omitempty"` // weak reference by id
	Group          *int                `json:"group,omitempty" yaml:"group,omitempty"`
	Features       []string            `json:"features,omitempty" yaml:"features,omitempty"`
	FillColor      *uint32             `json:"fillColor,omitempty" yaml:"fill_color,omitempty"`
	FillColor1     *uint32             `json:"fillColor1,omitempty" yaml:"fill_color1,omitempty"`
	LineColor      *uint32             `json:"lineColor,omitempty" yaml:"line_color,omitempty"`
	Durability     *float32            `json:"durability,omitempty" yaml:"durability,omitempty"`
	Density        *float32            `json:"density,omitempty" yaml:"density,omitempty"`
	GrowRate       *float32            `json:"growRate,omitempty" yaml:"grow_rate,omitempty"`
	Shroud         []ShroudComponent   `json:"shroud,omitempty" yaml:"shroud,omitempty"`
	Cannon         *CannonProperties   `json:"cannon,omitempty" yaml:"cannon,omitempty"`
	Thruster       *ThrusterProperties `json:"thruster,omitempty" yaml:"thruster,omitempty"`
}

// NewShape creates a shape with the given id and no scales.
func NewShape(id int) Shape {
	return Shape{ID: id, Scales: make([]Scale, 0)}
}

// IsLauncherRadial reports whether the launcher_radial flag is set to true.
func (s *Shape) IsLauncherRadial() bool {
	return s.LauncherRadial != nil && *s.LauncherRadial
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	out := s
	if s.Scales != nil {
		out.Scales = make([]Scale, len(s.Scales))
		for i, sc := range s.Scales {
			out.Scales[i] = sc.Clone()
		}
	}
	out.LauncherRadial = clonePtr(s.LauncherRadial)
	out.MirrorOf = clonePtr(s.MirrorOf)
	out.Group = clonePtr(s.Group)
	out.FillColor = clonePtr(s.FillColor)
	out.FillColor1 = clonePtr(s.FillColor1)
	out.LineColor = clonePtr(s.LineColor)
	out.Durability = clonePtr(s.Durability)
	out.Density = clonePtr(s.Density)
	out.GrowRate = clonePtr(s.GrowRate)
	if s.Features != nil {
		out.Features = append([]string(nil), s.Features...)
	}
	if s.Shroud != nil {
		out.Shroud = append([]ShroudComponent(nil), s.Shroud...)
	}
	if s.Cannon != nil {
		c := *s.Cannon
		c.RoundsPerBurst = clonePtr(s.Cannon.RoundsPerBurst)
		c.Burstyness = clonePtr(s.Cannon.Burstyness)
		c.Color = clonePtr(s.Cannon.Color)
		if s.Cannon.Fragment != nil {
			f := *s.Cannon.Fragment
			f.Color = clonePtr(s.Cannon.Fragment.Color)
			c.Fragment = &f
		}
		out.Cannon = &c
	}
	if s.Thruster != nil {
		t := *s.Thruster
		t.Color = clonePtr(s.Thruster.Color)
		out.Thruster = &t
	}
	return out
}

// Scale is one level-of-detail variant of a shape.
type Scale struct {
	Verts []Vertex `json:"verts" yaml:"verts"`
	Ports []Port   `json:"ports" yaml:"ports"`
}

// Edge returns the segment from vertex i to vertex (i+1) mod n.
func (s Scale) Edge(i int) (Vertex, Vertex, bool) {
	n := len(s.Verts)
	if i < 0 || i >= n {
		return Vertex{}, Vertex{}, false
	}
	return s.Verts[i], s.Verts[(i+1)%n], true
}

// Clone returns a deep copy of the scale.
func (s Scale) Clone() Scale {
	out := Scale{}
	if s.Verts != nil {
		out.Verts = append([]Vertex(nil), s.Verts...)
	}
	if s.Ports != nil {
		out.Ports = append([]Port(nil), s.Ports...)
	}
	return out
}

// Vertex is one point of a scale's boundary polygon.
type Vertex struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Port is an attachment point at a fractional offset along an edge.
// Edge is a bare index into the scale's vertices and is not bounds-checked.
type Port struct {
	Edge     int      `json:"edge" yaml:"edge"`
	Position float32  `json:"position" yaml:"position"`
	Type     PortType `json:"type,omitempty" yaml:"type,omitempty"`
}

// ShroudComponent is one decorative shroud element.
type ShroudComponent struct {
	Size        [2]float32 `json:"size" yaml:"size"`
	Offset      [3]float32 `json:"offset" yaml:"offset"`
	Taper       float32    `json:"taper" yaml:"taper"`
	Count       int        `json:"count" yaml:"count"`
	Angle       float32    `json:"angle" yaml:"angle"`
	TriColorID  int        `json:"triColorId" yaml:"tri_color_id"`
	TriColor1ID int        `json:"triColor1Id" yaml:"tri_color1_id"`
	LineColorID int        `json:"lineColorId" yaml:"line_color_id"`
	Shape       int        `json:"shape" yaml:"shape"`
}

// CannonProperties describes a cannon block's ballistics.
type CannonProperties struct {
	Damage         float32             `json:"damage" yaml:"damage"`
	Power          float32             `json:"power" yaml:"power"`
	RoundsPerSec   float32             `json:"roundsPerSec" yaml:"rounds_per_sec"`
	MuzzleVel      float32             `json:"muzzleVel" yaml:"muzzle_vel"`
	Range          float32             `json:"range" yaml:"range"`
	Spread         float32             `json:"spread" yaml:"spread"`
	RoundsPerBurst *int                `json:"roundsPerBurst,omitempty" yaml:"rounds_per_burst,omitempty"`
	Burstyness     *float32            `json:"burstyness,omitempty" yaml:"burstyness,omitempty"`
	Color          *uint32             `json:"color,omitempty" yaml:"color,omitempty"`
	Explosive      string              `json:"explosive,omitempty" yaml:"explosive,omitempty"` // bare flag expression, e.g. PROXIMITY
	Fragment       *FragmentProperties `json:"fragment,omitempty" yaml:"fragment,omitempty"`
}

// FragmentProperties describes the fragments a cannon round splits into.
type FragmentProperties struct {
	RoundsPerBurst int     `json:"roundsPerBurst" yaml:"rounds_per_burst"`
	MuzzleVel      float32 `json:"muzzleVel" yaml:"muzzle_vel"`
	Spread         float32 `json:"spread" yaml:"spread"`
	Pattern        string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Damage         float32 `json:"damage" yaml:"damage"`
	Range          float32 `json:"range" yaml:"range"`
	Color          *uint32 `json:"color,omitempty" yaml:"color,omitempty"`
}

// ThrusterProperties describes a thruster block.
type ThrusterProperties struct {
	Force float32 `json:"force" yaml:"force"`
	Power float32 `json:"power" yaml:"power"`
	Color *uint32 `json:"color,omitempty" yaml:"color,omitempty"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

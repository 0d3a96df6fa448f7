package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shape-editor/backend/internal/models"
)

func TestParseStrictNegativeCoordinates(t *testing.T) {
	text := "{\n  {300,\n    {\n      {verts={{-5, 3.5}, {-0.25, -1e2}}, ports={}}\n    }\n  },\n}"

	file, err := ParseStrict(text)
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	got := file.Shapes[0].Scales[0].Verts
	want := []models.Vertex{{X: -5.0, Y: 3.5}, {X: -0.25, Y: -100}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verts mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStrictTableLocation(t *testing.T) {
	body := "{ {400, {{verts={{0,0},{1,0},{0,1}}, ports={{0,0.5,WEAPON_IN}}}}} }"

	tests := []struct {
		name string
		text string
	}{
		{"bare table", body},
		{"return", "return " + body},
		{"assignment", "shapes = " + body},
		{"local", "local shapes = " + body},
		{"assignment after comments", "-- shapes file\n-- generated\nshapes = " + body},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := ParseStrict(tt.text)
			if err != nil {
				t.Fatalf("ParseStrict() error = %v", err)
			}
			if len(file.Shapes) != 1 || file.Shapes[0].ID != 400 {
				t.Fatalf("unexpected shapes: %+v", file.Shapes)
			}
			if got := file.Shapes[0].Scales[0].Ports[0].Type; got != models.PortTypeWeaponIn {
				t.Errorf("Expected WEAPON_IN, got %s", got)
			}
		})
	}
}

func TestParseStrictErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		cause error
	}{
		{"no table", "x = 5", ErrNoShapesTable},
		{"empty table", "{}", ErrNoShapes},
		{"only malformed shapes", "{ {\"abc\", {}}, {} }", ErrNoShapes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStrict(tt.text)
			var gerr *GrammarError
			if !errors.As(err, &gerr) {
				t.Fatalf("Expected *GrammarError, got %T (%v)", err, err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("Expected cause %v, got %v", tt.cause, err)
			}
		})
	}
}

func TestParseStrictSyntaxError(t *testing.T) {
	_, err := ParseStrict("{\n  {5001,\n    {{verts={{1,2}}\n")
	var gerr *GrammarError
	if !errors.As(err, &gerr) {
		t.Fatalf("Expected *GrammarError, got %T (%v)", err, err)
	}
	if gerr.Message == "" {
		t.Error("Expected grammar message")
	}
	if errors.Is(err, ErrNoShapes) || errors.Is(err, ErrNoShapesTable) {
		t.Error("syntax errors should not carry the table sentinels")
	}
}

func TestParseStrictDropsShapesWithoutID(t *testing.T) {
	text := "{\n  {\"named\", {}},\n  {0x1F4, {}},\n  {-7, {}},\n  {600, {}},\n}"

	file, err := ParseStrict(text)
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	var ids []int
	for _, s := range file.Shapes {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]int{500, 600}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStrictSkipsMalformedRows(t *testing.T) {
	text := `{
  {700,
    {
      {
        verts={{1}, {1,2,3}, {"a", 1}, {2, 2}, 5},
        ports={{0}, {0, 0.5, ROOT, 9}, {x, 0.5}, {1, 0.25, launcher}}
      }
    }
  }
}`
	file, err := ParseStrict(text)
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	scale := file.Shapes[0].Scales[0]
	if diff := cmp.Diff([]models.Vertex{{X: 2, Y: 2}}, scale.Verts); diff != "" {
		t.Errorf("verts mismatch (-want +got):\n%s", diff)
	}
	want := []models.Port{{Edge: 1, Position: 0.25, Type: models.PortTypeLauncher}}
	if diff := cmp.Diff(want, scale.Ports); diff != "" {
		t.Errorf("ports mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStrictExtendedProperties(t *testing.T) {
	text := `{
  {800, --Cannon Mount
    {
      {
        verts={{0,0},{10,0},{10,10}},
        ports={{0,0.5,WEAPON_OUT}}
      },
      group = 3,
      features = "CANNON|TURRET",
      fillColor = 0x00113077,
      fillColor1 = 0xff0000ff,
      lineColor = 255,
      durability = 0.5,
      density = -0.1,
      growRate = 2,
      mirror_of = 801,
      shroud = {
        {size = {1, 2}, offset = {0.5, -0.5, 0}, taper = 0.75, count = 2, angle = 90, tri_color_id = 1, tri_color1_id = 2, line_color_id = 3, shape = 801},
      },
      cannon = {
        damage = 10, power = 2, roundsPerSec = 4, muzzleVel = 900, range = 1200, spread = 0.1,
        roundsPerBurst = 3, burstyness = 0.5, color = 0xffaa00ff, explosive = PROXIMITY,
        fragment = {roundsPerBurst = 8, muzzleVel = 300, spread = 1, pattern = "RANDOM", damage = 2, range = 100, color = 0x11223344},
      },
      thruster = {force = 5000, power = 0.5, color = 0x80ff0000},
      unknown_key = {1, 2, 3},
    },
    launcher_radial = true,
  },
}`

	file, err := ParseStrict(text)
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	got := file.Shapes[0]

	group, mirror := 3, 801
	fill, fill1, line := uint32(0x00113077), uint32(0xff0000ff), uint32(255)
	durability, density, grow := float32(0.5), float32(-0.1), float32(2)
	radial := true
	rounds, bursty, cannonColor := 3, float32(0.5), uint32(0xffaa00ff)
	fragColor, thrustColor := uint32(0x11223344), uint32(0x80ff0000)

	want := models.Shape{
		ID:   800,
		Name: "Cannon Mount",
		Scales: []models.Scale{{
			Verts: []models.Vertex{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
			Ports: []models.Port{{Edge: 0, Position: 0.5, Type: models.PortTypeWeaponOut}},
		}},
		LauncherRadial: &radial,
		MirrorOf:       &mirror,
		Group:          &group,
		Features:       []string{"CANNON", "TURRET"},
		FillColor:      &fill,
		FillColor1:     &fill1,
		LineColor:      &line,
		Durability:     &durability,
		Density:        &density,
		GrowRate:       &grow,
		Shroud: []models.ShroudComponent{{
			Size: [2]float32{1, 2}, Offset: [3]float32{0.5, -0.5, 0}, Taper: 0.75, Count: 2, Angle: 90,
			TriColorID: 1, TriColor1ID: 2, LineColorID: 3, Shape: 801,
		}},
		Cannon: &models.CannonProperties{
			Damage: 10, Power: 2, RoundsPerSec: 4, MuzzleVel: 900, Range: 1200, Spread: 0.1,
			RoundsPerBurst: &rounds, Burstyness: &bursty, Color: &cannonColor, Explosive: "PROXIMITY",
			Fragment: &models.FragmentProperties{
				RoundsPerBurst: 8, MuzzleVel: 300, Spread: 1, Pattern: "RANDOM", Damage: 2, Range: 100, Color: &fragColor,
			},
		},
		Thruster: &models.ThrusterProperties{Force: 5000, Power: 0.5, Color: &thrustColor},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStrictLauncherRadial(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"YES", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			text := "{ {900, {{verts={}, ports={}}, launcher_radial = " + tt.value + "}} }"
			file, err := ParseStrict(text)
			if err != nil {
				t.Fatalf("ParseStrict() error = %v", err)
			}
			lr := file.Shapes[0].LauncherRadial
			if lr == nil || *lr != tt.want {
				t.Errorf("launcher_radial = %v, want %v", lr, tt.want)
			}
		})
	}
}

func TestParseStrictFeatureForms(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"pipe string", `"A | B|C"`, []string{"A", "B", "C"}},
		{"identifier", "THRUSTER", []string{"THRUSTER"}},
		{"table", `{"A", B}`, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "{ {901, {features = " + tt.value + "}} }"
			file, err := ParseStrict(text)
			if err != nil {
				t.Fatalf("ParseStrict() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, file.Shapes[0].Features); diff != "" {
				t.Errorf("features mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStrictScalesAlwaysHaveSlices(t *testing.T) {
	file, err := ParseStrict("{ {902, {{}}} }")
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	scale := file.Shapes[0].Scales[0]
	if scale.Verts == nil || scale.Ports == nil {
		t.Errorf("Expected non-nil verts and ports, got %+v", scale)
	}
}

func TestParseStrictExplosiveForms(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"identifier", "PROXIMITY", "PROXIMITY"},
		{"pipe string", `"FINAL|PROXIMITY"`, "FINAL|PROXIMITY"},
		{"true", "true", "true"},
		{"false", "false", "false"},
		{"number", "2", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "{ {903, {{verts={}, ports={}}, cannon = {damage = 1, explosive = " + tt.value + "}}} }"
			file, err := ParseStrict(text)
			if err != nil {
				t.Fatalf("ParseStrict() error = %v", err)
			}
			cannon := file.Shapes[0].Cannon
			if cannon == nil {
				t.Fatal("Expected cannon properties")
			}
			if cannon.Explosive != tt.want {
				t.Errorf("explosive = %q, want %q", cannon.Explosive, tt.want)
			}
		})
	}
}

func TestParseStrictPortTypeIsCaseSensitive(t *testing.T) {
	file, err := ParseStrict("{ {904, {{verts={{0,0},{1,0}}, ports={{0,0.5,thruster_in},{1,0.5,THRUSTER_IN}}}}} }")
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	want := []models.Port{
		{Edge: 0, Position: 0.5, Type: models.PortTypeDefault},
		{Edge: 1, Position: 0.5, Type: models.PortTypeThrusterIn},
	}
	if diff := cmp.Diff(want, file.Shapes[0].Scales[0].Ports); diff != "" {
		t.Errorf("ports mismatch (-want +got):\n%s", diff)
	}
}

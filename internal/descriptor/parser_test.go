package descriptor

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadFile(t *testing.T) {
	set, err := LoadFile("testdata/warrior.yaml")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if len(set.Sources) != 1 {
		t.Errorf("Expected 1 source, got %d", len(set.Sources))
	}
	if len(set.Skeletons) != 1 {
		t.Errorf("Expected 1 skeleton, got %d", len(set.Skeletons))
	}
	if len(set.Animations) != 5 {
		t.Errorf("Expected all 5 animation definitions to be kept, got %d", len(set.Animations))
	}

	area := set.Interaction.HoverArea
	if area.Left != -0.3 || area.Right != 0.3 || area.Top != 0.4 || area.Bottom != 0 {
		t.Errorf("Unexpected hover area %+v", area)
	}

	skel, ok := set.Skeleton("warrior")
	if !ok {
		t.Fatal("Expected skeleton 'warrior'")
	}
	if skel.ScaleOrDefault() != 0.01 {
		t.Errorf("Expected scale 0.01, got %v", skel.ScaleOrDefault())
	}

	src, ok := set.Source("warrior_body")
	if !ok {
		t.Fatal("Expected source 'warrior_body'")
	}
	if src.PivotX != 30 || src.PivotY != 70 {
		t.Errorf("Expected pivot (30, 70), got (%v, %v)", src.PivotX, src.PivotY)
	}
}

func TestDuplicateAnimationLastWins(t *testing.T) {
	for i := 0; i < 3; i++ {
		set, err := LoadFile("testdata/warrior.yaml")
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}

		walk, ok := set.Animation("warrior", "walk")
		if !ok {
			t.Fatal("Expected animation 'walk'")
		}
		if walk.Length != 0.4 {
			t.Errorf("load %d: expected the last 'walk' (length 0.4), got length %v", i, walk.Length)
		}
		if len(walk.Keys) != 5 {
			t.Errorf("load %d: expected 5 keys, got %d", i, len(walk.Keys))
		}
	}
}

func TestAnimationIDs(t *testing.T) {
	set, err := LoadFile("testdata/warrior.yaml")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	got := set.AnimationIDs("warrior")
	want := []string{"idle", "walk", "pick", "still"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("AnimationIDs = %v, want %v", got, want)
	}

	// 返回的是副本
	got[0] = "changed"
	if set.AnimationIDs("warrior")[0] != "idle" {
		t.Error("AnimationIDs exposed internal state")
	}

	if ids := set.AnimationIDs("nobody"); len(ids) != 0 {
		t.Errorf("Expected no ids for unknown skeleton, got %v", ids)
	}
}

func TestSparseComponents(t *testing.T) {
	set, err := LoadFile("testdata/warrior.yaml")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	idle, _ := set.Animation("warrior", "idle")
	entry := idle.Muscles[0].Timeline[0]
	if entry.PositionX == nil || *entry.PositionX != -30 {
		t.Errorf("Expected position_x -30, got %v", entry.PositionX)
	}
	if entry.Angle != nil {
		t.Errorf("Expected angle to be unset, got %v", *entry.Angle)
	}
	if entry.ScaleX != nil || entry.ScaleY != nil {
		t.Error("Expected scale to be unset")
	}

	pick, _ := set.Animation("warrior", "pick")
	if pick.IsLooped {
		t.Error("Expected is_looped to default to false")
	}
	if pick.Muscles[0].Timeline[1].Easing != "out_quad" {
		t.Errorf("Expected easing out_quad, got %q", pick.Muscles[0].Timeline[1].Easing)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sprites/tiny.yaml": &fstest.MapFile{Data: []byte(`
sources:
  - {id: dot, name: dot.png, size_x: 2, size_y: 2, pivot_x: 1, pivot_y: 1}
skeletons:
  - id: dot
    bones:
      - {id: root, pose: {source_id: dot}}
`)},
	}

	set, err := LoadFS(fsys, "sprites/tiny.yaml")
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}
	skel, ok := set.Skeleton("dot")
	if !ok {
		t.Fatal("Expected skeleton 'dot'")
	}
	if skel.ScaleOrDefault() != 1 {
		t.Errorf("Expected default scale 1, got %v", skel.ScaleOrDefault())
	}

	if _, err := LoadFS(fsys, "sprites/missing.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadEmpty(t *testing.T) {
	set, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil) failed: %v", err)
	}
	if len(set.Skeletons) != 0 || len(set.Animations) != 0 {
		t.Error("Expected an empty set")
	}
	if ids := set.SkeletonIDs(); len(ids) != 0 {
		t.Errorf("Expected no skeleton ids, got %v", ids)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "sources: [\n"},
		{"unknown field", "sources:\n  - {id: a, colour: red}\n"},
		{"wrong type", "animations:\n  - {id: a, length: long}\n"},
		{"second document", "sources: []\n---\nanimations:\n  - {id: walk, skeleton_id: warrior}\n"},
		{"malformed second document", "sources: []\n---\nsources: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *ParseError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadTrailingDocumentSeparator(t *testing.T) {
	set, err := Load([]byte("sources:\n  - {id: body, size_x: 1, size_y: 1}\n---\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := set.Source("body"); !ok {
		t.Error("Expected source 'body'")
	}
}

func TestLoadFileWrapsValidationError(t *testing.T) {
	_, err := LoadFile("testdata/does_not_exist.yaml")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Error("A missing file must not be reported as a validation error")
	}
}

func TestRuntimeError(t *testing.T) {
	err := NewRuntimeError(ErrUnknownAnimation, "dance")
	if !errors.Is(err, ErrUnknownAnimation) {
		t.Error("Expected errors.Is to match ErrUnknownAnimation")
	}
	if errors.Is(err, ErrUnknownSkeleton) {
		t.Error("Did not expect errors.Is to match ErrUnknownSkeleton")
	}
	if !strings.Contains(err.Error(), "dance") {
		t.Errorf("Expected id in message, got %q", err.Error())
	}
}

package curriculum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const levelOneJSON = `{
  "version": "1.1.0",
  "courses": [{
    "title": "Ciclofficina",
    "teachingAreas": [{
      "name": "Meccanica Base",
      "color": "#22C55E",
      "modules": [
        {"id": "BIKE-1.1.1", "title": "Attrezzi di base", "estimatedDuration": 45},
        {"id": "BIKE-1.1.2", "title": "Smontaggio ruota",
         "toolsRequired": ["chiave 15"],
         "dependencies": [{"moduleId": "BIKE-1.1.1", "type": "mandatory"}]}
      ]
    }]
  }]
}`

const levelTwoYAML = `
version: "1.0.0"
teachingArea:
  name: Trasmissione
  description: Catena e cambi
modules:
  - id: BIKE-2.1.1
    title: Pulizia catena
    difficulty: intermedio
    dependencies:
      - moduleId: BIKE-1.1.2
      - moduleId: BIKE-1.1.1
        type: recommended
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDir_BothShapes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ciclofficina_level1.json", levelOneJSON)
	writeFile(t, dir, "ciclofficina_level2.yaml", levelTwoYAML)
	writeFile(t, dir, "notes.txt", "ignored")

	cat, err := LoadDir(context.Background(), dir, LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Problems) != 0 {
		t.Fatalf("unexpected problems: %v", cat.Problems)
	}
	if len(cat.Levels) != 2 {
		t.Fatalf("got %d levels, want 2", len(cat.Levels))
	}
	if cat.Levels[0].Area != "Meccanica Base" || cat.Levels[1].Area != "Trasmissione" {
		t.Errorf("areas = %q, %q", cat.Levels[0].Area, cat.Levels[1].Area)
	}
	if len(cat.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(cat.Entries))
	}

	first := cat.Entries[0].Module
	if first.Code != "BIKE-1.1.1" || first.Level != 1 || first.EstimatedMins != 45 {
		t.Errorf("first module = %+v", first)
	}

	second := cat.Entries[1]
	if second.Module.EstimatedMins != DefaultDuration {
		t.Errorf("default duration = %d, want %d", second.Module.EstimatedMins, DefaultDuration)
	}
	if want := "/ciclofficina-basics/meccanica-base/smontaggio-ruota"; second.Module.ContentPath != want {
		t.Errorf("content path = %q, want %q", second.Module.ContentPath, want)
	}
	if len(second.Requires) != 1 || second.Requires[0] != (Requirement{Code: "BIKE-1.1.1", Type: Mandatory}) {
		t.Errorf("requires = %+v", second.Requires)
	}

	third := cat.Entries[2]
	if third.Module.Level != 2 || third.Module.Difficulty != DifficultyIntermedio {
		t.Errorf("third module = %+v", third.Module)
	}
	want := []Requirement{{"BIKE-1.1.2", Mandatory}, {"BIKE-1.1.1", Recommended}}
	if len(third.Requires) != len(want) {
		t.Fatalf("requires = %+v, want %+v", third.Requires, want)
	}
	for i := range want {
		if third.Requires[i] != want[i] {
			t.Errorf("requires[%d] = %+v, want %+v", i, third.Requires[i], want[i])
		}
	}
}

func TestLoadDir_BrokenFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ciclofficina_level1.json", levelOneJSON)
	writeFile(t, dir, "ciclofficina_level2.json", `{"modules": [{"title": "no id"}]}`)
	writeFile(t, dir, "ciclofficina_level3.json", `{not json`)

	cat, err := LoadDir(context.Background(), dir, LoaderOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(cat.Entries))
	}
	if len(cat.Problems) != 2 {
		t.Fatalf("got %d problems, want 2: %v", len(cat.Problems), cat.Problems)
	}
	if !strings.Contains(cat.Problems[0], "ciclofficina_level2.json") {
		t.Errorf("problem should name the file: %q", cat.Problems[0])
	}
}

func TestLoadDir_DuplicateCodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ciclofficina_level1.json", levelOneJSON)
	writeFile(t, dir, "ciclofficina_level2.json", `{
	  "teachingArea": {"name": "Copia"},
	  "modules": [{"id": "BIKE-1.1.1", "title": "Duplicato"}]
	}`)

	cat, err := LoadDir(context.Background(), dir, LoaderOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(cat.Entries))
	}
	if len(cat.Problems) != 1 || !strings.Contains(cat.Problems[0], "duplicate module code BIKE-1.1.1") {
		t.Errorf("problems = %v", cat.Problems)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	if _, err := LoadDir(context.Background(), t.TempDir(), LoaderOptions{}); err == nil {
		t.Fatal("expected error for directory without level files")
	}
}

func TestParseLevel_Version(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.1.0", false},
		{"v1.0.0", false},
		{"2.0.0", true},
		{"latest", true},
	}
	for _, tt := range tests {
		body := `{"version": "` + tt.version + `", "teachingArea": {"name": "X"}, "modules": []}`
		_, _, err := ParseLevel("ciclofficina_level1.json", []byte(body), 1)
		if (err != nil) != tt.wantErr {
			t.Errorf("version %q: err = %v, wantErr %v", tt.version, err, tt.wantErr)
		}
	}
}

func TestParseLevel_SchemaRejectsBadDependencyType(t *testing.T) {
	body := `{"teachingArea": {"name": "X"}, "modules": [
	  {"id": "A", "title": "A", "dependencies": [{"moduleId": "B", "type": "optional"}]}
	]}`
	if _, _, err := ParseLevel("ciclofficina_level1.json", []byte(body), 1); err == nil {
		t.Fatal("expected schema error for unknown dependency type")
	}
}

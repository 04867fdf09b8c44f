package curriculum

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed level.schema.json
var levelSchemaJSON []byte

// levelFilePattern matches ciclofficina_level<N>.json|yaml|yml.
var levelFilePattern = regexp.MustCompile(`^ciclofficina_level(\d+)\.(json|ya?ml)$`)

// SupportedMajor is the only curriculum structure major version accepted.
const SupportedMajor = "v1"

// Requirement is a prerequisite declared by a curriculum file, by code.
type Requirement struct {
	Code string
	Type DependencyType
}

// Entry is a module loaded from a level file together with the
// prerequisites it declares.
type Entry struct {
	Module   Module
	Requires []Requirement
	Source   string
}

// Level summarizes one loaded level file.
type Level struct {
	Number      int
	File        string
	Version     string
	Area        string
	AreaColor   string
	Description string
	Modules     int
}

// Catalog is the result of loading a curriculum directory. Problems lists
// files or entries that were skipped; the rest of the catalog is usable.
type Catalog struct {
	Levels   []Level
	Entries  []Entry
	Problems []string
}

// LoaderOptions tunes LoadDir.
type LoaderOptions struct {
	// Concurrency bounds the number of files parsed at once. Default 4.
	Concurrency int
}

type levelDoc struct {
	Version string `json:"version"`
	Courses []struct {
		Title         string    `json:"title"`
		TeachingAreas []areaDoc `json:"teachingAreas"`
	} `json:"courses"`
	TeachingArea *areaDoc    `json:"teachingArea"`
	Modules      []moduleDoc `json:"modules"`
}

type areaDoc struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Color       string      `json:"color"`
	Modules     []moduleDoc `json:"modules"`
}

type moduleDoc struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Difficulty        string   `json:"difficulty"`
	Type              string   `json:"type"`
	EstimatedDuration int      `json:"estimatedDuration"`
	ToolsRequired     []string `json:"toolsRequired"`
	LearningOutcomes  []string `json:"learningOutcomes"`
	SkillTags         []string `json:"skillTags"`
	PracticalCriteria []string `json:"practicalCriteria"`
	ContentPath       string   `json:"contentPath"`
	Dependencies      []struct {
		ModuleID string `json:"moduleId"`
		Type     string `json:"type"`
	} `json:"dependencies"`
}

type parsedLevel struct {
	level   Level
	entries []Entry
	err     error
}

// LoadDir discovers level files in dir and parses them concurrently.
// A file that fails to parse or validate is reported in Catalog.Problems
// and skipped. Duplicate module codes keep the first occurrence.
func LoadDir(ctx context.Context, dir string, opts LoaderOptions) (*Catalog, error) {
	files, err := discover(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	results := make([]parsedLevel, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = parseLevelFile(f.path, f.number)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	cat := &Catalog{}
	seen := make(map[string]string)
	for _, r := range results {
		if r.err != nil {
			cat.Problems = append(cat.Problems, r.err.Error())
			continue
		}
		cat.Levels = append(cat.Levels, r.level)
		for _, e := range r.entries {
			if prev, dup := seen[e.Module.Code]; dup {
				cat.Problems = append(cat.Problems,
					fmt.Sprintf("%s: duplicate module code %s (first defined in %s)", e.Source, e.Module.Code, prev))
				continue
			}
			seen[e.Module.Code] = e.Source
			cat.Entries = append(cat.Entries, e)
		}
	}
	return cat, nil
}

type levelFile struct {
	path   string
	number int
}

func discover(dir string) ([]levelFile, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read curriculum dir: %w", err)
	}

	var files []levelFile
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		m := levelFilePattern.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, levelFile{path: filepath.Join(dir, de.Name()), number: n})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].number != files[j].number {
			return files[i].number < files[j].number
		}
		return files[i].path < files[j].path
	})
	return files, nil
}

// ParseLevel parses a single level document. The format is chosen from the
// file extension of name; level is the level number assigned to its modules.
func ParseLevel(name string, data []byte, level int) (Level, []Entry, error) {
	if isYAML(name) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Level{}, nil, fmt.Errorf("%s: parse yaml: %w", name, err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return Level{}, nil, fmt.Errorf("%s: convert yaml: %w", name, err)
		}
		data = converted
	}

	if err := validateLevel(data); err != nil {
		return Level{}, nil, fmt.Errorf("%s: %w", name, err)
	}

	var doc levelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Level{}, nil, fmt.Errorf("%s: decode: %w", name, err)
	}

	if doc.Version != "" {
		v := doc.Version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			return Level{}, nil, fmt.Errorf("%s: invalid structure version %q", name, doc.Version)
		}
		if semver.Major(v) != SupportedMajor {
			return Level{}, nil, fmt.Errorf("%s: unsupported structure version %q (want %s.x)", name, doc.Version, SupportedMajor)
		}
	}

	lvl := Level{Number: level, File: filepath.Base(name), Version: doc.Version}

	var areas []areaDoc
	switch {
	case len(doc.Courses) > 0:
		areas = doc.Courses[0].TeachingAreas
	case doc.TeachingArea != nil:
		area := *doc.TeachingArea
		area.Modules = doc.Modules
		areas = []areaDoc{area}
	}
	if len(areas) > 0 {
		lvl.Area = areas[0].Name
		lvl.AreaColor = areas[0].Color
		lvl.Description = areas[0].Description
	}

	var entries []Entry
	for _, area := range areas {
		for _, md := range area.Modules {
			e, err := md.entry(area.Name, level)
			if err != nil {
				return Level{}, nil, fmt.Errorf("%s: %w", name, err)
			}
			e.Source = lvl.File
			entries = append(entries, e)
		}
	}
	lvl.Modules = len(entries)
	return lvl, entries, nil
}

func parseLevelFile(path string, level int) parsedLevel {
	data, err := os.ReadFile(path)
	if err != nil {
		return parsedLevel{err: fmt.Errorf("read %s: %w", filepath.Base(path), err)}
	}
	lvl, entries, err := ParseLevel(path, data, level)
	if err != nil {
		return parsedLevel{err: err}
	}
	return parsedLevel{level: lvl, entries: entries}
}

func (md moduleDoc) entry(area string, level int) (Entry, error) {
	m := Module{
		Code:          md.ID,
		Title:         md.Title,
		Description:   md.Description,
		Kind:          Kind(md.Type),
		Difficulty:    Difficulty(md.Difficulty),
		EstimatedMins: md.EstimatedDuration,
		Tools:         md.ToolsRequired,
		Outcomes:      md.LearningOutcomes,
		SkillTags:     md.SkillTags,
		Criteria:      md.PracticalCriteria,
		TeachingArea:  area,
		Level:         level,
		ContentPath:   md.ContentPath,
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return Entry{}, err
	}

	e := Entry{Module: m}
	for _, d := range md.Dependencies {
		t := DependencyType(d.Type)
		if t == "" {
			t = Mandatory
		}
		e.Requires = append(e.Requires, Requirement{Code: strings.TrimSpace(d.ModuleID), Type: t})
	}
	return e, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

var (
	levelSchemaOnce sync.Once
	levelSchema     *jsonschema.Schema
	levelSchemaErr  error
)

func compiledLevelSchema() (*jsonschema.Schema, error) {
	levelSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(levelSchemaJSON))
		if err != nil {
			levelSchemaErr = fmt.Errorf("parse level schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://ciclofficina-level.json"
		if err := c.AddResource(url, doc); err != nil {
			levelSchemaErr = fmt.Errorf("add level schema: %w", err)
			return
		}
		levelSchema, levelSchemaErr = c.Compile(url)
	})
	return levelSchema, levelSchemaErr
}

func validateLevel(data []byte) error {
	schema, err := compiledLevelSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

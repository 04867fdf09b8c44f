package curriculum

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind is how a module is delivered.
type Kind string

const (
	KindPresenza Kind = "presenza"
	KindOnline   Kind = "online"
)

// Difficulty is the tier a module belongs to.
type Difficulty string

const (
	DifficultyBase       Difficulty = "base"
	DifficultyIntermedio Difficulty = "intermedio"
	DifficultyAvanzato   Difficulty = "avanzato"
)

// DependencyType tags an edge between a module and one of its prerequisites.
type DependencyType string

const (
	// Mandatory prerequisites must be completed before a module unlocks.
	Mandatory DependencyType = "mandatory"
	// Recommended prerequisites are advisory and never block.
	Recommended DependencyType = "recommended"
)

// Valid reports whether t is a known dependency type.
func (t DependencyType) Valid() bool {
	return t == Mandatory || t == Recommended
}

const (
	MaxTitleLen       = 200
	MaxCodeLen        = 50
	MaxDurationMins   = 24 * 60
	DefaultDuration   = 60
	ContentPathPrefix = "/ciclofficina-basics"
)

// Module is one learning unit of the curriculum. ID is the storage identity,
// Code is the identity humans and curriculum files use.
type Module struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	Kind          Kind       `json:"kind"`
	Difficulty    Difficulty `json:"difficulty"`
	EstimatedMins int        `json:"estimatedMins"`
	Tools         []string   `json:"tools,omitempty"`
	Outcomes      []string   `json:"outcomes,omitempty"`
	SkillTags     []string   `json:"skillTags,omitempty"`
	Criteria      []string   `json:"practicalCriteria,omitempty"`
	TeachingArea  string     `json:"teachingArea,omitempty"`
	Level         int        `json:"level"`
	ContentPath   string     `json:"contentPath,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Label renders "CODE Title" for listings.
func (m Module) Label() string {
	return m.Code + " " + m.Title
}

// Edge is a stored dependency: ModuleID requires PrerequisiteID.
type Edge struct {
	ID             string         `json:"id"`
	ModuleID       string         `json:"moduleId"`
	PrerequisiteID string         `json:"prerequisiteId"`
	Type           DependencyType `json:"type"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Normalize fills defaults for fields a curriculum file or API caller may
// leave empty. Slug and content path are derived from the title and area.
func (m *Module) Normalize() {
	m.Code = strings.TrimSpace(m.Code)
	m.Title = strings.TrimSpace(m.Title)
	if m.Kind == "" {
		m.Kind = KindPresenza
	}
	if m.Difficulty == "" {
		m.Difficulty = DifficultyBase
	}
	if m.EstimatedMins == 0 {
		m.EstimatedMins = DefaultDuration
	}
	if m.Slug == "" {
		m.Slug = Slugify(m.Title)
	}
	if m.ContentPath == "" && m.TeachingArea != "" {
		m.ContentPath = fmt.Sprintf("%s/%s/%s", ContentPathPrefix, Slugify(m.TeachingArea), m.Slug)
	}
}

// Validate checks the module fields and returns a *ValidationError listing
// every problem found, or nil.
func (m Module) Validate() error {
	var problems []string

	if m.Title == "" {
		problems = append(problems, "title is required")
	} else if utf8.RuneCountInString(m.Title) > MaxTitleLen {
		problems = append(problems, fmt.Sprintf("title exceeds %d characters", MaxTitleLen))
	}

	if m.Code == "" {
		problems = append(problems, "code is required")
	} else if utf8.RuneCountInString(m.Code) > MaxCodeLen {
		problems = append(problems, fmt.Sprintf("code exceeds %d characters", MaxCodeLen))
	}

	switch m.Kind {
	case KindPresenza, KindOnline:
	default:
		problems = append(problems, fmt.Sprintf("kind must be %q or %q, got %q", KindPresenza, KindOnline, m.Kind))
	}

	switch m.Difficulty {
	case DifficultyBase, DifficultyIntermedio, DifficultyAvanzato:
	default:
		problems = append(problems, fmt.Sprintf("unknown difficulty %q", m.Difficulty))
	}

	if m.EstimatedMins < 0 || m.EstimatedMins > MaxDurationMins {
		problems = append(problems, fmt.Sprintf("estimated duration must be between 0 and %d minutes, got %d", MaxDurationMins, m.EstimatedMins))
	}

	if m.Level < 0 {
		problems = append(problems, fmt.Sprintf("level must be >= 0, got %d", m.Level))
	}

	if len(problems) > 0 {
		return &ValidationError{Subject: "module " + m.Code, Problems: problems}
	}
	return nil
}

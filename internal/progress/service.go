package progress

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

// Repo persists progress records, one per module.
type Repo interface {
	// GetByModule returns the record for moduleID, or nil if none exists.
	GetByModule(ctx context.Context, moduleID string) (*Record, error)

	// Save inserts or replaces the record keyed by its ModuleID.
	Save(ctx context.Context, rec *Record) error

	// Delete removes the record for moduleID. Missing records are ignored.
	Delete(ctx context.Context, moduleID string) error

	// All returns every stored record.
	All(ctx context.Context) ([]Record, error)
}

// Change carries optional fields applied alongside a status update.
type Change struct {
	Score *int
	Note  string
}

// Service manages status transitions for modules. Any transition between
// statuses is allowed.
type Service struct {
	repo    Repo
	modules curriculum.ModuleReader
	now     func() time.Time
}

// NewService creates a progress service.
func NewService(repo Repo, modules curriculum.ModuleReader) *Service {
	return &Service{repo: repo, modules: modules, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns the record for the referenced module (code or id), or nil if
// the module was never started.
func (s *Service) Get(ctx context.Context, ref string) (*curriculum.Module, *Record, error) {
	m, err := curriculum.Resolve(ctx, s.modules, ref)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.repo.GetByModule(ctx, m.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get progress: %w", err)
	}
	return m, rec, nil
}

// Update sets the status of the referenced module.
//
// A new record gets StartedAt unless the status is not-started, CompletedAt
// when completed, and one attempt when failed. An existing record keeps its
// first CompletedAt and counts one more attempt on every failure.
func (s *Service) Update(ctx context.Context, ref string, status Status, ch Change) (*Record, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if ch.Score != nil && (*ch.Score < 0 || *ch.Score > 100) {
		return nil, &ScoreRangeError{Score: *ch.Score}
	}

	m, rec, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if rec == nil {
		rec = &Record{
			ModuleID:  m.ID,
			Status:    status,
			CreatedAt: now,
		}
		if status != StatusNotStarted {
			rec.StartedAt = &now
		}
		if status == StatusCompleted {
			rec.CompletedAt = &now
		}
		if status == StatusFailed {
			rec.Attempts = 1
		}
	} else {
		rec.Status = status
		if status == StatusCompleted && rec.CompletedAt == nil {
			rec.CompletedAt = &now
		}
		if status == StatusFailed {
			rec.Attempts++
		}
		if status != StatusNotStarted && rec.StartedAt == nil {
			rec.StartedAt = &now
		}
	}

	if ch.Score != nil {
		score := *ch.Score
		rec.Score = &score
	}
	if ch.Note != "" {
		rec.Notes = appendNote(rec.Notes, ch.Note, now)
	}
	rec.UpdatedAt = now

	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return rec, nil
}

// AddNote appends a timestamped note to an existing record.
func (s *Service) AddNote(ctx context.Context, ref, note string) (*Record, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("note is empty")
	}

	m, rec, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NoRecordError{ModuleCode: m.Code}
	}

	now := s.now().UTC()
	rec.Notes = appendNote(rec.Notes, note, now)
	rec.UpdatedAt = now
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return rec, nil
}

// Reset forgets all progress on the referenced module.
func (s *Service) Reset(ctx context.Context, ref string) error {
	m, err := curriculum.Resolve(ctx, s.modules, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

func appendNote(existing, note string, at time.Time) string {
	line := fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04"), note)
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

// Entry is one module with its current status. Record is nil for modules
// never started.
type Entry struct {
	Module curriculum.Module `json:"module"`
	Status Status            `json:"status"`
	Record *Record           `json:"record,omitempty"`
}

// List returns the modules whose current status is status, in catalog
// order. Modules without a record count as not-started. An empty status
// lists every module.
func (s *Service) List(ctx context.Context, status Status) ([]Entry, error) {
	if status != "" {
		if _, err := ParseStatus(string(status)); err != nil {
			return nil, err
		}
	}
	modules, err := s.modules.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	records, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	byModule := make(map[string]*Record, len(records))
	for i := range records {
		byModule[records[i].ModuleID] = &records[i]
	}

	out := []Entry{}
	for _, m := range modules {
		rec := byModule[m.ID]
		st := StatusOf(rec)
		if status != "" && st != status {
			continue
		}
		out = append(out, Entry{Module: m, Status: st, Record: rec})
	}
	return out, nil
}

// AreaSummary counts completions within one teaching area.
type AreaSummary struct {
	Area      string `json:"area"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Completion is one completed module for the recent list.
type Completion struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completedAt"`
}

// Summary aggregates progress over the whole catalog.
type Summary struct {
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"byStatus"`
	CompletionRate float64        `json:"completionRate"`
	AverageScore   float64        `json:"averageScore"`
	Scored         int            `json:"scored"`
	TotalAttempts  int            `json:"totalAttempts"`
	Areas          []AreaSummary  `json:"areas"`
	Recent         []Completion   `json:"recent"`
}

const recentCompletions = 5

// Summary computes totals across every module.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	modules, err := s.modules.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	records, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	byModule := make(map[string]*Record, len(records))
	for i := range records {
		byModule[records[i].ModuleID] = &records[i]
	}

	sum := &Summary{Total: len(modules), ByStatus: make(map[Status]int)}
	areas := make(map[string]*AreaSummary)
	var scoreTotal int

	for _, m := range modules {
		rec := byModule[m.ID]
		st := StatusOf(rec)
		sum.ByStatus[st]++

		area := areas[m.TeachingArea]
		if area == nil {
			area = &AreaSummary{Area: m.TeachingArea}
			areas[m.TeachingArea] = area
		}
		area.Total++

		if rec == nil {
			continue
		}
		sum.TotalAttempts += rec.Attempts
		if rec.Score != nil {
			scoreTotal += *rec.Score
			sum.Scored++
		}
		if st == StatusCompleted {
			area.Completed++
			if rec.CompletedAt != nil {
				sum.Recent = append(sum.Recent, Completion{Code: m.Code, Title: m.Title, CompletedAt: *rec.CompletedAt})
			}
		}
	}

	if sum.Total > 0 {
		sum.CompletionRate = float64(sum.ByStatus[StatusCompleted]) / float64(sum.Total)
	}
	if sum.Scored > 0 {
		sum.AverageScore = float64(scoreTotal) / float64(sum.Scored)
	}

	for _, a := range areas {
		sum.Areas = append(sum.Areas, *a)
	}
	sort.Slice(sum.Areas, func(i, j int) bool { return sum.Areas[i].Area < sum.Areas[j].Area })

	sort.Slice(sum.Recent, func(i, j int) bool { return sum.Recent[i].CompletedAt.After(sum.Recent[j].CompletedAt) })
	if len(sum.Recent) > recentCompletions {
		sum.Recent = sum.Recent[:recentCompletions]
	}

	return sum, nil
}

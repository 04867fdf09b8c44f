package catalog

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/goalpath"
	"github.com/ciclofficina/tracker/internal/progress"
)

// Deps are the services the catalog screens read and write through.
type Deps struct {
	Engine   *depgraph.Engine
	Progress *progress.Service
	Goals    *goalpath.Resolver
}

// statusKeys maps keys to the status they set. Reset deletes the record.
var statusKeys = map[string]progress.Status{
	"s": progress.StatusInProgress,
	"c": progress.StatusCompleted,
	"f": progress.StatusFailed,
	"x": progress.StatusNotStarted,
}

type statusSetMsg struct {
	code   string
	status progress.Status
	err    error
}

func setStatus(ctx context.Context, svc *progress.Service, code string, st progress.Status) tea.Cmd {
	return func() tea.Msg {
		var err error
		if st == progress.StatusNotStarted {
			err = svc.Reset(ctx, code)
		} else {
			_, err = svc.Update(ctx, code, st, progress.Change{})
		}
		return statusSetMsg{code: code, status: st, err: err}
	}
}

func (m statusSetMsg) flash() string {
	if m.err != nil {
		return m.err.Error()
	}
	if m.status == progress.StatusNotStarted {
		return fmt.Sprintf("%s reset", m.code)
	}
	return fmt.Sprintf("%s → %s", m.code, m.status.Label())
}

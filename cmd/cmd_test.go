package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const levelOne = `{
  "courses": [{
    "title": "Ciclofficina",
    "teachingAreas": [{
      "name": "Freni",
      "modules": [
        {"id": "FRENI-1", "title": "Pattini e cavi"},
        {"id": "FRENI-2", "title": "Regolazione V-brake",
         "dependencies": [{"moduleId": "FRENI-1", "type": "mandatory"}]},
        {"id": "FRENI-3", "title": "Freni a disco meccanici",
         "dependencies": [{"moduleId": "FRENI-2"}]}
      ]
    }]
  }]
}`

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	for _, k := range []string{
		"TRACKER_CONFIG", "TRACKER_DB", "TRACKER_LOG_MODE", "TRACKER_LOG_LEVEL", "TRACKER_LISTEN",
		"TRACKER_CURRICULUM_DIR", "TRACKER_LLM_PROVIDER", "TRACKER_ANTHROPIC_API_KEY", "TRACKER_OPENAI_API_KEY",
		"TRACKER_GEMINI_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	dir := filepath.Join(t.TempDir(), "curriculum")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ciclofficina_level1.json"), []byte(levelOne), 0o644))
	t.Setenv("TRACKER_CURRICULUM_DIR", dir)

	return &cli{t: t, db: filepath.Join(t.TempDir(), "tracker.db")}
}

// resetFlags puts every flag of the tree back to its default so one run
// does not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--db", c.db, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestLoadAndOrder(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("load")
	assert.Contains(t, out, "Modules: 3 created, 0 updated")
	assert.Contains(t, out, "Prerequisites: 2 created, 0 already present")

	out = c.mustRun("load")
	assert.Contains(t, out, "Modules: 0 created, 3 updated")
	assert.Contains(t, out, "2 already present")

	out = c.mustRun("order")
	assert.Less(t, strings.Index(out, "FRENI-1"), strings.Index(out, "FRENI-2"))
	assert.Less(t, strings.Index(out, "FRENI-2"), strings.Index(out, "FRENI-3"))

	out = c.mustRun("order", "--levels", "--json")
	var lv struct {
		Waves [][]struct {
			Code string `json:"code"`
		} `json:"waves"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &lv))
	assert.Len(t, lv.Waves, 3)
}

func TestDependencyCommands(t *testing.T) {
	c := newCLI(t)
	c.mustRun("load")

	_, err := c.run("dep", "add", "FRENI-1", "FRENI-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRENI-1 -> FRENI-3 -> FRENI-2 -> FRENI-1")

	_, err = c.run("dep", "add", "FRENI-1", "FRENI-1")
	assert.Error(t, err)

	_, err = c.run("dep", "add", "FRENI-1", "NOPE")
	assert.Error(t, err)

	out := c.mustRun("dep", "list", "FRENI-3", "--transitive")
	assert.Contains(t, out, "FRENI-1")
	assert.Contains(t, out, "FRENI-2")

	out = c.mustRun("dep", "dependents", "FRENI-1")
	assert.Contains(t, out, "FRENI-2")
	assert.NotContains(t, out, "FRENI-3")

	_, err = c.run("module", "delete", "FRENI-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module FRENI-1 is a prerequisite of 1 module(s): FRENI-2")

	c.mustRun("dep", "rm", "FRENI-3", "FRENI-2")
	_, err = c.run("dep", "rm", "FRENI-3", "FRENI-2")
	assert.Error(t, err)

	out = c.mustRun("check")
	assert.Contains(t, out, "3 modules, 1 prerequisites")
}

func TestModuleDelete(t *testing.T) {
	c := newCLI(t)
	c.mustRun("load")

	_, err := c.run("module", "delete", "FRENI-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prerequisite of 1 module(s): FRENI-3")

	out := c.mustRun("module", "delete", "FRENI-3")
	assert.Contains(t, out, "Deleted FRENI-3")

	_, err = c.run("module", "show", "FRENI-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module not found: "FRENI-3"`)

	out = c.mustRun("module", "delete", "FRENI-2")
	assert.Contains(t, out, "Deleted FRENI-2")

	out = c.mustRun("order")
	assert.Contains(t, out, "FRENI-1")
	assert.NotContains(t, out, "FRENI-2")
}

func TestProgressFlow(t *testing.T) {
	c := newCLI(t)
	c.mustRun("load")

	out := c.mustRun("can-start", "FRENI-2")
	assert.Contains(t, out, "FRENI-2 is locked")

	_, err := c.run("progress", "set", "FRENI-1", "done")
	assert.Error(t, err)
	_, err = c.run("progress", "set", "FRENI-1", "completed", "--score", "101")
	assert.Error(t, err)

	c.mustRun("progress", "set", "FRENI-1", "completed", "--score", "90", "--note", "ok")
	out = c.mustRun("can-start", "FRENI-2")
	assert.Contains(t, out, "FRENI-2 can start")

	out = c.mustRun("available")
	assert.Contains(t, out, "FRENI-2")
	assert.NotContains(t, out, "FRENI-1")

	out = c.mustRun("goal", "FRENI-3")
	assert.Contains(t, out, "1 completed, 2 pending, 3 total")

	out = c.mustRun("progress", "list", "--status", "completed")
	assert.Contains(t, out, "FRENI-1")
	assert.Contains(t, out, "(90)")
	assert.NotContains(t, out, "FRENI-2")

	out = c.mustRun("progress", "list", "--status", "not-started", "--json")
	var pending []struct {
		Module struct {
			Code string `json:"code"`
		} `json:"module"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &pending))
	require.Len(t, pending, 2)
	assert.Equal(t, "FRENI-2", pending[0].Module.Code)

	_, err = c.run("progress", "list", "--status", "done")
	assert.Error(t, err)

	c.mustRun("assess", "set", "FRENI-1", "--evaluator", "Giulia", "--applied", "--satisfaction", "80")
	out = c.mustRun("assess", "report")
	assert.Contains(t, out, "Giulia")
	assert.Contains(t, out, "80%")

	out = c.mustRun("progress", "summary", "--json")
	var sum struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 3, sum.Total)

	c.mustRun("progress", "reset", "FRENI-1")
	out = c.mustRun("progress", "show", "FRENI-1")
	assert.Contains(t, out, "Not started")
}

func TestSuggestWithoutProvider(t *testing.T) {
	c := newCLI(t)
	c.mustRun("load")

	_, err := c.run("suggest", "FRENI-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no LLM provider configured")

	out := c.mustRun("llm", "list")
	assert.Contains(t, out, "No LLM requests recorded.")
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "tracker "), out)

	out = c.mustRun("version", "--json")
	var bi buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &bi))
	assert.NotEmpty(t, bi.Version)
	assert.NotEmpty(t, bi.GoVersion)
}

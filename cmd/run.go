package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/advisor"
	"github.com/ciclofficina/tracker/internal/api"
	"github.com/ciclofficina/tracker/internal/app"
	"github.com/ciclofficina/tracker/internal/assessment"
	"github.com/ciclofficina/tracker/internal/config"
	"github.com/ciclofficina/tracker/internal/depgraph"
	"github.com/ciclofficina/tracker/internal/goalpath"
	"github.com/ciclofficina/tracker/internal/llm"
	"github.com/ciclofficina/tracker/internal/logging"
	"github.com/ciclofficina/tracker/internal/progress"
	"github.com/ciclofficina/tracker/internal/screens/catalog"
	"github.com/ciclofficina/tracker/internal/store"
)

// env holds everything a command needs once configuration is loaded and
// the store is open.
type env struct {
	cfg         *config.Config
	log         *logging.Logger
	store       *store.Store
	engine      *depgraph.Engine
	goals       *goalpath.Resolver
	progress    *progress.Service
	assessments *assessment.Service
}

func openEnv(cmd *cobra.Command) (*env, error) {
	return openEnvWithLogger(cmd, nil)
}

// openEnvWithLogger is openEnv with a fixed logger. A nil log is built
// from the configuration.
func openEnvWithLogger(cmd *cobra.Command, log *logging.Logger) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.Options{ConfigPath: cfgPath, EnvFile: envFile})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		if log, err = logging.New(cfg.LogMode, cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	dbPath, err := resolveDBPath(cmd, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug("store opened", "path", dbPath)

	eng := depgraph.NewEngine(st.Modules(), st.Edges(), st.Progress(), depgraph.WithLogger(log))
	return &env{
		cfg:         cfg,
		log:         log,
		store:       st,
		engine:      eng,
		goals:       goalpath.NewResolver(eng, st.Modules(), st.Progress()),
		progress:    progress.NewService(st.Progress(), st.Modules()),
		assessments: assessment.NewService(st.Assessments(), st.Modules(), st.Progress()),
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close store", "error", err)
	}
	e.log.Sync()
}

// advisor builds the prerequisite advisor on the configured provider.
// It returns llm.ErrNotConfigured when no provider is set up.
func (e *env) advisor(ctx context.Context) (*advisor.Advisor, error) {
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.log)
	if err != nil {
		return nil, err
	}
	return advisor.New(provider, e.engine, e.store.Modules(), advisor.DefaultConfig(), e.log), nil
}

// services wires the HTTP API. Suggestions are left out when no LLM
// provider is configured.
func (e *env) services(ctx context.Context) (api.Services, error) {
	svc := api.Services{
		Modules:     e.store.Modules(),
		Engine:      e.engine,
		Goals:       e.goals,
		Progress:    e.progress,
		Assessments: e.assessments,
	}
	adv, err := e.advisor(ctx)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		e.log.Info("LLM provider not configured, suggestions disabled")
	case err != nil:
		return svc, err
	default:
		svc.Advisor = adv
	}
	return svc, nil
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Open the terminal browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd)
	},
}

// runBrowse opens the store and launches the TUI. Logging is discarded
// so it cannot draw over the screen.
func runBrowse(cmd *cobra.Command) error {
	e, err := openEnvWithLogger(cmd, logging.Nop())
	if err != nil {
		return err
	}
	defer e.Close()

	return app.Run(cmd.Context(), catalog.Deps{
		Engine:   e.engine,
		Progress: e.progress,
		Goals:    e.goals,
	})
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/santiagomed/devspark/internal/config"
	"github.com/santiagomed/devspark/internal/core"
	"github.com/santiagomed/devspark/internal/devenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/llm"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/resilience"
	"github.com/santiagomed/devspark/internal/template"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg    *config.Config
	logger logger.Logger
	runID  string
	cache  *resilience.Cache
}

var current *app

func initApp(cmd *cobra.Command) error {
	// a missing .env is fine
	_ = godotenv.Load()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.Provider = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	if err := logger.Init(cfg.LogDir, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, faintStyle.Render(fmt.Sprintf("Logging disabled: %v", err)))
	}
	runID := uuid.NewString()
	l := logger.Get().WithField("run_id", runID).WithField("command", cmd.CommandPath())
	l.Debug("Initializing devspark CLI")

	current = &app{
		cfg:    cfg,
		logger: l,
		runID:  runID,
		cache:  resilience.NewCache(cfg.CacheTTL),
	}
	return nil
}

// client builds the provider client wrapped in the response cache and the
// retry policy.
func (a *app) client(ctx context.Context) (llm.Client, error) {
	p, err := llm.ParseProvider(a.cfg.Provider)
	if err != nil {
		return nil, err
	}
	opts := []llm.Option{llm.WithLogger(a.logger)}
	if a.cfg.TellmURL != "" {
		opts = append(opts, llm.WithUsageLogger(llm.NewTellmUsage(a.cfg.TellmURL, llm.EnsureBatchID(os.Getenv("TELLM_BATCH_ID")))))
	}
	c, err := llm.Configure(ctx, string(p), a.cfg, a.cfg.ClientConfig(p), opts...)
	if err != nil {
		return nil, err
	}
	policy := resilience.Policy{
		MaxRetries: a.cfg.MaxRetries,
		BaseDelay:  a.cfg.RetryBaseDelay,
		Logger:     a.logger,
	}
	return resilience.Wrap(c, a.cache, policy), nil
}

func (a *app) store() *template.Store {
	return template.NewStore(afero.NewOsFs(), a.cfg.TemplatesDir)
}

type engineOptions struct {
	fsys     *fs.FileSystem
	needsLLM bool
	noRunner bool
}

func (a *app) engine(ctx context.Context, o engineOptions, pub core.StepPublisher) (*core.Engine, error) {
	if o.fsys == nil {
		o.fsys = fs.NewOsFileSystem()
	}
	deps := core.Dependencies{
		Materializer: fs.NewMaterializer(o.fsys, a.logger),
		Store:        a.store(),
	}
	if !o.noRunner {
		deps.Runner = devenv.NewExecRunner(0, a.logger)
	}
	if o.needsLLM {
		c, err := a.client(ctx)
		if err != nil {
			return nil, err
		}
		deps.Client = c
	}
	return core.NewEngine(deps, pub, a.logger), nil
}

package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/config"
	"github.com/kirychukyurii/webitel-scheduler-console/internal/logger"
)

// runtime carries the global flags and the app built from them
type runtime struct {
	configPath string
	baseURL    string
	logLevel   string

	app *app
}

// NewRootCommand builds the scheduler-console command tree
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:   "scheduler-console",
		Short: "Operator console for the job scheduler",
		Long: `scheduler-console manages collections, variables and jobs of a job scheduler
through its REST API, either as a web console (serve) or from the command line.

Examples:
  scheduler-console serve --config config.yaml
  scheduler-console collections ls
  scheduler-console jobs ls --collection c1
  scheduler-console jobs run j1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "path to configuration file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&rt.baseURL, "base-url", "", "scheduler REST API base URL (overrides scheduler.base_url)")
	cmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "log level (overrides log.level)")

	cmd.AddCommand(
		newServeCommand(rt),
		newCollectionsCommand(rt),
		newJobsCommand(rt),
		newVariablesCommand(rt),
	)

	return cmd
}

// init loads the configuration and builds the app once per invocation
func (rt *runtime) init(cmd *cobra.Command) error {
	overrides := map[string]any{}
	if rt.baseURL != "" {
		overrides["scheduler.base_url"] = rt.baseURL
	}
	if rt.logLevel != "" {
		overrides["log.level"] = rt.logLevel
	}

	cfg, err := config.Load(rt.configPath, overrides)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// command output owns stdout, only the server logs there
	level, newLogger := cfg.Log.Level, logger.New
	if cmd.Name() != serveCommandName {
		newLogger = logger.NewStderr
		if rt.logLevel == "" {
			level = "error"
		}
	}
	log, err := newLogger(level, cfg.Log.JSON)
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	rt.app, err = newApp(cfg, log)
	return err
}

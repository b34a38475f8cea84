package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dshills/modcore/internal/app"
	"github.com/dshills/modcore/internal/logging"
	"github.com/dshills/modcore/internal/plugin/lua"
)

type globalFlags struct {
	configPath string
	modulesDir string
	logLevel   string
	jsonLogs   bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "modcore",
		Short: "Configuration and hook runtime for feature modules",
		Long: "modcore keeps module configuration in step with module schemas and " +
			"fans host hook points out to Lua modules.",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch g.logLevel {
			case "debug", "info", "warn", "error":
				return nil
			default:
				return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", g.logLevel)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", app.DefaultConfigPath, "Path to the configuration file (.toml, .yaml or .yml)")
	pf.StringVarP(&g.modulesDir, "modules", "m", "modules", "Directory of Lua modules")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&g.jsonLogs, "json-logs", false, "Write logs as JSON")
	pf.BoolVar(&g.noColor, "no-color", false, "Disable colored log output")

	root.AddCommand(
		newCheckCmd(g),
		newMigrateCmd(g),
		newRunCmd(g),
	)
	return root
}

// session is one application with its Lua modules registered.
type session struct {
	app     *app.Application
	host    *app.LoopbackHost
	scripts []*lua.Script
	logger  zerolog.Logger
}

type sessionOptions struct {
	readOnly   bool
	registerer prometheus.Registerer
}

func openSession(cmd *cobra.Command, g *globalFlags, so sessionOptions) (*session, error) {
	logger := logging.New(logging.Config{
		Level:     g.logLevel,
		Output:    cmd.ErrOrStderr(),
		NoColor:   g.noColor,
		JSON:      g.jsonLogs,
		Timestamp: true,
	})

	s := &session{
		host:   app.NewLoopbackHost(),
		logger: logger,
	}

	a, err := app.New(app.Options{
		ConfigPath: g.configPath,
		Host:       s.host,
		Logger:     &logger,
		Registerer: so.registerer,
		ReadOnly:   so.readOnly,
	})
	if err != nil {
		return nil, err
	}
	s.app = a

	fsys := afero.NewOsFs()
	scripts, err := lua.Discover(fsys, g.modulesDir, lua.WithLogger(logger))
	if err != nil {
		logger.Warn().Err(err).Str("dir", g.modulesDir).Msg("Some modules failed to load")
	}
	for _, script := range scripts {
		if err := a.Register(script.Definition()); err != nil {
			logger.Error().Err(err).Str("path", script.Path()).Msg("Module rejected")
			script.Close()
			continue
		}
		s.scripts = append(s.scripts, script)
	}
	logger.Debug().Int("modules", len(s.scripts)).Str("dir", g.modulesDir).Msg("Modules loaded")
	return s, nil
}

func (s *session) close() {
	if err := s.app.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Cleanup finished with errors")
	}
	for _, script := range s.scripts {
		script.Close()
	}
}

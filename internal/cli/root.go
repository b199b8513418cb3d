// Package cli implements the rackgrid command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/rackgrid/internal/paths"
	"github.com/mesh-intelligence/rackgrid/pkg/rackgrid"
	"github.com/mesh-intelligence/rackgrid/pkg/sqlite"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// systemError marks failures of the environment (config, storage, I/O)
// as opposed to bad input.
type systemError struct {
	err error
}

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return systemError{err: err}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se systemError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// app carries global flag values and the state set up before every
// subcommand runs.
type app struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool

	cfg *viper.Viper
	log *slog.Logger
}

// NewRootCmd creates the top-level "rackgrid" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "rackgrid",
		Short:   "Slot addressing and relocation for sample storage",
		Long:    "rackgrid manages storage locations (racks, boxes, shelves) and the\ncontainers stored in their slots, and relocates containers as a single\nall-or-nothing batch.",
		Version: rackgrid.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.rackgrid-db)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")

	root.AddCommand(a.newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newLocationCmd())
	root.AddCommand(a.newContainerCmd())
	root.AddCommand(a.newMoveCmd())
	root.AddCommand(a.newLabelCmd())
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		printError(os.Stderr, "%s", err)
		os.Exit(exitCode(err))
	}
}

// setup loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	a.cfg, err = loadConfig(configDir)
	if err != nil {
		return sysErr(err)
	}

	level := a.logLevel
	if level == "" {
		level = a.cfg.GetString(cfgKeyLogLevel)
	}
	a.log, err = newLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}
	a.log.Debug("config loaded", "config_dir", configDir, "config_file", a.cfg.ConfigFileUsed())
	return nil
}

// openStore attaches the configured store. The caller must Detach it.
func (a *app) openStore() (types.Store, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}

	store := sqlite.NewStore()
	cfg := types.Config{Backend: a.cfg.GetString(cfgKeyBackend), DataDir: dataDir}
	if err := store.Attach(cfg); err != nil {
		return nil, sysErr(fmt.Errorf("attach %s store: %w", cfg.Backend, err))
	}
	a.log.Debug("store attached", "backend", cfg.Backend, "data_dir", dataDir)
	return store, nil
}

// withStore runs fn against an attached store and detaches afterwards.
func (a *app) withStore(fn func(types.Store) error) (err error) {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if derr := store.Detach(); derr != nil && err == nil {
			err = sysErr(fmt.Errorf("detach store: %w", derr))
		}
	}()
	return fn(store)
}

// out returns the command's stdout writer.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rackgrid/internal/paths"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize rackgrid storage",
		Long:  "Write config.yaml with the effective settings and create the data directory\nand its JSONL files.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	if _, err := a.direction(""); err != nil {
		return err
	}

	cfg := configFile{
		Backend:   a.cfg.GetString(cfgKeyBackend),
		DataDir:   dataDir,
		Direction: a.cfg.GetString(cfgKeyDirection),
		LogLevel:  a.cfg.GetString(cfgKeyLogLevel),
	}
	if err := (types.Config{Backend: cfg.Backend}).Validate(); err != nil {
		return err
	}
	if err := writeConfig(a.configDir, cfg); err != nil {
		return sysErr(fmt.Errorf("write config: %w", err))
	}
	a.cfg.Set(cfgKeyDataDir, dataDir)

	if err := a.withStore(func(types.Store) error { return nil }); err != nil {
		return err
	}
	a.log.Info("initialized", "config_dir", a.configDir, "data_dir", dataDir)
	printSuccess(out(cmd), "rackgrid initialized in %s", dataDir)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wmslite/internal/paths"
	"github.com/mesh-intelligence/wmslite/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and the store",
		Long: "Write a default config.yaml if none exists, then create the store file,\n" +
			"apply the schema, and seed the built-in order types. Safe to run again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := filepath.Join(a.configDir, paths.ConfigFileName)
			cfgFile := defaultConfigFile()
			if a.dbPath != "" {
				abs, err := filepath.Abs(a.dbPath)
				if err != nil {
					return systemErr(err)
				}
				cfgFile.DBPath = abs
			}
			wrote, err := writeConfigIfMissing(configPath, cfgFile)
			if err != nil {
				return systemErr(fmt.Errorf("write config: %w", err))
			}
			if wrote {
				if err := a.v.ReadInConfig(); err != nil {
					return systemErr(fmt.Errorf("read config: %w", err))
				}
			}

			return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				result := struct {
					ConfigPath  string `json:"config_path"`
					WroteConfig bool   `json:"wrote_config"`
					DBPath      string `json:"db_path"`
				}{configPath, wrote, s.Config().DBPath}
				return a.emit(cmd, result, func(w io.Writer) {
					fmt.Fprintf(w, "Store initialized at %s\n", result.DBPath)
					if wrote {
						fmt.Fprintf(w, "Wrote default configuration to %s\n", configPath)
					}
				})
			})
		},
	}
}

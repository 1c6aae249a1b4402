// Package cli implements the wms command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wmslite/internal/logging"
	"github.com/mesh-intelligence/wmslite/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state shared by subcommands.
type app struct {
	configDir string
	dbPath    string
	jsonMode  bool
	envFile   string

	v      *viper.Viper
	logger *zap.Logger
}

// NewRootCmd creates the top-level "wms" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "wms",
		Short: "A small warehouse store: products, locations, zones, orders",
		Long: "wms manages the products, storage locations, zones, orders, and process\n" +
			"history of a small warehouse kept in a single SQLite file.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.logger.Sync() },
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dbPath, "db-path", "", "store file (default: $(CWD)/.wms/wms.db)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newCategoryCmd(a),
		newProductCmd(a),
		newLocationCmd(a),
		newInventoryCmd(a),
		newZoneCmd(a),
		newOrderCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// prepare loads the dotenv file, the configuration, and the logger.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return systemErr(fmt.Errorf("loading %s: %w", a.envFile, err))
		}
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return systemErr(fmt.Errorf("resolving config dir: %w", err))
	}
	a.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return systemErr(err)
	}
	a.v = v

	logger, err := logging.New(logging.Config{
		Level:    v.GetString(cfgKeyLogLevel),
		Encoding: v.GetString(cfgKeyLogEncoding),
	})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wmslite/internal/paths"
	"github.com/mesh-intelligence/wmslite/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "WMS"

	cfgKeyDBPath         = "db_path"
	cfgKeyPoolSize       = "pool_size"
	cfgKeyAcquireTimeout = "acquire_timeout"
	cfgKeyStockPolicy    = "stock_policy"
	cfgKeyLogLevel       = "log_level"
	cfgKeyLogEncoding    = "log_encoding"
)

// envKeys are the config keys that may be overridden by WMS_* variables.
// db_path is resolved by paths.ResolveDBPath so the file value keeps
// precedence over WMS_DB_PATH.
var envKeys = []string{
	cfgKeyPoolSize,
	cfgKeyAcquireTimeout,
	cfgKeyStockPolicy,
	cfgKeyLogLevel,
	cfgKeyLogEncoding,
}

// configFile holds the structure written to config.yaml.
type configFile struct {
	DBPath         string `yaml:"db_path,omitempty"`
	PoolSize       int    `yaml:"pool_size"`
	AcquireTimeout string `yaml:"acquire_timeout"`
	StockPolicy    string `yaml:"stock_policy"`
	LogLevel       string `yaml:"log_level"`
	LogEncoding    string `yaml:"log_encoding"`
}

func defaultConfigFile() configFile {
	return configFile{
		PoolSize:       types.DefaultPoolSize,
		AcquireTimeout: types.DefaultAcquireTimeout.String(),
		StockPolicy:    string(types.StockAllowNegative),
		LogLevel:       "warn",
		LogEncoding:    "console",
	}
}

// loadConfig reads config.yaml from configDir with WMS_* environment
// overrides. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	d := defaultConfigFile()

	v := viper.New()
	v.SetDefault(cfgKeyPoolSize, d.PoolSize)
	v.SetDefault(cfgKeyAcquireTimeout, d.AcquireTimeout)
	v.SetDefault(cfgKeyStockPolicy, d.StockPolicy)
	v.SetDefault(cfgKeyLogLevel, d.LogLevel)
	v.SetDefault(cfgKeyLogEncoding, d.LogEncoding)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// storeConfig builds the store configuration. The store file follows the
// precedence --db-path > config.yaml > WMS_DB_PATH > $(CWD)/.wms/wms.db.
func (a *app) storeConfig() (types.Config, error) {
	dbPath, err := paths.ResolveDBPath(a.dbPath, a.v.GetString(cfgKeyDBPath))
	if err != nil {
		return types.Config{}, systemErr(fmt.Errorf("resolving db path: %w", err))
	}
	return types.Config{
		DBPath:         dbPath,
		PoolSize:       a.v.GetInt(cfgKeyPoolSize),
		AcquireTimeout: a.v.GetDuration(cfgKeyAcquireTimeout),
		StockPolicy:    types.StockPolicy(a.v.GetString(cfgKeyStockPolicy)),
	}, nil
}

// writeConfigIfMissing creates config.yaml with cfg if the file does not
// exist and reports whether it wrote one.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

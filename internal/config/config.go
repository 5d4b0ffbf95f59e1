// Package config loads measd settings from flags, environment and a TOML file.
//
// Precedence, highest first: command line flag, MEASD_* environment variable,
// configuration file, built-in default. Nested keys use "." in the file and
// "_" in the environment, so storage.dsn is MEASD_STORAGE_DSN.
package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/ingest"
	"codeberg.org/mutker/measd/internal/metrics"
	"codeberg.org/mutker/measd/internal/server"
	"codeberg.org/mutker/measd/internal/storage"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "/etc/measd/measd.toml"
	DefaultEnvPrefix  = "MEASD"
	DefaultLogLevel   = LogLevelInfo
)

// Configuration keys
const (
	keyListen          = "listen"
	keyBufferLimit     = "buffer_limit"
	keyGracePeriod     = "grace_period"
	keyLogLevel        = "log_level"
	keyPIDFile         = "pid_file"
	keyStorageDriver   = "storage.driver"
	keyStorageDSN      = "storage.dsn"
	keyMaxOpenConns    = "storage.max_open_conns"
	keyMaxIdleConns    = "storage.max_idle_conns"
	keyConnMaxLifetime = "storage.conn_max_lifetime"
	keyBackupDir       = "storage.backup_dir"
	keyMetricsEnabled  = "metrics.enabled"
	keyMetricsListen   = "metrics.listen"
)

type Config struct {
	LogLevel LogLevel
	// PIDFile is empty when no pid file should be written
	PIDFile string
	Server  server.Config
	Ingest  ingest.Config
	Storage storage.Config
	Metrics metrics.Config
	// File is the configuration file that was read, if any
	File string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Server:   server.DefaultConfig(),
		Ingest:   ingest.DefaultConfig(),
		Storage:  storage.DefaultConfig(),
		Metrics:  metrics.DefaultConfig(),
	}
}

// Load parses args (without the program name) and merges them with the
// environment and the configuration file.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		defaultPath: DefaultConfigFile,
		envPrefix:   DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	setDefaults(v)

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, required := configFile(fs, o)
	if path != "" {
		if err := readConfigFile(v, path, required); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		LogLevel: LogLevel(strings.ToLower(v.GetString(keyLogLevel))),
		PIDFile:  v.GetString(keyPIDFile),
		Server: server.Config{
			Listen:      v.GetString(keyListen),
			GracePeriod: v.GetDuration(keyGracePeriod),
		},
		Ingest: ingest.Config{
			Limit: v.GetInt(keyBufferLimit),
		},
		Storage: storage.Config{
			Driver:          v.GetString(keyStorageDriver),
			DSN:             v.GetString(keyStorageDSN),
			MaxOpenConns:    v.GetInt(keyMaxOpenConns),
			MaxIdleConns:    v.GetInt(keyMaxIdleConns),
			ConnMaxLifetime: v.GetDuration(keyConnMaxLifetime),
			BackupDir:       v.GetString(keyBackupDir),
		},
		Metrics: metrics.Config{
			Enabled: v.GetBool(keyMetricsEnabled),
			Listen:  v.GetString(keyMetricsListen),
		},
		File: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	for _, v := range []interface{ Validate() error }{c.Server, c.Ingest, c.Storage, c.Metrics} {
		if err := v.Validate(); err != nil {
			return errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	return nil
}

// flagKeys maps configuration keys to their command line flags.
var flagKeys = map[string]string{
	keyListen:          "listen",
	keyBufferLimit:     "buffer-limit",
	keyGracePeriod:     "grace-period",
	keyLogLevel:        "log-level",
	keyPIDFile:         "pid-file",
	keyStorageDriver:   "storage-driver",
	keyStorageDSN:      "storage-dsn",
	keyMaxOpenConns:    "storage-max-open-conns",
	keyMaxIdleConns:    "storage-max-idle-conns",
	keyConnMaxLifetime: "storage-conn-max-lifetime",
	keyBackupDir:       "storage-backup-dir",
	keyMetricsEnabled:  "metrics",
	keyMetricsListen:   "metrics-listen",
}

func newFlagSet() *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet("measd", pflag.ContinueOnError)

	fs.String("config", "", "Path to the configuration file")
	fs.String("listen", d.Server.Listen, "gRPC listen address")
	fs.Int("buffer-limit", d.Ingest.Limit, "Maximum number of buffered measurements")
	fs.Duration("grace-period", d.Server.GracePeriod, "Time allowed for in-flight requests on shutdown")
	fs.String("log-level", string(d.LogLevel), "Log level (debug, info, warning, error)")
	fs.String("pid-file", d.PIDFile, "Write the process id to this file")
	fs.String("storage-driver", d.Storage.Driver, "Database driver (sqlite3, postgres)")
	fs.String("storage-dsn", d.Storage.DSN, "Database file or connection string")
	fs.Int("storage-max-open-conns", d.Storage.MaxOpenConns, "Maximum open database connections")
	fs.Int("storage-max-idle-conns", d.Storage.MaxIdleConns, "Maximum idle database connections")
	fs.Duration("storage-conn-max-lifetime", d.Storage.ConnMaxLifetime, "Maximum lifetime of a database connection")
	fs.String("storage-backup-dir", d.Storage.BackupDir, "Directory for database backups taken before migrations")
	fs.Bool("metrics", d.Metrics.Enabled, "Serve Prometheus metrics")
	fs.String("metrics-listen", d.Metrics.Listen, "Metrics HTTP listen address")

	return fs
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault(keyListen, d.Server.Listen)
	v.SetDefault(keyBufferLimit, d.Ingest.Limit)
	v.SetDefault(keyGracePeriod, d.Server.GracePeriod)
	v.SetDefault(keyLogLevel, string(d.LogLevel))
	v.SetDefault(keyPIDFile, d.PIDFile)
	v.SetDefault(keyStorageDriver, d.Storage.Driver)
	v.SetDefault(keyStorageDSN, d.Storage.DSN)
	v.SetDefault(keyMaxOpenConns, d.Storage.MaxOpenConns)
	v.SetDefault(keyMaxIdleConns, d.Storage.MaxIdleConns)
	v.SetDefault(keyConnMaxLifetime, d.Storage.ConnMaxLifetime)
	v.SetDefault(keyBackupDir, d.Storage.BackupDir)
	v.SetDefault(keyMetricsEnabled, d.Metrics.Enabled)
	v.SetDefault(keyMetricsListen, d.Metrics.Listen)
}

// configFile picks the file to read. Explicitly named files must exist; the
// default location is optional.
func configFile(fs *pflag.FlagSet, o options) (string, bool) {
	if f := fs.Lookup("config"); f.Changed {
		return f.Value.String(), true
	}
	if o.configPath != "" {
		return o.configPath, true
	}
	if path := os.Getenv(o.envPrefix + "_CONFIG"); path != "" {
		return path, true
	}
	return o.defaultPath, false
}

func readConfigFile(v *viper.Viper, path string, required bool) error {
	errFactory := errors.New()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

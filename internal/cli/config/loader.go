package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/brandpulse-labs/brandpulse/internal/config"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > brandpulse.yaml > brandpulse.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(sharedcfg.ConfigFileName); err == nil {
		return sharedcfg.ConfigFileName
	}
	if _, err := os.Stat(sharedcfg.ConfigFileNameAlt); err == nil {
		return sharedcfg.ConfigFileNameAlt
	}
	return ""
}

// configExistsIn checks if a brandpulse config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{sharedcfg.ConfigFileName, sharedcfg.ConfigFileNameAlt} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a brandpulse config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Explicit --project-dir flag
//  2. Infer from --data-dir (parent if contains config or named "data")
//  3. Search upward from CWD for brandpulse.yaml
//  4. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	// 1. Check explicit --project-dir
	if flags != nil {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" && flags.Changed("project-dir") {
			abs, err := filepath.Abs(projectDir)
			if err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	// 2. Infer from --data-dir
	if flags != nil {
		if dataDir, _ := flags.GetString("data-dir"); dataDir != "" && flags.Changed("data-dir") {
			absData, err := filepath.Abs(dataDir)
			if err == nil {
				parent := filepath.Dir(absData)

				// If parent has a config file, it's the project root
				if configExistsIn(parent) {
					return parent
				}

				// If folder is named "data", assume parent is root
				if filepath.Base(absData) == "data" {
					return parent
				}
			}
		}
	}

	// 3. Search upward from CWD for brandpulse.yaml
	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	// 4. Default to CWD
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnv(cfgFile, "", flags)
}

// LoadConfigWithEnv loads configuration with an optional environment override.
// The envOverride parameter selects which entry of the environments map to
// apply. The flags parameter allows CLI flags to override config file and
// env var values.
func LoadConfigWithEnv(cfgFile string, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// Infer project root from flags before loading config.
	// This enables the "anchor pattern" where --data-dir demo/data
	// implies project root is demo/
	projectRoot := inferProjectRoot(flags)

	// Track paths that were explicitly provided as flags (already relative to CWD).
	// These will be converted to absolute paths before the normal resolution step,
	// to prevent double-resolution when project root was inferred from them.
	var flagDataDir, flagRawDir, flagExportDir, flagStatePath, flagDatabase string
	if flags != nil {
		if flags.Changed("data-dir") {
			if v, _ := flags.GetString("data-dir"); v != "" {
				flagDataDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("raw-dir") {
			if v, _ := flags.GetString("raw-dir"); v != "" {
				flagRawDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("export-dir") {
			if v, _ := flags.GetString("export-dir"); v != "" {
				flagExportDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" {
				flagStatePath, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("database") {
			if v, _ := flags.GetString("database"); v != "" {
				// Database path can be :memory: or a file path
				if v != ":memory:" {
					flagDatabase, _ = filepath.Abs(v)
				} else {
					flagDatabase = v
				}
			}
		}
	}

	// If an explicit config file is provided, use its directory as project root
	// (unless a more specific hint was given via flags)
	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		// No flag-based inference happened, use config file's directory
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"data_dir":    sharedcfg.DefaultDataDir,
		"raw_dir":     sharedcfg.DefaultRawDir,
		"export_dir":  sharedcfg.DefaultExportDir,
		"state_path":  DefaultStateFile,
		"environment": DefaultEnv,
		"log_level":   DefaultLogLevel,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	// Search in project root if no explicit config file provided
	if cfgFile == "" {
		for _, name := range []string{sharedcfg.ConfigFileName, sharedcfg.ConfigFileNameAlt} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (BRANDPULSE_ prefix)
	// Transform: BRANDPULSE_DATA_DIR -> data_dir
	if err := k.Load(env.Provider("BRANDPULSE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BRANDPULSE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// EXPLICIT MAPPING: the CLI uses short flag names for the
			// nested config keys they set
			switch key {
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "database":
				return "database.path", posflag.FlagVal(flags, f)
			case "db_type":
				return "database.type", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct. The decode hook turns "30s"-style
	// strings into time.Duration values.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths.
	// Use project root as base for all path resolution (not config file
	// directory). This implements the "anchor pattern" for intuitive path
	// resolution.
	cfg.ProjectRoot = projectRoot

	// For paths explicitly provided via flags, use the pre-computed absolute
	// paths (already computed relative to CWD at flag parse time).
	// For paths from config file or defaults, resolve relative to project root.
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	} else {
		cfg.DataDir = resolvePathRelativeTo(cfg.DataDir, projectRoot)
	}
	if flagRawDir != "" {
		cfg.RawDir = flagRawDir
	} else {
		cfg.RawDir = resolvePathRelativeTo(cfg.RawDir, projectRoot)
	}
	if flagExportDir != "" {
		cfg.ExportDir = flagExportDir
	} else {
		cfg.ExportDir = resolvePathRelativeTo(cfg.ExportDir, projectRoot)
	}
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	// Determine which environment to use for override selection
	envName := cfg.Environment
	if envOverride != "" {
		envName = envOverride
	}

	// Apply environment-specific overrides if an environment is selected
	if envName != "" && cfg.Environments != nil {
		if envCfg, ok := cfg.Environments[envName]; ok {
			if envOverride == "" && envCfg.DataDir != "" {
				cfg.DataDir = resolvePathRelativeTo(envCfg.DataDir, projectRoot)
			}

			// Merge environment database with base database
			if envCfg.Database != nil {
				cfg.Database = MergeDatabaseConfig(cfg.Database, envCfg.Database)
			}
		}
	}

	// Initialize default database if not specified
	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	sharedcfg.ApplyDatabaseDefaults(cfg.Database)

	// If --database flag was explicitly set, it takes precedence over config
	// file and environment overrides
	if flagDatabase != "" {
		cfg.Database.Path = flagDatabase
	} else if cfg.Database.Path != "" && cfg.Database.Path != ":memory:" {
		cfg.Database.Path = resolvePathRelativeTo(cfg.Database.Path, projectRoot)
	}

	// Fill the remaining sections and their defaults
	if cfg.Sources == nil {
		cfg.Sources = &SourcesConfig{}
	}
	sharedcfg.ApplySourcesDefaults(cfg.Sources)
	if cfg.Enrich == nil {
		cfg.Enrich = &EnrichConfig{}
	}
	sharedcfg.ApplyEnrichDefaults(cfg.Enrich)
	if cfg.RawStore == nil {
		cfg.RawStore = &RawStoreConfig{}
	}
	sharedcfg.ApplyRawStoreDefaults(cfg.RawStore)
	if cfg.RawStore.Dir == "" || cfg.RawStore.Dir == sharedcfg.DefaultRawDir {
		cfg.RawStore.Dir = cfg.RawDir
	} else {
		cfg.RawStore.Dir = resolvePathRelativeTo(cfg.RawStore.Dir, projectRoot)
	}
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	sharedcfg.ApplyServerDefaults(cfg.Server)
	if cfg.KPI == nil {
		cfg.KPI = &KPIConfig{}
	}

	// Expand environment variables in credential fields
	expandCredentialEnvVars(&cfg)

	// Validate database configuration
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithEnv is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	// Match ${VAR} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandCredentialEnvVars expands environment variables in sensitive fields.
func expandCredentialEnvVars(cfg *Config) {
	if cfg.Database != nil {
		cfg.Database.Password = expandEnvVars(cfg.Database.Password)
		cfg.Database.User = expandEnvVars(cfg.Database.User)
		cfg.Database.Host = expandEnvVars(cfg.Database.Host)
		cfg.Database.Database = expandEnvVars(cfg.Database.Database)
	}
	if cfg.Sources != nil {
		if r := cfg.Sources.Reddit; r != nil {
			r.ClientID = expandEnvVars(r.ClientID)
			r.ClientSecret = expandEnvVars(r.ClientSecret)
		}
		if y := cfg.Sources.YouTube; y != nil {
			y.APIKey = expandEnvVars(y.APIKey)
		}
	}
	if cfg.Enrich != nil {
		cfg.Enrich.APIToken = expandEnvVars(cfg.Enrich.APIToken)
	}
	if cfg.RawStore != nil {
		cfg.RawStore.MongoURI = expandEnvVars(cfg.RawStore.MongoURI)
	}
}

// MergeDatabaseConfig merges two database configs, with override taking precedence.
func MergeDatabaseConfig(base, override *DatabaseConfig) *DatabaseConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	// Start with a copy of base
	merged := &DatabaseConfig{
		Type:     base.Type,
		Path:     base.Path,
		Host:     base.Host,
		Port:     base.Port,
		User:     base.User,
		Password: base.Password,
		Database: base.Database,
		Options:  make(map[string]string),
	}

	// Copy base options
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	// Apply overrides
	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Database != "" {
		merged.Database = override.Database
	}

	// Merge options
	for k, v := range override.Options {
		merged.Options[k] = v
	}

	return merged
}

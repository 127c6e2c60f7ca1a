package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// errNoConfig means no config file exists in any searched location
var errNoConfig = errors.New("no config file found")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations; finding nothing
// there is not an error and yields Defaults().
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
// The path is "" when no file was found and defaults are used.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if errors.Is(err, errNoConfig) {
		cfg := Defaults()
		return cfg, "", Validate(cfg)
	}
	if err != nil {
		return nil, "", err
	}

	// Get absolute path and directory for resolving relative paths
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	// Interpolate environment variables
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir
	cfg.Path = absPath

	// Resolve relative history path
	if cfg.REPL.History != "" && !filepath.IsAbs(cfg.REPL.History) {
		cfg.REPL.History = filepath.Join(baseDir, cfg.REPL.History)
	}

	// Resolve relative sqlite database path
	if isSQLite(cfg.Store.Driver) && isRelativeFile(cfg.Store.DSN) {
		cfg.Store.DSN = filepath.Join(baseDir, cfg.Store.DSN)
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

func isSQLite(driver string) bool {
	d := strings.ToLower(driver)
	return d == "sqlite" || d == "sqlite3"
}

// isRelativeFile reports whether a sqlite DSN is a plain relative file path
func isRelativeFile(dsn string) bool {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return false
	}
	return !filepath.IsAbs(dsn)
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > FELISP_CONFIG env > ./felisp.yaml > ~/.config/felisp/felisp.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	// Try FELISP_CONFIG environment variable
	if envPath := getenv("FELISP_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("FELISP_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	// Try ./felisp.yaml
	if _, err := os.Stat("felisp.yaml"); err == nil {
		return "felisp.yaml", nil
	}

	// Try ~/.config/felisp/felisp.yaml
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "felisp", "felisp.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", errNoConfig
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// Validate checks the configuration and reports every problem at once
func Validate(cfg *Config) error {
	var result *multierror.Error

	switch cfg.REPL.Color {
	case "auto", "always", "never":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid repl.color: %q (must be auto, always or never)", cfg.REPL.Color))
	}

	switch cfg.Eval.Scoping {
	case "dynamic", "lexical":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid eval.scoping: %q (must be dynamic or lexical)", cfg.Eval.Scoping))
	}

	switch cfg.Tables.Display {
	case "debug", "grid":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid tables.display: %q (must be debug or grid)", cfg.Tables.Display))
	}

	seen := make(map[string]bool)
	for i, name := range cfg.Tables.Seed {
		if strings.TrimSpace(name) == "" {
			result = multierror.Append(result, fmt.Errorf("tables.seed[%d]: name is required", i))
			continue
		}
		if strings.ContainsAny(name, "() \t\n") {
			result = multierror.Append(result, fmt.Errorf("tables.seed[%d]: %q is not a valid symbol", i, name))
		}
		if seen[name] {
			result = multierror.Append(result, fmt.Errorf("tables.seed[%d]: duplicate table %q", i, name))
		}
		seen[name] = true
	}

	if cfg.Store.Enabled() {
		switch strings.ToLower(cfg.Store.Driver) {
		case "sqlite", "sqlite3", "postgres", "postgresql", "pg", "mysql", "mariadb":
		default:
			result = multierror.Append(result, fmt.Errorf("invalid store.driver: %q (must be sqlite, postgres or mysql)", cfg.Store.Driver))
		}
		if cfg.Store.DSN == "" {
			result = multierror.Append(result, fmt.Errorf("store.dsn is required when store.driver is set"))
		}
	} else if cfg.Store.Autoload || cfg.Store.Autosave {
		result = multierror.Append(result, fmt.Errorf("store.autoload and store.autosave require store.driver"))
	}

	if result != nil {
		result.ErrorFormat = formatErrors
	}
	return result.ErrorOrNil()
}

func formatErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return "configuration errors:\n  - " + strings.Join(msgs, "\n  - ")
}

package config

import (
	"os"
	"path/filepath"
)

// Config represents the complete Felisp configuration
type Config struct {
	BaseDir string       `yaml:"-"` // Directory containing config file, for resolving relative paths
	Path    string       `yaml:"-"` // Config file that was loaded ("" when defaults are used)
	REPL    REPLConfig   `yaml:"repl"`
	Eval    EvalConfig   `yaml:"eval"`
	Tables  TablesConfig `yaml:"tables"`
	Store   StoreConfig  `yaml:"store"`
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	Prompt  string `yaml:"prompt"`
	History string `yaml:"history"` // History file (default: <tmp>/.felisp_history)
	Color   string `yaml:"color"`   // auto, always or never
}

// EvalConfig holds evaluator settings
type EvalConfig struct {
	Scoping string `yaml:"scoping"` // dynamic or lexical
	Trace   bool   `yaml:"trace"`   // Print evaluator trace lines to stderr
}

// TablesConfig holds the table store settings
type TablesConfig struct {
	Seed    []string `yaml:"seed"`    // Tables created at startup
	Display string   `yaml:"display"` // debug or grid
}

// StoreConfig holds the SQL snapshot settings
type StoreConfig struct {
	Driver   string `yaml:"driver"`   // sqlite, postgres or mysql ("" disables)
	DSN      string `yaml:"dsn"`      // Data source name for the driver
	Autoload bool   `yaml:"autoload"` // Restore saved tables at startup
	Autosave bool   `yaml:"autosave"` // Save every table on exit
}

// Enabled reports whether a snapshot store is configured
func (s StoreConfig) Enabled() bool {
	return s.Driver != ""
}

// Defaults returns a Config with sensible default values
func Defaults() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt: ">> ",
			Color:  "auto",
		},
		Eval: EvalConfig{
			Scoping: "dynamic",
		},
		Tables: TablesConfig{
			Seed:    []string{"mytable1"},
			Display: "debug",
		},
	}
}

// HistoryPath returns the REPL history file, falling back to the temp dir
func (r REPLConfig) HistoryPath() string {
	if r.History != "" {
		return r.History
	}
	return filepath.Join(os.TempDir(), ".felisp_history")
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultConfigFile is read when no configuration directory is given.
const DefaultConfigFile = "/etc/pkresolve/pkresolve.ini"

// ConfigFileName is the file looked up inside a configuration directory.
const ConfigFileName = "pkresolve.ini"

// Config holds pkresolve configuration
type Config struct {
	Profile    string
	ConfigFile string // file the values were read from, empty for defaults

	DatabasePath string
	LogsPath     string
	LockFile     string

	// Accept_keywords: keywords a package version must carry to show up
	// in identifiers, e.g. "amd64 ~amd64".
	AcceptKeywords []string

	// Free_license_group: the license group the free filter accepts.
	FreeLicenseGroup string

	Workers      int
	StoreTimeout time.Duration

	// Legacy set files imported by "pkresolve init".
	WorldFile  string
	SystemFile string

	ListenAddress   string
	MetricsTextfile string // prometheus textfile collector output, empty to disable

	Debug bool

	// Migration settings
	Migration struct {
		AutoMigrate  bool // Default: true
		BackupLegacy bool // Default: true
	}
}

var globalConfig *Config

// GetConfig returns the global configuration
func GetConfig() *Config {
	return globalConfig
}

// SetConfig sets the global configuration
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from file. A missing file is not an
// error: defaults are used and a warning is printed.
//
// The profile is taken from the argument, or from profile_selected in the
// [Global Configuration] section. Values in the profile section win over
// values in the global section.
func LoadConfig(configDir, profile string) (*Config, error) {
	cfg := &Config{Profile: profile}
	cfg.Migration.AutoMigrate = true
	cfg.Migration.BackupLegacy = true

	configFile := DefaultConfigFile
	if configDir != "" {
		configFile = filepath.Join(configDir, ConfigFileName)
	}

	if _, err := os.Stat(configFile); err == nil {
		iniFile, err := ini.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.ConfigFile = configFile

		globalSec, _ := iniFile.GetSection("Global Configuration")
		if globalSec == nil {
			globalSec, _ = iniFile.GetSection("global configuration")
		}

		if (cfg.Profile == "" || cfg.Profile == "default") && globalSec != nil {
			if key, err := globalSec.GetKey("profile_selected"); err == nil {
				cfg.Profile = key.String()
			}
		}

		// Global values first, profile values override them.
		if globalSec != nil {
			if err := cfg.loadFromSection(globalSec); err != nil {
				return nil, err
			}
		}
		if cfg.Profile != "" {
			if profileSec, err := iniFile.GetSection(cfg.Profile); err == nil {
				if err := cfg.loadFromSection(profileSec); err != nil {
					return nil, err
				}
			} else {
				return nil, fmt.Errorf("profile %q not found in %s", cfg.Profile, configFile)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "Warning: No config file found at %s, using defaults\n", configFile)
		fmt.Fprintf(os.Stderr, "Run 'pkresolve init' to create one.\n")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "/var/lib/pkresolve/packages.db"
	}
	if cfg.LogsPath == "" {
		cfg.LogsPath = "/var/log/pkresolve"
	}
	if cfg.LockFile == "" {
		cfg.LockFile = "/run/pkresolve.lock"
	}
	if len(cfg.AcceptKeywords) == 0 {
		cfg.AcceptKeywords = []string{defaultKeyword()}
	}
	if cfg.FreeLicenseGroup == "" {
		cfg.FreeLicenseGroup = "FSF-APPROVED"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 30 * time.Second
	}
	if cfg.WorldFile == "" {
		cfg.WorldFile = "/var/lib/portage/world"
	}
	if cfg.SystemFile == "" {
		cfg.SystemFile = "/etc/portage/sets/system"
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "127.0.0.1:8484"
	}
}

// defaultWorkers uses the CPU count, capped at 16.
func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 16 {
		n = 16
	}
	if n < 1 {
		n = 1
	}
	return n
}

func defaultKeyword() string {
	switch runtime.GOARCH {
	case "386":
		return "x86"
	case "loong64":
		return "loong"
	}
	return runtime.GOARCH
}

// loadFromSection loads config values from an INI section
func (cfg *Config) loadFromSection(sec *ini.Section) error {
	if sec == nil {
		return nil
	}

	// Paths
	if v := sec.Key("Database_path").String(); v != "" {
		cfg.DatabasePath = v
	}
	if v := sec.Key("Logs_path").String(); v != "" {
		cfg.LogsPath = v
	}
	if v := sec.Key("Lock_file").String(); v != "" {
		cfg.LockFile = v
	}
	if v := sec.Key("World_file").String(); v != "" {
		cfg.WorldFile = v
	}
	if v := sec.Key("System_file").String(); v != "" {
		cfg.SystemFile = v
	}
	if v := sec.Key("Metrics_textfile").String(); v != "" {
		cfg.MetricsTextfile = v
	}

	// Resolver settings
	if v := sec.Key("Accept_keywords").String(); v != "" {
		cfg.AcceptKeywords = strings.Fields(v)
	}
	if v := sec.Key("Free_license_group").String(); v != "" {
		cfg.FreeLicenseGroup = strings.TrimPrefix(v, "@")
	}
	if sec.HasKey("Number_of_workers") {
		n, err := sec.Key("Number_of_workers").Int()
		if err != nil || n <= 0 {
			return fmt.Errorf("Number_of_workers: invalid value %q", sec.Key("Number_of_workers").String())
		}
		cfg.Workers = n
	}
	if sec.HasKey("Store_timeout") {
		d, err := time.ParseDuration(sec.Key("Store_timeout").String())
		if err != nil {
			return fmt.Errorf("Store_timeout: %w", err)
		}
		cfg.StoreTimeout = d
	}

	// Server
	if v := sec.Key("Listen_address").String(); v != "" {
		cfg.ListenAddress = v
	}

	// Boolean options
	if sec.HasKey("Debug") {
		cfg.Debug = parseBool(sec.Key("Debug").String())
	}
	if sec.HasKey("Migration_auto_migrate") {
		cfg.Migration.AutoMigrate = parseBool(sec.Key("Migration_auto_migrate").String())
	}
	if sec.HasKey("Migration_backup_legacy") {
		cfg.Migration.BackupLegacy = parseBool(sec.Key("Migration_backup_legacy").String())
	}
	return nil
}

func parseBool(s string) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	switch strings.ToLower(s) {
	case "yes", "on":
		return true
	}
	return false
}

// WriteDefault writes a configuration file holding the default
// values to path. Existing files are left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	d := Default()
	f := ini.Empty()
	global := f.Section("Global Configuration")
	global.Key("profile_selected").SetValue("default")

	sec := f.Section("default")
	sec.Key("Database_path").SetValue(d.DatabasePath)
	sec.Key("Logs_path").SetValue(d.LogsPath)
	sec.Key("Lock_file").SetValue(d.LockFile)
	sec.Key("Accept_keywords").SetValue(strings.Join(d.AcceptKeywords, " "))
	sec.Key("Free_license_group").SetValue(d.FreeLicenseGroup)
	sec.Key("Number_of_workers").SetValue(strconv.Itoa(d.Workers))
	sec.Key("Store_timeout").SetValue(d.StoreTimeout.String())
	sec.Key("World_file").SetValue(d.WorldFile)
	sec.Key("System_file").SetValue(d.SystemFile)
	sec.Key("Listen_address").SetValue(d.ListenAddress)
	sec.Key("Debug").SetValue("no")

	return f.SaveTo(path)
}

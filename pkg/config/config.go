/*
Package config manages the TOML config for offdict.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/offdict/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Data   DataConfig   `toml:"data"`
	Trie   TrieConfig   `toml:"trie"`
	Index  IndexConfig  `toml:"index"`
	Search SearchConfig `toml:"search"`
	Server ServerConfig `toml:"server"`
}

// DataConfig locates the on-disk state.
type DataConfig struct {
	Dir      string `toml:"dir"`
	TrieFile string `toml:"trie_file"`
	DBFile   string `toml:"db_file"`
	// Layout is "merge" (records for a key are merge operands) or "split"
	// (each import overwrites its key).
	Layout string `toml:"layout"`
}

// TrieConfig holds the Levenshtein settings of the fuzzy trie.
type TrieConfig struct {
	Distance      int            `toml:"distance"`
	Transposition bool           `toml:"transposition"`
	Overrides     []TrieOverride `toml:"override"`
}

// TrieOverride applies to queries of at most MaxLen characters.
type TrieOverride struct {
	Distance      int  `toml:"distance"`
	Transposition bool `toml:"transposition"`
	MaxLen        int  `toml:"max_len"`
}

// IndexConfig holds candidate index options.
type IndexConfig struct {
	Backend       string `toml:"backend"`
	Cap           int    `toml:"cap"`
	Expensive     bool   `toml:"expensive"`
	TopKPrefixLen int    `toml:"topk_prefix_len"`
	TopK          int    `toml:"topk_k"`
	CacheSize     int    `toml:"cache_size"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	Limit    int `toml:"limit"`
	MaxQuery int `toml:"max_query"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return executableDir()
	}
	for _, dir := range []string{
		filepath.Join(homeDir, ".config", "offdict"),
		filepath.Join(homeDir, "Library", "Application Support", "offdict"),
	} {
		if writableDir(dir) {
			return dir, nil
		}
	}
	execDir, err := executableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// writableDir creates dir if needed and checks a file can be written in it.
func writableDir(dir string) bool {
	if err := utils.EnsureDir(dir); err != nil {
		log.Warnf("Cannot create directory %s: %v", dir, err)
		return false
	}
	f, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		log.Warnf("Cannot write to directory %s: %v", dir, err)
		return false
	}
	f.Close()
	os.Remove(f.Name())
	return true
}

func executableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(execPath), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/offdict/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values. An empty data dir
// resolves to the platform data directory at startup.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			TrieFile: "trie",
			DBFile:   "offdict.db",
			Layout:   "merge",
		},
		Trie: TrieConfig{
			Distance:      2,
			Transposition: true,
		},
		Index: IndexConfig{
			Backend:       "fst",
			Cap:           50,
			Expensive:     false,
			TopKPrefixLen: 3,
			TopK:          16,
			CacheSize:     2048,
		},
		Search: SearchConfig{
			Limit:    3,
			MaxQuery: 64,
		},
		Server: ServerConfig{
			MaxLimit: 32,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file that failed to
// decode as a whole.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "data"); ok {
		extractDataConfig(section, &config.Data)
	}
	if section, ok := utils.ExtractSection(tempConfig, "trie"); ok {
		extractTrieConfig(section, &config.Trie)
	}
	if section, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(section, &config.Index)
	}
	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_limit"); ok {
			config.Server.MaxLimit = val
		}
	}
	return config, nil
}

func extractDataConfig(data map[string]any, c *DataConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		c.Dir = val
	}
	if val, ok := utils.ExtractString(data, "trie_file"); ok {
		c.TrieFile = val
	}
	if val, ok := utils.ExtractString(data, "db_file"); ok {
		c.DBFile = val
	}
	if val, ok := utils.ExtractString(data, "layout"); ok {
		c.Layout = val
	}
}

func extractTrieConfig(data map[string]any, c *TrieConfig) {
	if val, ok := utils.ExtractInt64(data, "distance"); ok {
		c.Distance = val
	}
	if val, ok := utils.ExtractBool(data, "transposition"); ok {
		c.Transposition = val
	}
	if tables, ok := utils.ExtractTables(data, "override"); ok {
		c.Overrides = c.Overrides[:0]
		for _, t := range tables {
			var o TrieOverride
			distance, okD := utils.ExtractInt64(t, "distance")
			maxLen, okL := utils.ExtractInt64(t, "max_len")
			if !okD || !okL {
				log.Warnf("Skipping trie override without distance and max_len: %v", t)
				continue
			}
			o.Distance, o.MaxLen = distance, maxLen
			o.Transposition, _ = utils.ExtractBool(t, "transposition")
			c.Overrides = append(c.Overrides, o)
		}
	}
}

func extractIndexConfig(data map[string]any, c *IndexConfig) {
	if val, ok := utils.ExtractString(data, "backend"); ok {
		c.Backend = val
	}
	if val, ok := utils.ExtractInt64(data, "cap"); ok {
		c.Cap = val
	}
	if val, ok := utils.ExtractBool(data, "expensive"); ok {
		c.Expensive = val
	}
	if val, ok := utils.ExtractInt64(data, "topk_prefix_len"); ok {
		c.TopKPrefixLen = val
	}
	if val, ok := utils.ExtractInt64(data, "topk_k"); ok {
		c.TopK = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		c.CacheSize = val
	}
}

func extractSearchConfig(data map[string]any, c *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		c.Limit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		c.MaxQuery = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.AbsPath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// DataDir returns the configured data directory, or the platform default.
func (c *Config) DataDir() (string, error) {
	if c.Data.Dir != "" {
		return utils.ExpandHome(c.Data.Dir)
	}
	return utils.DefaultDataDir()
}

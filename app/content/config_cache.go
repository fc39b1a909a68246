package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

type ConfigCache struct {
	collectionsDir string
	cache          map[Collection]*Config
	mu             sync.RWMutex
}

func NewConfigCache(collectionsDir string) *ConfigCache {
	return &ConfigCache{
		collectionsDir: collectionsDir,
		cache:          make(map[Collection]*Config),
	}
}

// Run loads built-in defaults for every collection, then applies YAML overrides
func (cc *ConfigCache) Run() error {
	for _, c := range Collections {
		cfg := DefaultConfig(c)
		cc.store(&cfg)
	}

	if cc.collectionsDir == "" {
		return nil
	}
	if _, err := os.Stat(cc.collectionsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.collectionsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		name := fileName[:len(fileName)-4]

		collection, err := ParseCollection(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		config, err := cc.LoadConfig(collection)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Collection configuration loaded", "collection", collection, "order_by", config.Settings.OrderBy, "preview_limit", config.Settings.PreviewLimit)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(collection Collection) (*Config, error) {
	configFile := cc.getConfigFilePath(collection)
	config, err := cc.parseConfig(collection, configFile)
	if err != nil {
		return nil, err
	}

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.store(config)

	return config, nil
}

func (cc *ConfigCache) GetConfig(collection Collection) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[collection]
	if !ok {
		return nil, fmt.Errorf("collection config with name '%s' not found", collection)
	}
	return config, nil
}

// MustConfig returns the loaded config or the built-in default
func (cc *ConfigCache) MustConfig(collection Collection) *Config {
	if config, err := cc.GetConfig(collection); err == nil {
		return config
	}
	config := DefaultConfig(collection)
	return &config
}

func (cc *ConfigCache) GetConfigs() map[Collection]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[Collection]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) store(config *Config) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config
}

func (cc *ConfigCache) parseConfig(collection Collection, configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config := DefaultConfig(collection)
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Name = collection

	if config.Settings.OrderBy == "" {
		config.Settings.OrderBy = OrderingField
	}
	if config.Settings.FallbackImage == "" {
		config.Settings.FallbackImage = FallbackImageURL
	}
	if config.Settings.ExcerptLength == 0 {
		config.Settings.ExcerptLength = ExcerptLength
	}
	if config.Settings.Placeholder == "" {
		config.Settings.Placeholder = ExcerptPlaceholder
	}
	if config.Settings.ExcerptSource == "" {
		config.Settings.ExcerptSource = "content"
	}
	if config.Defaults == nil {
		config.Defaults = map[string]any{}
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if !database.ValidFieldName(config.Settings.OrderBy) {
		return fmt.Errorf("invalid order field: %s", config.Settings.OrderBy)
	}

	nonNegativeFields := map[string]int{
		"preview limit":  config.Settings.PreviewLimit,
		"excerpt length": config.Settings.ExcerptLength,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for i, field := range config.Settings.RichTextFields {
		if !database.ValidFieldName(field) {
			return fmt.Errorf("invalid rich text field at index %d: %s", i, field)
		}
	}

	if err := checkDefaultOption("category", config.Defaults, config.Options.Categories); err != nil {
		return err
	}
	if err := checkDefaultOption("level", config.Defaults, config.Options.Levels); err != nil {
		return err
	}
	return checkDefaultOption("type", config.Defaults, config.Options.Types)
}

// checkDefaultOption ensures a configured default is one of the offered options
func checkDefaultOption(field string, defaults map[string]any, options []string) error {
	value, ok := defaults[field].(string)
	if !ok || len(options) == 0 {
		return nil
	}
	for _, option := range options {
		if option == value {
			return nil
		}
	}
	return fmt.Errorf("default %s %q is not one of %v", field, value, options)
}

func (cc *ConfigCache) getConfigFilePath(collection Collection) string {
	return filepath.Join(cc.collectionsDir, string(collection)+".yml")
}

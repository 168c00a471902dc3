package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/internal/storage"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// APIConfig controls the REST surface
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Addr returns host:port
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BackendConfig overrides a backend's simulated connection
type BackendConfig struct {
	ConnectionString string        `yaml:"connection_string,omitempty"`
	ConnectLatency   time.Duration `yaml:"connect_latency"`
}

// HistoryConfig sizes the in-memory event history
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// FileConfig is the on-disk configuration
type FileConfig struct {
	Pipeline model.PipelineConfiguration         `yaml:"pipeline"`
	Log      logger.Config                       `yaml:"log"`
	API      APIConfig                           `yaml:"api"`
	Backends map[model.BackendType]BackendConfig `yaml:"backends"`
	History  HistoryConfig                       `yaml:"history"`
}

// DefaultFileConfig returns the configuration used when no file is given
func DefaultFileConfig() FileConfig {
	backends := make(map[model.BackendType]BackendConfig)
	for _, backend := range model.SupportedBackends() {
		opts := storage.DefaultOptions(backend)
		backends[backend] = BackendConfig{ConnectionString: opts.ConnectionString, ConnectLatency: opts.ConnectLatency}
	}

	return FileConfig{
		Pipeline: model.DefaultConfiguration(),
		Log:      logger.Config{Level: "info", Encoding: "console"},
		API:      APIConfig{Enabled: true, Host: "127.0.0.1", Port: 8080},
		Backends: backends,
		History:  HistoryConfig{Capacity: 100},
	}
}

// Validate reports every problem in the configuration
func (c FileConfig) Validate() error {
	var errs error
	if !c.Pipeline.Mode.Valid() {
		errs = multierr.Append(errs, &model.UnknownModeError{Mode: c.Pipeline.Mode})
	}
	if !c.Pipeline.Backend.Valid() {
		errs = multierr.Append(errs, &model.UnknownBackendError{Backend: c.Pipeline.Backend})
	}
	for backend, bc := range c.Backends {
		if !backend.Valid() {
			errs = multierr.Append(errs, &model.UnknownBackendError{Backend: backend})
		}
		if bc.ConnectLatency < 0 {
			errs = multierr.Append(errs, fmt.Errorf("backends.%s.connect_latency must not be negative", backend))
		}
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		errs = multierr.Append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.History.Capacity < 0 {
		errs = multierr.Append(errs, fmt.Errorf("history.capacity must not be negative"))
	}
	return errs
}

// StorageOptions converts the backend section into adapter options
func (c FileConfig) StorageOptions() map[model.BackendType]storage.Options {
	out := make(map[model.BackendType]storage.Options, len(c.Backends))
	for backend, bc := range c.Backends {
		opts := storage.DefaultOptions(backend)
		if bc.ConnectionString != "" {
			opts.ConnectionString = bc.ConnectionString
		}
		opts.ConnectLatency = bc.ConnectLatency
		out[backend] = opts
	}
	return out
}

// ConfigManager handles loading, storing, and watching the configuration file
type ConfigManager struct {
	config     map[string]any
	watchers   []func(FileConfig)
	configFile string
	mutex      sync.RWMutex
	BaseComponent
}

// NewConfigManager creates a configuration manager holding the defaults
func NewConfigManager() *ConfigManager {
	tree, err := toTree(DefaultFileConfig())
	if err != nil {
		// the defaults always encode
		panic(err)
	}

	m := &ConfigManager{
		config:        tree,
		BaseComponent: NewBaseComponent("config_manager", "Configuration Manager"),
	}
	m.SetStatus(model.StatusRunning)
	return m
}

// LoadConfig loads configuration from a YAML file. ${VAR} references are
// expanded from the environment and missing keys keep their defaults.
func (m *ConfigManager) LoadConfig(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config file %s: %w", configFile, err)
	}

	tree, err := toTree(cfg)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	m.config = tree
	m.configFile = configFile
	m.mutex.Unlock()

	logger.Get().Infow("configuration loaded", "component", m.ID(), "file", configFile)
	return nil
}

// SaveConfig writes the configuration to configFile, or to the loaded file
// when configFile is empty
func (m *ConfigManager) SaveConfig(configFile string) error {
	m.mutex.RLock()
	if configFile == "" {
		configFile = m.configFile
	}
	data, err := yaml.Marshal(m.config)
	m.mutex.RUnlock()

	if configFile == "" {
		return fmt.Errorf("no config file to save to")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigFile returns the path of the last loaded file
func (m *ConfigManager) ConfigFile() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.configFile
}

// Config returns the typed configuration
func (m *ConfigManager) Config() FileConfig {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	cfg, err := fromTree(m.config)
	if err != nil {
		// the tree only ever holds values that decoded once
		logger.Get().Errorw("config tree no longer decodes", "component", m.ID(), "error", err)
		return DefaultFileConfig()
	}
	return cfg
}

// GetConfig retrieves the value at a dotted path such as "pipeline.mode"
func (m *ConfigManager) GetConfig(path string, defaultValue any) any {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if path == "" {
		return cloneTree(m.config)
	}

	var current any = m.config
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return defaultValue
		}
		if current, ok = node[part]; !ok {
			return defaultValue
		}
	}
	return current
}

// SetConfig sets the value at a dotted path. The change is rejected if the
// resulting configuration is invalid. Watchers are notified on success.
func (m *ConfigManager) SetConfig(path string, value any) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	m.mutex.Lock()
	tree := cloneTree(m.config)
	parts := strings.Split(path, ".")
	current := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value

	cfg, err := fromTree(tree)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		m.mutex.Unlock()
		return fmt.Errorf("cannot set %s: %w", path, err)
	}

	m.config = tree
	m.mutex.Unlock()

	m.notify(cfg)
	return nil
}

// OnChange registers a callback run after every successful change
func (m *ConfigManager) OnChange(callback func(FileConfig)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.watchers = append(m.watchers, callback)
}

func (m *ConfigManager) notify(cfg FileConfig) {
	m.mutex.RLock()
	watchers := append(([]func(FileConfig))(nil), m.watchers...)
	m.mutex.RUnlock()

	for _, callback := range watchers {
		callback(cfg)
	}
}

// Watch reloads the loaded file whenever it changes on disk until ctx is
// done. Invalid edits are logged and ignored.
func (m *ConfigManager) Watch(ctx context.Context) error {
	configFile := m.ConfigFile()
	if configFile == "" {
		return fmt.Errorf("no config file loaded")
	}
	target, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// editors often replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", configFile, err)
	}

	log := logger.Get().With("component", m.ID(), "file", configFile)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := m.LoadConfig(configFile); err != nil {
					log.Warnw("ignoring config change", "error", err)
					continue
				}
				m.notify(m.Config())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnw("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func toTree(cfg FileConfig) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	tree := make(map[string]any)
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return tree, nil
}

func fromTree(tree map[string]any) (FileConfig, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to encode config: %w", err)
	}
	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func cloneTree(tree map[string]any) map[string]any {
	return map[string]any(model.Record(tree).Clone())
}

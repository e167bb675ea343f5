package templates

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"jordanella.com/pk-hunter/internal/cv"
)

// ErrTemplateNotFound is returned when a template file does not exist
var ErrTemplateNotFound = errors.New("template not found")

// Health bar calibration file names per target kind
var configFiles = map[cv.TargetKind]string{
	cv.TargetPlayer: "hp_bar_config.yaml",
	cv.TargetBoss:   "boss_hp_bar_config.yaml",
}

// FileStore serves template images from a directory and calibration files
// from a config directory.
type FileStore struct {
	imageDir  string
	configDir string
	registry  *Registry
	cache     *ImageCache
}

// NewFileStore creates a store. A nil registry resolves names to file names.
func NewFileStore(imageDir, configDir string, registry *Registry) *FileStore {
	if registry == nil {
		registry = NewRegistry()
	}
	return &FileStore{
		imageDir:  imageDir,
		configDir: configDir,
		registry:  registry,
		cache:     NewImageCache(),
	}
}

// WithoutImageCache disables caching; every lookup decodes the file again
func (s *FileStore) WithoutImageCache() *FileStore {
	s.cache = nil
	return s
}

// Registry returns the name registry
func (s *FileStore) Registry() *Registry {
	return s.registry
}

// CacheStats returns image cache statistics
func (s *FileStore) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}

// Template loads the named template
func (s *FileStore) Template(name string) (*cv.Template, error) {
	path := filepath.Join(s.imageDir, s.registry.Resolve(name))
	if s.cache != nil {
		return s.cache.Get(name, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return cv.DecodeTemplate(name, data)
}

// Override returns the registry threshold and region for a name, if any
func (s *FileStore) Override(name string) (threshold float64, region *image.Rectangle) {
	def, ok := s.registry.Get(name)
	if !ok {
		return 0, nil
	}
	if def.Region != nil {
		r := def.Region.Rectangle()
		region = &r
	}
	return def.Threshold, region
}

// Preload decodes every template flagged for preloading
func (s *FileStore) Preload() error {
	var errs []error
	for _, name := range s.registry.Preloaded() {
		if _, err := s.Template(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HealthBarConfig loads the calibration for kind, falling back to defaults
// when the file is missing, unreadable or invalid.
func (s *FileStore) HealthBarConfig(kind cv.TargetKind) cv.HealthBarConfig {
	cfg, err := s.LoadHealthBarConfig(kind)
	if err != nil {
		return cv.DefaultHealthBarConfig()
	}
	return cfg
}

// LoadHealthBarConfig reads the calibration for kind
func (s *FileStore) LoadHealthBarConfig(kind cv.TargetKind) (cv.HealthBarConfig, error) {
	path, err := s.configPath(kind)
	if err != nil {
		return cv.HealthBarConfig{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cv.HealthBarConfig{}, fmt.Errorf("failed to read health bar config: %w", err)
	}

	cfg := cv.DefaultHealthBarConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cv.HealthBarConfig{}, fmt.Errorf("failed to unmarshal health bar config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cv.HealthBarConfig{}, fmt.Errorf("invalid health bar config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveHealthBarConfig writes the calibration for kind
func (s *FileStore) SaveHealthBarConfig(kind cv.TargetKind, cfg cv.HealthBarConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	path, err := s.configPath(kind)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal health bar config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write health bar config: %w", err)
	}
	return nil
}

func (s *FileStore) configPath(kind cv.TargetKind) (string, error) {
	name, ok := configFiles[kind]
	if !ok {
		return "", fmt.Errorf("unknown target kind %q", kind)
	}
	return filepath.Join(s.configDir, name), nil
}

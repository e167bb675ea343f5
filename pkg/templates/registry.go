package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
	"jordanella.com/pk-hunter/internal/cv"
)

// Definition describes one template entry of a registry YAML file
type Definition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold float64    `yaml:"threshold,omitempty"`
	Region    *RegionDef `yaml:"region,omitempty"`
	Preload   bool       `yaml:"preload,omitempty"` // Decode at startup
}

// RegionDef is a search rectangle in the registry YAML file
type RegionDef struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Rectangle converts the definition to screenshot coordinates
func (r RegionDef) Rectangle() image.Rectangle {
	return cv.NewRect(r.X, r.Y, r.Width, r.Height).Rectangle()
}

// RegistryFile is the structure of a registry YAML file
type RegistryFile struct {
	Templates []Definition `yaml:"templates"`
}

// Registry maps logical template names to files plus optional threshold and
// region overrides. Names without an entry resolve to a file of the same name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// LoadFromFile merges the definitions of one YAML file
func (r *Registry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read registry file %s: %w", filePath, err)
	}

	var file RegistryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal registry YAML: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, def := range file.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			def.Path = def.Name
		}
		if def.Threshold < 0 || def.Threshold > 1 {
			return fmt.Errorf("template %s: threshold %.2f outside [0,1]", def.Name, def.Threshold)
		}
		r.definitions[def.Name] = def
	}
	return nil
}

// LoadFromDirectory loads every .yaml/.yml file of a directory
func (r *Registry) LoadFromDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read registry directory %s: %w", dirPath, err)
	}

	var loadErrors []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFromFile(filepath.Join(dirPath, entry.Name())); err != nil {
			loadErrors = append(loadErrors, fmt.Errorf("file %s: %w", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d registry files (first error): %w", len(loadErrors), loadErrors[0])
	}
	return nil
}

// Register adds or replaces a definition
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if def.Path == "" {
		def.Path = def.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Name] = def
	return nil
}

// Get retrieves a definition by name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	return def, ok
}

// Resolve returns the relative file path for a name
func (r *Registry) Resolve(name string) string {
	if def, ok := r.Get(name); ok {
		return def.Path
	}
	return name
}

// Preloaded lists names flagged for decoding at startup
func (r *Registry) Preloaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, def := range r.definitions {
		if def.Preload {
			names = append(names, name)
		}
	}
	return names
}

// Count returns the number of definitions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.definitions)
}

package cv

import (
	"fmt"
	"image"
)

// TemplateSource loads decoded templates by logical name
type TemplateSource interface {
	Template(name string) (*Template, error)
	// Override returns a registry threshold (0 = none) and search region
	Override(name string) (threshold float64, region *image.Rectangle)
}

// MatchConfig is one lookup against a frame
type MatchConfig struct {
	Threshold    float64
	SearchRegion *image.Rectangle // nil searches the whole frame
}

// Service resolves template names and runs MatchBest against frames.
// Missing or unreadable templates are logged and treated as not found.
type Service struct {
	templates TemplateSource
	logf      func(string)
}

// NewService creates a service over a template source
func NewService(templates TemplateSource, logf func(string)) *Service {
	if logf == nil {
		logf = func(string) {}
	}
	return &Service{templates: templates, logf: logf}
}

// Find looks for one named template
func (s *Service) Find(frame *image.RGBA, name string, config MatchConfig) *MatchResult {
	return s.FindAny(frame, []string{name}, config)
}

// FindAny returns the best match among the named templates. A registry
// region applies only when the caller gave none; a registry threshold
// replaces the caller's when set.
func (s *Service) FindAny(frame *image.RGBA, names []string, config MatchConfig) *MatchResult {
	templates := make([]*Template, 0, len(names))
	for _, name := range names {
		t, err := s.templates.Template(name)
		if err != nil {
			s.logf(fmt.Sprintf("template %s unavailable: %v", name, err))
			continue
		}
		templates = append(templates, t)

		threshold, region := s.templates.Override(name)
		if threshold > 0 && len(names) == 1 {
			config.Threshold = threshold
		}
		if region != nil && config.SearchRegion == nil && len(names) == 1 {
			config.SearchRegion = region
		}
	}
	if len(templates) == 0 {
		return nil
	}

	opts := []Option{WithLogger(s.logf)}
	if config.SearchRegion != nil {
		opts = append(opts, WithRegion(*config.SearchRegion))
	}
	return MatchBest(frame, templates, config.Threshold, opts...)
}

// Exists reports whether a named template is matched
func (s *Service) Exists(frame *image.RGBA, name string, config MatchConfig) bool {
	return s.Find(frame, name, config) != nil
}

package pipeline

import (
	"fmt"

	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/realize"
	"github.com/ppiankov/reporter/internal/registry"
	"github.com/ppiankov/reporter/internal/templates"
	"github.com/ppiankov/reporter/internal/vocabulary"
)

// LoadRegistry reads the embedded templates and vocabulary plus the files
// named in cfg and returns them in a sealed registry
func LoadRegistry(cfg model.TemplatesConfig) (*registry.Registry, error) {
	set, err := templates.Default()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	for _, path := range cfg.Files {
		extra, err := templates.ReadFile(path, "en")
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		set.Merge(extra)
	}

	vocab, err := vocabulary.Load(cfg.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	realizers, err := realize.RegexRealizers(vocab)
	if err != nil {
		return nil, fmt.Errorf("load slot realizers: %w", err)
	}

	reg := registry.New()
	for name, component := range map[string]any{
		registry.Templates:     set,
		registry.Vocabulary:    vocab,
		registry.SlotRealizers: realizers,
	} {
		if err := reg.Register(name, component); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}

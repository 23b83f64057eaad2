package config

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/sandevgo/piichat/internal/core"
)

// CatalogFileName is the catalog looked up in the runtime directory when
// PIICHAT_CATALOG is not set.
const CatalogFileName = "catalog.yaml"

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() []byte {
	return slices.Clone(defaultCatalog)
}

type ProviderCatalog struct {
	Open   bool     `yaml:"open"`
	Models []string `yaml:"models"`
}

// Catalog lists the models each provider accepts and the named preambles.
type Catalog struct {
	Providers map[string]ProviderCatalog `yaml:"providers"`
	Profiles  map[string][]core.Turn     `yaml:"profiles"`
}

// LoadCatalog reads the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, &core.ConfigurationError{Field: "PIICHAT_CATALOG", Err: err}
		}
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &core.ConfigurationError{Field: "PIICHAT_CATALOG", Err: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	if len(c.Providers) == 0 {
		return &core.ConfigurationError{Field: "PIICHAT_CATALOG", Err: fmt.Errorf("no providers")}
	}
	for name, turns := range c.Profiles {
		if err := core.ValidatePreamble(turns); err != nil {
			return &core.ConfigurationError{Field: "PIICHAT_CATALOG", Err: fmt.Errorf("profile %s: %w", name, err)}
		}
	}
	return nil
}

// ValidateModel reports whether provider may be used with model.
func (c *Catalog) ValidateModel(provider, model string) error {
	p, ok := c.Providers[provider]
	if !ok {
		return fmt.Errorf("provider %q is not in the catalog", provider)
	}
	if model == "" {
		return fmt.Errorf("model name is empty")
	}
	if p.Open || slices.Contains(p.Models, model) {
		return nil
	}
	return fmt.Errorf("model %q is not available for %s", model, provider)
}

func (c *Catalog) Models(provider string) []string {
	return slices.Clone(c.Providers[provider].Models)
}

// Preamble returns a copy of the named profile.
func (c *Catalog) Preamble(profile string) ([]core.Turn, error) {
	turns, ok := c.Profiles[profile]
	if !ok {
		return nil, &core.ConfigurationError{Field: "PIICHAT_PROFILE", Err: fmt.Errorf("unknown profile %q", profile)}
	}
	return slices.Clone(turns), nil
}

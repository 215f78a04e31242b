package entitlement

import (
	"context"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads the catalog spec from a YAML file on every Load call,
// so a restart picks up catalog edits without a rebuild.
type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that reads the catalog from a YAML file.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (CatalogSpec, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return CatalogSpec{}, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var spec CatalogSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return CatalogSpec{}, errors.Join(ErrFailedToLoadCatalog, err)
	}

	return spec, nil
}

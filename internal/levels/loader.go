package levels

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"termescape/internal/game"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// LoadCatalog decodes and validates a catalog document.
func LoadCatalog(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// BuiltinCatalog returns the catalog compiled into the binary.
func BuiltinCatalog() (Catalog, error) {
	return LoadCatalog(builtinCatalog)
}

// New builds the level described by spec.
func New(spec LevelSpec) (game.Level, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("level %d: %w", spec.ID, err)
	}
	m := newMeta(spec)
	switch {
	case spec.Terminal != nil:
		return &Terminal{meta: m, spec: *spec.Terminal}, nil
	case spec.FileSystem != nil:
		return newFileSystem(m, *spec.FileSystem), nil
	case spec.Processes != nil:
		return &Processes{meta: m, spec: *spec.Processes}, nil
	case spec.Permissions != nil:
		return newPermissions(m, *spec.Permissions), nil
	default:
		return &Network{meta: m, spec: *spec.Network}, nil
	}
}

// RegisterAll builds every level in c and registers it.
func RegisterAll(reg *game.Registry, c Catalog) error {
	for _, spec := range c.Levels {
		l, err := New(spec)
		if err != nil {
			return err
		}
		reg.Register(l)
	}
	return nil
}

// Builtin returns a registry holding the built-in levels.
func Builtin() (*game.Registry, error) {
	c, err := BuiltinCatalog()
	if err != nil {
		return nil, err
	}
	reg := game.NewRegistry()
	if err := RegisterAll(reg, c); err != nil {
		return nil, err
	}
	return reg, nil
}

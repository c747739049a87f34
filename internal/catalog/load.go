package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed data/catalog.json
var embedded []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Load parses and validates raw catalog JSON.
func Load(raw []byte) (*Catalog, error) {
	var data catalogData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return build(data)
}

// Default returns the embedded catalog, parsed once per process lifetime.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(embedded)
	})
	return defaultCatalog, defaultErr
}

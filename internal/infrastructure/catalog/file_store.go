package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/virtualbasket/backend/internal/domain"
)

// catalogFile is the on-disk layout of a catalog fixture
type catalogFile struct {
	Products []domain.Product `yaml:"products"`
}

// FileStore serves a catalog read from a YAML or JSON file. The file is read on
// every fetch so edits show up without a restart.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed catalog
func NewFileStore(path string) (*FileStore, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("catalog file %q must be .yaml, .yml or .json", path)
	}
	return &FileStore{path: path}, nil
}

// FetchSnapshot implements domain.CatalogRepository
func (s *FileStore) FetchSnapshot(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	products, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", s.path, err)
	}
	return products, nil
}

// ParseCatalog decodes a catalog document. JSON is valid YAML, so one decoder
// handles both formats. A bare product list is accepted as well as a
// {products: [...]} document.
func ParseCatalog(data []byte) ([]domain.Product, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err == nil && doc.Products != nil {
		return normalizeProducts(doc.Products), nil
	}

	var list []domain.Product
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return normalizeProducts(list), nil
}

package repository

import (
	"context"

	"github.com/alexdev/devbot/internal/domain/entity"
)

// CatalogParser reads portfolio content from a workbook
type CatalogParser interface {
	// ParseCatalog reads the workbook at filePath
	ParseCatalog(ctx context.Context, filePath string) (*entity.Catalog, error)

	// ParseCatalogFromBytes same as ParseCatalog for an in-memory workbook
	ParseCatalogFromBytes(ctx context.Context, data []byte, filename string) (*entity.Catalog, error)
}

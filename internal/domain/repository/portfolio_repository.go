package repository

import (
	"context"
	"errors"

	"github.com/alexdev/devbot/internal/domain/entity"
)

// PortfolioRepository skills and projects shown on the page
type PortfolioRepository interface {
	// GetProjects all projects in gallery order
	GetProjects(ctx context.Context) ([]entity.Project, error)

	// GetProject project by ID
	GetProject(ctx context.Context, id string) (*entity.Project, error)

	// ProjectsByTag projects carrying the tag (case-insensitive)
	ProjectsByTag(ctx context.Context, tag string) ([]entity.Project, error)

	// GetSkills all skills, optionally filtered by category
	GetSkills(ctx context.Context, category entity.SkillCategory) ([]entity.Skill, error)

	// UpdateCatalog replaces the whole catalog
	UpdateCatalog(ctx context.Context, catalog entity.Catalog) error

	// GetCatalog current catalog
	GetCatalog(ctx context.Context) (*entity.Catalog, error)
}

// ErrProjectNotFound no project with the requested ID
var ErrProjectNotFound = errors.New("project not found")

package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
)

type memoryPortfolioRepository struct {
	mu      sync.RWMutex
	catalog entity.Catalog
	byID    map[string]int // project ID -> index in catalog.Projects
}

// NewMemoryPortfolioRepository in-memory portfolio seeded with catalog
func NewMemoryPortfolioRepository(catalog entity.Catalog) repository.PortfolioRepository {
	m := &memoryPortfolioRepository{}
	m.replace(catalog)
	return m
}

func (m *memoryPortfolioRepository) replace(catalog entity.Catalog) {
	if catalog.UpdatedAt.IsZero() {
		catalog.UpdatedAt = time.Now()
	}
	m.catalog = catalog
	m.byID = make(map[string]int, len(catalog.Projects))
	for i, p := range catalog.Projects {
		m.byID[p.ID] = i
	}
}

// GetProjects all projects in gallery order
func (m *memoryPortfolioRepository) GetProjects(ctx context.Context) ([]entity.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]entity.Project{}, m.catalog.Projects...), nil
}

// GetProject project by ID
func (m *memoryPortfolioRepository) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrProjectNotFound, id)
	}
	project := m.catalog.Projects[idx]
	return &project, nil
}

// ProjectsByTag projects carrying tag, case-insensitive
func (m *memoryPortfolioRepository) ProjectsByTag(ctx context.Context, tag string) ([]entity.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return append([]entity.Project{}, m.catalog.Projects...), nil
	}

	var result []entity.Project
	for _, p := range m.catalog.Projects {
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				result = append(result, p)
				break
			}
		}
	}
	return result, nil
}

// GetSkills skills, filtered by category when one is given
func (m *memoryPortfolioRepository) GetSkills(ctx context.Context, category entity.SkillCategory) ([]entity.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if category == "" {
		return append([]entity.Skill{}, m.catalog.Skills...), nil
	}

	var result []entity.Skill
	for _, s := range m.catalog.Skills {
		if strings.EqualFold(string(s.Category), string(category)) {
			result = append(result, s)
		}
	}
	return result, nil
}

// UpdateCatalog replaces the catalog
func (m *memoryPortfolioRepository) UpdateCatalog(ctx context.Context, catalog entity.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replace(catalog)
	return nil
}

// GetCatalog current catalog
func (m *memoryPortfolioRepository) GetCatalog(ctx context.Context) (*entity.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	catalog := m.catalog
	catalog.Projects = append([]entity.Project{}, m.catalog.Projects...)
	catalog.Skills = append([]entity.Skill{}, m.catalog.Skills...)
	return &catalog, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
	"github.com/alexdev/devbot/internal/logger"
)

var (
	// ErrUnknownCategory skill category filter not recognised
	ErrUnknownCategory = errors.New("unknown skill category")
	ErrImportDisabled  = errors.New("catalog import is not configured")
)

// PortfolioUseCase skills, projects and the assistant's system prompt
type PortfolioUseCase interface {
	// Projects all projects, or only those tagged with tag
	Projects(ctx context.Context, tag string) ([]entity.Project, error)

	Project(ctx context.Context, id string) (*entity.Project, error)

	// Skills all skills; category may be free text ("front-end") or empty
	Skills(ctx context.Context, category string) ([]entity.Skill, error)

	Catalog(ctx context.Context) (*entity.Catalog, error)

	// ImportCatalog replaces the catalog with the workbook at path
	ImportCatalog(ctx context.Context, path string) (*entity.Catalog, error)

	// ImportCatalogFromBytes same as ImportCatalog for an uploaded workbook
	ImportCatalogFromBytes(ctx context.Context, data []byte, filename string) (*entity.Catalog, error)

	// SystemPrompt persona instruction rendered from the catalog
	SystemPrompt(ctx context.Context) (string, error)
}

type portfolioUseCase struct {
	portfolioRepo repository.PortfolioRepository
	parser        repository.CatalogParser
}

// NewPortfolioUseCase parser may be nil when workbook import is not used
func NewPortfolioUseCase(portfolioRepo repository.PortfolioRepository, parser repository.CatalogParser) PortfolioUseCase {
	return &portfolioUseCase{
		portfolioRepo: portfolioRepo,
		parser:        parser,
	}
}

func (u *portfolioUseCase) Projects(ctx context.Context, tag string) ([]entity.Project, error) {
	if strings.TrimSpace(tag) == "" {
		return u.portfolioRepo.GetProjects(ctx)
	}
	return u.portfolioRepo.ProjectsByTag(ctx, tag)
}

func (u *portfolioUseCase) Project(ctx context.Context, id string) (*entity.Project, error) {
	return u.portfolioRepo.GetProject(ctx, strings.TrimSpace(id))
}

func (u *portfolioUseCase) Skills(ctx context.Context, category string) ([]entity.Skill, error) {
	if strings.TrimSpace(category) == "" {
		return u.portfolioRepo.GetSkills(ctx, "")
	}

	parsed, ok := entity.ParseSkillCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return u.portfolioRepo.GetSkills(ctx, parsed)
}

func (u *portfolioUseCase) Catalog(ctx context.Context) (*entity.Catalog, error) {
	return u.portfolioRepo.GetCatalog(ctx)
}

// ImportCatalog parse, then swap. The old catalog stays on any error.
func (u *portfolioUseCase) ImportCatalog(ctx context.Context, path string) (*entity.Catalog, error) {
	if u.parser == nil {
		return nil, ErrImportDisabled
	}

	catalog, err := u.parser.ParseCatalog(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return u.apply(ctx, catalog)
}

func (u *portfolioUseCase) ImportCatalogFromBytes(ctx context.Context, data []byte, filename string) (*entity.Catalog, error) {
	if u.parser == nil {
		return nil, ErrImportDisabled
	}

	catalog, err := u.parser.ParseCatalogFromBytes(ctx, data, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return u.apply(ctx, catalog)
}

func (u *portfolioUseCase) apply(ctx context.Context, catalog *entity.Catalog) (*entity.Catalog, error) {
	// the workbook carries no profile sheet
	if catalog.Profile.Name == "" {
		current, err := u.portfolioRepo.GetCatalog(ctx)
		if err == nil && current != nil {
			catalog.Profile = current.Profile
		}
	}

	if err := u.portfolioRepo.UpdateCatalog(ctx, *catalog); err != nil {
		return nil, fmt.Errorf("failed to update catalog: %w", err)
	}

	logger.Ctx(ctx).Info().
		Str("source", catalog.Source).
		Int("projects", len(catalog.Projects)).
		Int("skills", len(catalog.Skills)).
		Msg("portfolio catalog imported")

	return catalog, nil
}

// SystemPrompt fixed DevBot persona with the profile and project list
func (u *portfolioUseCase) SystemPrompt(ctx context.Context) (string, error) {
	catalog, err := u.portfolioRepo.GetCatalog(ctx)
	if err != nil {
		return "", err
	}
	return RenderSystemPrompt(*catalog), nil
}

// RenderSystemPrompt builds the persona instruction for catalog
func RenderSystemPrompt(catalog entity.Catalog) string {
	p := catalog.Profile

	var sb strings.Builder
	sb.WriteString("You are \"DevBot\", an AI assistant for a Senior Full Stack Developer's portfolio.\n")
	sb.WriteString("Your goal is to answer questions about the developer's skills, experience, and projects in a professional yet witty and tech-savvy manner.\n\n")

	sb.WriteString("Developer Profile:\n")
	sb.WriteString(fmt.Sprintf("- Name: %s\n", p.Name))
	sb.WriteString(fmt.Sprintf("- Role: %s\n", p.Role))
	if len(p.TechStack) > 0 {
		sb.WriteString(fmt.Sprintf("- Tech Stack: %s.\n", strings.Join(p.TechStack, ", ")))
	}
	if len(catalog.Projects) > 0 {
		sb.WriteString("- Key Projects:\n")
		for i, project := range catalog.Projects {
			sb.WriteString(fmt.Sprintf("    %d. %q", i+1, project.Title))
			if project.Description != "" {
				sb.WriteString(" - " + project.Description)
			}
			sb.WriteString("\n")
		}
	}
	if p.Experience != "" {
		sb.WriteString(fmt.Sprintf("- Experience: %s\n", p.Experience))
	}

	sb.WriteString("\nTone: Helpful, concise, slightly futuristic.\n")
	sb.WriteString("If asked about contact info, suggest using the contact form in the 'Contact' section.\n")
	sb.WriteString("If asked about the API key, politely decline.\n")

	return sb.String()
}

package parser

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
)

const (
	SheetProjects = "Projects"
	SheetSkills   = "Skills"
)

type excelParser struct {
	log zerolog.Logger
}

// NewExcelParser workbook-backed CatalogParser
func NewExcelParser(log zerolog.Logger) repository.CatalogParser {
	return &excelParser{log: log}
}

// ParseCatalog reads the workbook at filePath
func (e *excelParser) ParseCatalog(ctx context.Context, filePath string) (*entity.Catalog, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parseWorkbook(f, filepath.Base(filePath))
}

// ParseCatalogFromBytes reads an in-memory workbook
func (e *excelParser) ParseCatalogFromBytes(ctx context.Context, data []byte, filename string) (*entity.Catalog, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel from bytes: %w", err)
	}
	defer f.Close()

	return e.parseWorkbook(f, filename)
}

func (e *excelParser) parseWorkbook(f *excelize.File, source string) (*entity.Catalog, error) {
	catalog := &entity.Catalog{Source: source, UpdatedAt: time.Now()}

	projectSheet, skillSheet := findSheet(f, SheetProjects), findSheet(f, SheetSkills)
	if projectSheet == "" && skillSheet == "" {
		return nil, fmt.Errorf("workbook has neither a %q nor a %q sheet", SheetProjects, SheetSkills)
	}

	if projectSheet != "" {
		rows, err := f.GetRows(projectSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s rows: %w", projectSheet, err)
		}
		catalog.Projects = e.parseProjects(rows)
	}

	if skillSheet != "" {
		rows, err := f.GetRows(skillSheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s rows: %w", skillSheet, err)
		}
		catalog.Skills = e.parseSkills(rows)
	}

	if len(catalog.Projects) == 0 && len(catalog.Skills) == 0 {
		return nil, fmt.Errorf("no projects or skills found in %s", source)
	}

	e.log.Info().
		Str("source", source).
		Int("projects", len(catalog.Projects)).
		Int("skills", len(catalog.Skills)).
		Msg("portfolio catalog parsed")

	return catalog, nil
}

// findSheet sheet name matching want, case-insensitive
func findSheet(f *excelize.File, want string) string {
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return name
		}
	}
	return ""
}

func (e *excelParser) parseProjects(rows [][]string) []entity.Project {
	if len(rows) < 2 {
		return nil
	}

	cols := mapColumns(rows[0], []columnAlias{
		{"id", []string{"id"}},
		{"image_url", []string{"image", "img", "picture"}},
		{"github", []string{"github", "repo", "source"}},
		{"link", []string{"link", "url", "demo", "live"}},
		{"tags", []string{"tags", "stack", "tech"}},
		{"description", []string{"description", "summary", "details"}},
		{"title", []string{"title", "name", "project"}},
	})
	titleCol, ok := cols["title"]
	if !ok {
		e.log.Warn().Msg("projects sheet has no title column, skipping")
		return nil
	}

	var projects []entity.Project
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		title := cell(row, titleCol)
		if title == "" {
			e.log.Warn().Int("row", i+1).Msg("project without title, skipping")
			continue
		}

		project := entity.Project{
			ID:          cellOf(row, cols, "id"),
			Title:       title,
			Description: cellOf(row, cols, "description"),
			Tags:        splitTags(cellOf(row, cols, "tags")),
			ImageURL:    cellOf(row, cols, "image_url"),
			Link:        cellOf(row, cols, "link"),
			GitHub:      cellOf(row, cols, "github"),
		}
		if project.ID == "" {
			project.ID = strconv.Itoa(len(projects) + 1)
		}
		projects = append(projects, project)
	}

	return projects
}

func (e *excelParser) parseSkills(rows [][]string) []entity.Skill {
	if len(rows) < 2 {
		return nil
	}

	cols := mapColumns(rows[0], []columnAlias{
		{"category", []string{"category", "group", "area"}},
		{"level", []string{"level", "score", "proficiency"}},
		{"name", []string{"name", "skill", "technology"}},
	})
	nameCol, ok := cols["name"]
	if !ok {
		e.log.Warn().Msg("skills sheet has no name column, skipping")
		return nil
	}

	var skills []entity.Skill
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		name := cell(row, nameCol)
		if name == "" {
			continue
		}

		category, ok := entity.ParseSkillCategory(cellOf(row, cols, "category"))
		if !ok {
			e.log.Warn().Int("row", i+1).Str("skill", name).Msg("unknown skill category, skipping")
			continue
		}

		level, err := parseLevel(cellOf(row, cols, "level"))
		if err != nil {
			e.log.Warn().Int("row", i+1).Str("skill", name).Err(err).Msg("invalid skill level, using 0")
		}

		skills = append(skills, entity.Skill{Name: name, Category: category, Level: level})
	}

	return skills
}

type columnAlias struct {
	field string
	names []string
}

// mapColumns header column index per field. Fields are tried in order, so
// "Image URL" lands on image_url before link gets a chance.
func mapColumns(header []string, aliases []columnAlias) map[string]int {
	columnMap := make(map[string]int)
	for i, raw := range header {
		col := strings.ToLower(strings.TrimSpace(raw))
		if col == "" {
			continue
		}
		for _, alias := range aliases {
			if _, taken := columnMap[alias.field]; taken {
				continue
			}
			if contains(col, alias.names...) {
				columnMap[alias.field] = i
				break
			}
		}
	}
	return columnMap
}

// contains short keywords (two letters) must match the whole header
func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if len(keyword) <= 2 {
			if str == keyword {
				return true
			}
			continue
		}
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellOf(row []string, cols map[string]int, field string) string {
	idx, ok := cols[field]
	if !ok {
		return ""
	}
	return cell(row, idx)
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// parseLevel 0..100; "85%" and "0.85" are both read as 85
func parseLevel(raw string) (int, error) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid level format: %s", raw)
	}
	if v > 0 && v <= 1 && strings.Contains(raw, ".") {
		v *= 100
	}

	switch {
	case v < 0:
		return 0, nil
	case v > 100:
		return 100, nil
	}
	return int(v + 0.5), nil
}

package entity

import (
	"strings"
	"time"
)

// SkillCategory grouping used by the skills showcase
type SkillCategory string

const (
	CategoryFrontend SkillCategory = "Frontend"
	CategoryBackend  SkillCategory = "Backend"
	CategoryDevOps   SkillCategory = "DevOps"
	CategoryAI       SkillCategory = "AI"
)

// Project gallery entry
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"image_url"`
	Link        string   `json:"link"`
	GitHub      string   `json:"github"`
}

// Skill showcase entry. Level is 0..100.
type Skill struct {
	Name     string        `json:"name"`
	Category SkillCategory `json:"category"`
	Level    int           `json:"level"`
}

// Profile facts about the developer that the assistant is allowed to share
type Profile struct {
	Name       string
	Role       string
	TechStack  []string
	Experience string
}

// Catalog everything the portfolio page shows
type Catalog struct {
	Profile   Profile
	Projects  []Project
	Skills    []Skill
	Source    string // "builtin" or the workbook file name
	UpdatedAt time.Time
}

// ParseSkillCategory category from free text ("front-end", "devops", "ai/ml")
func ParseSkillCategory(raw string) (SkillCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "frontend", "front-end", "front end", "ui":
		return CategoryFrontend, true
	case "backend", "back-end", "back end", "server":
		return CategoryBackend, true
	case "devops", "ops", "infra", "infrastructure", "cloud":
		return CategoryDevOps, true
	case "ai", "ml", "ai/ml":
		return CategoryAI, true
	default:
		return "", false
	}
}

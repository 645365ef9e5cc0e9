package telegram

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/alexdev/devbot/internal/domain/entity"
)

// FormatHistory one line per message, in store order
func FormatHistory(messages []entity.Message) string {
	if len(messages) == 0 {
		return "The conversation is empty."
	}

	var sb strings.Builder
	sb.WriteString("Conversation:\n\n")
	for _, m := range messages {
		who := "DevBot"
		if m.Role == entity.RoleUser {
			who = "You"
		}
		sb.WriteString(fmt.Sprintf("%s [%s]: %s\n", who, m.Timestamp.Format("15:04"), m.Text))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatSkills skills grouped by category in showcase order
func FormatSkills(skills []entity.Skill) string {
	if len(skills) == 0 {
		return "No skills found."
	}

	order := []entity.SkillCategory{entity.CategoryFrontend, entity.CategoryBackend, entity.CategoryDevOps, entity.CategoryAI}
	grouped := make(map[entity.SkillCategory][]entity.Skill)
	for _, s := range skills {
		grouped[s.Category] = append(grouped[s.Category], s)
	}

	var sb strings.Builder
	for _, category := range order {
		list := grouped[category]
		if len(list) == 0 {
			continue
		}
		sb.WriteString(string(category) + ":\n")
		for _, s := range list {
			sb.WriteString(fmt.Sprintf("  %s %s %d%%\n", s.Name, levelBar(s.Level), s.Level))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// levelBar ten-cell bar for a 0..100 level
func levelBar(level int) string {
	filled := (level + 5) / 10
	filled = max(0, min(10, filled))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// FormatProjects gallery entries with tags and links
func FormatProjects(projects []entity.Project) string {
	if len(projects) == 0 {
		return "No projects found."
	}

	var sb strings.Builder
	for i, p := range projects {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, p.Title))
		if p.Description != "" {
			sb.WriteString("   " + p.Description + "\n")
		}
		if len(p.Tags) > 0 {
			sb.WriteString("   Tags: " + strings.Join(p.Tags, ", ") + "\n")
		}
		if p.Link != "" && p.Link != "#" {
			sb.WriteString("   Live: " + p.Link + "\n")
		}
		if p.GitHub != "" && p.GitHub != "#" {
			sb.WriteString("   Code: " + p.GitHub + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ParseContactArgs "name | email | message"; the message may itself contain '|'
func ParseContactArgs(args string) (entity.ContactFields, bool) {
	parts := strings.SplitN(args, "|", 3)
	if len(parts) != 3 {
		return entity.ContactFields{}, false
	}

	return entity.ContactFields{
		Name:    strings.TrimSpace(parts[0]),
		Email:   strings.TrimSpace(parts[1]),
		Message: strings.TrimSpace(parts[2]),
	}, true
}

// SplitMessage cuts text into chunks of at most limit UTF-16 code units, the
// unit Telegram counts, preferring line breaks.
func SplitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		cut, units := 0, 0
		for cut < len(runes) {
			n := runeUnits(runes[cut])
			if units+n > limit {
				break
			}
			units += n
			cut++
		}
		if cut == len(runes) {
			parts = append(parts, string(runes))
			break
		}
		if cut == 0 {
			cut = 1
		}

		for i := cut; i > cut/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	return parts
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

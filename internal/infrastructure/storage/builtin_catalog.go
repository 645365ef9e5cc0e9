package storage

import "github.com/alexdev/devbot/internal/domain/entity"

// BuiltinCatalog the content the page ships with
func BuiltinCatalog() entity.Catalog {
	return entity.Catalog{
		Profile: entity.Profile{
			Name:       "Alex Dev",
			Role:       "Senior Full Stack Engineer & UI/UX Enthusiast",
			TechStack:  []string{"React", "TypeScript", "Node.js", "Python", "Tailwind", "Gemini API", "Docker", "AWS"},
			Experience: "5+ years building scalable web apps. Loves clean code and dark mode.",
		},
		Projects: []entity.Project{
			{
				ID:          "1",
				Title:       "Neon Nexus",
				Description: "A futuristic dashboard for managing IoT devices in real-time. Features WebSockets, 3D visualization using Three.js, and dark mode UI.",
				Tags:        []string{"React", "TypeScript", "Three.js", "WebSockets"},
				ImageURL:    "https://picsum.photos/800/600?random=1",
				Link:        "#",
				GitHub:      "#",
			},
			{
				ID:          "2",
				Title:       "Aether Finance",
				Description: "DeFi aggregation platform with AI-driven market predictions. Integrates with multiple blockchain nodes and provides seamless swapping.",
				Tags:        []string{"Next.js", "Solidity", "Tailwind", "Recharts"},
				ImageURL:    "https://picsum.photos/800/600?random=2",
				Link:        "#",
				GitHub:      "#",
			},
			{
				ID:          "3",
				Title:       "Echo Chat",
				Description: "End-to-end encrypted messaging application with real-time translation powered by Gemini API.",
				Tags:        []string{"React Native", "Firebase", "Gemini API", "Node.js"},
				ImageURL:    "https://picsum.photos/800/600?random=3",
				Link:        "#",
				GitHub:      "#",
			},
		},
		Skills: []entity.Skill{
			{Name: "React", Category: entity.CategoryFrontend, Level: 95},
			{Name: "TypeScript", Category: entity.CategoryFrontend, Level: 92},
			{Name: "Next.js", Category: entity.CategoryFrontend, Level: 88},
			{Name: "TailwindCSS", Category: entity.CategoryFrontend, Level: 90},
			{Name: "Three.js", Category: entity.CategoryFrontend, Level: 70},
			{Name: "Figma", Category: entity.CategoryFrontend, Level: 75},
			{Name: "Node.js", Category: entity.CategoryBackend, Level: 90},
			{Name: "GraphQL", Category: entity.CategoryBackend, Level: 80},
			{Name: "PostgreSQL", Category: entity.CategoryBackend, Level: 82},
			{Name: "MongoDB", Category: entity.CategoryBackend, Level: 78},
			{Name: "Redis", Category: entity.CategoryBackend, Level: 74},
			{Name: "WebSockets", Category: entity.CategoryBackend, Level: 85},
			{Name: "Python", Category: entity.CategoryBackend, Level: 80},
			{Name: "Docker", Category: entity.CategoryDevOps, Level: 85},
			{Name: "AWS", Category: entity.CategoryDevOps, Level: 80},
			{Name: "Gemini API", Category: entity.CategoryAI, Level: 88},
		},
		Source: "builtin",
	}
}

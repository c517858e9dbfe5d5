package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"voice-ordering-be/internal/config"
	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/repository/implementation"
	"voice-ordering-be/pkg/database"
	"voice-ordering-be/pkg/embedding"
	"voice-ordering-be/pkg/embedding/jina"
	"voice-ordering-be/pkg/rerank"

	"github.com/fatih/color"
)

type seedItem struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	ImageURL      string   `json:"image_url"`
	NameDe        *string  `json:"name_de"`
	NameCs        *string  `json:"name_cs"`
	DescriptionDe *string  `json:"description_de"`
	DescriptionCs *string  `json:"description_cs"`
}

func main() {
	menuPath := flag.String("menu", "data/menu.json", "path to the menu JSON file")
	skipEmbed := flag.Bool("skip-embeddings", false, "seed items without computing embeddings")
	flag.Parse()

	color.Cyan("🌱 Seeding menu catalog from %s\n", *menuPath)

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	repo := implementation.NewMenuItemRepository(db)

	raw, err := os.ReadFile(*menuPath)
	if err != nil {
		color.Red("Failed to read menu file: %v", err)
		os.Exit(1)
	}

	var items []seedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		color.Red("Failed to parse menu file: %v", err)
		os.Exit(1)
	}
	color.Yellow("Found %d menu items", len(items))

	var embedder embedding.Provider
	if !*skipEmbed {
		if cfg.Ai.EmbeddingProvider == "jina" {
			embedder = jina.NewJinaProvider(cfg.Keys.Jina)
			log.Println("Using Jina embeddings")
		} else {
			embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
			log.Printf("Using Ollama embeddings (%s)", cfg.Ai.OllamaEmbedModel)
		}
	}

	ctx := context.Background()
	seeded, embedded := 0, 0
	for _, s := range items {
		item := &entity.MenuItem{
			Name:          s.Name,
			Description:   s.Description,
			Price:         s.Price,
			Category:      s.Category,
			Tags:          s.Tags,
			ImageURL:      s.ImageURL,
			NameDe:        s.NameDe,
			NameCs:        s.NameCs,
			DescriptionDe: s.DescriptionDe,
			DescriptionCs: s.DescriptionCs,
		}

		if err := repo.Save(ctx, item); err != nil {
			color.Red("Failed to save %q: %v", s.Name, err)
			continue
		}
		seeded++

		if embedder == nil {
			continue
		}
		vector, err := embedder.EmbedDocument(ctx, rerank.DocumentText(item))
		if err != nil {
			color.Red("Failed to embed %q: %v", s.Name, err)
			continue
		}
		if err := repo.UpdateEmbedding(ctx, item.Id, vector); err != nil {
			color.Red("Failed to store embedding for %q: %v", s.Name, err)
			continue
		}
		embedded++
	}

	color.Green("✅ Seeded %d items, embedded %d", seeded, embedded)
	if *skipEmbed {
		color.Yellow("Embeddings skipped; the server will queue them on startup")
	}
}

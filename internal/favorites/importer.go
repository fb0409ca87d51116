package favorites

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/planner"
)

const extractPrompt = `You are a recipe extraction expert. Extract one meal from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "meals": [
    {
      "name": "Meal name",
      "description": "One-sentence description",
      "ingredients": [{"name": "item", "quantity": "100", "unit": "g"}, ...],
      "recipe": "Preparation steps",
      "protein": 40,
      "carbs": 50,
      "fat": 15
    }
  ]
}
Macros are grams for a single serving. Estimate them from the ingredients when the page does not state them.

Page Content:
%s
`

// Importer fetches a recipe page and turns it into a meal that can seed a
// user's favorites.
type Importer struct {
	chat       llm.ChatGenerator
	httpClient *http.Client
}

// NewImporter creates an Importer.
func NewImporter(chat llm.ChatGenerator) *Importer {
	return &Importer{
		chat:       chat,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ImportURL fetches the URL and extracts a single meal from its content.
func (i *Importer) ImportURL(ctx context.Context, url string) (*mealplan.Meal, error) {
	content, err := i.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	resp, err := i.chat.GenerateChat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(extractPrompt, content)},
		},
		Temperature: 0.2,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	meals, err := planner.ParseMealsResponse(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("no meal found at %s", url)
	}

	meal := meals[0]
	if meal.Name == "" {
		return nil, fmt.Errorf("extracted meal from %s has no name", url)
	}
	return &meal, nil
}

func (i *Importer) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens.
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

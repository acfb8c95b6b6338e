package classifiers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

const geminiInstruction = `You assign a feature type code to each column of a tabular dataset.
Codes:
0 numeric
1 categorical
2 datetime
3 sentence (free text)
4 url
5 embedded-number (numbers mixed with text, e.g. "12 kg")
6 list
7 not-generalizable (identifiers, constants, mostly empty)
8 context-specific / custom object
Answer with a JSON array of integers, one per column, in the order given. No prose.`

func init() {
	core.Register(core.BackendDefinition{
		Info: core.BackendInfo{
			Name:        "gemini",
			Description: "Google Gemini prompted with column profiles",
		},
		New: func(_ context.Context, cfg core.BackendConfig) (core.Classifier, error) {
			if cfg.GeminiAPIKey == "" {
				return nil, errors.New("gemini API key is not configured (GEMINI_API_KEY)")
			}
			return core.NewModelClassifier(NewGeminiModel(cfg.GeminiAPIKey, cfg.GeminiModel)), nil
		},
	})
}

// GeminiModel classifies columns by prompting a Gemini model.
// The client is created on first use.
type GeminiModel struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiModel creates a GeminiModel. An empty model selects DefaultGeminiModel.
func NewGeminiModel(apiKey, model string) *GeminiModel {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiModel{apiKey: apiKey, model: model}
}

func (m *GeminiModel) getClient(ctx context.Context) (*genai.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  m.apiKey,
	})
	if err != nil {
		return nil, err
	}
	m.client = client
	return client, nil
}

// Predict implements core.Model.
func (m *GeminiModel) Predict(ctx context.Context, profiles []core.ColumnProfile) ([]int, error) {
	client, err := m.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini: client: %w", err)
	}

	prompt, err := buildPrompt(profiles)
	if err != nil {
		return nil, fmt.Errorf("gemini: prompt: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(geminiInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	return parsePredictions(resp.Text(), len(profiles))
}

// promptColumn is the compact view of a profile sent to the model.
type promptColumn struct {
	Name          string   `json:"name"`
	MissingRatio  float64  `json:"pct_nans"`
	DistinctRatio float64  `json:"pct_dist_val"`
	MeanWordCount float64  `json:"mean_word_count"`
	HasURL        bool     `json:"has_url"`
	HasDate       bool     `json:"has_date"`
	IsList        bool     `json:"is_list"`
	Samples       []string `json:"samples"`
}

func buildPrompt(profiles []core.ColumnProfile) (string, error) {
	cols := make([]promptColumn, len(profiles))
	for i, p := range profiles {
		cols[i] = promptColumn{
			Name:          p.Name,
			MissingRatio:  p.MissingRatio,
			DistinctRatio: p.DistinctRatio,
			MeanWordCount: p.MeanWordCount,
			HasURL:        p.HasURL,
			HasDate:       p.HasDate,
			IsList:        p.IsList,
			Samples:       p.Samples,
		}
	}
	b, err := json.MarshalIndent(cols, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Columns (%d):\n%s", len(cols), b), nil
}

// parsePredictions decodes the model answer, tolerating a fenced code block.
func parsePredictions(text string, want int) ([]int, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var codes []int
	if err := json.Unmarshal([]byte(text), &codes); err != nil {
		return nil, fmt.Errorf("gemini: decode answer %q: %w", truncate(text, 80), err)
	}
	if len(codes) != want {
		return nil, fmt.Errorf("gemini: got %d codes for %d columns", len(codes), want)
	}
	return codes, nil
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

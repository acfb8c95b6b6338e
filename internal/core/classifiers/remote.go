package classifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

// DefaultRemoteTimeout bounds a single prediction call.
const DefaultRemoteTimeout = 60 * time.Second

// maxErrorBody limits how much of a failed response is kept in errors.
const maxErrorBody = 512

func init() {
	core.Register(core.BackendDefinition{
		Info: core.BackendInfo{
			Name:        "remote",
			Description: "Pretrained type model served over HTTP (POST /predict)",
		},
		New: func(_ context.Context, cfg core.BackendConfig) (core.Classifier, error) {
			if cfg.RemoteURL == "" {
				return nil, errors.New("remote model URL is not configured (CLASSIFIER_REMOTE_URL)")
			}
			return core.NewModelClassifier(NewRemoteModel(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.RemoteTimeout, cfg.Logger)), nil
		},
	})
}

// RemoteModel calls a model server that hosts the pretrained type model.
type RemoteModel struct {
	url    string
	apiKey string
	http   *http.Client
	logger *slog.Logger
}

// NewRemoteModel creates a RemoteModel.
// baseURL is the model server root, e.g. "http://sortinghat:8501".
// A nil logger discards diagnostics.
func NewRemoteModel(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *RemoteModel {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RemoteModel{
		url:    strings.TrimRight(baseURL, "/") + "/predict",
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type predictRequest struct {
	FeatureNames []string        `json:"feature_names"`
	Columns      []predictColumn `json:"columns"`
}

type predictColumn struct {
	Name    string    `json:"name"`
	Vector  []float64 `json:"vector"`
	Samples []string  `json:"samples"`
}

type predictResponse struct {
	Predictions []int  `json:"predictions"`
	Error       string `json:"error,omitempty"`
}

// Predict implements core.Model. It is safe for concurrent use.
func (m *RemoteModel) Predict(ctx context.Context, profiles []core.ColumnProfile) ([]int, error) {
	req := predictRequest{
		FeatureNames: core.VectorFields,
		Columns:      make([]predictColumn, len(profiles)),
	}
	for i, p := range profiles {
		req.Columns[i] = predictColumn{Name: p.Name, Vector: p.Vector(), Samples: p.Samples}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("remote: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	m.logger.Debug("remote: predicting", "url", m.url, "columns", len(profiles))

	resp, err := m.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("remote: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("remote: model error: %s", out.Error)
	}
	return out.Predictions, nil
}

package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// BackendConfig carries the settings classifier backends may need.
// Each backend reads only its own fields.
type BackendConfig struct {
	RemoteURL     string
	RemoteAPIKey  string
	RemoteTimeout time.Duration
	GeminiAPIKey  string
	GeminiModel   string

	// Logger receives backend diagnostics. The service fills it in with a
	// logger tagged with the backend name.
	Logger *slog.Logger
}

// BackendFactory builds a classifier from configuration.
type BackendFactory func(ctx context.Context, cfg BackendConfig) (Classifier, error)

// BackendInfo describes a registered classifier backend.
type BackendInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BackendDefinition contains everything needed to construct a backend.
type BackendDefinition struct {
	Info BackendInfo
	New  BackendFactory
}

var (
	registry   = make(map[string]BackendDefinition)
	registryMu sync.RWMutex
)

// Register adds a classifier backend to the registry.
// Panics if a backend with the same name is already registered.
func Register(def BackendDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Name]; exists {
		panic(fmt.Sprintf("classifier already registered: %s", def.Info.Name))
	}
	registry[def.Info.Name] = def
}

// Get returns a backend definition by name.
// Returns false if not found.
func Get(name string) (BackendDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// Backends returns all registered backends sorted by name.
func Backends() []BackendInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]BackendInfo, 0, len(registry))
	for _, def := range registry {
		result = append(result, def.Info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// BackendCount returns the number of registered backends.
func BackendCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// NewClassifier builds the named backend.
func NewClassifier(ctx context.Context, name string, cfg BackendConfig) (Classifier, error) {
	def, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClassifier, name)
	}
	c, err := def.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", name, err)
	}
	return c, nil
}

// Clear removes all registered backends.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]BackendDefinition)
}

// Package providerfactory builds provider instances by kind.
package providerfactory

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/providers"
	"deckforge-hq/atlas/pkg/providers/deepseek"
)

// Deps are the runtime collaborators handed to every constructor.
type Deps struct {
	// Logger is the parent logger; constructors name their own child
	Logger *zap.Logger

	// Clock overrides time.Now (tests)
	Clock func() time.Time

	// Transport overrides the pooled HTTP transport (tests)
	Transport http.RoundTripper
}

// Constructor builds an uninitialized provider from its configuration.
type Constructor func(cfg providers.Config, deps Deps) (providers.Provider, error)

// Registry maps provider kinds to constructors. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Default returns a registry with the built-in kinds:
//   - "deepseek": DeepSeek chat completions API
//   - "openai-compatible": any API speaking the same dialect (base_url required)
func Default() *Registry {
	r := NewRegistry()
	r.Register(deepseek.Kind, newDeepSeek)
	r.Register(deepseek.KindOpenAICompatible, newDeepSeek)
	return r
}

// Register adds a constructor for kind. It panics if kind is empty or
// already registered.
func (r *Registry) Register(kind string, c Constructor) {
	if kind == "" || c == nil {
		panic("providerfactory: Register requires a kind and a constructor")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.constructors[kind]; dup {
		panic(fmt.Sprintf("providerfactory: kind %q registered twice", kind))
	}
	r.constructors[kind] = c
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.constructors))
	for k := range r.constructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New creates a provider of cfg.Kind. When Kind is empty it is inferred
// from the instance name, defaulting to "deepseek".
//
// Example:
//
//	provider, err := providerfactory.Default().New(providers.Config{
//	    Name:   "primary",
//	    Kind:   "deepseek",
//	    APIKey: os.Getenv("DEEPSEEK_API_KEY"),
//	}, providerfactory.Deps{Logger: logger})
func (r *Registry) New(cfg providers.Config, deps Deps) (providers.Provider, error) {
	if cfg.Kind == "" {
		cfg.Kind = r.inferKind(cfg.Name)
	}

	r.mu.RLock()
	construct, ok := r.constructors[cfg.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &providers.ConfigError{
			Provider: cfg.Name,
			Field:    "kind",
			Message:  fmt.Sprintf("unsupported provider kind: %q (supported: %s)", cfg.Kind, strings.Join(r.Kinds(), ", ")),
		}
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Logger.Debug("creating provider",
		zap.String("name", cfg.Name),
		zap.String("kind", cfg.Kind),
		zap.String("base_url", cfg.BaseURL),
	)

	provider, err := construct(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", cfg.Name, err)
	}
	return provider, nil
}

// inferKind uses the instance name when it names a registered kind.
func (r *Registry) inferKind(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.constructors[name]; ok {
		return name
	}
	return deepseek.Kind
}

func newDeepSeek(cfg providers.Config, deps Deps) (providers.Provider, error) {
	p, err := deepseek.New(cfg,
		deepseek.WithLogger(deps.Logger.Named("provider")),
		deepseek.WithClock(deps.Clock),
		deepseek.WithTransport(deps.Transport),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

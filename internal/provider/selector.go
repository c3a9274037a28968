package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Family is a vendor family a model name routes to.
type Family string

const (
	FamilyOpenAI Family = "openai"
	FamilyGemini Family = "gemini"
	FamilyGrok   Family = "grok"
	FamilyClaude Family = "claude"
)

// familyRoutes is checked in order; the first substring found wins.
var familyRoutes = []struct {
	needle string
	family Family
}{
	{"gpt", FamilyOpenAI},
	{"gemini", FamilyGemini},
	{"grok", FamilyGrok},
	{"claude", FamilyClaude},
}

// FamilyFor routes a model name to its vendor family, case-insensitively.
func FamilyFor(model string) (Family, error) {
	lower := strings.ToLower(strings.TrimSpace(model))
	if lower != "" {
		for _, route := range familyRoutes {
			if strings.Contains(lower, route.needle) {
				return route.family, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
}

// Credentials holds what each vendor family needs to construct a client.
type Credentials struct {
	OpenAIAPIKey string
	GeminiAPIKey string
	XAIAPIKey    string
	XAIBaseURL   string
	Bedrock      BedrockConverseAPI
	// BedrockCredentials, when set, resolves AWS credentials before a
	// Claude client is built.
	BedrockCredentials func(ctx context.Context) error
}

// Selector constructs a Client for a model name.
type Selector struct {
	creds Credentials
	opts  Options
}

func NewSelector(creds Credentials, opts Options) *Selector {
	return &Selector{creds: creds, opts: opts}
}

// Select builds the client for model. There is no fallback vendor.
func (s *Selector) Select(ctx context.Context, model string) (Client, error) {
	family, err := FamilyFor(model)
	if err != nil {
		return nil, err
	}
	model = strings.TrimSpace(model)
	switch family {
	case FamilyOpenAI:
		return NewOpenAIClient(s.creds.OpenAIAPIKey, model, s.opts)
	case FamilyGemini:
		return NewGeminiClient(ctx, s.creds.GeminiAPIKey, model, s.opts)
	case FamilyGrok:
		return NewGrokClient(s.creds.XAIAPIKey, s.creds.XAIBaseURL, model, s.opts)
	case FamilyClaude:
		if s.creds.Bedrock != nil && s.creds.BedrockCredentials != nil {
			if err := s.creds.BedrockCredentials(ctx); err != nil {
				return nil, fmt.Errorf("%w: aws credentials: %v", ErrMissingCredentials, err)
			}
		}
		return NewBedrockClient(s.creds.Bedrock, model, s.opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
}

// DefaultModels is the allowlist used when none is configured.
var DefaultModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4.1",
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"grok-4",
	"anthropic.claude-3-5-sonnet-20240620-v1:0",
}

// Registry caches one Client per allowed model name. Names outside the
// allowlist are rejected, so the cache never grows past it. Safe for
// concurrent use.
type Registry struct {
	selector *Selector
	allowed  map[string]string
	mu       sync.Mutex
	clients  map[string]Client
}

// NewRegistry serves the models in allowed, matched case-insensitively.
// An empty list falls back to DefaultModels.
func NewRegistry(selector *Selector, allowed []string) *Registry {
	if selector == nil {
		panic("provider: selector cannot be nil")
	}
	if len(allowed) == 0 {
		allowed = DefaultModels
	}
	names := make(map[string]string, len(allowed))
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names[strings.ToLower(name)] = name
	}
	return &Registry{selector: selector, allowed: names, clients: make(map[string]Client)}
}

// Models returns the allowed model names.
func (r *Registry) Models() []string {
	out := make([]string, 0, len(r.allowed))
	for _, name := range r.allowed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Client returns the cached client for model, building it on first use.
// Construction runs outside the lock; failed constructions are not cached.
func (r *Registry) Client(ctx context.Context, model string) (Client, error) {
	key := strings.ToLower(strings.TrimSpace(model))
	name, ok := r.allowed[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an enabled model", ErrUnsupportedModel, model)
	}

	r.mu.Lock()
	c, ok := r.clients[key]
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	built, err := r.selector.Select(ctx, name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[key]; ok {
		if closer, ok := built.(io.Closer); ok {
			_ = closer.Close()
		}
		return existing, nil
	}
	r.clients[key] = built
	return built, nil
}

// Len reports how many clients are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close releases every cached client that holds a connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key, c := range r.clients {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("provider: close %s: %w", key, err))
			}
		}
		delete(r.clients, key)
	}
	return errors.Join(errs...)
}

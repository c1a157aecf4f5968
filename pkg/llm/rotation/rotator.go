package rotation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/llm"
)

var (
	// ErrProviderExhausted is returned when every credential failed for one logical call.
	ErrProviderExhausted = errors.New("text generation unavailable: all credentials failed")
	ErrNoCredentials     = errors.New("credential rotator requires at least one credential")
)

// ProviderFactory builds a client bound to a single credential.
type ProviderFactory func(credential string) (llm.LLMProvider, error)

// RotationObserver is notified every time the rotator advances.
type RotationObserver func(from, to int)

// Rotator holds the process-wide credential list and the index of the active
// credential. It is shared by every in-flight request; a rotation triggered by
// one request is visible to all others.
type Rotator struct {
	credentials []string
	factory     ProviderFactory
	logger      logger.ILogger
	callTimeout time.Duration
	observer    RotationObserver

	mu           sync.Mutex
	currentIndex int
	client       llm.LLMProvider
}

type Option func(*Rotator)

// WithCallTimeout bounds every individual Generate attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Rotator) { r.callTimeout = d }
}

func WithObserver(obs RotationObserver) Option {
	return func(r *Rotator) { r.observer = obs }
}

// NewRotator configures the first credential eagerly. A configuration failure
// on index 0 is logged, not returned; the next Generate call will rotate past it.
func NewRotator(credentials []string, factory ProviderFactory, log logger.ILogger, opts ...Option) (*Rotator, error) {
	if len(credentials) == 0 {
		return nil, ErrNoCredentials
	}
	r := &Rotator{
		credentials: append([]string(nil), credentials...),
		factory:     factory,
		logger:      log,
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.Configure(0); err != nil {
		r.logger.Warn("ROTATION", "Initial credential could not be configured", map[string]interface{}{
			"index": 0,
			"error": err.Error(),
		})
	}
	return r, nil
}

// Configure builds a client bound to credentials[index] and makes it current.
func (r *Rotator) Configure(index int) (llm.LLMProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configureLocked(index)
}

func (r *Rotator) configureLocked(index int) (llm.LLMProvider, error) {
	if index < 0 || index >= len(r.credentials) {
		return nil, fmt.Errorf("credential index %d out of range [0,%d)", index, len(r.credentials))
	}
	r.currentIndex = index
	client, err := r.factory(r.credentials[index])
	if err != nil {
		r.client = nil
		return nil, fmt.Errorf("configure credential %d: %w", index, err)
	}
	r.client = client
	r.logger.Info("ROTATION", "Configured text generation client", map[string]interface{}{"index": index})
	return client, nil
}

// Rotate advances to the next credential (round-robin) and reconfigures.
// The index advances even when configuration of the new credential fails.
func (r *Rotator) Rotate() (llm.LLMProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.currentIndex
	next := (r.currentIndex + 1) % len(r.credentials)
	client, err := r.configureLocked(next)

	r.logger.Info("ROTATION", "Switched credential", map[string]interface{}{"from": from, "to": next})
	if r.observer != nil {
		r.observer(from, next)
	}
	return client, err
}

// Current returns the active client, or nil when the active credential failed to configure.
func (r *Rotator) Current() llm.LLMProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentIndex
}

var _ llm.TextGenerator = &Rotator{}

func (r *Rotator) Len() int {
	return len(r.credentials)
}

// Generate performs one logical text-generation call, trying at most Len()
// credentials. After each failed attempt the rotator advances.
func (r *Rotator) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.Len(); attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.attempt(ctx, prompt, opts...)
		if err == nil {
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			// the caller gave up; the credential is not at fault
			return "", fmt.Errorf("text generation interrupted: %w", ctxErr)
		}
		lastErr = err
		r.logger.Warn("ROTATION", "Text generation attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"index":   r.Index(),
			"error":   err.Error(),
		})

		if _, rotErr := r.Rotate(); rotErr != nil {
			r.logger.Warn("ROTATION", "Next credential could not be configured", map[string]interface{}{
				"index": r.Index(),
				"error": rotErr.Error(),
			})
		}
	}
	return "", fmt.Errorf("%w: %v", ErrProviderExhausted, lastErr)
}

func (r *Rotator) attempt(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	client := r.Current()
	if client == nil {
		return "", fmt.Errorf("credential %d is not configured", r.Index())
	}

	callCtx := ctx
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}
	return client.Generate(callCtx, prompt, opts...)
}

// Unconfigured stands in for a Rotator when no credential is configured, so
// callers see the same exhaustion error instead of a nil generator.
type Unconfigured struct{}

var _ llm.TextGenerator = Unconfigured{}

func (Unconfigured) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "", fmt.Errorf("%w: %v", ErrProviderExhausted, ErrNoCredentials)
}

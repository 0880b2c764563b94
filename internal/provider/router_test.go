package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/skaldic/muse/internal/metrics"
	"go.uber.org/zap"
)

// fakeProvider returns a fixed reply or error.
type fakeProvider struct {
	id    string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) ID() string   { return f.id }
func (f *fakeProvider) Name() string { return f.id }
func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
func (f *fakeProvider) HealthCheck(_ context.Context) error { return f.err }

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter(metrics.New(), zap.NewNop())
	if _, err := r.Generate(context.Background(), "observer", "hello"); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("got %v, want ErrNoProvider", err)
	}
}

func TestRouterDefaultAndBinding(t *testing.T) {
	r := NewRouter(metrics.New(), zap.NewNop())
	first := &fakeProvider{id: "first", reply: "from first"}
	second := &fakeProvider{id: "second", reply: "from second"}
	r.Register(first)
	r.Register(second)

	if r.DefaultID() != "first" {
		t.Fatalf("got default %q, want %q", r.DefaultID(), "first")
	}

	// Unbound agents use the default.
	text, err := r.Generate(context.Background(), "observer", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from first" {
		t.Fatalf("got %q, want %q", text, "from first")
	}

	// Bound agents use their provider.
	r.Bind("poet", "second")
	text, err = r.Generate(context.Background(), "poet", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from second" {
		t.Fatalf("got %q, want %q", text, "from second")
	}
}

func TestRouterFallbackChain(t *testing.T) {
	m := metrics.New()
	r := NewRouter(m, zap.NewNop())
	broken := &fakeProvider{id: "broken", err: errors.New("connection refused")}
	alsoBroken := &fakeProvider{id: "also-broken", err: errors.New("timeout")}
	healthy := &fakeProvider{id: "healthy", reply: "recovered"}
	r.Register(broken)
	r.Register(alsoBroken)
	r.Register(healthy)
	r.SetDefault("broken")
	r.SetFallbacks("observer", []string{"also-broken", "healthy"})

	text, err := r.Generate(context.Background(), "observer", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" {
		t.Fatalf("got %q, want %q", text, "recovered")
	}
	if alsoBroken.calls != 1 {
		t.Fatalf("fallback tried %d times, want 1", alsoBroken.calls)
	}
	if got := m.GenerationCalls.Load(); got != 3 {
		t.Fatalf("got %d generation calls, want 3", got)
	}
	if got := m.GenerationFailures.Load(); got != 2 {
		t.Fatalf("got %d generation failures, want 2", got)
	}
}

func TestRouterAllProvidersFail(t *testing.T) {
	r := NewRouter(metrics.New(), zap.NewNop())
	r.Register(&fakeProvider{id: "a", err: errors.New("down")})
	r.Register(&fakeProvider{id: "b", err: errors.New("also down")})
	r.SetFallbacks("observer", []string{"b"})

	if _, err := r.Generate(context.Background(), "observer", "hello"); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestRouterSkipsFallbacksOnCanceledContext(t *testing.T) {
	r := NewRouter(metrics.New(), zap.NewNop())
	primary := &fakeProvider{id: "primary", err: context.Canceled}
	fallback := &fakeProvider{id: "fallback", reply: "too late"}
	r.Register(primary)
	r.Register(fallback)
	r.SetFallbacks("observer", []string{"fallback"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Generate(ctx, "observer", "hello"); err == nil {
		t.Fatal("expected error on canceled context")
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback called %d times after cancellation, want 0", fallback.calls)
	}
}

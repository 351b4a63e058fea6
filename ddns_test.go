package ddns_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pbddns/ddns"
)

type update struct {
	domain string
	ip     string
	ttl    int
}

type fakeProvider struct {
	mu      sync.Mutex
	record  ddns.Record
	readErr error
	setErr  error
	updates []update
}

func (f *fakeProvider) ARecord(ctx context.Context, domain string) (ddns.Record, error) {
	if f.readErr != nil {
		return ddns.Record{}, f.readErr
	}
	return f.record, nil
}

func (f *fakeProvider) SetARecord(ctx context.Context, domain string, ip string, ttl int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.updates = append(f.updates, update{domain: domain, ip: ip, ttl: ttl})
	return nil
}

func TestRunNoUpdateRequired(t *testing.T) {
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.Static("1.2.3.4")),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if len(provider.updates) != 0 {
		t.Fatalf("Expected no update calls; got %+v", provider.updates)
	}
}

func TestRunUpdatesOnMismatch(t *testing.T) {
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.Static("5.6.7.8")),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if len(provider.updates) != 1 {
		t.Fatalf("Expected exactly one update call; got %d", len(provider.updates))
	}
	if expected, got := (update{domain: "example.com", ip: "5.6.7.8", ttl: ddns.DefaultTTL}), provider.updates[0]; expected != got {
		t.Fatalf("Expected update %+v; got %+v", expected, got)
	}
}

func TestRunUsesConfiguredTTL(t *testing.T) {
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.Static("5.6.7.8")),
		ddns.WithTTL(300),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if expected, got := 300, provider.updates[0].ttl; expected != got {
		t.Fatalf("Expected ttl %d; got %d", expected, got)
	}
}

func TestRunNoExactComparisonNormalization(t *testing.T) {
	// The comparison is textual: two spellings of the same address count as
	// drift and trigger an update with the resolver's spelling.
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.ResolverFunc(func(context.Context) (string, error) {
			return "001.002.003.004", nil
		})),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %s", err)
	}
	if len(provider.updates) != 1 {
		t.Fatalf("Expected exactly one update call; got %d", len(provider.updates))
	}
	if expected, got := "001.002.003.004", provider.updates[0].ip; expected != got {
		t.Fatalf("Expected ip %q; got %q", expected, got)
	}
}

func TestRunLookupFailureSkipsUpdate(t *testing.T) {
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.ResolverFunc(func(context.Context) (string, error) {
			return "", errors.New("lookup service unavailable")
		})),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	if err := c.Run(context.Background()); err == nil {
		t.Fatal("Expected an error; got err == nil")
	}
	if len(provider.updates) != 0 {
		t.Fatalf("Expected no update calls; got %+v", provider.updates)
	}
}

func TestRunRecordReadFailureSkipsUpdate(t *testing.T) {
	readErr := errors.New("provider unavailable")
	provider := &fakeProvider{readErr: readErr}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.Static("5.6.7.8")),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	err = c.Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error; got err == nil")
	}
	if !errors.Is(err, readErr) {
		t.Fatalf("Expected error to wrap the provider read error; got %q", err)
	}
	if len(provider.updates) != 0 {
		t.Fatalf("Expected no update calls; got %+v", provider.updates)
	}
}

func TestRunUpdateFailurePropagates(t *testing.T) {
	setErr := errors.New("edit rejected")
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}, setErr: setErr}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(provider),
		ddns.UsingResolver(ddns.Static("5.6.7.8")),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	if err := c.Run(context.Background()); !errors.Is(err, setErr) {
		t.Fatalf("Expected error to wrap the update error; got %v", err)
	}
}

func TestRunReadsConcurrently(t *testing.T) {
	// Each read takes 25ms; both must complete inside a 40ms window,
	// which only works if they run in parallel.
	slow := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(25 * time.Millisecond):
			return nil
		}
	}
	provider := &fakeProvider{record: ddns.Record{IP: "1.2.3.4", TTL: 600}}
	slowProvider := &slowReadProvider{Provider: provider, wait: slow}
	c, err := ddns.New("example.com",
		ddns.UsingProvider(slowProvider),
		ddns.UsingResolver(ddns.ResolverFunc(func(ctx context.Context) (string, error) {
			if err := slow(ctx); err != nil {
				return "", err
			}
			return "1.2.3.4", nil
		})),
	)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Expected concurrent reads to finish before context timeout; got %q", err)
	}
}

type slowReadProvider struct {
	ddns.Provider
	wait func(context.Context) error
}

func (p *slowReadProvider) ARecord(ctx context.Context, domain string) (ddns.Record, error) {
	if err := p.wait(ctx); err != nil {
		return ddns.Record{}, err
	}
	return p.Provider.ARecord(ctx, domain)
}

func TestNewRequiresDomain(t *testing.T) {
	_, err := ddns.New("", ddns.UsingProvider(&fakeProvider{}))
	if err == nil {
		t.Fatal("Expected an error for an empty domain; got err == nil")
	}
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := ddns.New("example.com")
	if err == nil {
		t.Fatal("Expected an error when no provider is registered; got err == nil")
	}
}

func TestWithTTLRejectsNonPositive(t *testing.T) {
	_, err := ddns.New("example.com", ddns.UsingProvider(&fakeProvider{}), ddns.WithTTL(0))
	if err == nil {
		t.Fatal("Expected an error for ttl 0; got err == nil")
	}
}

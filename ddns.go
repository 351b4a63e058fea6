package ddns

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultTTL is used for updated records when the caller does not supply one.
const DefaultTTL = 600

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// New returns a Client which reconciles the DNS A record for domain against
// the machine's current public IP.
//
// A Provider option such as UsingPorkbun or UsingCloudflare is required.
// The default Resolver queries a public IP lookup service; use UsingResolver
// or UsingLookupService to change that.
func New(domain string, options ...Option) (Client, error) {
	if domain == "" {
		return nil, fmt.Errorf("ddns.New: domain cannot be empty")
	}
	c := &client{
		domain: domain,
		ttl:    DefaultTTL,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("ddns.New: option %d returned an error: %s", i, err)
		}
	}

	if c.Resolver == nil {
		c.Resolver = &IPLookup{}
	}
	if c.Provider == nil {
		return nil, fmt.Errorf("ddns.New: no DNS provider was registered and there is no default option - use ddns.UsingPorkbun or similar")
	}
	if c.logger == nil {
		c.logger = discard
	}

	// The logger and http client are propagated last so that option ordering
	// doesn't matter when WithLogger or UsingHTTPClient appear before the
	// provider or resolver was registered.
	propagate(c)
	return c, nil
}

// Option configures a Client during New.
type Option func(*client) error

// UsingPorkbun registers the Porkbun DNS provider with the given API
// credentials.
func UsingPorkbun(apiKey, apiSecret string) Option {
	return func(c *client) (err error) {
		if c.Provider, err = newPorkbunProvider(apiKey, apiSecret); err != nil {
			return fmt.Errorf("ddns.UsingPorkbun: error creating porkbun DNS provider: %w", err)
		}
		return nil
	}
}

// UsingCloudflare registers the Cloudflare DNS provider with the given API
// token.
func UsingCloudflare(token string) Option {
	return func(c *client) (err error) {
		if c.Provider, err = newCloudflareProvider(token); err != nil {
			return fmt.Errorf("ddns.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

// UsingProvider registers a custom Provider implementation.
func UsingProvider(provider Provider) Option {
	return func(c *client) error {
		if provider == nil {
			return fmt.Errorf("provider cannot be nil")
		}
		c.Provider = provider
		return nil
	}
}

// UsingResolver registers the Resolver used to determine the machine's
// current public IP. A nil resolver restores the default.
func UsingResolver(resolver Resolver) Option {
	return func(c *client) error {
		if resolver == nil {
			resolver = &IPLookup{}
		}
		c.Resolver = resolver
		return nil
	}
}

// UsingLookupService points the default public IP resolver at serviceURL
// instead of the ipify endpoint. The service must return a JSON body of the
// form {"ip": "<address>"}.
func UsingLookupService(serviceURL string) Option {
	return func(c *client) error {
		if serviceURL == "" {
			return fmt.Errorf("lookup service URL cannot be empty")
		}
		c.Resolver = &IPLookup{Endpoint: serviceURL}
		return nil
	}
}

// WithTTL sets the TTL in seconds applied when the A record is updated.
// The configured TTL always replaces whatever TTL the record held before.
func WithTTL(seconds int) Option {
	return func(c *client) error {
		if seconds <= 0 {
			return fmt.Errorf("ttl must be a positive number of seconds; got %d", seconds)
		}
		c.ttl = seconds
		return nil
	}
}

// WithLogger sets the logger used by the client and its provider and
// resolver. A nil logger silences all output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *client) error {
		c.logger = logger
		return nil
	}
}

// UsingHTTPClient sets the *http.Client used for all requests made by the
// provider and resolver. Request timeouts are enforced here.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(c *client) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		c.httpClient = httpclient
		return nil
	}
}

func propagate(c *client) {
	logger := c.logger
	if logger == nil {
		logger = discard
	}
	type setLogger interface {
		SetLogger(logrus.FieldLogger)
	}
	if p, ok := c.Provider.(setLogger); ok {
		p.SetLogger(logger)
	}
	if r, ok := c.Resolver.(setLogger); ok {
		r.SetLogger(logger)
	}

	if c.httpClient == nil {
		return
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}
	if p, ok := c.Provider.(setHTTPClient); ok {
		p.SetHTTPClient(c.httpClient)
	}
	if r, ok := c.Resolver.(setHTTPClient); ok {
		r.SetHTTPClient(c.httpClient)
	}
}

// Client runs reconciliation passes.
type Client interface {
	// Run performs one reconciliation pass: read the published A record and
	// the current public IP concurrently, compare, and update the record if
	// they differ. Any failure aborts the pass; an update is never attempted
	// unless both reads succeeded.
	Run(ctx context.Context) error
}

type client struct {
	Resolver
	Provider
	logger     logrus.FieldLogger
	httpClient *http.Client
	domain     string
	ttl        int
}

func (c *client) Run(ctx context.Context) error {
	var record Record
	var current string

	// Both reads are independent network calls; run them in parallel and
	// join before comparing. There is no cancellation of the sibling read on
	// failure: each runs to completion under its own request timeout.
	var g errgroup.Group
	g.Go(func() (err error) {
		record, err = c.ARecord(ctx, c.domain)
		return err
	})
	g.Go(func() (err error) {
		current, err = c.CurrentIP(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("error reading current state: %w", err)
	}

	c.logger.Debugf("domain: %s, A record IP: %s, TTL: %d", c.domain, record.IP, record.TTL)
	c.logger.Debugf("current machine IP: %s", current)

	// Comparison is textual over the two service-reported strings.
	// No canonicalization of either side is performed.
	if current == record.IP {
		c.logger.Debug("no update required")
		return nil
	}

	c.logger.Debugf("updating %s A record to %s", c.domain, current)
	if err := c.SetARecord(ctx, c.domain, current, c.ttl); err != nil {
		return fmt.Errorf("error updating %s with new IP: %w", c.domain, err)
	}
	return nil
}

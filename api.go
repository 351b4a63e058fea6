package ddns

import (
	"context"
)

// Record is one DNS A record as published by a provider.
type Record struct {
	IP  string
	TTL int
}

// Resolver reports the machine's current public IP address.
type Resolver interface {
	CurrentIP(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(context.Context) (string, error)

func (f ResolverFunc) CurrentIP(ctx context.Context) (string, error) {
	return f(ctx)
}

// Provider reads and writes a single domain's DNS A record.
//
// ARecord must report exactly one A record for the domain;
// a domain holding zero or multiple A records is an error state
// which the reconciler must not paper over.
type Provider interface {
	ARecord(ctx context.Context, domain string) (Record, error)
	SetARecord(ctx context.Context, domain string, ip string, ttl int) error
}

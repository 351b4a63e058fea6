package ddns

import (
	"context"
	"fmt"
	"net/netip"
)

// Static constructs a resolver that always reports addr as the current IP.
// The address is checked for validity but reported back verbatim.
func Static(addr string) Resolver {
	return staticResolver(addr)
}

type staticResolver string

func (s staticResolver) CurrentIP(context.Context) (string, error) {
	if _, err := netip.ParseAddr(string(s)); err != nil {
		return "", fmt.Errorf("unable to parse IP: %w", err)
	}
	return string(s), nil
}

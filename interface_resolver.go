package ddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that reports the first IPv4
// address bound to the given network interfaces, skipping loopback
// addresses. If no interfaces are provided then all interfaces are
// considered.
//
// This is only useful for machines whose public IP is configured directly on
// an interface; machines behind NAT should use the default web lookup.
func InterfaceResolver(iface ...string) Resolver {
	if len(iface) == 0 {
		return localResolver{}
	}
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) CurrentIP(ctx context.Context) (string, error) {
	var errs []error
	for _, name := range r.ifaces {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
			continue
		}
		if ip, ok := firstIPv4(addrs, &errs); ok {
			return ip, nil
		}
	}
	errs = append(errs, errors.New("no usable IPv4 address was found"))
	return "", errors.Join(errs...)
}

type localResolver struct{}

func (localResolver) CurrentIP(ctx context.Context) (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("error getting interface addresses: %w", err)
	}
	var errs []error
	if ip, ok := firstIPv4(addrs, &errs); ok {
		return ip, nil
	}
	errs = append(errs, errors.New("no usable IPv4 address was found"))
	return "", errors.Join(errs...)
}

func firstIPv4(addrs []net.Addr, errs *[]error) (string, bool) {
	// addr: ip+net:192.168.86.253/24
	// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
	for _, addr := range addrs {
		prefix, err := netip.ParsePrefix(addr.String())
		if err != nil {
			*errs = append(*errs, fmt.Errorf("error parsing local ip %s: %w", addr.String(), err))
			continue
		}
		ip := prefix.Addr()
		if ip.IsLoopback() || !ip.Is4() {
			continue
		}
		return ip.String(), true
	}
	return "", false
}

// Package dns resolves the relay host, falling back to public resolvers when
// the system resolver is broken (captive portals, stale VPN configs).
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Public resolvers raced when the system lookup fails.
var publicServers = []string{
	"1.1.1.1",              // Cloudflare
	"1.0.0.1",              // Cloudflare
	"2606:4700:4700::1111", // Cloudflare
	"8.8.8.8",              // Google
	"8.8.4.4",              // Google
	"2001:4860:4860::8888", // Google
	"9.9.9.9",              // Quad9
	"149.112.112.112",      // Quad9
	"208.67.222.222",       // Cisco OpenDNS
	"208.67.220.220",       // Cisco OpenDNS
}

var ErrNoAddress = errors.New("no addresses found")

// Resolver looks hosts up locally first, then races its public servers.
type Resolver struct {
	Servers       []string
	LocalTimeout  time.Duration
	PublicTimeout time.Duration

	// lookup resolves host through server; empty server means the system
	// resolver. Replaced in tests.
	lookup func(ctx context.Context, host, server string) ([]string, error)
}

// Default is the resolver used by Lookup.
var Default = NewResolver()

func NewResolver() *Resolver {
	return &Resolver{
		Servers:       publicServers,
		LocalTimeout:  time.Second,
		PublicTimeout: 2 * time.Second,
		lookup:        lookupHost,
	}
}

// Lookup resolves host with the Default resolver.
func Lookup(ctx context.Context, host string) (string, error) {
	return Default.Lookup(ctx, host)
}

// Lookup returns one address for host, preferring IPv4. IP literals are
// returned unchanged.
func (r *Resolver) Lookup(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	localCtx, cancel := context.WithTimeout(ctx, r.LocalTimeout)
	ips, err := r.lookup(localCtx, host, "")
	cancel()
	if err == nil {
		if ip, ok := pick(ips); ok {
			return ip, nil
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	return r.race(ctx, host)
}

// race queries every public server at once and keeps the first answer.
func (r *Resolver) race(ctx context.Context, host string) (string, error) {
	if len(r.Servers) == 0 {
		return "", fmt.Errorf("resolve %s: %w", host, ErrNoAddress)
	}

	ctx, cancel := context.WithTimeout(ctx, r.PublicTimeout)
	defer cancel()

	type result struct {
		ip string
		ok bool
	}
	results := make(chan result, len(r.Servers))
	for _, server := range r.Servers {
		go func() {
			ips, err := r.lookup(ctx, host, server)
			if err != nil {
				results <- result{}
				return
			}
			ip, ok := pick(ips)
			results <- result{ip: ip, ok: ok}
		}()
	}

	for range r.Servers {
		select {
		case res := <-results:
			if res.ok {
				return res.ip, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("resolve %s: public DNS race: %w", host, ctx.Err())
		}
	}
	return "", fmt.Errorf("resolve %s: all %d public servers failed: %w", host, len(r.Servers), ErrNoAddress)
}

func pick(ips []string) (string, bool) {
	if len(ips) == 0 {
		return "", false
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, true
		}
	}
	return ips[0], true
}

func lookupHost(ctx context.Context, host, server string) ([]string, error) {
	r := &net.Resolver{}
	if server != "" {
		r.PreferGo = true
		r.Dial = func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		}
	}
	return r.LookupHost(ctx, host)
}

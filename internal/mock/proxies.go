package mock

import (
	"context"
	"errors"
	"sync"

	"go.lsp.dev/protocol"
)

// ErrNoClientProxy is returned when diagnostics are pushed with no proxy registered.
var ErrNoClientProxy = errors.New("no client proxy registered")

// DiagnosticsPublisher is the part of a connected client the service pushes
// diagnostics to. protocol.Client satisfies it.
type DiagnosticsPublisher interface {
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
}

// proxySet is the ordered set of connected client proxies. Each publish goes
// to the head and rotates the set left by one, so repeated publishes visit
// every proxy in registration order.
type proxySet struct {
	mu      sync.Mutex
	proxies []DiagnosticsPublisher
}

func (p *proxySet) add(proxy DiagnosticsPublisher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.proxies = append(p.proxies, proxy)
}

// remove drops the first occurrence of proxy, keeping the order of the rest.
func (p *proxySet) remove(proxy DiagnosticsPublisher) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.proxies {
		if existing == proxy {
			p.proxies = append(p.proxies[:i:i], p.proxies[i+1:]...)
			return true
		}
	}
	return false
}

func (p *proxySet) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.proxies = nil
}

func (p *proxySet) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

func (p *proxySet) snapshot() []DiagnosticsPublisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]DiagnosticsPublisher, len(p.proxies))
	copy(out, p.proxies)
	return out
}

// publish delivers params to the head proxy and rotates. Read, delivery and
// rotation happen under one lock; the rotation happens even if delivery fails.
func (p *proxySet) publish(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ErrNoClientProxy
	}

	head := p.proxies[0]
	err := head.PublishDiagnostics(ctx, params)

	copy(p.proxies, p.proxies[1:])
	p.proxies[len(p.proxies)-1] = head

	return err
}

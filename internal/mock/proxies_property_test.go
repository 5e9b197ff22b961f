package mock

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"pgregory.net/rapid"
)

// For n proxies and k opens, open i goes to proxy i mod n, so every proxy
// receives either floor(k/n) or ceil(k/n) pushes.
func TestProperty_DiagnosticsRoundRobin(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "proxies")
		k := rapid.IntRange(0, 40).Draw(rt, "opens")

		svc := NewDocumentService(nil)
		svc.SetDiagnostics([]protocol.Diagnostic{{Message: "m"}})

		proxies := make([]*recordingProxy, n)
		for i := range proxies {
			proxies[i] = &recordingProxy{name: fmt.Sprintf("P%d", i)}
			svc.AddClientProxy(proxies[i])
		}

		for i := 0; i < k; i++ {
			svc.DidOpen(context.Background(), openParams(fmt.Sprintf("file:///doc%d", i)))
		}

		for j, p := range proxies {
			want := k / n
			if j < k%n {
				want++
			}
			require.Equal(rt, want, p.count(), p.name)
			for r, params := range p.received {
				assert.Equal(rt, protocol.DocumentURI(fmt.Sprintf("file:///doc%d", r*n+j)), params.URI)
			}
		}

		// After k pushes the head is proxy k mod n.
		assert.Same(rt, proxies[k%n], svc.ClientProxies()[0])
	})
}

// Removing a proxy never changes the relative order of the others.
func TestProperty_RemoveKeepsOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "proxies")
		victim := rapid.IntRange(0, n-1).Draw(rt, "victim")

		svc := NewDocumentService(nil)
		var want []DiagnosticsPublisher
		proxies := make([]*recordingProxy, n)
		for i := range proxies {
			proxies[i] = &recordingProxy{}
			svc.AddClientProxy(proxies[i])
			if i != victim {
				want = append(want, proxies[i])
			}
		}

		require.True(rt, svc.RemoveClientProxy(proxies[victim]))
		got := svc.ClientProxies()
		require.Len(rt, got, len(want))
		for i := range want {
			assert.Same(rt, want[i], got[i])
		}
	})
}

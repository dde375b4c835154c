package ws

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBus struct {
	ch chan []byte
}

func (b *stubBus) Publish(context.Context, string, []byte) error { return nil }

func (b *stubBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, nil
}

func startHub(t *testing.T) (*Hub, *stubBus, context.CancelFunc, chan error) {
	t.Helper()
	bus := &stubBus{ch: make(chan []byte, 4)}
	h := NewHub(bus, "reports", slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()
	t.Cleanup(cancel)
	return h, bus, cancel, errCh
}

func newHubClient(h *Hub) *client {
	return &client{
		hub:     h,
		send:    make(chan []byte, 4),
		tickers: make(map[string]bool),
	}
}

func TestHub_BroadcastsReportsToClients(t *testing.T) {
	h, bus, _, _ := startHub(t)

	all := newHubClient(h)
	filtered := newHubClient(h)
	filtered.handleFilter(filterMsg{Action: "watch", Tickers: []string{"USDY"}})
	h.register <- all
	h.register <- filtered

	payload := []byte(`{"coin_info":{"symbol":"usdx"},"total_score":3.2}`)
	bus.ch <- payload

	select {
	case got := <-all.send:
		assert.Equal(t, payload, got)
	case <-time.After(time.Second):
		t.Fatal("unfiltered client never received the report")
	}

	// The client watching a different ticker must not receive it.
	select {
	case got := <-filtered.send:
		t.Fatalf("filtered client unexpectedly received %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_ShutdownClosesClientSends(t *testing.T) {
	h, _, cancel, errCh := startHub(t)

	c := newHubClient(h)
	h.register <- c

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}

	_, open := <-c.send
	assert.False(t, open, "client send channel should be closed on shutdown")
}

func TestHub_DisconnectAfterShutdownDoesNotBlock(t *testing.T) {
	h, _, cancel, errCh := startHub(t)

	c := newHubClient(h)
	h.register <- c

	cancel()
	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}

	// A read pump erroring out after shutdown hands its client back with no
	// hub loop left to receive it; disconnect must still return.
	done := make(chan struct{})
	go func() {
		c.disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disconnect blocked after hub shutdown")
	}
}

func TestHub_DisconnectWhileRunningUnregisters(t *testing.T) {
	h, _, _, _ := startHub(t)

	c := newHubClient(h)
	h.register <- c

	require.Eventually(t, func() bool { return h.clientCount() == 1 },
		time.Second, 10*time.Millisecond)

	c.disconnect()

	require.Eventually(t, func() bool { return h.clientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishAfterCloseDoesNotPanic(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "orders.test", 8)
	p.Start(context.Background())

	p.Close()
	p.Close() // idempotent

	require.NotPanics(t, func() {
		p.Publish([]byte("k"), []byte("v"))
	})

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not shut down")
	}
}

func TestContextCancelReleasesWaitClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewProducer([]string{"localhost:9092"}, "orders.test", 8)
	p.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not shut down on context cancel")
	}
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("spinner never drew %q; output %q", want, buf.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSpinnerDrawsLayoutProgress(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "Laying out 2 graph(s)...")
	s.Start()
	waitFor(t, &buf, "Laying out 2 graph(s)...")

	s.Update(layoutProgress(1, 2, "graphs/uart.json"))
	waitFor(t, &buf, "Laid out uart.json (1/2)...")
	s.Stop()

	if s.Cancelled() {
		t.Error("a normal stop is not a cancellation")
	}
	if out := buf.String(); !strings.HasSuffix(out, "\r") {
		t.Errorf("Stop should clear the line, output ends %q", out[max(len(out)-8, 0):])
	}
}

func TestSpinnerStopsWhenCommandCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	s := newSpinner(ctx, &buf, "Routing and rendering uart.json...")
	s.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after cancellation")
	}
	if !s.Cancelled() {
		t.Error("Cancelled() should report the ended command context")
	}
}

func TestSpinnerRenderTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s := newSpinner(ctx, &syncBuffer{}, "Routing and rendering spectrum.toml...")
	s.Start()
	<-ctx.Done()
	s.Stop()
	if !s.Cancelled() {
		t.Error("Cancelled() should be true after the render deadline")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Laying out 1 graph(s)...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "Laying out 0 graph(s)...")
	s.Stop()
	if buf.String() != "" {
		t.Errorf("unstarted spinner wrote %q", buf.String())
	}
}

func TestSpinnerStopWithResult(t *testing.T) {
	ok := newSpinner(context.Background(), &syncBuffer{}, "Laying out 3 graph(s)...")
	ok.Start()
	ok.StopWithSuccess("Layout complete")

	failed := newSpinner(context.Background(), &syncBuffer{}, "Routing and rendering cycle.json...")
	failed.Start()
	failed.StopWithError("Render failed")
}

func TestLayoutProgress(t *testing.T) {
	got := layoutProgress(3, 5, "/tmp/graphs/spectrum.toml")
	if want := "Laid out spectrum.toml (3/5)..."; got != want {
		t.Errorf("layoutProgress() = %q, want %q", got, want)
	}
}

package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"xmppctl/queue"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServeRunsJanitorAndHealthListener(t *testing.T) {
	t.Setenv("XMPP_HEALTH_ADDR", "127.0.0.1:0")
	t.Setenv("XMPP_HEALTH_TLS_CERT", "")
	t.Setenv("XMPP_HEALTH_TLS_KEY", "")

	h := newHarness(nil)
	h.deps.Config.QueueSweepInterval = 10 * time.Millisecond
	done := h.host.Enqueue(queue.QueuedMessage{From: "a@b.com", Body: "handled"})
	h.host.Enqueue(queue.QueuedMessage{From: "a@b.com", Body: "open"})
	h.host.MarkProcessed(done.ID)

	root := NewRootCommand(h.deps)
	var out lockedBuffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"xmpp", "serve"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exit := make(chan int, 1)
	go func() { exit <- Execute(ctx, root) }()

	var addr string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if line := out.String(); strings.HasPrefix(line, "Health listener on ") && h.host.Len() == 1 {
			addr = strings.TrimSpace(strings.TrimPrefix(line, "Health listener on "))
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if addr == "" {
		t.Fatalf("serve did not come up: output %q, queue length %d", out.String(), h.host.Len())
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}

	cancel()
	select {
	case code := <-exit:
		if code != 0 {
			t.Fatalf("expected exit 0 after interrupt, got %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after cancellation")
	}

	if _, err := http.Get("http://" + addr + "/healthz"); err == nil {
		t.Fatalf("expected listener closed after serve returned")
	}
}

func TestServeWithoutListener(t *testing.T) {
	t.Setenv("XMPP_HEALTH_ADDR", "")

	h := newHarness(nil)
	root := NewRootCommand(h.deps)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"xmpp", "serve"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := Execute(ctx, root); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no listener line, got %q", out.String())
	}
}

func TestServeListenerConfigError(t *testing.T) {
	t.Setenv("XMPP_HEALTH_ADDR", "127.0.0.1:0")
	t.Setenv("XMPP_HEALTH_TLS_CERT", "/tmp/only-cert.pem")
	t.Setenv("XMPP_HEALTH_TLS_KEY", "")

	h := newHarness(nil)
	root := NewRootCommand(h.deps)
	var errOut bytes.Buffer
	root.SetOut(io.Discard)
	root.SetErr(&errOut)
	root.SetArgs([]string{"xmpp", "serve"})

	if code := Execute(context.Background(), root); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "health listener") {
		t.Fatalf("expected listener error on stderr, got %q", errOut.String())
	}
}

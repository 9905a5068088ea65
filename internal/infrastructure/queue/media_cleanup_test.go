package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/ports"
)

type recordingHost struct {
	mu      sync.Mutex
	deleted []string
}

func (h *recordingHost) Upload(_ context.Context, kind ports.MediaKind, file *ports.MediaFile) (string, error) {
	return "https://media.test/" + string(kind) + "/" + file.Filename, nil
}

func (h *recordingHost) Delete(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, url)
	if strings.HasSuffix(url, "fail") {
		return errors.New("boom")
	}
	return nil
}

func (h *recordingHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.deleted)
}

func TestMediaCleanup_UploadPassesThrough(t *testing.T) {
	m := NewMediaCleanup(&recordingHost{}, 1, zerolog.Nop())

	url, err := m.Upload(context.Background(), ports.MediaAvatar, &ports.MediaFile{Filename: "a.png"})
	if err != nil || url != "https://media.test/avatars/a.png" {
		t.Fatalf("unexpected upload result %q %v", url, err)
	}
}

func TestMediaCleanup_DeletesAsynchronously(t *testing.T) {
	host := &recordingHost{}
	m := NewMediaCleanup(host, 2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	for _, u := range []string{"u1", "u2", "u3-fail"} {
		if err := m.Delete(context.Background(), u); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for host.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	m.Wait()

	if host.count() != 3 {
		t.Fatalf("expected 3 deletions, got %d", host.count())
	}
}

func TestMediaCleanup_DrainsOnShutdown(t *testing.T) {
	host := &recordingHost{}
	m := NewMediaCleanup(host, 1, zerolog.Nop())

	// Queue before the workers start, then stop them immediately.
	for _, u := range []string{"a", "b"} {
		_ = m.Delete(context.Background(), u)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Start(ctx)
	m.Wait()

	if host.count() != 2 {
		t.Fatalf("queued deletions must be drained, got %d", host.count())
	}
}

func TestMediaCleanup_DeleteAfterStopRunsInline(t *testing.T) {
	host := &recordingHost{}
	m := NewMediaCleanup(host, 2, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()
	m.Wait()

	if err := m.Delete(context.Background(), "https://media/x.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if host.count() != 1 {
		t.Fatalf("deletion after shutdown must run inline, got %d", host.count())
	}
	for i, ch := range m.workers {
		if len(ch) != 0 {
			t.Fatalf("worker %d has %d stranded jobs", i, len(ch))
		}
	}
}

func TestMediaCleanup_FullBufferRunsInline(t *testing.T) {
	host := &recordingHost{}
	m := NewMediaCleanup(host, 1, zerolog.Nop())

	// No workers running: fill the buffer, the next call must not block.
	for i := 0; i < channelBuffer; i++ {
		_ = m.Delete(context.Background(), "queued")
	}
	if err := m.Delete(context.Background(), "inline"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if host.count() != 1 {
		t.Fatalf("overflow deletion must run inline, got %d", host.count())
	}
}

func TestShardIndex_Deterministic(t *testing.T) {
	m := NewMediaCleanup(&recordingHost{}, 8, zerolog.Nop())
	for _, u := range []string{"x", "https://cdn/a.png", ""} {
		if m.shardIndex(u) != m.shardIndex(u) || m.shardIndex(u) >= 8 {
			t.Fatalf("unstable shard for %q", u)
		}
	}
}

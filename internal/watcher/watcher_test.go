package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wavscribe/internal/logger"
)

func TestWatcherTriggersRunOnNewMedia(t *testing.T) {
	root := t.TempDir()

	ran := make(chan struct{}, 1)
	w, err := New(root, []string{".mp3"}, 50*time.Millisecond,
		func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "a.mp3"), []byte("media"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline run not triggered")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	root := t.TempDir()

	var runs int
	done := make(chan struct{})
	w, err := New(root, []string{".mp3"}, 200*time.Millisecond,
		func(ctx context.Context) error {
			runs++
			select {
			case <-done:
			default:
				close(done)
			}
			return nil
		}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("media"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline run not triggered")
	}
	time.Sleep(300 * time.Millisecond)
	if runs != 1 {
		t.Errorf("runs = %d, want 1 (burst should coalesce)", runs)
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()

	ran := make(chan struct{}, 1)
	w, err := New(root, []string{".mp3"}, 50*time.Millisecond,
		func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
		t.Fatal("run triggered by a non-media file")
	case <-time.After(500 * time.Millisecond):
	}
}

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func startWatcher[T any](t *testing.T, w *Watcher[T]) {
	t.Helper()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	// fsnotify needs a moment before the first write is reliably seen.
	time.Sleep(100 * time.Millisecond)
}

func TestConfigWatcher_ReloadsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[command]\nenable = false\n")

	w := NewConfigWatcher(path, LoadFile, newTestLogger(), WithDebounce[File](testDebounce))
	received := make(chan File, 1)
	w.OnReload(func(f File) { received <- f })
	startWatcher(t, w)

	writeConfig(t, path, "[command]\nenable = true\nfrequency = 1.0\nscale = 1.0\nred = 255\n")

	select {
	case f := <-received:
		if f.Command == nil || !f.Command.Enable || f.Command.Red != 255 {
			t.Errorf("got %+v, want enabled red command", f.Command)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestConfigWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "[logging]\nled = \"info\"\n")

	w := NewConfigWatcher(path, LoadFile, newTestLogger(), WithDebounce[File](testDebounce))
	received := make(chan File, 1)
	w.OnReload(func(f File) { received <- f })
	startWatcher(t, w)

	tmp := filepath.Join(dir, "config.toml.tmp")
	writeConfig(t, tmp, "[logging]\nled = \"debug\"\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-received:
		if f.Logging["led"] != "debug" {
			t.Errorf("led level = %q, want debug", f.Logging["led"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "")

	var loads atomic.Int32
	loader := func(p string) (File, error) {
		loads.Add(1)
		return LoadFile(p)
	}
	w := NewConfigWatcher(path, loader, newTestLogger(), WithDebounce[File](testDebounce))
	startWatcher(t, w)

	writeConfig(t, filepath.Join(dir, "other.toml"), "x = 1\n")
	time.Sleep(4 * testDebounce)

	if got := loads.Load(); got != 0 {
		t.Errorf("loads = %d, want 0", got)
	}
}

func TestConfigWatcher_Debounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "")

	var loads atomic.Int32
	loader := func(p string) (File, error) {
		loads.Add(1)
		return LoadFile(p)
	}
	w := NewConfigWatcher(path, loader, newTestLogger(), WithDebounce[File](200*time.Millisecond))
	startWatcher(t, w)

	for i := 0; i < 5; i++ {
		writeConfig(t, path, "[command]\nenable = false\n")
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := loads.Load(); got != 1 {
		t.Errorf("loads = %d, want 1", got)
	}
}

func TestConfigWatcher_Unsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "")

	w := NewConfigWatcher(path, LoadFile, newTestLogger(), WithDebounce[File](testDebounce))
	var first, second atomic.Int32
	unsub := w.OnReload(func(File) { first.Add(1) })
	received := make(chan struct{}, 4)
	w.OnReload(func(File) {
		second.Add(1)
		received <- struct{}{}
	})
	unsub()
	startWatcher(t, w)

	writeConfig(t, path, "[command]\nenable = false\n")
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}

	if first.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
	if second.Load() != 1 {
		t.Errorf("second handler called %d times, want 1", second.Load())
	}
}

func TestConfigWatcher_ErrorHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "")

	errCh := make(chan error, 1)
	w := NewConfigWatcher(path, LoadFile, newTestLogger(),
		WithDebounce[File](testDebounce),
		WithErrorHandler[File](func(err error) { errCh <- err }),
	)
	var called atomic.Bool
	w.OnReload(func(File) { called.Store(true) })
	startWatcher(t, w)

	writeConfig(t, path, "[command\n")

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, os.ErrNotExist) {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error")
	}
	if called.Load() {
		t.Error("handler called for invalid config")
	}
}

func TestConfigWatcher_StopWithoutStart(t *testing.T) {
	w := NewConfigWatcher("/nonexistent/config.toml", LoadFile, newTestLogger())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop = %v, want nil", err)
	}
	if err := w.Start(); err == nil {
		t.Error("expected Start to fail for missing directory")
	}
}

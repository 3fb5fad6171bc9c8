package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type buildRecorder struct {
	mu     sync.Mutex
	builds int
	events []string
	input  []byte
}

func (r *buildRecorder) build() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds++
	return nil
}

func (r *buildRecorder) inputs() map[string][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string][]byte{"data": r.input}
}

func (r *buildRecorder) event(kind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *buildRecorder) buildCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.builds
}

func (r *buildRecorder) setInput(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = data
}

func (r *buildRecorder) eventKinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestRebuilderRunsAndRecordsChecksum(t *testing.T) {
	rec := &buildRecorder{input: []byte("v1")}
	rb := NewRebuilder(rec.build, rec.inputs, rec.event, slog.Default())

	rb.Trigger()
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return rec.buildCount() == 1
	}, "build never ran")

	if rb.LastSum() == "" {
		t.Error("checksum not recorded after successful build")
	}
	kinds := rec.eventKinds()
	if len(kinds) != 2 || kinds[0] != "started" || kinds[1] != "completed" {
		t.Errorf("events = %v, want [started completed]", kinds)
	}
}

func TestRebuilderSkipsUnchangedInputs(t *testing.T) {
	rec := &buildRecorder{input: []byte("v1")}
	rb := NewRebuilder(rec.build, rec.inputs, rec.event, slog.Default())

	rb.Trigger()
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return rec.buildCount() == 1
	}, "first build never ran")

	// Same inputs: the second trigger must be a no-op.
	rb.Trigger()
	time.Sleep(100 * time.Millisecond)
	if got := rec.buildCount(); got != 1 {
		t.Fatalf("builds = %d, want 1 (unchanged inputs)", got)
	}

	// Changed inputs rebuild again.
	rec.setInput([]byte("v2"))
	rb.Trigger()
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return rec.buildCount() == 2
	}, "changed inputs did not rebuild")
}

func TestRebuilderCoalescesQueuedTriggers(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	builds := 0
	version := 0

	build := func() error {
		mu.Lock()
		builds++
		first := builds == 1
		mu.Unlock()
		if first {
			<-release
		}
		return nil
	}
	inputs := func() map[string][]byte {
		mu.Lock()
		defer mu.Unlock()
		version++
		return map[string][]byte{"data": []byte{byte(version)}}
	}

	rb := NewRebuilder(build, inputs, nil, slog.Default())

	rb.Trigger()
	eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return builds == 1
	}, "first build never started")

	// Triggers while a build is in flight collapse into one follow-up.
	rb.Trigger()
	rb.Trigger()
	rb.Trigger()
	close(release)

	eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return builds == 2
	}, "queued build never ran")

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	final := builds
	mu.Unlock()
	if final != 2 {
		t.Fatalf("builds = %d, want exactly 2", final)
	}
}

func TestRebuilderReportsFailure(t *testing.T) {
	rec := &buildRecorder{input: []byte("v1")}
	failing := func() error { return os.ErrPermission }
	rb := NewRebuilder(failing, rec.inputs, rec.event, slog.Default())

	rb.Trigger()
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		kinds := rec.eventKinds()
		return len(kinds) == 2 && kinds[1] == "failed"
	}, "failure event never published")

	if rb.LastSum() != "" {
		t.Error("failed build must not record a checksum")
	}
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.tmpl"), []byte("2"), 0o644); err != nil {
		t.Fatal(err)
	}
	standalone := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(standalone, []byte("3"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := ReadInputs(dir, standalone, "/nonexistent/path")
	if len(got) != 3 {
		t.Fatalf("inputs = %d, want 3 (%v)", len(got), got)
	}
}

func TestWatchTriggersOnFileChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sites.json")
	if err := os.WriteFile(file, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := &buildRecorder{input: []byte("v1")}
	version := 0
	var mu sync.Mutex
	inputs := func() map[string][]byte {
		mu.Lock()
		defer mu.Unlock()
		version++
		return map[string][]byte{"data": []byte{byte(version)}}
	}
	rb := NewRebuilder(rec.build, inputs, nil, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, rb, slog.Default(), dir)

	// Give the watcher time to register, then touch the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(file, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.buildCount() >= 1
	}, "watcher never triggered a rebuild")
}

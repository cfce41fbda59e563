package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestRecordIndex(t *testing.T) {
	idx, err := recordIndex("3")
	if err != nil || idx != 2 {
		t.Fatalf("recordIndex(3) = %d, %v; want 2, nil", idx, err)
	}
	for _, bad := range []string{"0", "-1", "x", ""} {
		if _, err := recordIndex(bad); err == nil {
			t.Fatalf("recordIndex(%q): expected error", bad)
		}
	}
}

func TestChildArgs(t *testing.T) {
	got := childArgs([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"daemon", "--addr", ":9000", "--child"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("childArgs = %v, want %v", got, want)
	}
}

func TestDaemonRuntimeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "budgetdashd.json")
	rt := daemonRuntime{PID: os.Getpid(), Addr: "127.0.0.1:8731", StartedAt: time.Unix(100, 0).UTC()}
	if err := rt.write(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := readDaemonRuntime(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.PID != rt.PID || got.Addr != rt.Addr || !got.StartedAt.Equal(rt.StartedAt) {
		t.Fatalf("read back %+v, want %+v", got, rt)
	}
	if !got.alive() {
		t.Fatal("own process reported dead")
	}
	if err := ensureNoDaemon(path); err == nil {
		t.Fatal("expected an error while the recorded process is alive")
	}
}

func TestEnsureNoDaemonClearsStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetdashd.json")
	if err := ensureNoDaemon(path); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ensureNoDaemon(path); err != nil {
		t.Fatalf("stale file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("stale runtime file not removed: %v", err)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}

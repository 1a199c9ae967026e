package luashared

import (
	"errors"
	"strings"
	"testing"
)

func TestOpenErrorFormat(t *testing.T) {
	errs := OpenError{
		"bin/engine.so":           errors.New("no such file"),
		"garrysmod/bin/engine.so": errors.New("permission denied"),
	}

	got := errs.Error()
	if !strings.HasPrefix(got, "\n") {
		t.Errorf("report should start on its own line, got %q", got)
	}
	for path, cause := range errs {
		line := path + " = " + cause.Error()
		if !strings.Contains(got, line) {
			t.Errorf("report missing %q:\n%s", line, got)
		}
	}
	if strings.Index(got, "bin/engine.so") > strings.Index(got, "garrysmod/") {
		t.Errorf("paths not sorted:\n%s", got)
	}
}

func TestGameLibraryCandidates(t *testing.T) {
	plain := GameLibraryCandidates("server", false)
	srv := GameLibraryCandidates("server", true)

	if len(plain) == 0 || len(srv) == 0 {
		t.Fatal("no candidates produced")
	}
	if plain[len(plain)-1] != "server" || srv[len(srv)-1] != "server" {
		t.Error("bare name should be the final fallback")
	}
	for _, c := range plain {
		if c == "" {
			t.Error("empty candidate")
		}
	}
}

func TestSuffixedSetOrdering(t *testing.T) {
	srvFirst := suffixedSet("server", ".so", true)
	plainFirst := suffixedSet("server", ".so", false)

	if len(srvFirst) != 8 || len(plainFirst) != 8 {
		t.Fatalf("want 8 candidates, got %d and %d", len(srvFirst), len(plainFirst))
	}
	if !strings.Contains(srvFirst[0], "_srv.so") {
		t.Errorf("srv-first ordering broken: %v", srvFirst)
	}
	if strings.Contains(plainFirst[0], "_srv.so") {
		t.Errorf("plain-first ordering broken: %v", plainFirst)
	}
}

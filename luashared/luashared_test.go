package luashared

import (
	"testing"

	"go.uber.org/zap"
)

// The table singleton latches once per process, so the install scenarios
// run as ordered subtests of a single test.
func TestInstall(t *testing.T) {
	if Installed() {
		t.Fatal("table resolved before any test installed one")
	}

	stub := &Table{}

	t.Run("first install wins", func(t *testing.T) {
		Install(stub)
		if !Installed() {
			t.Fatal("Installed() = false after Install")
		}
		if Import() != stub {
			t.Fatal("Import() did not return the installed table")
		}
	})

	t.Run("reinstalling the same table is fine", func(t *testing.T) {
		Install(stub)
	})

	t.Run("conflicting install panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("Install of a second table did not panic")
			}
		}()
		Install(&Table{})
	})
}

func TestLogger(t *testing.T) {
	custom := zap.NewNop().Named("custom")
	SetLogger(custom)
	if Logger() != custom {
		t.Fatal("Logger() did not return the configured logger")
	}

	SetLogger(nil)
	if Logger() != custom {
		t.Fatal("SetLogger(nil) should be ignored")
	}
}

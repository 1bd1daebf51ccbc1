package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	createUserUsername = ""
	createUserPassword = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := Execute(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	return out.String(), err
}

func TestCreateUser(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cli.sqlite"))

	out, err := runCommand(t, "createuser", "--username", "alice", "--password", "secret")
	if err != nil {
		t.Fatalf("createuser failed: %v", err)
	}
	if !strings.Contains(out, `User "alice" created`) {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err = runCommand(t, "createuser", "--username", "alice", "--password", "secret"); err == nil {
		t.Fatalf("expected duplicate user to be rejected")
	}
}

func TestCreateUserPasswordFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cli.sqlite"))

	t.Setenv(passwordEnvVar, "")
	if _, err := runCommand(t, "createuser", "--username", "bob"); err == nil {
		t.Fatalf("expected missing password to be rejected")
	}

	t.Setenv(passwordEnvVar, "from-env")
	if _, err := runCommand(t, "createuser", "--username", "bob"); err != nil {
		t.Fatalf("createuser failed: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cli.sqlite"))

	if _, err := runCommand(t, "migrate"); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
}

func TestServeRequiresSecrets(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := runCommand(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "SECRET_KEY") {
		t.Fatalf("expected missing SECRET_KEY error, got %v", err)
	}
}

func TestDrainTimeout(t *testing.T) {
	tests := []struct {
		name             string
		transformTimeout time.Duration
		want             time.Duration
	}{
		{"Default transform timeout", 120 * time.Second, 130 * time.Second},
		{"Short transform timeout", time.Second, 11 * time.Second},
		{"No transform timeout", 0, shutdownTimeout},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := drainTimeout(test.transformTimeout); got != test.want {
				t.Errorf("drainTimeout(%v) = %v, want %v", test.transformTimeout, got, test.want)
			}
		})
	}
}

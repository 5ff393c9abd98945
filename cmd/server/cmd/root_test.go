package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    string
	}{
		{
			name:           "help flag",
			args:           []string{"--help"},
			expectedOutput: "KampusKuEvent server",
		},
		{
			name:           "short help flag",
			args:           []string{"-h"},
			expectedOutput: "KampusKuEvent server",
		},
		{
			name:        "invalid flag",
			args:        []string{"--invalid-flag"},
			expectError: "unknown flag: --invalid-flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()

			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()

			if tt.expectError != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectError) {
					t.Fatalf("expected error containing %q, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.expectedOutput, buf.String())
			}
		})
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "migrate", "version", "healthcheck", "hash-token"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	root := newRootCommand()

	for _, flag := range []string{"config", "log-level", "log-format"} {
		if f := root.PersistentFlags().Lookup(flag); f == nil {
			t.Errorf("expected persistent flag %q", flag)
		}
	}
}

func TestLoadConfigAppliesLoggingFlags(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:unused.db")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := loadConfig(&globalOptions{logLevel: "debug", logFormat: "console"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("expected flag overrides, got %+v", cfg.Logging)
	}
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	if _, err := loadConfig(&globalOptions{configPath: "does-not-exist.env"}); err == nil {
		t.Fatal("expected error for missing --config file")
	}
}

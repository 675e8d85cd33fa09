package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseServiceConfig_Defaults(t *testing.T) {
	cfg, err := ParseServiceConfig([]byte("{}"), "/etc/lattice/latticed.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != DefaultListenAddr {
		t.Errorf("listen = %q, want %q", cfg.Listen, DefaultListenAddr)
	}
	if want := filepath.Join("/etc/lattice", DefaultJournalPath); cfg.Journal != want {
		t.Errorf("journal = %q, want %q", cfg.Journal, want)
	}
	if cfg.Record {
		t.Error("record should default to false")
	}
}

func TestParseServiceConfig_Full(t *testing.T) {
	yaml := `
listen: 0.0.0.0:9000
declarations:
  - app.yaml
  - /opt/shared/stubs.yaml
journal: ":memory:"
record: true
max_message_bytes: 65536
`
	cfg, err := ParseServiceConfig([]byte(yaml), "/srv/latticed.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	want := []string{"/srv/app.yaml", "/opt/shared/stubs.yaml"}
	if len(cfg.Declarations) != len(want) {
		t.Fatalf("expected %d declarations, got %d", len(want), len(cfg.Declarations))
	}
	for i := range want {
		if cfg.Declarations[i] != want[i] {
			t.Errorf("declarations[%d] = %q, want %q", i, cfg.Declarations[i], want[i])
		}
	}
	if cfg.Journal != ":memory:" {
		t.Errorf("journal = %q, want :memory:", cfg.Journal)
	}
	if !cfg.Record || cfg.MaxMessageBytes != 65536 {
		t.Errorf("unexpected record settings: %+v", cfg)
	}
}

func TestParseServiceConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad listen", "listen: localhost", "listen"},
		{"empty declaration", "declarations: ['']", "empty path"},
		{"duplicate declaration", "declarations: [a.yaml, a.yaml]", "listed twice"},
		{"negative size", "max_message_bytes: -1", "must not be negative"},
		{"bad yaml", "listen: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServiceConfig([]byte(tt.yaml), "latticed.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFindServiceConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "latticed.yml")
	if err := os.WriteFile(path, []byte("record: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := FindServiceConfig(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != path {
		t.Errorf("found %q, want %q", found, path)
	}

	cfg, err := LoadServiceConfig(found)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Record {
		t.Error("expected record to be true")
	}

	if _, err := LoadServiceConfig(filepath.Join(root, "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

package stash

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.Defaults()

	if cfg.DBPath != "data/stash.db" || cfg.DataDir != "data/files" {
		t.Errorf("paths: %+v", cfg)
	}
	if cfg.MaxUploadBytes != 50*1024*1024 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Image.MaxWidth != 1920 || cfg.Image.MaxHeight != 1080 {
		t.Errorf("image box: %+v", cfg.Image)
	}
}

func TestConfig_DefaultsKeepExplicitValues(t *testing.T) {
	cfg := Config{DBPath: "/tmp/x.db", MaxUploadBytes: 1024}
	cfg.Defaults()
	if cfg.DBPath != "/tmp/x.db" || cfg.MaxUploadBytes != 1024 {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.yaml")
	content := `
db_path: /var/lib/stash/stash.db
data_dir: /var/lib/stash/files
max_upload_bytes: 1048576
fetch:
  user_agent: stash-test
image:
  max_width: 800
  quality: 70
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.DBPath != "/var/lib/stash/stash.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.Fetch.UserAgent != "stash-test" {
		t.Errorf("fetch: %+v", cfg.Fetch)
	}
	if cfg.Image.MaxWidth != 800 || cfg.Image.Quality != 70 {
		t.Errorf("image: %+v", cfg.Image)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile("/nonexistent/stash.yaml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidateNewItem(t *testing.T) {
	cases := []struct {
		itemType, title string
		wantErr         bool
	}{
		{"note", "fine", false},
		{"url", "fine", false},
		{"note", "", true},
		{"note", "   ", true},
		{"widget", "fine", true},
	}
	for _, tc := range cases {
		err := validateNewItem(tc.itemType, tc.title)
		if (err != nil) != tc.wantErr {
			t.Errorf("validateNewItem(%q, %q): err=%v", tc.itemType, tc.title, err)
		}
	}
}

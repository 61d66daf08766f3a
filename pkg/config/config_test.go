package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pipeline.RMax != 80.0 {
		t.Errorf("Expected default rmax 80.0, got %g", cfg.Pipeline.RMax)
	}
	if !cfg.Pipeline.OutlierFraction {
		t.Error("Expected outlier fraction mode on by default")
	}
	if len(cfg.Sublist.FunctionalKeywords) == 0 {
		t.Error("Expected default functional keywords")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("LoadConfig should fall back to defaults for a missing file: %v", err)
	}
	if cfg.Pipeline.RMax != 80.0 {
		t.Errorf("Expected default config, got rmax %g", cfg.Pipeline.RMax)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	content := `s3:
  bucketName: my-study
  bucketPrefix: data/raw
  localPrefix: /scratch/raw
pipeline:
  rmax: 50.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.S3.BucketName != "my-study" {
		t.Errorf("Expected bucket my-study, got %q", cfg.S3.BucketName)
	}
	if cfg.Pipeline.RMax != 50.0 {
		t.Errorf("Expected rmax override 50.0, got %g", cfg.Pipeline.RMax)
	}
	// Unset keys keep their defaults
	if cfg.S3.Region != "us-east-1" {
		t.Errorf("Expected default region, got %q", cfg.S3.Region)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline.yml")

	cfg := DefaultConfig()
	cfg.S3.BucketName = "round-trip"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.S3.BucketName != "round-trip" {
		t.Errorf("Expected bucket round-trip, got %q", loaded.S3.BucketName)
	}
}

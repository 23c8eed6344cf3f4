// Package config loads service configuration from the environment.
//
// Everything the pipeline needs is carried in an explicit Config value that
// is passed to constructors: the ServiceNow client, the attachment store and
// the renderer never read environment variables themselves, which keeps them
// swappable with test doubles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServiceNow holds the tracker connection settings. Credentials are basic
// auth; BaseURL has no trailing slash.
type ServiceNow struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Config is the full service configuration.
type Config struct {
	Addr           string
	ServiceNow     ServiceNow
	DocsDir        string
	AttachmentsDir string

	// S3Bucket enables mirroring rendered documents to object storage
	// when non-empty.
	S3Bucket string
	S3Region string
}

// Load reads configuration from environment variables. SERVICENOW_BASE_URL,
// SERVICENOW_USERNAME and SERVICENOW_PASSWORD are required; everything else
// has a default.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Addr: getenv("ARCHIVER_ADDR", ":8001"),
		ServiceNow: ServiceNow{
			BaseURL:  requireEnv("SERVICENOW_BASE_URL", &errs),
			Username: requireEnv("SERVICENOW_USERNAME", &errs),
			Password: requireEnv("SERVICENOW_PASSWORD", &errs),
			Timeout:  getenvDuration("SERVICENOW_TIMEOUT", 30*time.Second, &errs),
		},
		DocsDir:        getenv("ARCHIVER_DOCS_DIR", "./incident_docs"),
		AttachmentsDir: getenv("ARCHIVER_ATTACHMENTS_DIR", "./attachments"),
		S3Bucket:       os.Getenv("ARCHIVER_S3_BUCKET"),
		S3Region:       getenv("ARCHIVER_S3_REGION", "us-east-1"),
	}

	if port := os.Getenv("ARCHIVER_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			errs = append(errs, fmt.Errorf("ARCHIVER_PORT: %w", err))
		} else {
			cfg.Addr = ":" + port
		}
	}

	return cfg, errors.Join(errs...)
}

// EnsureDirs creates the document and attachment directories if absent.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DocsDir, c.AttachmentsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string, errs *[]error) string {
	v := os.Getenv(key)
	if v == "" {
		*errs = append(*errs, fmt.Errorf("%s is required", key))
	}
	return v
}

func getenvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

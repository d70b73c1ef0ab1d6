package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeMetadata()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("PHOTOMERGE_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DedupStore) == "" {
		c.Paths.DedupStore = defaultDedupStore
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.DedupStore, err = expandPath(strings.TrimSpace(c.Paths.DedupStore)); err != nil {
		return fmt.Errorf("paths.dedup_store: %w", err)
	}
	if c.Paths.JournalPath, err = expandPath(strings.TrimSpace(c.Paths.JournalPath)); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() {
	if c.Archive.MaxSidecarBytes <= 0 {
		c.Archive.MaxSidecarBytes = defaultMaxSidecarBytes
	}
	if c.Archive.MaxIndexBytes <= 0 {
		c.Archive.MaxIndexBytes = defaultMaxIndexBytes
	}
	if c.Dedup.SaveEvery < 0 {
		c.Dedup.SaveEvery = 0
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.Codec = strings.ToLower(strings.TrimSpace(c.Metadata.Codec))
	if c.Metadata.Codec == "" {
		c.Metadata.Codec = defaultCodec
	}
	c.Metadata.LocationSource = strings.ToLower(strings.TrimSpace(c.Metadata.LocationSource))
	if c.Metadata.LocationSource == "" {
		c.Metadata.LocationSource = defaultLocationSource
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

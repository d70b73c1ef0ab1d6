package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set (or export PHOTOMERGE_OUTPUT_DIR)")
	}
	if c.Paths.DedupStore == "" {
		return errors.New("paths.dedup_store must be set")
	}
	if rel, err := filepath.Rel(c.Paths.OutputDir, c.Paths.DedupStore); err == nil && filepath.IsLocal(rel) {
		return fmt.Errorf("paths.dedup_store %q must not live inside paths.output_dir", c.Paths.DedupStore)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	switch c.Metadata.Codec {
	case CodecXMP, CodecPassthrough:
	default:
		return fmt.Errorf("metadata.codec: unsupported value %q (want %q or %q)", c.Metadata.Codec, CodecXMP, CodecPassthrough)
	}
	switch c.Metadata.LocationSource {
	case LocationGPhotos, LocationExif:
	default:
		return fmt.Errorf("metadata.location_source: unsupported value %q (want %q or %q)", c.Metadata.LocationSource, LocationGPhotos, LocationExif)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

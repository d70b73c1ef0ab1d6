package config

const (
	defaultConfigPath      = "~/.config/photomerge/config.toml"
	defaultOutputDir       = "~/Pictures/takeout"
	defaultDedupStore      = "~/.local/share/photomerge/dedup.json.gz"
	defaultJournalPath     = "~/.local/share/photomerge/journal.db"
	defaultLogDir          = "~/.local/share/photomerge/logs"
	defaultMaxSidecarBytes = 4 << 20
	defaultMaxIndexBytes   = 256 << 20
	defaultSaveEvery       = 100
	defaultCodec           = CodecXMP
	defaultLocationSource  = LocationGPhotos
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRetentionDays   = 30
)

// Codec names accepted by metadata.codec.
const (
	CodecXMP         = "xmp"
	CodecPassthrough = "passthrough"
)

// Location sources accepted by metadata.location_source.
const (
	LocationGPhotos = "gphotos"
	LocationExif    = "exif"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			DedupStore:  defaultDedupStore,
			JournalPath: defaultJournalPath,
			LogDir:      defaultLogDir,
		},
		Archive: Archive{
			MaxSidecarBytes: defaultMaxSidecarBytes,
			MaxIndexBytes:   defaultMaxIndexBytes,
		},
		Dedup: Dedup{
			SaveEvery: defaultSaveEvery,
		},
		Metadata: Metadata{
			Codec:          defaultCodec,
			LocationSource: defaultLocationSource,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}

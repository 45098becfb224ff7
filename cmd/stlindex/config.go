package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/stlindex"
	"github.com/hupe1980/stlindex/meshfile"
)

// Config holds the settings of one conversion. Values come from an
// optional YAML file named by --config; flags set on the command line
// override file values.
type Config struct {
	// Output is the mesh file location. Empty means the input's base name
	// with a .sidx extension in the working directory.
	Output string `yaml:"output"`

	// Workers is the fan-out of every pipeline phase. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Ordering is "first-seen" or "set".
	Ordering string `yaml:"ordering"`

	VertexCompression string `yaml:"vertex_compression"`
	IndexCompression  string `yaml:"index_compression"`

	// MemoryLimit caps pipeline buffer memory in bytes. 0 is unlimited.
	MemoryLimit int64 `yaml:"memory_limit"`

	// IOLimit caps input read throughput in bytes per second. 0 is unlimited.
	IOLimit int64 `yaml:"io_limit"`

	// CatalogTable is the DynamoDB table recording conversions. Empty
	// disables the catalog.
	CatalogTable string `yaml:"catalog_table"`

	// Force converts even when the catalog already holds the input digest.
	Force bool `yaml:"force"`

	// EmitSTL, when set, also writes the mesh re-expanded as binary STL.
	EmitSTL string `yaml:"emit_stl"`

	MinioEndpoint string `yaml:"minio_endpoint"`
	MinioInsecure bool   `yaml:"minio_insecure"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the settings used when neither file nor flags
// say otherwise.
func DefaultConfig() Config {
	return Config{
		Ordering:          stlindex.OrderFirstSeen.String(),
		VertexCompression: meshfile.CompressionBG4LZ4.String(),
		IndexCompression:  meshfile.CompressionZstd.String(),
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LoadConfig reads a YAML config file over DefaultConfig. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// flags binds command line flags to a Config.
type flags struct {
	configPath string
	version    bool
	values     Config
}

func newFlagSet(f *flags) *pflag.FlagSet {
	d := DefaultConfig()
	fs := pflag.NewFlagSet("stlindex", pflag.ContinueOnError)

	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.StringVarP(&f.values.Output, "output", "o", "", "output mesh file (local path, s3://bucket/key or minio://bucket/key)")
	fs.IntVarP(&f.values.Workers, "workers", "w", 0, "number of workers (0 = GOMAXPROCS)")
	fs.StringVar(&f.values.Ordering, "ordering", d.Ordering, "vertex numbering: first-seen or set")
	fs.StringVar(&f.values.VertexCompression, "vertex-compression", d.VertexCompression, "vertex section compression: none, lz4, zstd or bg4_lz4")
	fs.StringVar(&f.values.IndexCompression, "index-compression", d.IndexCompression, "index section compression: none, lz4, zstd or bg4_lz4")
	fs.Int64Var(&f.values.MemoryLimit, "memory-limit", 0, "pipeline memory limit in bytes (0 = unlimited)")
	fs.Int64Var(&f.values.IOLimit, "io-limit", 0, "input read limit in bytes per second (0 = unlimited)")
	fs.StringVar(&f.values.CatalogTable, "catalog-table", "", "DynamoDB table recording conversions")
	fs.BoolVar(&f.values.Force, "force", false, "convert even if the catalog has the input")
	fs.StringVar(&f.values.EmitSTL, "emit-stl", "", "also write the indexed mesh as binary STL to this path")
	fs.StringVar(&f.values.MinioEndpoint, "minio-endpoint", "", "MinIO endpoint for minio:// locations")
	fs.BoolVar(&f.values.MinioInsecure, "minio-insecure", false, "connect to MinIO without TLS")
	fs.StringVar(&f.values.LogLevel, "log-level", d.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&f.values.LogFormat, "log-format", d.LogFormat, "log format: text or json")

	return fs
}

// resolve merges the config file with the flags explicitly set in fs.
func (f *flags) resolve(fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("output", func() { cfg.Output = f.values.Output })
	set("workers", func() { cfg.Workers = f.values.Workers })
	set("ordering", func() { cfg.Ordering = f.values.Ordering })
	set("vertex-compression", func() { cfg.VertexCompression = f.values.VertexCompression })
	set("index-compression", func() { cfg.IndexCompression = f.values.IndexCompression })
	set("memory-limit", func() { cfg.MemoryLimit = f.values.MemoryLimit })
	set("io-limit", func() { cfg.IOLimit = f.values.IOLimit })
	set("catalog-table", func() { cfg.CatalogTable = f.values.CatalogTable })
	set("force", func() { cfg.Force = f.values.Force })
	set("emit-stl", func() { cfg.EmitSTL = f.values.EmitSTL })
	set("minio-endpoint", func() { cfg.MinioEndpoint = f.values.MinioEndpoint })
	set("minio-insecure", func() { cfg.MinioInsecure = f.values.MinioInsecure })
	set("log-level", func() { cfg.LogLevel = f.values.LogLevel })
	set("log-format", func() { cfg.LogFormat = f.values.LogFormat })

	return cfg, cfg.Validate()
}

// Validate checks enumerated and numeric settings.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("memory_limit must be >= 0, got %d", c.MemoryLimit)
	}
	if c.IOLimit < 0 {
		return fmt.Errorf("io_limit must be >= 0, got %d", c.IOLimit)
	}
	if _, err := stlindex.ParseOrdering(c.Ordering); err != nil {
		return err
	}
	if _, err := meshfile.ParseCompression(c.VertexCompression); err != nil {
		return err
	}
	if _, err := meshfile.ParseCompression(c.IndexCompression); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// meshOptions returns the meshfile options selected by c. c must be valid.
func (c Config) meshOptions() meshfile.Options {
	vc, _ := meshfile.ParseCompression(c.VertexCompression)
	ic, _ := meshfile.ParseCompression(c.IndexCompression)
	return meshfile.Options{VertexCompression: vc, IndexCompression: ic}
}

// logger builds the CLI logger writing to w. c must be valid.
func (c Config) logger(w io.Writer) *stlindex.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return stlindex.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return stlindex.NewLogger(slog.NewTextHandler(w, opts))
}

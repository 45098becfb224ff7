// stlindex converts a binary STL file into an indexed mesh file.
//
// Every triangle corner of the input is deduplicated by the exact bytes of
// its coordinates; the result is written in the SIDX container format
// (see package meshfile).
//
// Usage:
//
//	stlindex [flags] <input>
//
// Input and output are local paths, s3://bucket/key or minio://bucket/key.
// With --catalog-table, conversions are recorded in DynamoDB by the BLAKE3
// digest of the input, and inputs converted before are skipped unless
// --force is given.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/pflag"

	"github.com/hupe1980/stlindex"
	"github.com/hupe1980/stlindex/catalog"
	"github.com/hupe1980/stlindex/catalog/dynamodb"
	"github.com/hupe1980/stlindex/internal/stl"
	"github.com/hupe1980/stlindex/mesh"
	"github.com/hupe1980/stlindex/meshfile"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run executes one conversion. A nil cat selects the catalog from the
// configuration.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, cat catalog.Catalog) error {
	var f flags
	fs := newFlagSet(&f)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  stlindex [flags] <input>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if f.version {
		fmt.Fprintf(stdout, "stlindex %s\n", version)
		return nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one input, got %d", fs.NArg())
	}

	cfg, err := f.resolve(fs)
	if err != nil {
		return err
	}

	input, err := parseLocation(fs.Arg(0))
	if err != nil {
		return err
	}
	output := defaultOutput(input)
	if cfg.Output != "" {
		if output, err = parseLocation(cfg.Output); err != nil {
			return err
		}
	}

	if cat == nil && cfg.CatalogTable != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		cat = dynamodb.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.CatalogTable)
	}

	c := &converter{
		cfg:     cfg,
		stores:  storeFactory{cfg: cfg},
		catalog: cat,
		logger:  cfg.logger(stderr),
		stdout:  stdout,
	}
	return c.convert(ctx, input, output)
}

type converter struct {
	cfg     Config
	stores  storeFactory
	catalog catalog.Catalog
	logger  *stlindex.Logger
	stdout  io.Writer
}

func (c *converter) convert(ctx context.Context, input, output location) error {
	start := time.Now()
	ordering, _ := stlindex.ParseOrdering(c.cfg.Ordering)

	loader := stlindex.NewLoader(
		stlindex.WithWorkers(c.cfg.Workers),
		stlindex.WithOrdering(ordering),
		stlindex.WithLogger(c.logger),
		stlindex.WithMemoryLimit(c.cfg.MemoryLimit),
		stlindex.WithIOLimit(c.cfg.IOLimit),
	)

	src, err := c.stores.open(ctx, input)
	if err != nil {
		return err
	}
	blob, err := src.Open(ctx, input.name)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	defer blob.Close()

	data, err := loader.ReadBlob(ctx, blob)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	digest := catalog.Digest(data)
	if c.catalog != nil && !c.cfg.Force {
		e, err := c.catalog.Lookup(ctx, digest)
		switch {
		case err == nil:
			fmt.Fprintf(c.stdout, "%s: already converted to %s at %s\n", input, e.Output, e.CreatedAt.Format(time.RFC3339))
			return nil
		case !errors.Is(err, catalog.ErrNotFound):
			return err
		}
	}

	var stats stlindex.Stats
	m, err := loader.Load(ctx, data, stlindex.WithName(input.String()), stlindex.WithStats(&stats))
	if err != nil {
		return err
	}

	encoded, err := meshfile.Marshal(m, meshfile.Metadata{
		Name:     input.name,
		Ordering: ordering.String(),
		Digest:   digest,
	}, c.cfg.meshOptions())
	if err != nil {
		return err
	}
	if err := c.put(ctx, output, encoded); err != nil {
		return err
	}

	if c.cfg.EmitSTL != "" {
		target, err := parseLocation(c.cfg.EmitSTL)
		if err != nil {
			return err
		}
		if err := c.put(ctx, target, stl.Marshal("stlindex "+input.name, expand(m))); err != nil {
			return err
		}
	}

	if c.catalog != nil {
		err := c.catalog.Record(ctx, catalog.Entry{
			Digest:    digest,
			Source:    input.String(),
			Output:    output.String(),
			Triangles: uint64(m.TriangleCount()),
			Vertices:  uint64(m.VertexCount()),
			Lower:     m.Bounds.Lower,
			Upper:     m.Bounds.Upper,
			CreatedAt: time.Now().UTC(),
		})
		if errors.Is(err, catalog.ErrExists) {
			c.logger.WarnContext(ctx, "catalog entry already recorded", "digest", digest)
		} else if err != nil {
			return err
		}
	}

	fmt.Fprintf(c.stdout, "%s: %d triangles, %d unique vertices, bounds %v..%v, %s -> %s\n",
		input, stats.Triangles, stats.Unique, m.Bounds.Lower, m.Bounds.Upper,
		time.Since(start).Round(time.Millisecond), output)
	return nil
}

func (c *converter) put(ctx context.Context, l location, data []byte) error {
	dst, err := c.stores.open(ctx, l)
	if err != nil {
		return err
	}
	if err := dst.Put(ctx, l.name, data); err != nil {
		return fmt.Errorf("write %s: %w", l, err)
	}
	return nil
}

// expand re-expands an indexed mesh into STL triangle records.
func expand(m *mesh.Indexed) []stl.Triangle {
	tris := make([]stl.Triangle, m.TriangleCount())
	for t := range tris {
		ids := m.Triangle(t)
		for c, id := range ids {
			tris[t].Vertices[c] = m.Vertex(id)
		}
	}
	return tris
}

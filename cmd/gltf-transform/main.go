// Command gltf-transform applies mesh optimization transforms to glTF and
// GLB files.
//
// Usage:
//
//	gltf-transform weld [-tolerance t] [-o out.glb] in.glb
//	gltf-transform dedup [-o out.glb] in.glb
//	gltf-transform copy -o out.gltf in.glb
//	gltf-transform inspect in.glb
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/time/rate"

	gltfx "github.com/xlsfs/glTF-Transform"
	"github.com/xlsfs/glTF-Transform/blobstore"
	minioblob "github.com/xlsfs/glTF-Transform/blobstore/minio"
	s3blob "github.com/xlsfs/glTF-Transform/blobstore/s3"
	"github.com/xlsfs/glTF-Transform/codec"
	"github.com/xlsfs/glTF-Transform/gltfio"
	"github.com/xlsfs/glTF-Transform/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "weld":
		err = runWeld(ctx, os.Args[2:])
	case "dedup":
		err = runDedup(ctx, os.Args[2:])
	case "copy":
		err = runCopy(ctx, os.Args[2:])
	case "inspect":
		err = runInspect(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "gltf-transform: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "gltf-transform:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: gltf-transform <command> [flags] <input>

Commands:
  weld      merge duplicate vertices and index primitives
  dedup     merge byte-identical accessors
  copy      read and rewrite a document (format conversion)
  inspect   print document statistics

Run "gltf-transform <command> -h" for command flags.
`)
}

// env bundles the configured reader, writer and logger for one command run.
type env struct {
	cfg    *config.Config
	logger *gltfx.Logger
	reader *gltfio.Reader
	writer *gltfio.Writer
}

func newEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	c, ok := codec.ByName(cfg.Output.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Output.Codec)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if cfg.Remote.RateLimit > 0 {
		burst := cfg.Remote.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Remote.RateLimit), burst)
	}

	level := parseLevel(cfg.Logging.Level)
	var logger *gltfx.Logger
	if cfg.Logging.Format == "json" {
		logger = gltfx.NewJSONLogger(level)
	} else {
		logger = gltfx.NewTextLogger(level)
	}

	reader := gltfio.NewReader(func(o *gltfio.ReaderOptions) {
		o.Codec = c
		o.Store = store
		o.Limiter = limiter
		o.Logger = logger.Logger
	})
	writer := gltfio.NewWriter(func(o *gltfio.WriterOptions) {
		o.Codec = c
		o.Store = store
		o.Generator = cfg.Output.Generator
		o.Logger = logger.Logger
	})
	return &env{cfg: cfg, logger: logger, reader: reader, writer: writer}, nil
}

// buildStore selects the blob store for external buffer URIs. Nil means the
// reader and writer fall back to a local store rooted at the document's
// directory.
func buildStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	rc := cfg.Remote
	var store blobstore.BlobStore
	switch {
	case rc.S3Bucket != "" && rc.Endpoint != "":
		client, err := minio.New(rc.Endpoint, &minio.Options{
			Creds:  miniocreds.NewStaticV4(rc.AccessKey, rc.SecretKey, ""),
			Secure: true,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", rc.Endpoint, err)
		}
		store = minioblob.NewStore(client, rc.S3Bucket, "")
	case rc.S3Bucket != "":
		s, err := s3blob.NewFromConfig(ctx, rc.S3Bucket, "")
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, nil
	}
	if cfg.Cache.Dir != "" {
		store = blobstore.NewCachingStore(store, cfg.Cache.Dir)
	}
	return store, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runWeld(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("weld", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	out := fs.String("o", "", "output path (defaults to the input path)")
	tolerance := fs.Float64("tolerance", -1, "weld tolerance in [0, 0.1] (-1 = config value)")
	keepIndexed := fs.Bool("keep-indexed", false, "leave already-indexed primitives untouched")
	parallel := fs.Int("parallel", 0, "concurrent primitives (0 = config value)")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("weld: expected exactly one input file")
	}
	in := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *tolerance >= 0 {
		cfg.Weld.Tolerance = *tolerance
	}
	if *keepIndexed {
		cfg.Weld.Overwrite = false
	}
	if *parallel > 0 {
		cfg.Weld.Parallelism = *parallel
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	e, err := newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := e.reader.ReadFile(ctx, in)
	if err != nil {
		return err
	}

	metrics := &gltfx.BasicMetricsCollector{}
	pipe := gltfx.NewPipeline(
		gltfx.WithLogger(e.logger),
		gltfx.WithMetricsCollector(metrics),
		gltfx.WithParallelism(cfg.Weld.Parallelism),
	)
	err = pipe.Run(ctx, doc, gltfx.Weld(func(o *gltfx.WeldOptions) {
		o.Tolerance = cfg.Weld.Tolerance
		o.Overwrite = cfg.Weld.Overwrite
	}))
	if err != nil {
		return err
	}

	if *out == "" {
		*out = in
	}
	if err := e.writer.WriteFile(ctx, doc, *out); err != nil {
		return err
	}

	stats := metrics.GetStats()
	fmt.Printf("welded %d primitives: %d -> %d vertices\n",
		stats.WeldPrimitiveCount, stats.WeldSrcVertices, stats.WeldDstVertices)
	return nil
}

func runDedup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dedup", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	out := fs.String("o", "", "output path (defaults to the input path)")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("dedup: expected exactly one input file")
	}
	in := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	e, err := newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := e.reader.ReadFile(ctx, in)
	if err != nil {
		return err
	}

	metrics := &gltfx.BasicMetricsCollector{}
	pipe := gltfx.NewPipeline(gltfx.WithLogger(e.logger), gltfx.WithMetricsCollector(metrics))
	if err := pipe.Run(ctx, doc, gltfx.Dedup()); err != nil {
		return err
	}

	if *out == "" {
		*out = in
	}
	if err := e.writer.WriteFile(ctx, doc, *out); err != nil {
		return err
	}

	fmt.Printf("removed %d duplicate accessors\n", metrics.GetStats().DedupRemoved)
	return nil
}

func runCopy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	out := fs.String("o", "", "output path (required)")
	fs.Parse(args)
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("copy: expected one input file and -o output path")
	}
	in := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	e, err := newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := e.reader.ReadFile(ctx, in)
	if err != nil {
		return err
	}
	return e.writer.WriteFile(ctx, doc, *out)
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: expected exactly one input file")
	}
	in := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	e, err := newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := e.reader.ReadFile(ctx, in)
	if err != nil {
		return err
	}

	var primitives, vertices, indexed int
	for _, mesh := range doc.Meshes() {
		for _, prim := range mesh.Primitives() {
			primitives++
			vertices += prim.VertexCount()
			if prim.Indices() != nil {
				indexed++
			}
		}
	}
	var elements int
	for _, a := range doc.Accessors() {
		elements += a.Count()
	}

	fmt.Printf("meshes:      %d\n", len(doc.Meshes()))
	fmt.Printf("primitives:  %d (%d indexed)\n", primitives, indexed)
	fmt.Printf("vertices:    %d\n", vertices)
	fmt.Printf("accessors:   %d (%d elements)\n", len(doc.Accessors()), elements)
	fmt.Printf("buffers:     %d\n", len(doc.Buffers()))
	fmt.Printf("skins:       %d\n", len(doc.Skins()))
	fmt.Printf("animations:  %d\n", len(doc.Animations()))
	if keys := doc.RawKeys(); len(keys) > 0 {
		sort.Strings(keys)
		fmt.Printf("passthrough: %s\n", strings.Join(keys, ", "))
	}
	return nil
}

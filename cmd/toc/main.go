// Command toc prints the table of contents of an archive given as a local
// path, an HTTP(S) URL, or an oci:// layer reference. Remote archives are
// listed from a tail window fetched with range requests.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"os"

	"github.com/joho/godotenv"

	"github.com/meigma/toc"
	tochttp "github.com/meigma/toc/http"
	"github.com/meigma/toc/internal/config"
	"github.com/meigma/toc/registry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	flags := flag.NewFlagSet("toc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	showVersion := flags.Bool("version", false, "print version and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: toc [flags] <path|url|oci://ref>\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}
	target := flags.Arg(0)

	cfg, err := config.Load(lookup)
	if err != nil {
		fmt.Fprintf(stderr, "toc: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	idx, err := resolve(ctx, target, cfg, logger)
	if err != nil {
		logger.Error("resolve failed", "target", target, "error", err)
		return 1
	}

	w := bufio.NewWriter(stdout)
	for _, name := range idx.Entries {
		fmt.Fprintln(w, name)
	}
	if err := w.Flush(); err != nil {
		logger.Error("write entries", "error", err)
		return 1
	}
	return 0
}

func resolve(ctx context.Context, target string, cfg config.Config, logger *slog.Logger) (*toc.Index, error) {
	switch {
	case registry.IsReference(target):
		return resolveLayer(ctx, target, cfg, logger)
	case isHTTP(target):
		client := &nethttp.Client{Transport: tochttp.NewLoggingTransport(nil, logger)}
		r, err := newResolver(cfg, logger, client)
		if err != nil {
			return nil, err
		}
		return r.Resolve(ctx, target)
	default:
		return toc.ResolveFile(ctx, target, toc.FileWithLogger(logger))
	}
}

func resolveLayer(ctx context.Context, ref string, cfg config.Config, logger *slog.Logger) (*toc.Index, error) {
	opts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithPlainHTTP(cfg.PlainHTTP),
		registry.WithDockerConfig(),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, registry.WithUserAgent(cfg.UserAgent))
	}

	layer, err := registry.New(opts...).Layer(ctx, ref, nil)
	if err != nil {
		return nil, err
	}
	r, err := newResolver(cfg, logger, layer.Client)
	if err != nil {
		return nil, err
	}
	idx, err := r.ResolveProbed(ctx, layer.URL, toc.Probe{
		MediaType: layer.Descriptor.MediaType,
		Kind:      layer.Kind(),
		Length:    layer.Descriptor.Size,
	})
	if err != nil {
		return nil, err
	}
	idx.Source = ref
	return idx, nil
}

func newResolver(cfg config.Config, logger *slog.Logger, client *nethttp.Client) (*toc.Resolver, error) {
	httpOpts := []tochttp.Option{
		tochttp.WithClient(client),
		tochttp.WithLogger(logger),
	}
	if cfg.UserAgent != "" {
		httpOpts = append(httpOpts, tochttp.WithUserAgent(cfg.UserAgent))
	}
	for key, value := range cfg.Headers {
		httpOpts = append(httpOpts, tochttp.WithHeader(key, value))
	}

	return toc.NewResolver(
		toc.WithTransport(tochttp.NewClient(httpOpts...)),
		toc.WithChunkSize(cfg.ChunkSize),
		toc.WithTailSize(cfg.TailSize),
		toc.WithMinSize(cfg.MinSize),
		toc.WithLogger(logger),
	)
}

func isHTTP(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

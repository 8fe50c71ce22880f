// Command textstrip removes all text from a PDF while keeping its images
// and graphics.
//
//	textstrip [flags] [input.pdf [output.pdf]]
//	textstrip inspect [-format text|json|html] file.pdf
//	textstrip serve [-port 8080]
//
// Without arguments input.pdf is read and output_cleaned.pdf written.
// Exit status is 0 on success, 1 when stripping fails and 2 on usage
// errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tsawler/textstrip"
	"github.com/tsawler/textstrip/api"
	"github.com/tsawler/textstrip/config"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/ocr"
	"github.com/tsawler/textstrip/report"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks command line mistakes
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, rest := "strip", args
	if len(args) > 0 {
		switch args[0] {
		case "strip", "inspect", "serve":
			cmd, rest = args[0], args[1:]
		}
	}

	var err error
	switch cmd {
	case "inspect":
		err = runInspect(rest, stdout, stderr)
	case "serve":
		err = runServe(ctx, rest, stderr)
	default:
		err = runStrip(ctx, rest, stderr)
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "textstrip: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "textstrip: %v\n", err)
		return exitError
	}
}

// commonFlags are shared by strip and serve and override the
// configuration file and environment when given
type commonFlags struct {
	config     string
	pages      string
	workers    int
	images     string
	graphics   string
	fill       string
	margin     float64
	bestEffort bool
	compress   bool
	clean      bool
	logLevel   string
	logFormat  string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	def := config.Default()
	fs.StringVar(&f.config, "config", "", "TOML configuration file")
	fs.StringVar(&f.pages, "pages", "", "pages to strip, e.g. 1,3-5 (default all)")
	fs.IntVar(&f.workers, "workers", def.Workers, "pages processed in parallel")
	fs.StringVar(&f.images, "images", def.Images, "images under text: none, remove or pixels")
	fs.StringVar(&f.graphics, "graphics", def.Graphics, "graphics under text: none or contained")
	fs.StringVar(&f.fill, "fill", "", "fill removed text with a color, r,g,b or a name")
	fs.Float64Var(&f.margin, "margin", 0, "grow every text box by this many points")
	fs.BoolVar(&f.bestEffort, "best-effort", false, "skip pages that fail instead of stopping")
	fs.BoolVar(&f.compress, "compress", def.Save.Compress, "compress streams of the output")
	fs.BoolVar(&f.clean, "clean", def.Save.CleanUnused, "drop unreferenced objects from the output")
	fs.StringVar(&f.logLevel, "log-level", def.Log.Level, "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", def.Log.Format, "text or json")
}

// load builds the configuration: defaults, file, environment, then the
// flags that were set explicitly
func (f *commonFlags) load(fs *flag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.LoadFile(f.config); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "pages":
			cfg.Pages = f.pages
		case "workers":
			cfg.Workers = f.workers
		case "images":
			cfg.Images = f.images
		case "graphics":
			cfg.Graphics = f.graphics
		case "fill":
			cfg.Fill = f.fill
		case "margin":
			cfg.MarkMargin = f.margin
		case "best-effort":
			cfg.BestEffort = f.bestEffort
		case "compress":
			cfg.Save.Compress = f.compress
		case "clean":
			cfg.Save.CleanUnused = f.clean
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-format":
			cfg.Log.Format = f.logFormat
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", errUsage, err)
	}
	return cfg, nil
}

func runStrip(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("textstrip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: textstrip [flags] [input.pdf [output.pdf]]\n")
		fs.PrintDefaults()
	}
	var f commonFlags
	f.register(fs)
	ocrAudit := fs.Bool("ocr-audit", false, "OCR the remaining images and warn about raster text (needs -tags ocr)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 2 {
		fs.Usage()
		return fmt.Errorf("%w: too many arguments", errUsage)
	}

	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		cfg.Output = fs.Arg(1)
	}

	logger := observability.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting PDF text removal process...")
	opts, err := cfg.StripOptions(logger)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *ocrAudit {
		client, err := ocr.New()
		if err != nil {
			logger.Warn("OCR audit unavailable", observability.Error(err))
		} else {
			defer client.Close()
			opts = append(opts, textstrip.WithOCRAudit(client))
		}
	}

	result, err := textstrip.StripFile(ctx, cfg.Input, cfg.Output, opts...)
	if err != nil {
		logger.Error("Text removal failed", observability.Error(err))
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn(w.Message, observability.Int("page", w.Page))
	}
	logger.Info("Output saved as", observability.String("path", cfg.Output))
	if result.Failed() {
		return fmt.Errorf("%d page(s) could not be processed, first: %w", len(result.Failures), result.Failures[0])
	}
	return nil
}

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: textstrip inspect [-format text|json|html] file.pdf\n")
		fs.PrintDefaults()
	}
	format := fs.String("format", "text", "output format: text, json or html")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: missing pdf path", errUsage)
	}
	f, err := report.ParseFormat(*format)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	doc, err := document.Open(fs.Arg(0))
	if err != nil {
		return &textstrip.OpenError{Path: fs.Arg(0), Err: err}
	}
	defer doc.Close()

	r, err := report.Build(doc)
	if err != nil {
		return err
	}
	return r.Write(stdout, f)
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f commonFlags
	f.register(fs)
	port := fs.String("port", "", "listen port (default from config, PORT or 8080)")
	tempDir := fs.String("temp-dir", "", "directory for uploads in progress")
	maxSize := fs.Int64("max-file-size", 0, "upload limit in bytes")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *tempDir != "" {
		cfg.Server.TempDir = *tempDir
	}
	if *maxSize > 0 {
		cfg.Server.MaxFileSize = *maxSize
	}

	logger := observability.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	opts, err := cfg.StripOptions(logger)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	s := api.NewServer(&api.Config{
		Port:        cfg.Server.Port,
		MaxFileSize: cfg.Server.MaxFileSize,
		TempDir:     cfg.Server.TempDir,
	}, logger, opts...)
	srv := s.HTTPServer()

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			observability.String("addr", srv.Addr),
			observability.Any("max_file_size", cfg.Server.MaxFileSize),
			observability.String("temp_dir", cfg.Server.TempDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), api.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exited gracefully")
	return nil
}

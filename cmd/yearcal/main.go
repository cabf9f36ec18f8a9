package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"yearcal/internal/capture"
	"yearcal/internal/config"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
	"yearcal/internal/render"
	"yearcal/internal/schedule"
	"yearcal/internal/web"
)

const usage = `Usage:
  yearcal [-config path] [-ics out.ics] [-png out.png] [-debug] <input.json|input.yaml>
  yearcal serve [-config path] [-listen addr] [-debug] <input>
  yearcal import-ics -year N [-title T] [-tz zone] [-cache dir] [-debug] <file|url>
`

// errUsage marks argument errors; main prints the usage text for them.
var errUsage = errors.New("invalid arguments")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		appLog.Error("yearcal failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			return runServe(ctx, args[1:])
		case "import-ics":
			return runImport(ctx, args[1:], stdout)
		}
	}
	return runRender(ctx, args, stdout)
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath string
	debug      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to YAML config file (defaults are used if empty)")
	fs.BoolVar(&c.debug, "debug", false, "Enable debug logging")
}

// setup loads the config and applies its log level.
func (c *commonFlags) setup() (*config.Config, error) {
	conf, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", c.configPath, err)
	}
	level := appLog.ParseLevel(conf.LogLevel)
	if c.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)
	return conf, nil
}

func parse(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: expected exactly one input, got %d", errUsage, fs.NArg())
	}
	return fs.Arg(0), nil
}

func runRender(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common  commonFlags
		icsPath string
		pngPath string
	)
	fs := flag.NewFlagSet("yearcal", flag.ContinueOnError)
	common.register(fs)
	fs.StringVar(&icsPath, "ics", "", "Also write the marked days as an iCalendar file")
	fs.StringVar(&pngPath, "png", "", "Also write a PNG screenshot (requires Chromium)")

	inputPath, err := parse(fs, args)
	if err != nil {
		return err
	}
	conf, err := common.setup()
	if err != nil {
		return err
	}

	in, err := model.LoadInput(inputPath)
	if err != nil {
		return err
	}
	entries, err := schedule.Build(in.Year, in.Events)
	if err != nil {
		return err
	}
	doc, err := render.Build(render.OptionsFromConfig(conf), in, entries)
	if err != nil {
		return err
	}
	html := doc.String()

	appLog.Debug("rendered calendar", "input", inputPath, "days", len(entries), "bytes", len(html))

	// Side outputs go first so a failure leaves stdout untouched.
	if icsPath != "" {
		body := ics.Export(in, entries, time.Now())
		if err := os.WriteFile(icsPath, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write ics: %w", err)
		}
		appLog.Info("wrote iCalendar", "path", icsPath)
	}

	if pngPath != "" {
		err := capture.CapturePNG(ctx, capture.Options{
			HTML:       html,
			OutputPath: pngPath,
			Width:      conf.Capture.Width,
			Height:     conf.Capture.Height,
			Timeout:    conf.CaptureTimeout(),
		})
		if err != nil {
			return err
		}
	}

	if _, err := doc.WriteTo(stdout); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout)
	return err
}

func runServe(ctx context.Context, args []string) error {
	var (
		common commonFlags
		listen string
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common.register(fs)
	fs.StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")

	inputPath, err := parse(fs, args)
	if err != nil {
		return err
	}
	conf, err := common.setup()
	if err != nil {
		return err
	}
	if listen != "" {
		conf.Listen = listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"head_assets", len(conf.Head),
		"basic_auth", conf.BasicAuthEnabled(),
		"preview", conf.Capture.PreviewPath,
	)

	srv := web.NewServer(conf, inputPath)
	if err := srv.Reload(); err != nil {
		return err
	}
	return srv.Run(ctx)
}

func runImport(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		common   commonFlags
		year     int
		title    string
		tz       string
		cacheDir string
	)
	fs := flag.NewFlagSet("import-ics", flag.ContinueOnError)
	common.register(fs)
	fs.IntVar(&year, "year", 0, "Calendar year to import (required)")
	fs.StringVar(&title, "title", "", "Calendar title")
	fs.StringVar(&tz, "tz", "", "IANA timezone for day boundaries (defaults to config timezone)")
	fs.StringVar(&cacheDir, "cache", "", "Directory for the HTTP feed cache")

	src, err := parse(fs, args)
	if err != nil {
		return err
	}
	if year == 0 {
		return fmt.Errorf("%w: -year is required", errUsage)
	}
	conf, err := common.setup()
	if err != nil {
		return err
	}
	if tz == "" {
		tz = conf.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", tz, err)
	}
	if title == "" {
		title = strconv.Itoa(year)
	}

	in, err := ics.Import(ctx, ics.NewFetcher(cacheDir), ics.ImportOptions{
		Source:   src,
		Year:     year,
		Title:    title,
		Location: loc,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(in)
}

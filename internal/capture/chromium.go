package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"yearcal/internal/config"
	appLog "yearcal/internal/log"
)

// readySelector matches the body attribute the renderer sets.
const readySelector = `body[data-ready="true"]`

// Options defines one PNG capture. Zero sizes and timeout fall back to the
// config defaults; the height only sets the initial viewport, the
// screenshot always covers the full page.
type Options struct {
	// HTML is a rendered document. It is written to a temporary file and
	// loaded from there.
	HTML string

	OutputPath string

	Width   int
	Height  int
	Timeout time.Duration
}

func (o *Options) normalize() error {
	if o.HTML == "" {
		return errors.New("capture: HTML is required")
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = config.DefaultCaptureWidth
	}
	if o.Height <= 0 {
		o.Height = config.DefaultCaptureHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = config.DefaultCaptureTimeout * time.Second
	}
	return nil
}

// CapturePNG loads the page in headless Chromium, waits until the calendar
// body reports data-ready="true" and writes a full-page PNG screenshot.
func CapturePNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "yearcal-capture-*")
	if err != nil {
		return fmt.Errorf("capture: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	page := filepath.Join(dir, "calendar.html")
	if err := os.WriteFile(page, []byte(opts.HTML), 0o600); err != nil {
		return fmt.Errorf("capture: write page: %w", err)
	}
	target := "file://" + filepath.ToSlash(page)

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	appLog.Info("capture start", "width", opts.Width, "height", opts.Height, "output", opts.OutputPath)

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(target),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Give linked stylesheets a moment to apply.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("capture done", "output", opts.OutputPath, "bytes", len(png))
	return nil
}

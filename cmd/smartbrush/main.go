package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gioui.org/app"
	"github.com/esimov/smartbrush"
	"github.com/esimov/smartbrush/assets"
	"github.com/esimov/smartbrush/compose"
	"github.com/esimov/smartbrush/config"
	"github.com/esimov/smartbrush/history"
	"github.com/esimov/smartbrush/imop"
	"github.com/esimov/smartbrush/telemetry"
	"github.com/esimov/smartbrush/utils"
)

const HelpBanner = `
┌─┐┌┬┐┌─┐┬─┐┌┬┐┌┐ ┬─┐┬ ┬┌─┐┬ ┬
└─┐│││├─┤├┬┘ │ ├┴┐├┬┘│ │└─┐├─┤
└─┘┴ ┴┴ ┴┴└─ ┴ └─┘┴└─└─┘└─┘┴ ┴

Paint an edit mask over a listing photo and compose the edit.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image: file, http(s) URL, gs:// URI or - for stdin")
	maskOut     = flag.String("mask", "", "Write the grayscale mask png (- for stdout)")
	previewOut  = flag.String("preview", "", "Write the composited preview (- for stdout)")
	strokes     = flag.String("strokes", "", "JSON stroke script to replay")
	instruction = flag.String("prompt", "", "Edit instruction")
	interactive = flag.Bool("gui", false, "Open the brush editor")
	submit      = flag.Bool("submit", false, "Submit the edit without opening the editor")
	upload      = flag.Bool("upload", false, "Upload a local source before submitting")
	brushSize   = flag.Float64("brush", smartbrush.DefaultBrush.Size, "Brush diameter in canvas pixels")
	brushAlpha  = flag.Float64("opacity", smartbrush.DefaultBrush.Opacity, "Brush opacity")
	feather     = flag.Int("feather", 0, "Feather radius applied to the exported mask")
	blendMode   = flag.String("blend", "", "Blend mode of the mask tint: darken, lighten, multiply, screen, overlay")
	cascade     = flag.String("cc", "", "Cascade classifier used to mask faces")
	faceAngle   = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	maxWidth    = flag.Int("width", 0, "Maximum canvas width (overrides SMARTBRUSH_MAX_WIDTH)")
	orgID       = flag.Int("org", 0, "Organisation id (overrides SMARTBRUSH_ORG_ID)")
	verbose     = flag.Bool("v", false, "Verbose logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	smartbrush.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		fatal("Invalid configuration: %v", err)
	}
	if *maxWidth > 0 {
		cfg.MaxWidth = *maxWidth
	}
	if *orgID > 0 {
		cfg.OrgID = *orgID
	}
	if *submit && *interactive {
		fatal("Use either -gui or -submit: %v", fmt.Errorf("both flags are set"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "smartbrush", cfg.OTelEndpoint)
	if err != nil {
		fatal("Unable to set up tracing: %v", err)
	}
	flush := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Warn("tracing shutdown", "error", err)
		}
	}
	defer flush()

	painter, err := newPainter(cfg)
	if err != nil {
		fatal("Invalid painter settings: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	runner := &smartbrush.Runner{
		Painter:  painter,
		OrgID:    cfg.OrgID,
		Composer: compose.NewClient(cfg.APIBase, httpClient),
		Assets:   assets.NewClient(cfg.APIBase, httpClient),
		HTTP:     httpClient,
	}

	var store *history.Store
	if cfg.HistoryPath != "" {
		store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			fatal("Unable to open the history database: %v", err)
		}
		defer store.Close()
		runner.History = store
	}

	if *submit {
		spinnerText := fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ SMARTBRUSH", utils.StatusMessage),
			utils.DecorateText("is composing the edit...", utils.DefaultMessage))
		runner.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*200, true)
		defer runner.Spinner.RestoreCursor()
	}

	op := &smartbrush.Ops{
		Src:         *source,
		PipeName:    pipeName,
		MaskOut:     *maskOut,
		PreviewOut:  *previewOut,
		Strokes:     *strokes,
		Cascade:     *cascade,
		FaceAngle:   *faceAngle,
		Instruction: *instruction,
		Upload:      *upload,
		Submit:      *submit,
		Interactive: *interactive,
	}

	if !*interactive {
		if err := runner.Execute(ctx, op); err != nil {
			fatal("Error executing the command: %v", err)
		}
		return
	}

	// The window event loop must own the main goroutine. os.Exit skips the
	// deferred calls, so the resources are released before leaving.
	go func() {
		err := runner.Execute(ctx, op)
		store.Close()
		flush()
		stop()
		os.Exit(exitCode(err))
	}()
	app.Main()
}

func newPainter(cfg config.Config) (*smartbrush.Painter, error) {
	p := smartbrush.NewPainter()
	p.MaxWidth = cfg.MaxWidth
	p.TintScale = cfg.TintScale
	p.Feather = *feather

	tint, err := utils.HexToRGBA(cfg.Tint)
	if err != nil {
		return nil, err
	}
	p.Tint = tint

	p.Brush = smartbrush.Brush{Size: *brushSize, Opacity: *brushAlpha}.Clamp()

	if *blendMode != "" {
		blend := imop.NewBlend()
		if err := blend.Set(*blendMode); err != nil {
			return nil, err
		}
		p.Blend = blend
	}
	return p, nil
}

func exitCode(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n",
			utils.DecorateText("Error executing the command:", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
		return 1
	}
	return 0
}

func fatal(format string, err error) {
	log.Fatalf(
		utils.DecorateText(format, utils.ErrorMessage),
		utils.DecorateText(err.Error(), utils.DefaultMessage),
	)
}

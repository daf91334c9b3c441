package smartbrush

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esimov/smartbrush/compose"
	"github.com/esimov/smartbrush/history"
	"github.com/esimov/smartbrush/utils"
	"golang.org/x/term"
)

// Ops describes one run of the command line tool.
type Ops struct {
	// Src is a local path, an http(s) URL, a gs:// URI or PipeName for stdin.
	Src      string
	PipeName string

	MaskOut    string // grayscale mask png; PipeName writes to stdout
	PreviewOut string // composited canvas; the extension selects the encoder
	Strokes    string // JSON stroke script replayed before anything else
	Cascade    string // pigo face classifier, masks every detected face
	FaceAngle  float64

	Instruction string
	Upload      bool // upload a local source so the request carries a gs:// URI
	Submit      bool
	Interactive bool
}

// AssetStore uploads sources and resolves storage URIs. *assets.Client implements it.
type AssetStore interface {
	Upload(ctx context.Context, orgID int, contentType string, body io.Reader) (string, error)
	ViewURL(ctx context.Context, gcsURI string) (string, error)
}

// JobRecorder keeps a ledger of submissions. *history.Store implements it.
type JobRecorder interface {
	Create(ctx context.Context, job history.Job) (int64, error)
	Complete(ctx context.Context, id int64, out history.Output) error
	Fail(ctx context.Context, id int64, reason string) error
}

// Runner wires the painter to the remote services for the command line tool.
type Runner struct {
	Painter  *Painter
	OrgID    int
	Composer Composer
	Assets   AssetStore
	History  JobRecorder
	HTTP     *http.Client
	Spinner  *utils.Spinner
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// Execute loads the source, applies the automatic and scripted strokes,
// optionally opens the editor or submits the edit, then writes the outputs.
func (r *Runner) Execute(ctx context.Context, op *Ops) error {
	r.defaults()
	now := time.Now()

	uri, err := r.loadSource(ctx, op)
	if err != nil {
		return err
	}

	if op.Cascade != "" {
		cascade, err := os.ReadFile(op.Cascade)
		if err != nil {
			return fmt.Errorf("could not read the face classifier: %w", err)
		}
		opts := DefaultFaceOptions
		opts.Angle = op.FaceAngle
		n, err := r.Painter.MaskFaces(cascade, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Stderr, "%s %s\n",
			utils.DecorateText("⚡ SMARTBRUSH", utils.StatusMessage),
			utils.DecorateText(fmt.Sprintf("⇢ %d face(s) masked", n), utils.DefaultMessage),
		)
	}

	if op.Strokes != "" {
		if err := r.replay(op.Strokes); err != nil {
			return err
		}
	}

	session := NewSession(r.Painter, r.OrgID)
	composer := r.composer()

	switch {
	case op.Interactive:
		editor := NewEditor(session, composer, op.Instruction)
		editor.OnResult = func(res compose.Result, err error) {
			r.printResult(res, err)
		}
		if err := editor.Run(ctx); err != nil {
			return err
		}
	case op.Submit:
		if err := r.submit(ctx, session, composer, op.Instruction); err != nil {
			return err
		}
	}

	if err := r.writeOutputs(op); err != nil {
		return err
	}
	Logger().Debug("run finished", "source", uri, "elapsed", time.Since(now))
	fmt.Fprintf(r.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))

	return nil
}

func (r *Runner) defaults() {
	if r.Painter == nil {
		r.Painter = NewPainter()
	}
	if r.Stdin == nil {
		r.Stdin = os.Stdin
	}
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
}

// loadSource decodes the source image into the painter and returns the URI
// that identifies it in the compose request.
func (r *Runner) loadSource(ctx context.Context, op *Ops) (string, error) {
	var (
		uri  = op.Src
		data []byte
		err  error
	)

	switch {
	case strings.HasPrefix(op.Src, "gs://"):
		if r.Assets == nil {
			return "", errors.New("gs:// sources need the asset service")
		}
		view, err := r.Assets.ViewURL(ctx, op.Src)
		if err != nil {
			return "", err
		}
		data, err = utils.DownloadImage(ctx, r.HTTP, view)
		if err != nil {
			return "", err
		}
	case utils.IsValidUrl(op.Src):
		data, err = utils.DownloadImage(ctx, r.HTTP, op.Src)
		if err != nil {
			return "", err
		}
	case op.Src == op.PipeName:
		if f, ok := r.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "", errors.New("`-` should be used with a pipe for stdin")
		}
		data, err = io.ReadAll(r.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read the source from stdin: %w", err)
		}
		uri = "stdin"
	default:
		data, err = os.ReadFile(op.Src)
		if err != nil {
			return "", fmt.Errorf("unable to open the source file: %w", err)
		}
		uri, err = filepath.Abs(op.Src)
		if err != nil {
			return "", err
		}
	}

	img, err := DecodeImageBytes(data)
	if err != nil {
		return "", err
	}

	if op.Upload && !strings.HasPrefix(op.Src, "gs://") {
		if r.Assets == nil {
			return "", errors.New("upload needs the asset service")
		}
		uri, err = r.Assets.Upload(ctx, r.OrgID, http.DetectContentType(data), bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(r.Stderr, "%s %s\n",
			utils.DecorateText("⚡ SMARTBRUSH", utils.StatusMessage),
			utils.DecorateText("⇢ uploaded as "+uri, utils.DefaultMessage),
		)
	}

	if err := r.Painter.SetSource(uri, img); err != nil {
		return "", err
	}
	return uri, nil
}

func (r *Runner) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open the stroke script: %w", err)
	}
	defer f.Close()

	strokes, err := ReadStrokes(f)
	if err != nil {
		return err
	}
	return r.Painter.Replay(strokes)
}

// composer wraps the configured composer with the job ledger, when there is one.
func (r *Runner) composer() Composer {
	if r.History == nil {
		return r.Composer
	}
	return recordingComposer{Composer: r.Composer, store: r.History}
}

func (r *Runner) submit(ctx context.Context, s *Session, c Composer, instruction string) error {
	if c == nil {
		return errors.New("no compose service configured")
	}
	successMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ SMARTBRUSH", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the edit has been composed ✔", utils.SuccessMessage),
	)
	errorMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ SMARTBRUSH", utils.StatusMessage),
		utils.DecorateText("composing the edit failed...", utils.DefaultMessage),
		utils.DecorateText("✘", utils.ErrorMessage),
	)

	if r.Spinner != nil {
		r.Spinner.Start()
	}
	res, err := s.Submit(ctx, c, instruction)
	if r.Spinner != nil {
		r.Spinner.StopMsg = successMsg
		if err != nil {
			r.Spinner.StopMsg = errorMsg
		}
		r.Spinner.Stop()
	}
	if err != nil {
		return err
	}
	r.printResult(res, nil)
	return nil
}

func (r *Runner) printResult(res compose.Result, err error) {
	if err != nil {
		fmt.Fprintf(r.Stderr, "%s %s\n",
			utils.DecorateText("\nSmart edit failed:", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
		return
	}
	fmt.Fprintf(r.Stderr, "\nImage: %s\n", utils.DecorateText(res.ImageURL, utils.SuccessMessage))
	if res.Caption != "" {
		fmt.Fprintf(r.Stderr, "Caption: %s\n", res.Caption)
	}
	for _, fact := range res.Facts {
		fmt.Fprintf(r.Stderr, "  • %s\n", fact)
	}
	if res.CTA != "" {
		fmt.Fprintf(r.Stderr, "CTA: %s\n", res.CTA)
	}
}

func (r *Runner) writeOutputs(op *Ops) error {
	if op.MaskOut != "" {
		err := r.withDest(op, op.MaskOut, func(w io.Writer) error {
			return r.Painter.ExportMaskPNG(w)
		})
		if err != nil {
			return err
		}
		r.printSaved(op, op.MaskOut)
	}
	if op.PreviewOut != "" {
		ext := filepath.Ext(op.PreviewOut)
		if op.PreviewOut == op.PipeName {
			ext = ".png"
		}
		err := r.withDest(op, op.PreviewOut, func(w io.Writer) error {
			return EncodeImage(w, r.Painter.Display(), ext)
		})
		if err != nil {
			return err
		}
		r.printSaved(op, op.PreviewOut)
	}
	return nil
}

// withDest opens the destination, a regular file or the stdout pipe, and hands it to write.
// A partially written file is removed on failure.
func (r *Runner) withDest(op *Ops, dst string, write func(io.Writer) error) error {
	if dst == op.PipeName {
		if f, ok := r.Stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return write(r.Stdout)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}

func (r *Runner) printSaved(op *Ops, fname string) {
	if fname == op.PipeName {
		return
	}
	fmt.Fprintf(r.Stderr, "\nThe image has been saved as: %s %s\n",
		utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
		utils.DefaultColor,
	)
}

// recordingComposer records every compose call in the job ledger.
// Ledger failures are logged and never fail the edit itself.
type recordingComposer struct {
	Composer
	store JobRecorder
}

func (rc recordingComposer) Compose(ctx context.Context, req compose.Request) (compose.Result, error) {
	id, err := rc.store.Create(ctx, history.Job{
		OrgID:       req.OrgID,
		Kind:        history.KindSmartEdit,
		SourceURI:   req.RoomImageGCS,
		Instruction: req.EditInstruction,
		MaskBytes:   len(req.MaskData),
	})
	if err != nil {
		Logger().Warn("could not record the job", "error", err)
	}

	res, cerr := rc.Composer.Compose(ctx, req)
	if id == 0 {
		return res, cerr
	}
	if cerr != nil {
		err = rc.store.Fail(ctx, id, cerr.Error())
	} else {
		err = rc.store.Complete(ctx, id, history.Output{
			ImageURL: res.ImageURL,
			Caption:  res.Caption,
			Facts:    res.Facts,
			CTA:      res.CTA,
		})
	}
	if err != nil {
		Logger().Warn("could not update the job", "id", id, "error", err)
	}
	return res, cerr
}

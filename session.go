package smartbrush

import (
	"context"
	"errors"
	"strings"

	"github.com/esimov/smartbrush/compose"
)

// State is the phase of an editing session.
type State int

const (
	Idle State = iota
	Ready
	Stroking
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Stroking:
		return "stroking"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

var (
	ErrNoSource      = errors.New("no source image loaded")
	ErrNoInstruction = errors.New("please describe the edit")
	ErrStroking      = errors.New("a stroke is still in progress")
	ErrProcessing    = errors.New("an edit is already being processed")
	ErrEmptyMask     = errors.New("please paint the area to edit")
)

// Composer sends a compose request. *compose.Client implements it.
type Composer interface {
	Compose(ctx context.Context, req compose.Request) (compose.Result, error)
}

// Session pairs a painter with the submission state of a masked edit.
// Like the painter it is owned by a single goroutine.
type Session struct {
	Painter *Painter
	OrgID   int

	processing bool
	result     *compose.Result
	err        error
}

// NewSession returns an idle session for p.
func NewSession(p *Painter, orgID int) *Session {
	return &Session{Painter: p, OrgID: orgID}
}

// State reports the current phase. Submitting takes precedence over stroking
// since painting stays enabled while a request is in flight.
func (s *Session) State() State {
	switch {
	case s.processing:
		return Submitting
	case s.Painter == nil || !s.Painter.Ready():
		return Idle
	case s.Painter.Stroking():
		return Stroking
	}
	return Ready
}

// Processing reports whether a submission is in flight.
func (s *Session) Processing() bool { return s.processing }

// Result returns the last successful compose result.
func (s *Session) Result() (compose.Result, bool) {
	if s.result == nil {
		return compose.Result{}, false
	}
	return *s.result, true
}

// Err returns the error of the last submission, if any.
func (s *Session) Err() error { return s.err }

// BeginSubmit validates the session and builds the compose request.
// Nothing is sent and no state changes unless every precondition holds.
// On success the session is marked as processing and the previous result is discarded.
func (s *Session) BeginSubmit(instruction string) (compose.Request, error) {
	p := s.Painter
	switch {
	case p == nil || !p.Ready():
		return compose.Request{}, ErrNoSource
	case strings.TrimSpace(instruction) == "":
		return compose.Request{}, ErrNoInstruction
	case p.Stroking():
		return compose.Request{}, ErrStroking
	case s.processing:
		return compose.Request{}, ErrProcessing
	}

	mask, err := p.ExportMask()
	if err != nil {
		return compose.Request{}, err
	}
	if mask == "" || p.IsBlank() {
		return compose.Request{}, ErrEmptyMask
	}

	s.processing = true
	s.result = nil
	s.err = nil

	return compose.Request{
		Prompt:          instruction,
		CompositionType: compose.SmartEdit,
		RoomImageGCS:    p.URI(),
		MaskData:        mask,
		EditInstruction: instruction,
		OrgID:           s.OrgID,
	}, nil
}

// FinishSubmit records the outcome of a submission and clears the processing flag.
// The painter is left as is, so a failed edit can be retried with the same mask.
func (s *Session) FinishSubmit(res compose.Result, err error) {
	s.processing = false
	if err != nil {
		s.err = err
		Logger().Error("smart edit failed", "error", err)
		return
	}
	s.result = &res
	Logger().Info("smart edit complete", "image_url", res.ImageURL)
}

// Submit runs a blocking compose call between BeginSubmit and FinishSubmit.
// Precondition errors are returned without contacting the composer.
func (s *Session) Submit(ctx context.Context, c Composer, instruction string) (compose.Result, error) {
	req, err := s.BeginSubmit(instruction)
	if err != nil {
		return compose.Result{}, err
	}
	Logger().Debug("submitting smart edit",
		"source", req.RoomImageGCS,
		"org_id", req.OrgID,
		"mask_bytes", len(req.MaskData),
	)
	res, err := c.Compose(ctx, req)
	s.FinishSubmit(res, err)

	return res, err
}

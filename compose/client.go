// Package compose is a client for the listing composition service.
package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// SmartEdit is the composition type of a masked edit request.
const SmartEdit = "smart_edit"

const composePath = "/nlp/compose"

// Request is the body of a compose call.
type Request struct {
	Prompt          string `json:"prompt"`
	CompositionType string `json:"composition_type"`
	RoomImageGCS    string `json:"room_image_gcs"`
	MaskData        string `json:"mask_data"`
	EditInstruction string `json:"edit_instruction"`
	OrgID           int    `json:"org_id"`
}

// Result is the decoded compose response.
type Result struct {
	ImageURL string   `json:"image_url"`
	Caption  string   `json:"caption"`
	Facts    []string `json:"facts"`
	CTA      string   `json:"cta"`
}

// StatusError is returned for non-2xx responses. The response body is not inspected.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("compose failed: %d", e.Code)
}

// Client posts compose requests to a service base URL.
type Client struct {
	base   string
	http   *http.Client
	tracer trace.Tracer
}

// NewClient returns a client for base, e.g. "http://localhost:8080".
// A nil httpClient means http.DefaultClient.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   httpClient,
		tracer: otel.Tracer("github.com/esimov/smartbrush/compose"),
	}
}

// Compose sends req and decodes the result. It blocks until the service answers
// or ctx is done; no retries are attempted.
func (c *Client) Compose(ctx context.Context, req Request) (res Result, err error) {
	ctx, span := c.tracer.Start(ctx, "compose.Compose", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("compose.type", req.CompositionType),
		attribute.Int("compose.org_id", req.OrgID),
		attribute.Int("compose.mask_bytes", len(req.MaskData)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return res, fmt.Errorf("could not encode compose request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+composePath, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("could not build compose request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return res, fmt.Errorf("compose request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return res, &StatusError{Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("could not decode compose response: %w", err)
	}
	return res, nil
}

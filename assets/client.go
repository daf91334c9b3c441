// Package assets uploads listing photos through signed storage URLs.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultContentType is requested when the caller does not know the upload's mime type.
const DefaultContentType = "image/jpeg"

// maxErrorBody limits how much of a failed response is kept in a StatusError.
const maxErrorBody = 1 << 10

// ErrInvalidURI is returned for storage URIs that are not of the form gs://bucket/path.
var ErrInvalidURI = errors.New("gcs_uri must be in form gs://bucket/path")

// SignedUpload is a short lived upload target and the storage URI the object will have.
type SignedUpload struct {
	URL    string `json:"url"`
	GCSURI string `json:"gcs_uri"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s failed: %d %s", e.Op, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += " " + e.Body
	}
	return msg
}

// Client talks to the asset endpoints of the API.
type Client struct {
	base   string
	http   *http.Client
	tracer trace.Tracer
}

// NewClient returns a client for base. A nil httpClient means http.DefaultClient.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   httpClient,
		tracer: otel.Tracer("github.com/esimov/smartbrush/assets"),
	}
}

// ParseGCSURI splits gs://bucket/path into its bucket and object path.
func ParseGCSURI(uri string) (bucket, path string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", ErrInvalidURI
	}
	bucket, path, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || path == "" {
		return "", "", ErrInvalidURI
	}
	return bucket, path, nil
}

// UploadURL requests a signed PUT url for a new object owned by orgID.
func (c *Client) UploadURL(ctx context.Context, orgID int, contentType string) (SignedUpload, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}
	q := url.Values{}
	q.Set("org_id", strconv.Itoa(orgID))
	q.Set("content_type", contentType)

	var out SignedUpload
	err := c.getJSON(ctx, "upload-url", "/assets/upload-url?"+q.Encode(), &out)
	return out, err
}

// ViewURL resolves a storage URI into a signed GET url. Malformed URIs are
// rejected before any request is made.
func (c *Client) ViewURL(ctx context.Context, gcsURI string) (string, error) {
	if _, _, err := ParseGCSURI(gcsURI); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("gcs_uri", gcsURI)

	var out struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, "view-url", "/assets/view-url?"+q.Encode(), &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Put uploads body to a signed url.
func (c *Client) Put(ctx context.Context, signedURL, contentType string, body io.Reader) (err error) {
	ctx, span := c.tracer.Start(ctx, "assets.Put", trace.WithSpanKind(trace.SpanKindClient))
	defer endSpan(span, &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return fmt.Errorf("could not build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus("PUT", resp)
}

// Upload requests a signed url for orgID and uploads body to it.
// It returns the storage URI of the uploaded object.
func (c *Client) Upload(ctx context.Context, orgID int, contentType string, body io.Reader) (string, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}
	target, err := c.UploadURL(ctx, orgID, contentType)
	if err != nil {
		return "", err
	}
	if err := c.Put(ctx, target.URL, contentType, body); err != nil {
		return "", err
	}
	return target.GCSURI, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, v any) (err error) {
	ctx, span := c.tracer.Start(ctx, "assets."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer endSpan(span, &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("could not build %s request: %w", op, err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("could not decode %s response: %w", op, err)
	}
	return nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}

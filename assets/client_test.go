package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssets_ParseGCSURI(t *testing.T) {
	bucket, path, err := ParseGCSURI("gs://raw-listings/org_1/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "raw-listings", bucket)
	assert.Equal(t, "org_1/abc.jpg", path)

	for _, bad := range []string{"", "https://x/y", "gs://", "gs://bucket", "gs://bucket/", "gs:///path"} {
		_, _, err := ParseGCSURI(bad)
		assert.ErrorIs(t, err, ErrInvalidURI, bad)
	}
}

func TestAssets_UploadChainsSignedPut(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/assets/upload-url":
			assert.Equal(t, "7", r.URL.Query().Get("org_id"))
			assert.Equal(t, "image/png", r.URL.Query().Get("content_type"))
			_, _ = io.WriteString(w, `{"url":"`+srv.URL+`/signed/put","gcs_uri":"gs://raw/org_7/x.jpg"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/signed/put":
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "pixels", string(body))
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	uri, err := NewClient(srv.URL, srv.Client()).Upload(context.Background(), 7, "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "gs://raw/org_7/x.jpg", uri)
}

func TestAssets_UploadURLDefaultsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultContentType, r.URL.Query().Get("content_type"))
		_, _ = io.WriteString(w, `{"url":"https://signed","gcs_uri":"gs://raw/a.jpg"}`)
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, nil).UploadURL(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, SignedUpload{URL: "https://signed", GCSURI: "gs://raw/a.jpg"}, out)
}

func TestAssets_ViewURL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/assets/view-url", r.URL.Path)
		assert.Equal(t, "gs://raw/org_1/a.jpg", r.URL.Query().Get("gcs_uri"))
		_, _ = io.WriteString(w, `{"url":"https://storage.example.com/a.jpg?sig=1"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	got, err := c.ViewURL(context.Background(), "gs://raw/org_1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/a.jpg?sig=1", got)

	_, err = c.ViewURL(context.Background(), "s3://raw/a.jpg")
	assert.ErrorIs(t, err, ErrInvalidURI)
	assert.Equal(t, int32(1), calls.Load(), "malformed uris must not reach the server")
}

func TestAssets_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "GCP credentials not configured", http.StatusNotImplemented)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).UploadURL(context.Background(), 1, "image/jpeg")
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotImplemented, status.Code)
	assert.Equal(t, "upload-url failed: 501 Not Implemented GCP credentials not configured", err.Error())

	err = NewClient(srv.URL, nil).Put(context.Background(), srv.URL+"/signed", "image/jpeg", strings.NewReader("x"))
	require.True(t, errors.As(err, &status))
	assert.Equal(t, "PUT", status.Op)
}

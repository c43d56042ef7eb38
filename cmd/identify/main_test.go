package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeImage(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaf.png")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestIdentifyCommand_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identify":
			_, _ = w.Write([]byte(`{"name":"Rose","scientificName":"Rosa","description":"Shrub","confidence":90,` +
				`"imageUrl":"https://via.placeholder.com/300","confidenceSynthetic":true,"provider":"gemini"}`))
		case "/care-instructions":
			_, _ = w.Write([]byte(`[{"title":"Watering Needs","description":"Weekly","icon":"Droplet","tooltip":"Moist"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	stdout, _, err := execute(t, "--server", srv.URL, writeImage(t, pngMagic))

	require.NoError(t, err)
	assert.Contains(t, stdout, "Rose")
	assert.Contains(t, stdout, "90% (estimated)")
	assert.Contains(t, stdout, "Watering Needs")
}

func TestIdentifyCommand_CareFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/identify" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Rose","confidence":90}`))
	}))
	defer srv.Close()

	stdout, _, err := execute(t, "--server", srv.URL, writeImage(t, pngMagic))

	require.NoError(t, err)
	assert.Contains(t, stdout, "Sunlight Requirements")
}

func TestIdentifyCommand_RejectedLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, stderr, err := execute(t, "--server", srv.URL, "--max-size", "4", writeImage(t, pngMagic))

	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "Cannot use this image")
	assert.Zero(t, hits.Load())
}

func TestIdentifyCommand_UnreadableImageIsNotAValidationProblem(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	path := writeImage(t, pngMagic)
	require.NoError(t, os.Chmod(path, 0o000))

	_, stderr, err := execute(t, "--server", srv.URL, path)

	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "please try again")
	assert.NotContains(t, stderr, "Cannot use this image")
	assert.Zero(t, hits.Load())
}

func TestIdentifyCommand_ServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to identify plant","kind":"transport"}`))
	}))
	defer srv.Close()

	_, stderr, err := execute(t, "--server", srv.URL, writeImage(t, pngMagic))

	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "please try again: Failed to identify plant")
}

func TestIdentifyCommand_RequiresOneArg(t *testing.T) {
	_, _, err := execute(t)
	assert.Error(t, err)
}

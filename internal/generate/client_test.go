package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers /api/generate deterministically, splitting the canned
// answer into word-sized fragments when streaming is requested.
func fakeOllama(t *testing.T, answer []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if !req.Stream {
			var full string
			for _, frag := range answer {
				full += frag
			}
			json.NewEncoder(w).Encode(map[string]any{"response": full, "done": true})
			return
		}

		enc := json.NewEncoder(w)
		for _, frag := range answer {
			enc.Encode(map[string]any{"response": frag, "done": false})
		}
		enc.Encode(map[string]any{"response": "", "done": true})
	}))
}

func TestGenerate(t *testing.T) {
	srv := fakeOllama(t, []string{"hello ", "world"})
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	out, err := c.Generate(context.Background(), "say hi", Options{Model: "test"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestGenerateStream_AccumulationMatchesGenerate(t *testing.T) {
	srv := fakeOllama(t, []string{"one ", "two ", "three"})
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	opts := Options{Model: "test", Temperature: 0}

	single, err := c.Generate(context.Background(), "count", opts)
	require.NoError(t, err)

	var fragments []string
	streamed, err := c.GenerateStream(context.Background(), "count", opts, func(f string) {
		fragments = append(fragments, f)
	})
	require.NoError(t, err)

	assert.Equal(t, single, streamed)
	assert.Equal(t, []string{"one ", "two ", "three"}, fragments)
}

func TestGenerate_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Generate(context.Background(), "hi", Options{Model: "missing"})
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
	assert.Contains(t, svcErr.Body, "model not found")
}

func TestGenerateStream_PartialFailureRetainsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		fmt.Fprintln(w, `{"response":"partial ","done":false}`)
		fmt.Fprintln(w, `{"response":"answer","done":false}`)
		flusher.Flush()
		// Drop the connection before the final done payload.
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	accumulated, err := c.GenerateStream(context.Background(), "hi", Options{Model: "test"}, nil)
	require.Error(t, err)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "partial answer", streamErr.Partial)
	assert.Equal(t, "partial answer", accumulated)
}

func TestGenerate_ServiceUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	_, err := c.Generate(context.Background(), "hi", Options{Model: "test"})
	require.Error(t, err)

	var svcErr *ServiceError
	assert.False(t, errors.As(err, &svcErr), "connection failures are not service errors")
}

package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ServiceError is a non-success response from the generation service,
// e.g. model not found.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service returned %d: %s", e.StatusCode, e.Body)
}

// StreamError is a stream that terminated before logical completion.
// Partial holds everything accumulated before the failure so callers can
// decide whether a partial answer is usable.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream ended early after %d chars: %v", len(e.Partial), e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Options control one generation call. Zero values mean "let the server
// decide", except Timeout which falls back to the client default.
type Options struct {
	Model       string
	NumPredict  int
	Temperature float64
	TopP        float64
	Timeout     time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model     string          `json:"model"`
	Prompt    string          `json:"prompt"`
	Stream    bool            `json:"stream"`
	KeepAlive string          `json:"keep_alive,omitempty"`
	Options   generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends prompt and returns the complete response in one shot.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, cancel, err := c.post(ctx, prompt, opts, false)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	return out.Response, nil
}

// GenerateStream sends prompt and consumes the line-delimited streamed
// response, calling onFragment for every incremental piece. The returned
// string is the accumulation of all fragments and equals what Generate
// would return for the same inputs. If the stream dies mid-way the error
// is a *StreamError retaining the partial text.
func (c *Client) GenerateStream(ctx context.Context, prompt string, opts Options, onFragment func(string)) (string, error) {
	resp, cancel, err := c.post(ctx, prompt, opts, true)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer resp.Body.Close()

	var accumulated strings.Builder
	done := false
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return accumulated.String(), &StreamError{Partial: accumulated.String(), Err: err}
		}

		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			var chunk generateResponse
			if jsonErr := json.Unmarshal([]byte(trimmed), &chunk); jsonErr != nil {
				log.Warn().Err(jsonErr).Msg("Skipping malformed stream line")
			} else {
				if chunk.Response != "" {
					accumulated.WriteString(chunk.Response)
					if onFragment != nil {
						onFragment(chunk.Response)
					}
				}
				if chunk.Done {
					done = true
					break
				}
			}
		}

		if err == io.EOF {
			break
		}
	}

	// Connection closed without the final done payload: the server never
	// finished the answer.
	if !done {
		return accumulated.String(), &StreamError{
			Partial: accumulated.String(),
			Err:     fmt.Errorf("connection closed before completion"),
		}
	}
	return accumulated.String(), nil
}

// post issues the request and hands back a cancel func bound to the
// per-call timeout; the caller must invoke it once the body is consumed.
func (c *Client) post(ctx context.Context, prompt string, opts Options, stream bool) (*http.Response, context.CancelFunc, error) {
	cancel := func() {}
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	payload := generateRequest{
		Model:     opts.Model,
		Prompt:    prompt,
		Stream:    stream,
		KeepAlive: "1s",
		Options: generateOptions{
			NumPredict:  opts.NumPredict,
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("generation service unavailable: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, cancel, nil
}

package judge0

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Judge0 CE instance. Source and test case payloads travel
// base64-encoded both ways so arbitrary bytes survive the JSON transport.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	// pollInterval between batch status polls.
	pollInterval time.Duration
	// maxPolls bounds how long a batch may stay queued before giving up.
	maxPolls int
}

// Submission is one test case execution request.
type Submission struct {
	SourceCode     string
	LanguageID     int
	Stdin          string
	ExpectedOutput string
}

// Status is the Judge0 status object. IDs 1 and 2 mean still queued or
// processing; 3 is Accepted.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is one test case outcome with output fields already decoded.
type Result struct {
	Token  string `json:"token"`
	Status Status `json:"status"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Time   string `json:"time,omitempty"`
	Memory int    `json:"memory,omitempty"`
}

// Accepted reports whether the case passed.
func (r Result) Accepted() bool {
	return r.Status.ID == statusAccepted
}

const (
	statusInQueue    = 1
	statusProcessing = 2
	statusAccepted   = 3
)

// New creates a Judge0 client. An empty apiKey disables the RapidAPI headers
// for self-hosted instances.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		pollInterval: time.Second,
		maxPolls:     20,
	}
}

type batchSubmitRequest struct {
	Submissions []wireSubmission `json:"submissions"`
}

type wireSubmission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type wireResult struct {
	Token  string `json:"token"`
	Status Status `json:"status"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Time   string `json:"time"`
	Memory int    `json:"memory"`
}

type batchGetResponse struct {
	Submissions []wireResult `json:"submissions"`
}

// Execute submits the batch and polls until every case leaves the queue.
// Transport failures never surface as an error or an empty slice: they
// degrade to a single synthetic Error result so grading and the run endpoint
// always have something well-formed to show.
func (c *Client) Execute(ctx context.Context, submissions []Submission) []Result {
	if len(submissions) == 0 {
		return nil
	}

	tokens, err := c.submitBatch(ctx, submissions)
	if err != nil {
		c.logger.Error("judge0 batch submit failed", "error", err)
		return []Result{syntheticError(err)}
	}

	results, err := c.pollBatch(ctx, tokens)
	if err != nil {
		c.logger.Error("judge0 batch poll failed", "error", err)
		return []Result{syntheticError(err)}
	}
	return results
}

func (c *Client) submitBatch(ctx context.Context, submissions []Submission) ([]string, error) {
	wire := make([]wireSubmission, len(submissions))
	for i, s := range submissions {
		wire[i] = wireSubmission{
			SourceCode:     encode(s.SourceCode),
			LanguageID:     s.LanguageID,
			Stdin:          encode(s.Stdin),
			ExpectedOutput: encode(s.ExpectedOutput),
		}
	}

	body, err := json.Marshal(batchSubmitRequest{Submissions: wire})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	endpoint := c.baseURL + "/submissions/batch?base64_encoded=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge0 submit returned %d", resp.StatusCode)
	}

	var tokens []tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Token
	}
	return out, nil
}

func (c *Client) pollBatch(ctx context.Context, tokens []string) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/submissions/batch?tokens=%s&base64_encoded=true&fields=token,status,stdout,stderr,time,memory",
		c.baseURL, url.QueryEscape(strings.Join(tokens, ",")))

	for attempt := 0; attempt < c.maxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		var batch batchGetResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&batch)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode batch: %w", decodeErr)
		}

		if allSettled(batch.Submissions) {
			results := make([]Result, len(batch.Submissions))
			for i, w := range batch.Submissions {
				results[i] = Result{
					Token:  w.Token,
					Status: w.Status,
					Stdout: decode(w.Stdout),
					Stderr: decode(w.Stderr),
					Time:   w.Time,
					Memory: w.Memory,
				}
			}
			return results, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return nil, fmt.Errorf("judge0 batch still pending after %d polls", c.maxPolls)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
		req.Header.Set("X-RapidAPI-Host", "judge0-ce.p.rapidapi.com")
	}
}

func allSettled(results []wireResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Status.ID == statusInQueue || r.Status.ID == statusProcessing {
			return false
		}
	}
	return true
}

// syntheticError packages a transport failure as a regular result so callers
// see exactly one entry with status "Error" and the message in stderr.
func syntheticError(err error) Result {
	return Result{
		Status: Status{Description: "Error"},
		Stderr: err.Error(),
	}
}

func encode(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decode(s string) string {
	if s == "" {
		return ""
	}
	// Judge0 sometimes wraps base64 output in newlines.
	cleaned := strings.ReplaceAll(s, "\n", "")
	b, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return s
	}
	return string(b)
}

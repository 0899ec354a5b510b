package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultCloudBaseURL      = "https://api.mobilerun.ai/v1"
	defaultCloudHTTPTimeout  = 30 * time.Second
	defaultCloudPollInterval = 3 * time.Second
	defaultCloudMaxWait      = 5 * time.Minute
	defaultCloudMaxRetries   = 2
	defaultRetryBackoffBase  = 200 * time.Millisecond
)

// JobStatus is the lifecycle state reported by the cloud job API.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether no further status changes will happen.
func (s JobStatus) Terminal() bool {
	switch JobStatus(strings.ToUpper(string(s))) {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Job is the status document returned by submit and poll calls.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// JobResult is the output of a finished job.
type JobResult struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Output string    `json:"output"`
	Reason string    `json:"reason,omitempty"`
}

type submitRequest struct {
	AppID       string `json:"app_id"`
	Instruction string `json:"instruction"`
	Device      string `json:"device,omitempty"`
	Stream      bool   `json:"stream"`
}

// CloudClient talks to the remote job-submission API: submit, poll status,
// fetch output.
type CloudClient struct {
	baseURL      string
	apiKey       string
	device       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
	maxRetries   int
}

// CloudOption configures a CloudClient.
type CloudOption func(*CloudClient)

// WithCloudHTTPClient injects a custom http.Client.
func WithCloudHTTPClient(hc *http.Client) CloudOption {
	return func(c *CloudClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCloudBaseURL overrides the API root.
func WithCloudBaseURL(u string) CloudOption {
	return func(c *CloudClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithPolling sets the status poll interval and the overall wait budget.
func WithPolling(interval, maxWait time.Duration) CloudOption {
	return func(c *CloudClient) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if maxWait > 0 {
			c.maxWait = maxWait
		}
	}
}

// WithDefaultDevice sets the device profile used when a request has none.
func WithDefaultDevice(device string) CloudOption {
	return func(c *CloudClient) { c.device = device }
}

// WithCloudMaxRetries adjusts the retry budget of status and output reads.
// Job submission is never retried.
func WithCloudMaxRetries(n int) CloudOption {
	return func(c *CloudClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewCloudClient constructs a cloud job client. An empty apiKey is allowed;
// every call then fails with ErrMissingCredential.
func NewCloudClient(apiKey string, opts ...CloudOption) *CloudClient {
	c := &CloudClient{
		baseURL:      defaultCloudBaseURL,
		apiKey:       strings.TrimSpace(apiKey),
		httpClient:   &http.Client{Timeout: defaultCloudHTTPTimeout},
		pollInterval: defaultCloudPollInterval,
		maxWait:      defaultCloudMaxWait,
		maxRetries:   defaultCloudMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run submits req, waits for a terminal status and fetches the output.
func (c *CloudClient) Run(ctx context.Context, req Request) (*JobResult, error) {
	job, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	job, err = c.Wait(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if JobStatus(strings.ToUpper(string(job.Status))) != JobCompleted {
		detail := job.Error
		if detail == "" {
			detail = "no detail"
		}
		return &JobResult{JobID: job.ID, Status: job.Status}, fmt.Errorf("%w: status %s (%s)", ErrJobNotCompleted, job.Status, detail)
	}
	return c.Output(ctx, job.ID)
}

// Submit creates a job.
func (c *CloudClient) Submit(ctx context.Context, req Request) (*Job, error) {
	device := req.Device
	if device == "" {
		device = c.device
	}
	body := submitRequest{
		AppID:       req.AppID,
		Instruction: req.Instruction,
		Device:      device,
		Stream:      true,
	}
	// A submit that timed out may still have created the job, so it is sent once.
	var job Job
	if err := c.do(ctx, http.MethodPost, "/jobs", body, &job, false); err != nil {
		return nil, fmt.Errorf("engine: submit job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("engine: submit job: empty job id")
	}
	logx.WithContext(ctx).Infof("cloud job %s submitted for %s", job.ID, req.AppID)
	return &job, nil
}

// Status fetches the current job status.
func (c *CloudClient) Status(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, &job, true); err != nil {
		return nil, fmt.Errorf("engine: job status: %w", err)
	}
	return &job, nil
}

// Wait polls Status until the job is terminal or the wait budget runs out.
func (c *CloudClient) Wait(ctx context.Context, jobID string) (*Job, error) {
	deadline := time.Now().Add(c.maxWait)
	for {
		job, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: job %s still %s", ErrPollTimeout, jobID, job.Status)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Output fetches the textual output of a completed job.
func (c *CloudClient) Output(ctx context.Context, jobID string) (*JobResult, error) {
	var res JobResult
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/output", nil, &res, true); err != nil {
		return nil, fmt.Errorf("engine: job output: %w", err)
	}
	if res.JobID == "" {
		res.JobID = jobID
	}
	if res.Status == "" {
		res.Status = JobCompleted
	}
	return &res, nil
}

func (c *CloudClient) do(ctx context.Context, method, path string, body, result any, retry bool) error {
	if c.apiKey == "" {
		return ErrMissingCredential
	}
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = data
	}

	retries := c.maxRetries
	if !retry {
		retries = 0
	}
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= retries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response: %w", readErr)
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				lastErr = fmt.Errorf("http status %d: %s", resp.StatusCode, string(data))
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				// Client errors are not retried.
				return fmt.Errorf("http status %d: %s", resp.StatusCode, string(data))
			default:
				if result != nil {
					if err := json.Unmarshal(data, result); err != nil {
						return fmt.Errorf("decode response: %w", err)
					}
				}
				return nil
			}
		}

		if attempt < retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("request failed without error detail")
}

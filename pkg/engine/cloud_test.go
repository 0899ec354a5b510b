package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobServer(t *testing.T, finalStatus JobStatus, output string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "com.ubercab", body.AppID)
		require.Equal(t, "pixel_8_pro", body.Device)
		_ = json.NewEncoder(w).Encode(Job{ID: "job-1", Status: JobQueued})
	})
	mux.HandleFunc("/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		status := JobRunning
		if atomic.AddInt32(&polls, 1) >= 2 {
			status = finalStatus
		}
		_ = json.NewEncoder(w).Encode(Job{ID: "job-1", Status: status, Error: "device offline"})
	})
	mux.HandleFunc("/jobs/job-1/output", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(JobResult{Output: output})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestCloudClientRun(t *testing.T) {
	srv, polls := newJobServer(t, JobCompleted, `{"price": "₹240"}`)
	client := NewCloudClient("secret",
		WithCloudBaseURL(srv.URL),
		WithPolling(time.Millisecond, time.Second),
		WithDefaultDevice("pixel_8_pro"),
	)

	res, err := client.Run(context.Background(), Request{AppID: "com.ubercab", Instruction: "find a ride"})
	require.NoError(t, err)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, JobCompleted, res.Status)
	assert.Equal(t, `{"price": "₹240"}`, res.Output)
	assert.GreaterOrEqual(t, atomic.LoadInt32(polls), int32(2))
}

func TestCloudClientRunNotCompleted(t *testing.T) {
	srv, _ := newJobServer(t, JobFailed, "")
	client := NewCloudClient("secret", WithCloudBaseURL(srv.URL), WithPolling(time.Millisecond, time.Second), WithDefaultDevice("pixel_8_pro"))

	_, err := client.Run(context.Background(), Request{AppID: "com.ubercab", Instruction: "find a ride"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJobNotCompleted))
	assert.Contains(t, err.Error(), "device offline")
}

func TestCloudClientMissingCredential(t *testing.T) {
	client := NewCloudClient("  ")
	_, err := client.Run(context.Background(), Request{AppID: "x", Instruction: "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
}

func TestCloudClientSubmitsOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewCloudClient("secret", WithCloudBaseURL(srv.URL), WithCloudMaxRetries(3))
	_, err := client.Submit(context.Background(), Request{AppID: "a", Instruction: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCloudClientRetriesStatusReads(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Job{ID: "job-9", Status: JobRunning})
	}))
	defer srv.Close()

	client := NewCloudClient("secret", WithCloudBaseURL(srv.URL), WithCloudMaxRetries(1))
	job, err := client.Status(context.Background(), "job-9")
	require.NoError(t, err)
	assert.Equal(t, JobRunning, job.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCloudClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewCloudClient("secret", WithCloudBaseURL(srv.URL), WithCloudMaxRetries(3))
	_, err := client.Submit(context.Background(), Request{AppID: "a", Instruction: "b"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCloudClientWaitBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Job{ID: "job-2", Status: JobRunning})
	}))
	defer srv.Close()

	client := NewCloudClient("secret", WithCloudBaseURL(srv.URL), WithPolling(time.Millisecond, 5*time.Millisecond))
	_, err := client.Wait(context.Background(), "job-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPollTimeout))
}

func TestJobStatusTerminal(t *testing.T) {
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobStatus("failed").Terminal())
	assert.True(t, JobCancelled.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.False(t, JobQueued.Terminal())
}

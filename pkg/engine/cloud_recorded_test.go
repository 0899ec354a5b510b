package engine

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
)

// Replays a submit/poll/output cycle recorded with go-vcr. Set
// RECORD_CASSETTES=1 and MOBILERUN_API_KEY to re-record against the live API.
func TestCloudClient_Run_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "cloud_job")
	if _, err := os.Stat(cassette + ".yaml"); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s.yaml", cassette)
		}
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	defer func() { _ = r.Stop() }()

	key := os.Getenv("MOBILERUN_API_KEY")
	if key == "" {
		key = "replay"
	}
	client := NewCloudClient(key,
		WithCloudHTTPClient(&http.Client{Transport: r}),
		WithPolling(2*time.Second, 3*time.Minute),
		WithDefaultDevice("pixel_8_pro"),
	)
	res, err := client.Run(context.Background(), Request{
		AppID:       "com.whatsapp",
		Instruction: "Open WhatsApp and return strict JSON: {\"status\": \"success\"}",
	})
	assert.NoError(t, err, "Run should not error")
	if assert.NotNil(t, res) {
		assert.Equal(t, JobCompleted, res.Status)
		assert.Equal(t, "job_7f3a9c", res.JobID)
		assert.JSONEq(t, `{"status": "success"}`, res.Output)
	}
}

package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaadep2008/TrioAgent/pkg/engine"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

type failingCloud struct {
	err   error
	calls int
}

func (c *failingCloud) Run(ctx context.Context, req engine.Request) (*engine.JobResult, error) {
	c.calls++
	return nil, c.err
}

type okCloud struct{ output string }

func (c okCloud) Run(ctx context.Context, req engine.Request) (*engine.JobResult, error) {
	return &engine.JobResult{JobID: "j", Status: engine.JobCompleted, Output: c.output}, nil
}

type recordingFactory struct {
	output string
	err    error
	reqs   []engine.Request
}

func (f *recordingFactory) NewSession(req engine.Request) (engine.Session, error) {
	f.reqs = append(f.reqs, req)
	return engine.SessionFunc(func(ctx context.Context) (engine.Output, error) {
		return engine.Output{Raw: f.output}, f.err
	}), nil
}

func TestDispatchFallsBackToLocal(t *testing.T) {
	cases := []error{
		engine.ErrMissingCredential,
		engine.ErrJobNotCompleted,
		engine.ErrPollTimeout,
		errors.New("dial tcp: connection refused"),
	}
	for _, cloudErr := range cases {
		t.Run(cloudErr.Error(), func(t *testing.T) {
			cloud := &failingCloud{err: cloudErr}
			local := &recordingFactory{output: "```json\n{\"price\": \"₹99\", \"title\": \"Paneer Roll\"}\n```"}
			r := NewRouter(local, WithCloud(cloud))

			res := r.Dispatch(context.Background(), task.Goal{Target: "Zomato", Instruction: "find paneer roll"})
			require.True(t, res.OK(), "expected success, got %v", res.Err())
			assert.Equal(t, "Paneer Roll", res.Payload.StringOr("title", ""))
			assert.Equal(t, 1, cloud.calls)
			require.Len(t, local.reqs, 1)
			assert.Equal(t, "com.application.zomato", local.reqs[0].AppID)
		})
	}
}

func TestDispatchSubmitsOneCloudJob(t *testing.T) {
	var created int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// The job exists even though the gateway reports a failure.
		if atomic.AddInt32(&created, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(engine.Job{ID: "job-2", Status: engine.JobQueued})
	}))
	defer srv.Close()

	cloud := engine.NewCloudClient("secret", engine.WithCloudBaseURL(srv.URL), engine.WithCloudMaxRetries(3))
	local := &recordingFactory{output: `{"status": "success"}`}
	r := NewRouter(local, WithCloud(cloud))

	res := r.Dispatch(context.Background(), task.Goal{Target: "Uber", Instruction: "book the cheapest ride"})
	require.True(t, res.OK(), "expected local fallback, got %v", res.Err())
	assert.Equal(t, int32(1), atomic.LoadInt32(&created))
	assert.Len(t, local.reqs, 1)
}

func TestDispatchBothPathsFail(t *testing.T) {
	cloud := &failingCloud{err: engine.ErrMissingCredential}
	local := &recordingFactory{err: errors.New("no device attached")}
	r := NewRouter(local, WithCloud(cloud))

	res := r.Dispatch(context.Background(), task.Goal{Target: "Uber", Instruction: "ride"})
	require.False(t, res.OK())
	assert.Equal(t, task.ReasonEngine, res.Failure.Reason)
	assert.Contains(t, res.Failure.Message, "no device attached")
}

func TestDispatchCloudSuccessSkipsLocal(t *testing.T) {
	local := &recordingFactory{output: "{}"}
	r := NewRouter(local, WithCloud(okCloud{output: `{"status": "success"}`}))

	res := r.Dispatch(context.Background(), task.Goal{Target: "WhatsApp", Instruction: "send"})
	require.True(t, res.OK())
	assert.Equal(t, "success", res.Payload.Status())
	assert.Empty(t, local.reqs)
}

func TestDispatchLocalOnlyWhenCloudDisabled(t *testing.T) {
	local := &recordingFactory{output: "no json here"}
	r := NewRouter(local)

	res := r.Dispatch(context.Background(), task.Goal{Target: "Ola", Instruction: "ride"})
	require.False(t, res.OK())
	assert.Equal(t, task.ReasonParse, res.Failure.Reason)
	assert.Equal(t, "no json here", res.Failure.Raw)
}

func TestDispatchRecoversPanics(t *testing.T) {
	factory := engine.FactoryFunc(func(req engine.Request) (engine.Session, error) {
		return engine.SessionFunc(func(ctx context.Context) (engine.Output, error) {
			panic("adb exploded")
		}), nil
	})
	r := NewRouter(factory)
	res := r.Dispatch(context.Background(), task.Goal{Instruction: "x"})
	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Message, "adb exploded")
}

func TestDispatchOptions(t *testing.T) {
	local := &recordingFactory{output: "{}"}
	r := NewRouter(local, WithDefaults("GoogleGenAI", "models/gemini-2.5-flash", "emulator-5554"))

	r.Dispatch(context.Background(), task.Goal{Target: "Amazon", Instruction: "x"}, WithModel("OpenAI", "gpt-4o"))
	r.Dispatch(context.Background(), task.Goal{Target: "Amazon", Instruction: "y"}, WithDevice("R58M"))
	require.Len(t, local.reqs, 2)
	assert.Equal(t, "OpenAI", local.reqs[0].Provider)
	assert.Equal(t, "gpt-4o", local.reqs[0].Model)
	assert.Equal(t, "emulator-5554", local.reqs[0].Device)
	assert.Equal(t, "GoogleGenAI", local.reqs[1].Provider)
	assert.Equal(t, "R58M", local.reqs[1].Device)
}

func TestResetBaselineIsLocalOnly(t *testing.T) {
	cloud := &failingCloud{err: errors.New("unused")}
	local := &recordingFactory{output: "pressed home"}
	r := NewRouter(local, WithCloud(cloud))

	res := r.ResetBaseline(context.Background())
	require.True(t, res.OK())
	assert.Equal(t, 0, cloud.calls)
	require.Len(t, local.reqs, 1)
	assert.True(t, strings.HasPrefix(local.reqs[0].Instruction, "Press the System Home Button"))
}

func TestLoadConfigFromReader(t *testing.T) {
	t.Setenv("USE_MOBILE_RUN", "true")
	t.Setenv("MOBILERUN_API_KEY", "from-env")
	cfg, err := LoadConfigFromReader(strings.NewReader(`
cloud:
  poll_interval: 2s
  max_wait: 1m
local:
  binary: droidrun
apps:
  Rapido: com.rapido.passenger
repair: true
`))
	require.NoError(t, err)
	assert.True(t, cfg.Cloud.Enabled)
	assert.Equal(t, "from-env", cfg.Cloud.APIKey)
	assert.Equal(t, "pixel_8_pro", cfg.Cloud.Device)
	assert.Equal(t, "models/gemini-2.5-flash", cfg.Model)
	assert.True(t, cfg.Repair)
	assert.Equal(t, "com.rapido.passenger", cfg.Apps["Rapido"])
	assert.NotEmpty(t, cfg.Local.Args)
}

func TestLoadConfigRejectsBadDurations(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("cloud:\n  poll_interval: soon\n"))
	require.Error(t, err)

	_, err = LoadConfigFromReader(strings.NewReader("cloud:\n  poll_interval: 10s\n  max_wait: 1s\n"))
	require.Error(t, err)
}

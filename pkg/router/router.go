// Package router decides which execution path a goal takes. When cloud mode
// is on it tries the remote job API first and falls back to a fresh local
// agent session on any cloud-side error. Callers always get a task.Result.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/adityaadep2008/TrioAgent/pkg/engine"
	"github.com/adityaadep2008/TrioAgent/pkg/extract"
	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// HomeInstruction returns the device to its idle baseline.
const HomeInstruction = "Press the System Home Button immediately to return to the home screen. Do not open any app."

// Dispatcher is what workflows need from the router.
type Dispatcher interface {
	Dispatch(ctx context.Context, goal task.Goal, opts ...Option) task.Result
	ResetBaseline(ctx context.Context) task.Result
}

// Option tweaks a single dispatch.
type Option func(*engine.Request)

// WithModel overrides the LLM provider and model the engine uses for this dispatch.
func WithModel(provider, model string) Option {
	return func(r *engine.Request) {
		if provider != "" {
			r.Provider = provider
		}
		if model != "" {
			r.Model = model
		}
	}
}

// WithDevice overrides the device for this dispatch.
func WithDevice(device string) Option {
	return func(r *engine.Request) {
		if device != "" {
			r.Device = device
		}
	}
}

// Router implements Dispatcher.
type Router struct {
	cloud        engine.Cloud
	cloudEnabled bool
	local        engine.SessionFactory
	apps         *engine.AppRegistry
	extractor    *extract.Extractor
	provider     string
	model        string
	localDevice  string
}

// RouterOption configures a Router built with NewRouter.
type RouterOption func(*Router)

// WithCloud enables the cloud path with the given client.
func WithCloud(c engine.Cloud) RouterOption {
	return func(r *Router) {
		r.cloud = c
		r.cloudEnabled = c != nil
	}
}

// WithApps sets the app registry used to resolve targets.
func WithApps(apps *engine.AppRegistry) RouterOption {
	return func(r *Router) {
		if apps != nil {
			r.apps = apps
		}
	}
}

// WithExtractor replaces the default strict extractor.
func WithExtractor(x *extract.Extractor) RouterOption {
	return func(r *Router) {
		if x != nil {
			r.extractor = x
		}
	}
}

// WithDefaults sets the provider, model and local device applied to every dispatch.
func WithDefaults(provider, model, device string) RouterOption {
	return func(r *Router) {
		r.provider, r.model, r.localDevice = provider, model, device
	}
}

// NewRouter assembles a router from explicit collaborators.
func NewRouter(local engine.SessionFactory, opts ...RouterOption) *Router {
	r := &Router{
		local:     local,
		apps:      engine.NewAppRegistry(nil),
		extractor: extract.Default,
		provider:  defaultProvider,
		model:     defaultModel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// New builds a router from configuration.
func New(cfg *Config) *Router {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	local := &engine.CommandFactory{
		Binary: cfg.Local.Binary,
		Args:   cfg.Local.Args,
		Env:    cfg.Local.Env,
		Dir:    cfg.Local.Dir,
	}
	opts := []RouterOption{
		WithApps(engine.NewAppRegistry(cfg.Apps)),
		WithExtractor(extract.New(extract.Options{Repair: cfg.Repair})),
		WithDefaults(cfg.Provider, cfg.Model, cfg.Local.DeviceSerial),
	}
	if cfg.Cloud.Enabled {
		opts = append(opts, WithCloud(engine.NewCloudClient(cfg.Cloud.APIKey,
			engine.WithCloudBaseURL(cfg.Cloud.BaseURL),
			engine.WithPolling(cfg.Cloud.PollInterval, cfg.Cloud.MaxWait),
			engine.WithDefaultDevice(cfg.Cloud.Device),
			engine.WithCloudMaxRetries(cfg.Cloud.MaxRetries),
		)))
	}
	return NewRouter(local, opts...)
}

// Dispatch runs exactly one goal. Cloud errors demote to the local path; the
// final failure, if any, carries the last error's message.
func (r *Router) Dispatch(ctx context.Context, goal task.Goal, opts ...Option) (result task.Result) {
	defer func() {
		if p := recover(); p != nil {
			logx.WithContext(ctx).Errorf("router: dispatch %s panicked: %v", goal, p)
			result = task.Fail(task.ReasonEngine, fmt.Sprintf("dispatch panic: %v", p), "")
		}
	}()

	req := r.request(goal, opts...)
	logx.WithContext(ctx).Infof("router: dispatch %s", goal)

	if r.cloudEnabled && r.cloud != nil {
		res, err := r.cloud.Run(ctx, req)
		if err == nil {
			text := res.Output
			if strings.TrimSpace(text) == "" {
				text = res.Reason
			}
			return r.extractor.Extract(text)
		}
		if ctx.Err() != nil {
			return task.Fail(task.ReasonEngine, ctx.Err().Error(), "")
		}
		logx.WithContext(ctx).Slowf("router: cloud dispatch for %s failed, falling back to local: %v", req.AppID, err)
	}

	out, err := r.runLocal(ctx, req)
	if err != nil {
		return task.Fail(task.ReasonEngine, err.Error(), out.Raw)
	}
	return r.extractor.Extract(out.Text())
}

// ResetBaseline presses Home on the local device. It never goes through the
// cloud path and does not parse the agent output.
func (r *Router) ResetBaseline(ctx context.Context) task.Result {
	req := r.request(task.Goal{Instruction: HomeInstruction})
	if _, err := r.runLocal(ctx, req); err != nil {
		logx.WithContext(ctx).Slowf("router: baseline reset failed: %v", err)
		return task.Fail(task.ReasonEngine, err.Error(), "")
	}
	return task.Success(task.Payload{"status": "home"})
}

func (r *Router) request(goal task.Goal, opts ...Option) engine.Request {
	req := engine.Request{
		AppID:       r.apps.Resolve(goal.Target),
		Instruction: goal.Instruction,
		Provider:    r.provider,
		Model:       r.model,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

func (r *Router) runLocal(ctx context.Context, req engine.Request) (out engine.Output, err error) {
	if r.local == nil {
		return engine.Output{}, fmt.Errorf("router: no local engine configured")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("router: local engine panicked: %v", p)
		}
	}()
	if req.Device == "" {
		req.Device = r.localDevice
	}
	sess, err := r.local.NewSession(req)
	if err != nil {
		return engine.Output{}, err
	}
	return sess.Run(ctx)
}

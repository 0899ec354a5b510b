package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandFactory launches one external agent process per instruction, for
// example the droidrun CLI attached to a USB device. Args may contain the
// placeholders {instruction}, {app}, {device}, {provider} and {model}.
type CommandFactory struct {
	Binary string
	Args   []string
	Env    []string
	Dir    string
}

// NewSession implements SessionFactory.
func (f *CommandFactory) NewSession(req Request) (Session, error) {
	if f == nil || strings.TrimSpace(f.Binary) == "" {
		return nil, errors.New("engine: local agent binary not configured")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, errors.New("engine: instruction is required")
	}
	replacer := strings.NewReplacer(
		"{instruction}", req.Instruction,
		"{app}", req.AppID,
		"{device}", req.Device,
		"{provider}", req.Provider,
		"{model}", req.Model,
	)
	args := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		args = append(args, replacer.Replace(a))
	}
	return &commandSession{binary: f.Binary, args: args, env: f.Env, dir: f.Dir}, nil
}

type commandSession struct {
	binary string
	args   []string
	env    []string
	dir    string
}

func (s *commandSession) Run(ctx context.Context) (Output, error) {
	cmd := exec.CommandContext(ctx, s.binary, s.args...)
	cmd.Dir = s.dir
	if len(s.env) > 0 {
		cmd.Env = append(cmd.Environ(), s.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		return Output{Raw: stdout.String()}, fmt.Errorf("engine: local agent %s: %w: %s", s.binary, err, msg)
	}
	return Output{Raw: stdout.String()}, nil
}

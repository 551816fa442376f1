// Package process loads JavaScript render sources in a long lived bun or node
// child process, talking to it over a unix socket.
package process

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

//go:embed renderer.mjs
var RendererSource string

const (
	RuntimeBun  = "bun"
	RuntimeNode = "node"

	socketEnv     = "RENDR_SOCKET"
	startTimeout  = 5 * time.Second
	codeNoDefault = "no_default_export"
)

var ErrUnknownRuntime = errors.New("unknown javascript runtime")

type Loader struct {
	runtime string
	cmd     *exec.Cmd
	socket  string
	client  *http.Client
	logger  *zap.Logger

	stopOnce sync.Once
}

var _ usecase.Loader = (*Loader)(nil)

func command(runtime string) (string, []string, error) {
	switch runtime {
	case RuntimeBun:
		return "bun", []string{"run", "--smol", "-"}, nil
	case RuntimeNode:
		return "node", []string{"--input-type=module", "-"}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownRuntime, runtime)
	}
}

// NewLoader starts the runtime in dir and waits until its socket accepts
// requests.
func NewLoader(ctx context.Context, runtime string, dir string, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	name, args, err := command(runtime)
	if err != nil {
		return nil, err
	}

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("rendr-%d-%s.sock", os.Getpid(), uuid.NewString()[:8]))

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), socketEnv+"="+socket)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = strings.NewReader(RendererSource)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", runtime, err)
	}

	if err := waitForSocket(ctx, socket, startTimeout); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("%s: %w", runtime, err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}

	logger.Debug("module runtime started",
		zap.String("runtime", runtime),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("socket", socket),
	)

	return &Loader{
		runtime: runtime,
		cmd:     cmd,
		socket:  socket,
		client:  &http.Client{Transport: transport},
		logger:  logger,
	}, nil
}

func (l *Loader) Runtime() string {
	return l.runtime
}

// Load imports the module fresh, so edits show up on the next request.
func (l *Loader) Load(ctx context.Context, path string) (usecase.Module, error) {
	var result response
	if err := l.postJSON(ctx, "/load", request{Path: path}, &result); err != nil {
		return nil, err
	}
	if err := result.err(); err != nil {
		return nil, err
	}
	return &module{loader: l, path: path}, nil
}

func (l *Loader) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		err = l.cmd.Process.Kill()
		_ = l.cmd.Wait()
		_ = os.Remove(l.socket)
	})
	return err
}

type module struct {
	loader *Loader
	path   string
}

func (m *module) Render(ctx context.Context) (any, error) {
	var result response
	if err := m.loader.postJSON(ctx, "/render", request{Path: m.path}, &result); err != nil {
		return nil, err
	}
	if err := result.err(); err != nil {
		return nil, err
	}
	return result.HTML, nil
}

type request struct {
	Path string `json:"path"`
}

type response struct {
	OK    bool   `json:"ok"`
	HTML  string `json:"html"`
	Error *struct {
		Message string `json:"message"`
		Stack   string `json:"stack"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (r response) err() error {
	if r.Error == nil {
		return nil
	}
	if r.Error.Code == codeNoDefault {
		return fmt.Errorf("%w: %s", core.ErrNoDefaultExport, r.Error.Message)
	}
	return &core.ScriptError{Message: r.Error.Message, Stack: r.Error.Stack}
}

func (l *Loader) postJSON(ctx context.Context, endpoint string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://localhost"+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", l.runtime, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return json.NewDecoder(resp.Body).Decode(result)
}

func waitForSocket(ctx context.Context, path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return fmt.Errorf("timeout waiting for socket at %s", path)
}

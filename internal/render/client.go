// Package render talks to the comment rendering engine over NDJSON on stdio.
package render

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vgreport/vgdraft/internal/report"
)

// DefaultTimeout bounds how long one request waits for its response.
const DefaultTimeout = 5 * time.Second

// Process is one running engine instance. Writes go to stdin, responses and
// diagnostics come back on stdout and stderr.
type Process interface {
	Stdin() io.Writer
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() error
	Kill() error
}

// Launcher starts a fresh engine process.
type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

// CommandLauncher launches the engine as a subprocess.
type CommandLauncher struct {
	Command string
	Args    []string
}

type commandProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *commandProcess) Stdin() io.Writer  { return p.stdin }
func (p *commandProcess) Stdout() io.Reader { return p.stdout }
func (p *commandProcess) Stderr() io.Reader { return p.stderr }
func (p *commandProcess) Wait() error       { return p.cmd.Wait() }

func (p *commandProcess) Kill() error {
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}

// Launch starts the configured command with stdio pipes attached.
func (l *CommandLauncher) Launch(ctx context.Context) (Process, error) {
	if l.Command == "" {
		return nil, fmt.Errorf("empty engine command")
	}

	cmd := exec.CommandContext(ctx, l.Command, l.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", l.Command, err)
	}

	return &commandProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

type request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *EngineError    `json:"error"`
}

// EngineError is a structured failure reported by the engine.
type EngineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("engine error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("engine error: %s", e.Message)
}

// Template describes one sentence template known to the engine.
type Template struct {
	ID         string   `json:"id"`
	Frame      string   `json:"frame"`
	Section    string   `json:"section"`
	Text       string   `json:"text"`
	Slots      []string `json:"slots"`
	Tone       string   `json:"tone,omitempty"`
	Indicators []string `json:"indicators,omitempty"`
}

// HealthInfo is the engine's readiness report.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RenderResult is the engine's answer to a render request.
type RenderResult struct {
	Text       string                  `json:"text"`
	CharCount  int                     `json:"char_count"`
	Validation report.ValidationResult `json:"validation"`
}

// Client drives the rendering engine. The process starts lazily on the first
// call and is respawned on the next call after it exits.
type Client struct {
	launcher Launcher
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	proc    Process
	stdin   io.Writer
	pending map[string]chan *response
	done    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client over the given launcher.
func NewClient(launcher Launcher, opts ...Option) *Client {
	c := &Client{
		launcher: launcher,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureRunning starts the engine if it is not already up. Callers must not
// hold c.mu.
func (c *Client) ensureRunning(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc != nil {
		return nil
	}

	proc, err := c.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch engine: %w", err)
	}

	c.proc = proc
	c.stdin = proc.Stdin()
	c.pending = make(map[string]chan *response)
	c.done = make(chan struct{})

	c.wg.Add(2)
	go c.readResponses(proc.Stdout(), c.done)
	go c.drainDiagnostics(proc.Stderr())

	c.logger.Info("rendering engine started")
	return nil
}

// Close kills the engine process if it is running.
func (c *Client) Close() error {
	c.mu.Lock()
	proc := c.proc
	c.mu.Unlock()

	if proc == nil {
		return nil
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("failed to stop engine: %w", err)
	}
	c.wg.Wait()
	return nil
}

// markStopped tears down state after the stdout stream ends so the next call
// respawns the engine. Late responses for the old process are dropped.
func (c *Client) markStopped(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != done {
		return
	}
	if c.proc != nil {
		_ = c.proc.Kill()
		_ = c.proc.Wait()
	}
	c.proc = nil
	c.stdin = nil
	close(c.done)
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.logger.Warn("rendering engine stopped")
}

func (c *Client) readResponses(stdout io.Reader, done chan struct{}) {
	defer c.wg.Done()
	defer c.markStopped(done)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			c.logger.Warn("dropping malformed engine output", zap.ByteString("line", line))
			continue
		}
		if resp.ID == "" {
			c.logger.Warn("dropping engine output without id")
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Warn("dropping late engine response", zap.String("id", resp.ID))
			continue
		}
		ch <- &resp
	}
}

func (c *Client) drainDiagnostics(stderr io.Reader) {
	defer c.wg.Done()
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		c.logger.Debug("engine", zap.String("line", scanner.Text()))
	}
}

// call sends one request and waits for its correlated response, the request
// timeout, or ctx.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	if err := c.ensureRunning(ctx); err != nil {
		return err
	}

	id := uuid.NewString()
	data, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	ch := make(chan *response, 1)

	c.mu.Lock()
	if c.stdin == nil {
		c.mu.Unlock()
		return fmt.Errorf("engine not running")
	}
	c.pending[id] = ch
	_, err = c.stdin.Write(append(data, '\n'))
	if err != nil {
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("failed to write %s request: %w", method, err)
	}
	c.mu.Unlock()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp == nil {
			return fmt.Errorf("engine exited before answering %s", method)
		}
		if resp.Error != nil {
			return resp.Error
		}
		if out != nil {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	case <-timer.C:
		c.forget(id)
		return fmt.Errorf("timeout waiting for %s", method)
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Health checks that the engine answers.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var info HealthInfo
	if err := c.call(ctx, "health", map[string]any{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListTemplates returns templates matching the filters. Filter keys match
// template fields exactly, an empty filter map returns everything.
func (c *Client) ListTemplates(ctx context.Context, filters map[string]string) ([]Template, error) {
	if filters == nil {
		filters = map[string]string{}
	}
	var result struct {
		Templates []Template `json:"templates"`
	}
	if err := c.call(ctx, "list_templates", filters, &result); err != nil {
		return nil, err
	}
	return result.Templates, nil
}

// RenderComment fills a template's slots and returns the assembled text with
// the engine's validation verdict.
func (c *Client) RenderComment(ctx context.Context, templateID string, slots map[string]string) (*RenderResult, error) {
	if slots == nil {
		slots = map[string]string{}
	}
	params := map[string]any{
		"template_id": templateID,
		"slots":       slots,
	}
	var result RenderResult
	if err := c.call(ctx, "render_comment", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DebugInfo returns the engine's self-description as raw JSON.
func (c *Client) DebugInfo(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "debug_info", map[string]any{}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

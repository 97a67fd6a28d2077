package render

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeProcess is an in-memory engine driven over pipes.
type fakeProcess struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	killed chan struct{}
	once   sync.Once
}

func newFakeProcess() *fakeProcess {
	p := &fakeProcess{killed: make(chan struct{})}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

func (p *fakeProcess) Stdin() io.Writer  { return p.stdinW }
func (p *fakeProcess) Stdout() io.Reader { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader { return p.stderrR }
func (p *fakeProcess) Wait() error       { <-p.killed; return nil }

func (p *fakeProcess) Kill() error {
	p.once.Do(func() {
		close(p.killed)
		p.stdinW.Close()
		p.stdoutW.Close()
		p.stderrW.Close()
	})
	return nil
}

// serve answers each request line with handle's result, or an error payload.
// Requests are handled concurrently so a hung handler cannot stall others.
func (p *fakeProcess) serve(handle func(method string, params json.RawMessage) (any, *EngineError)) {
	var writeMu sync.Mutex
	scanner := bufio.NewScanner(p.stdinR)
	for scanner.Scan() {
		var req struct {
			ID     string          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		go func() {
			result, engineErr := handle(req.Method, req.Params)
			resp := map[string]any{"id": req.ID, "result": result}
			if engineErr != nil {
				resp["result"] = nil
				resp["error"] = engineErr
			}
			data, _ := json.Marshal(resp)
			writeMu.Lock()
			fmt.Fprintf(p.stdoutW, "%s\n", data)
			writeMu.Unlock()
		}()
	}
}

type fakeLauncher struct {
	mu        sync.Mutex
	launched  int
	processes []*fakeProcess
	handle    func(method string, params json.RawMessage) (any, *EngineError)
}

func (l *fakeLauncher) Launch(ctx context.Context) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := newFakeProcess()
	l.launched++
	l.processes = append(l.processes, p)
	if l.handle != nil {
		go p.serve(l.handle)
	}
	return p, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched
}

func newTestClient(t *testing.T, l *fakeLauncher, opts ...Option) *Client {
	t.Helper()
	c := NewClient(l, opts...)
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close error: %v", err)
		}
	})
	return c
}

func TestHealthAndLazyStart(t *testing.T) {
	l := &fakeLauncher{
		handle: func(method string, params json.RawMessage) (any, *EngineError) {
			if method != "health" {
				return nil, &EngineError{Code: "UNKNOWN_METHOD", Message: method}
			}
			return map[string]any{"status": "ok", "version": "0.1.0"}, nil
		},
	}
	c := newTestClient(t, l)

	if l.launchCount() != 0 {
		t.Fatal("engine should not start before first call")
	}

	info, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health error: %v", err)
	}
	if info.Status != "ok" || info.Version != "0.1.0" {
		t.Fatalf("unexpected health info: %+v", info)
	}
	if l.launchCount() != 1 {
		t.Fatalf("expected one launch, got %d", l.launchCount())
	}
}

func TestRenderComment(t *testing.T) {
	l := &fakeLauncher{
		handle: func(method string, params json.RawMessage) (any, *EngineError) {
			if method != "render_comment" {
				return nil, &EngineError{Code: "UNKNOWN_METHOD", Message: method}
			}
			var p struct {
				TemplateID string            `json:"template_id"`
				Slots      map[string]string `json:"slots"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, &EngineError{Code: "BAD_PARAMS", Message: err.Error()}
			}
			text := "Maria " + p.Slots["evidence"] + "."
			return map[string]any{
				"text":       text,
				"char_count": len(text),
				"validation": map[string]any{"valid": true, "errors": []string{}, "warnings": []string{"short"}},
			}, nil
		},
	}
	c := newTestClient(t, l)

	result, err := c.RenderComment(context.Background(), "tpl-1", map[string]string{"evidence": "shares materials"})
	if err != nil {
		t.Fatalf("RenderComment error: %v", err)
	}
	if result.Text != "Maria shares materials." {
		t.Fatalf("text = %q", result.Text)
	}
	if result.CharCount != len(result.Text) {
		t.Fatalf("char_count = %d, want %d", result.CharCount, len(result.Text))
	}
	if !result.Validation.Valid {
		t.Fatal("expected valid result")
	}
	if len(result.Validation.Warnings) != 1 || result.Validation.Warnings[0] != "short" {
		t.Fatalf("warnings = %v", result.Validation.Warnings)
	}
}

func TestEngineErrorSurfaces(t *testing.T) {
	l := &fakeLauncher{
		handle: func(method string, params json.RawMessage) (any, *EngineError) {
			return nil, &EngineError{Code: "TEMPLATE_NOT_FOUND", Message: "no such template"}
		},
	}
	c := newTestClient(t, l)

	_, err := c.RenderComment(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "TEMPLATE_NOT_FOUND") {
		t.Fatalf("error = %v", err)
	}
}

func TestListTemplates(t *testing.T) {
	l := &fakeLauncher{
		handle: func(method string, params json.RawMessage) (any, *EngineError) {
			var filters map[string]string
			if err := json.Unmarshal(params, &filters); err != nil {
				return nil, &EngineError{Code: "BAD_PARAMS", Message: err.Error()}
			}
			templates := []map[string]any{
				{"id": "tpl-1", "frame": "frame.belonging", "section": "key_learning", "text": "{name} shares.", "slots": []string{"name"}},
				{"id": "tpl-2", "frame": "frame.literacy", "section": "next_steps", "text": "{name} will read.", "slots": []string{"name"}},
			}
			if f := filters["frame"]; f != "" {
				var kept []map[string]any
				for _, tpl := range templates {
					if tpl["frame"] == f {
						kept = append(kept, tpl)
					}
				}
				templates = kept
			}
			return map[string]any{"templates": templates}, nil
		},
	}
	c := newTestClient(t, l)

	all, err := c.ListTemplates(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTemplates error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(all))
	}

	filtered, err := c.ListTemplates(context.Background(), map[string]string{"frame": "frame.belonging"})
	if err != nil {
		t.Fatalf("ListTemplates error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "tpl-1" {
		t.Fatalf("unexpected filtered templates: %+v", filtered)
	}
}

func TestRequestTimeout(t *testing.T) {
	// No serve loop: requests go unanswered.
	l := &fakeLauncher{}
	c := newTestClient(t, l, WithTimeout(30*time.Millisecond))

	go func() {
		// Drain stdin so the write does not block.
		l.mu.Lock()
		for len(l.processes) == 0 {
			l.mu.Unlock()
			time.Sleep(time.Millisecond)
			l.mu.Lock()
		}
		p := l.processes[0]
		l.mu.Unlock()
		io.Copy(io.Discard, p.stdinR)
	}()

	_, err := c.Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestTimeoutLeavesOtherRequestsAlone(t *testing.T) {
	// health is answered, list_templates never is.
	l := &fakeLauncher{
		handle: func(method string, params json.RawMessage) (any, *EngineError) {
			if method == "list_templates" {
				select {}
			}
			return map[string]any{"status": "ok", "version": "0.1.0"}, nil
		},
	}
	c := newTestClient(t, l, WithTimeout(50*time.Millisecond))
	ctx := context.Background()

	var wg sync.WaitGroup
	var timeoutErr, healthErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, timeoutErr = c.ListTemplates(ctx, nil)
	}()
	go func() {
		defer wg.Done()
		_, healthErr = c.Health(ctx)
	}()
	wg.Wait()

	if timeoutErr == nil || !strings.Contains(timeoutErr.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", timeoutErr)
	}
	if healthErr != nil {
		t.Fatalf("concurrent request failed: %v", healthErr)
	}
}

func TestMalformedLinesDropped(t *testing.T) {
	l := &fakeLauncher{}
	c := newTestClient(t, l)

	go func() {
		l.mu.Lock()
		for len(l.processes) == 0 {
			l.mu.Unlock()
			time.Sleep(time.Millisecond)
			l.mu.Lock()
		}
		p := l.processes[0]
		l.mu.Unlock()

		scanner := bufio.NewScanner(p.stdinR)
		for scanner.Scan() {
			var req struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				continue
			}
			// Noise before the real answer: garbage and an unknown id.
			fmt.Fprintln(p.stdoutW, "not json at all")
			fmt.Fprintln(p.stdoutW, `{"id":"stranger","result":{}}`)
			fmt.Fprintf(p.stdoutW, `{"id":%q,"result":{"status":"ok","version":"0.1.0"}}`+"\n", req.ID)
		}
	}()

	info, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health error: %v", err)
	}
	if info.Status != "ok" {
		t.Fatalf("status = %q", info.Status)
	}
}

func TestRespawnAfterExit(t *testing.T) {
	l := &fakeLauncher{
		handle: func(method string, params json.RawMessage) (any, *EngineError) {
			return map[string]any{"status": "ok", "version": "0.1.0"}, nil
		},
	}
	c := newTestClient(t, l)
	ctx := context.Background()

	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("Health error: %v", err)
	}

	// Simulate an engine crash.
	l.mu.Lock()
	first := l.processes[0]
	l.mu.Unlock()
	first.Kill()

	// The client notices the exit asynchronously; retry until the next call
	// respawns and succeeds.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := c.Health(ctx); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("engine never respawned after exit")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if l.launchCount() != 2 {
		t.Fatalf("expected 2 launches, got %d", l.launchCount())
	}
}

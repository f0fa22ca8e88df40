package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/yuchi/agent/contract"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

type fakePrompter struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakePrompter) ReadLine(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakePrompter) ReadSecret(prompt string) (string, error) {
	return f.ReadLine(prompt)
}

type recordingReporter struct {
	commands []string
	results  []string
}

func (r *recordingReporter) CommandResult(command, result string) {
	r.commands = append(r.commands, command)
	r.results = append(r.results, result)
}

func fixedDir(dir string) ShellOption {
	return WithWorkDir(func() (string, error) { return dir, nil })
}

func shellRequest(command string) contractx.ToolRequest {
	return contractx.ToolRequest{
		ID:   "call_1",
		Tool: ToolRunShellCommand,
		Args: map[string]any{"command": command},
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	tools := Catalog()
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	fn := tools[0].Function
	if fn.Name != ToolRunShellCommand {
		t.Fatalf("unexpected tool: %s", fn.Name)
	}
	required, ok := fn.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "command" {
		t.Fatalf("unexpected required params: %#v", fn.Parameters["required"])
	}
}

func TestShellExecutorSuccess(t *testing.T) {
	t.Parallel()

	prompter := &fakePrompter{answer: " Y \n"}
	reporter := &recordingReporter{}
	dir := t.TempDir()
	exec := NewShellExecutor(prompter, reporter, fixedDir(dir))

	out, err := exec.Execute(context.Background(), shellRequest("echo hello   world"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success, got %#v", out)
	}
	if out.Output != "`echo hello   world` succeeded:\nhello world\n" {
		t.Fatalf("unexpected output: %q", out.Output)
	}
	if out.ID != "call_1" || out.Tool != ToolRunShellCommand {
		t.Fatalf("unexpected identity: %#v", out)
	}
	if len(prompter.prompts) != 1 || prompter.prompts[0] != "Run `echo hello   world` in "+dir+"? (y/n): " {
		t.Fatalf("unexpected prompts: %#v", prompter.prompts)
	}
	if len(reporter.results) != 1 || reporter.results[0] != out.Output {
		t.Fatalf("result not reported: %#v", reporter.results)
	}
}

func TestShellExecutorRunsInWorkDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exec := NewShellExecutor(&fakePrompter{answer: "y"}, nil, fixedDir(dir))

	out, err := exec.Execute(context.Background(), shellRequest("pwd"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.Output, dir) {
		t.Fatalf("expected %s in output, got %q", dir, out.Output)
	}
}

func TestShellExecutorNonZeroExit(t *testing.T) {
	t.Parallel()

	exec := NewShellExecutor(&fakePrompter{answer: "y"}, &recordingReporter{}, fixedDir(t.TempDir()))

	out, err := exec.Execute(context.Background(), shellRequest("ls /definitely/not/here"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(out.Output, "`ls /definitely/not/here` failed:\n") {
		t.Fatalf("unexpected output: %q", out.Output)
	}
}

func TestShellExecutorDeclined(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	exec := NewShellExecutor(&fakePrompter{answer: "n"}, reporter, fixedDir(t.TempDir()))

	out, err := exec.Execute(context.Background(), shellRequest("rm -rf build"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Success || out.Output != "Command execution cancelled by user." {
		t.Fatalf("unexpected result: %#v", out)
	}
	if len(reporter.commands) != 1 || reporter.commands[0] != "rm -rf build" {
		t.Fatalf("declined command not reported: %#v", reporter.commands)
	}
}

func TestShellExecutorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prompter *fakePrompter
		opts     []ShellOption
		req      contractx.ToolRequest
		want     string
		category yuchierr.Category
	}{
		{
			name:     "empty command",
			prompter: &fakePrompter{answer: "y"},
			req:      shellRequest("   "),
			want:     "Tool Error: Empty command",
			category: yuchierr.CategoryTool,
		},
		{
			name:     "missing program",
			prompter: &fakePrompter{answer: "y"},
			req:      shellRequest("yuchi-no-such-binary --flag"),
			want:     "Tool Error: Failed to execute `yuchi-no-such-binary --flag`: ",
			category: yuchierr.CategoryTool,
		},
		{
			name:     "prompt failure",
			prompter: &fakePrompter{err: errors.New("EOF")},
			req:      shellRequest("ls"),
			want:     "Input Error: EOF",
			category: yuchierr.CategoryInput,
		},
		{
			name:     "working dir failure",
			prompter: &fakePrompter{answer: "y"},
			opts:     []ShellOption{WithWorkDir(func() (string, error) { return "", errors.New("getwd: gone") })},
			req:      shellRequest("ls"),
			want:     "Tool Error: getwd: gone",
			category: yuchierr.CategoryTool,
		},
		{
			name:     "missing command",
			prompter: &fakePrompter{answer: "y"},
			req:      contractx.ToolRequest{Tool: ToolRunShellCommand, Args: map[string]any{"cmd": "ls"}},
			want:     "API Error: Missing command parameter",
			category: yuchierr.CategoryAPI,
		},
		{
			name:     "non-string command",
			prompter: &fakePrompter{answer: "y"},
			req:      contractx.ToolRequest{Tool: ToolRunShellCommand, Args: map[string]any{"command": 42.0}},
			want:     "API Error: Missing command parameter",
			category: yuchierr.CategoryAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]ShellOption{fixedDir(t.TempDir())}, tt.opts...)
			exec := NewShellExecutor(tt.prompter, nil, opts...)
			_, err := exec.Execute(context.Background(), tt.req)
			if err == nil || !strings.HasPrefix(err.Error(), tt.want) {
				t.Fatalf("Execute() error = %v, want prefix %q", err, tt.want)
			}
			if !yuchierr.IsCategory(err, tt.category) {
				t.Fatalf("unexpected category for %v", err)
			}
		})
	}
}

func TestGatewayRoutes(t *testing.T) {
	t.Parallel()

	gw := NewGateway(NewShellExecutor(&fakePrompter{answer: "y"}, nil, fixedDir(t.TempDir())))

	out, err := gw.Execute(context.Background(), shellRequest("echo ok"))
	if err != nil || !out.Success {
		t.Fatalf("Execute() = %#v, %v", out, err)
	}

	unnamed := shellRequest("echo ok")
	unnamed.Tool = ""
	_, err = gw.Execute(context.Background(), unnamed)
	if err == nil || err.Error() != "API Error: Unsupported tool: " {
		t.Fatalf("unnamed tool error = %v", err)
	}

	_, err = gw.Execute(context.Background(), contractx.ToolRequest{Tool: "math.evaluate"})
	if err == nil || err.Error() != "API Error: Unsupported tool: math.evaluate" {
		t.Fatalf("unexpected error: %v", err)
	}
}

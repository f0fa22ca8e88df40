package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/yuchi/agent/contract"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const cancelledOutput = "Command execution cancelled by user."

// ShellExecutor runs the command the model asked for after the user
// confirms it. The command is split on whitespace and executed directly, not
// through a shell.
type ShellExecutor struct {
	prompter contractx.Prompter
	reporter contractx.Reporter
	progress contractx.Progress
	getwd    func() (string, error)
}

type ShellOption func(*ShellExecutor)

func WithWorkDir(getwd func() (string, error)) ShellOption {
	return func(s *ShellExecutor) {
		if getwd != nil {
			s.getwd = getwd
		}
	}
}

func WithProgress(p contractx.Progress) ShellOption {
	return func(s *ShellExecutor) {
		if p != nil {
			s.progress = p
		}
	}
}

func NewShellExecutor(prompter contractx.Prompter, reporter contractx.Reporter, opts ...ShellOption) *ShellExecutor {
	s := &ShellExecutor{
		prompter: prompter,
		reporter: reporter,
		progress: contractx.NoopProgress{},
		getwd:    os.Getwd,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *ShellExecutor) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	command, err := commandArg(req.Args)
	if err != nil {
		return contractx.ToolResult{}, err
	}

	dir, err := s.getwd()
	if err != nil {
		return contractx.ToolResult{}, yuchierr.Tool(err.Error())
	}

	answer, err := s.prompter.ReadLine(fmt.Sprintf("Run `%s` in %s? (y/n): ", command, dir))
	if err != nil {
		return contractx.ToolResult{}, yuchierr.Input(err.Error())
	}
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		log.Debug().Str("command", command).Msg("tool declined by user")
		s.report(command, cancelledOutput)
		return contractx.ToolResult{ID: req.ID, Tool: ToolRunShellCommand, Output: cancelledOutput}, nil
	}

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return contractx.ToolResult{}, yuchierr.Tool("Empty command")
	}

	s.progress.Start(fmt.Sprintf("Running `%s`...", command))
	stdout, stderr, success, err := run(ctx, dir, parts[0], parts[1:])
	s.progress.Stop()
	if err != nil {
		return contractx.ToolResult{}, yuchierr.Toolf("Failed to execute `%s`: %v", command, err)
	}

	var output string
	if success {
		output = fmt.Sprintf("`%s` succeeded:\n%s", command, stdout)
	} else {
		output = fmt.Sprintf("`%s` failed:\n%s", command, stderr)
	}
	log.Debug().Str("command", command).Bool("success", success).Msg("tool executed")

	s.report(command, output)
	return contractx.ToolResult{ID: req.ID, Tool: ToolRunShellCommand, Output: output, Success: success}, nil
}

func (s *ShellExecutor) report(command, result string) {
	if s.reporter != nil {
		s.reporter.CommandResult(command, result)
	}
}

// run returns err only when the program could not be started. A non-zero
// exit is reported through success.
func run(ctx context.Context, dir, program string, args []string) (string, string, bool, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), stderr.String(), true, nil
	case errors.As(err, &exitErr):
		return stdout.String(), stderr.String(), false, nil
	default:
		return "", "", false, err
	}
}

func commandArg(args map[string]any) (string, error) {
	raw, ok := args["command"]
	if !ok {
		return "", yuchierr.API("Missing command parameter")
	}
	command, ok := raw.(string)
	if !ok {
		return "", yuchierr.API("Missing command parameter")
	}
	return command, nil
}

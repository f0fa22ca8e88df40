package contract

import "context"

type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) (ToolResult, error)
}

// Prompter reads answers from the user. ReadSecret does not echo.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
}

// Progress is a transient status indicator. Stop is safe to call when it is
// not running.
type Progress interface {
	Start(message string)
	Stop()
}

type Reporter interface {
	CommandResult(command, result string)
}

type NoopProgress struct{}

func (NoopProgress) Start(string) {}
func (NoopProgress) Stop()        {}

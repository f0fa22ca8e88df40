package tool

import (
	"context"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/yuchi/agent/contract"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const (
	ToolRunShellCommand = "run_shell_command"
)

type Executor func(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error)

// Gateway routes tool requests from the model to their executor.
type Gateway struct {
	shell Executor
}

var _ contractx.ToolGateway = Gateway{}

func NewGateway(shell *ShellExecutor) Gateway {
	return Gateway{shell: shell.Execute}
}

func (g Gateway) Execute(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	switch req.Tool {
	case ToolRunShellCommand:
		return g.shell(ctx, req)
	default:
		return contractx.ToolResult{}, yuchierr.APIf("Unsupported tool: %s", req.Tool)
	}
}

// Catalog is the tool list sent with every first request.
func Catalog() []openaisdk.ChatCompletionToolParam {
	return []openaisdk.ChatCompletionToolParam{
		{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        ToolRunShellCommand,
				Description: openaisdk.String("Run a shell command in the current directory"),
				Parameters: openaisdk.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"command": map[string]any{
							"type":        "string",
							"description": "The shell command to run (e.g., npm install express)",
						},
					},
					"required": []string{"command"},
				},
			},
		},
	}
}

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/yuchi/agent/contract"
	imagex "github.com/tanpawarit/yuchi/agent/image"
	toolx "github.com/tanpawarit/yuchi/agent/tool"
	"github.com/tanpawarit/yuchi/pkg/shapes"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const (
	queryingMessage  = "Querying ShapesAI..."
	emptyToolReply   = "No response from tool execution."
	fallbackToolID   = "fallback"
	functionTagOpen  = "<function>"
	functionTagClose = "</function>"

	maxErrorBodyBytes = 1 << 20
)

type Request struct {
	Prompt    string
	Model     string
	ImagePath string
}

// Asker sends one question to Shapes, running any tool the model asks for
// and sending the results back for a final answer.
type Asker struct {
	client   *openaisdk.Client
	tools    contractx.ToolGateway
	progress contractx.Progress
}

func New(client *openaisdk.Client, tools contractx.ToolGateway, progress contractx.Progress) (*Asker, error) {
	if client == nil {
		return nil, errors.New("chat client is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if progress == nil {
		progress = contractx.NoopProgress{}
	}
	return &Asker{client: client, tools: tools, progress: progress}, nil
}

func (a *Asker) Ask(ctx context.Context, req Request) (string, error) {
	defer a.progress.Stop()

	userMsg, err := userMessage(req)
	if err != nil {
		return "", err
	}
	messages := []openaisdk.ChatCompletionMessageParamUnion{userMsg}

	a.progress.Start(queryingMessage)
	completion, err := a.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:      openaisdk.ChatModel(req.Model),
		Messages:   messages,
		Tools:      toolx.Catalog(),
		ToolChoice: toolChoice("auto"),
	})
	if err != nil {
		return "", firstRequestError(err)
	}

	msg, ok := firstMessage(completion)
	if !ok {
		return "", nil
	}

	// An empty tool_calls array has nothing to run and reads as a plain reply.
	if len(msg.ToolCalls) > 0 {
		a.progress.Stop()
		messages = append(messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			toolReq, err := toToolRequest(call)
			if err != nil {
				return "", err
			}
			result, err := a.tools.Execute(ctx, toolReq)
			if err != nil {
				return "", err
			}
			messages = append(messages, openaisdk.ToolMessage(result.Output, toolReq.ID))
		}
		return a.followUp(ctx, req.Model, messages)
	}

	content := msg.Content
	if strings.HasPrefix(content, functionTagOpen) && strings.HasSuffix(content, functionTagClose) {
		a.progress.Stop()
		toolReq, err := parseFunctionTag(content)
		if err != nil {
			return "", err
		}
		result, err := a.tools.Execute(ctx, toolReq)
		if err != nil {
			return "", err
		}
		messages = append(messages,
			openaisdk.AssistantMessage(content),
			openaisdk.ToolMessage(result.Output, fallbackToolID),
		)
		return a.followUp(ctx, req.Model, messages)
	}

	return content, nil
}

func (a *Asker) followUp(ctx context.Context, model string, messages []openaisdk.ChatCompletionMessageParamUnion) (string, error) {
	a.progress.Start(queryingMessage)
	completion, err := a.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:      openaisdk.ChatModel(model),
		Messages:   messages,
		ToolChoice: toolChoice("none"),
	})
	a.progress.Stop()
	if err != nil {
		return "", secondRequestError(err)
	}

	msg, ok := firstMessage(completion)
	if !ok || msg.Content == "" {
		return emptyToolReply, nil
	}
	return msg.Content, nil
}

// userMessage asks the model to read text out of an attached image when the
// prompt mentions text.
func userMessage(req Request) (openaisdk.ChatCompletionMessageParamUnion, error) {
	if req.ImagePath == "" {
		return openaisdk.UserMessage(req.Prompt), nil
	}

	prompt := req.Prompt
	if strings.Contains(strings.ToLower(prompt), "text") {
		prompt = "Extract the text from this image: " + prompt
	}

	dataURL, err := imagex.Attach(req.ImagePath)
	if err != nil {
		return openaisdk.ChatCompletionMessageParamUnion{}, err
	}

	return openaisdk.UserMessage([]openaisdk.ChatCompletionContentPartUnionParam{
		openaisdk.TextContentPart(prompt),
		openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}), nil
}

func toolChoice(mode string) openaisdk.ChatCompletionToolChoiceOptionUnionParam {
	return openaisdk.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openaisdk.String(mode)}
}

func firstMessage(c *openaisdk.ChatCompletion) (openaisdk.ChatCompletionMessage, bool) {
	if c == nil || len(c.Choices) == 0 {
		return openaisdk.ChatCompletionMessage{}, false
	}
	return c.Choices[0].Message, true
}

func toToolRequest(call openaisdk.ChatCompletionMessageToolCall) (contractx.ToolRequest, error) {
	if strings.TrimSpace(call.ID) == "" {
		return contractx.ToolRequest{}, yuchierr.API("Missing tool call ID")
	}
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw == "" {
		return contractx.ToolRequest{}, yuchierr.API("Missing tool arguments")
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return contractx.ToolRequest{}, yuchierr.APIf("Failed to parse tool arguments: %v", err)
	}

	log.Debug().Str("tool", call.Function.Name).Str("id", call.ID).Msg("model requested tool")
	return contractx.ToolRequest{ID: call.ID, Tool: call.Function.Name, Args: args}, nil
}

// parseFunctionTag handles models that answer with
// <function>{"command": "..."}</function> instead of a tool call.
func parseFunctionTag(content string) (contractx.ToolRequest, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(content, functionTagOpen), functionTagClose)

	var args map[string]any
	if err := json.Unmarshal([]byte(body), &args); err != nil {
		return contractx.ToolRequest{}, yuchierr.APIf("Failed to parse function arguments: %v", err)
	}
	if _, ok := args["command"].(string); !ok {
		return contractx.ToolRequest{}, yuchierr.API("Missing command parameter")
	}

	return contractx.ToolRequest{ID: fallbackToolID, Tool: toolx.ToolRunShellCommand, Args: args}, nil
}

func firstRequestError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return yuchierr.API("Blame Shapes, I got rate-limited. Try again later.")
		case 404:
			return yuchierr.API("The resource couldn't be found.")
		case 403:
			return yuchierr.API("I don't have access to the AccessVerse.")
		default:
			return yuchierr.APIf("API request failed with status: %s. Response: %s",
				shapes.StatusText(apiErr.StatusCode), errorBody(apiErr))
		}
	}
	if isDecodeError(err) {
		return yuchierr.APIf("Failed to parse API response: %v", err)
	}
	return transportError("Failed to send request to ShapesAI API", err)
}

func secondRequestError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		return yuchierr.APIf("Second API request failed with status: %s. Response: %s",
			shapes.StatusText(apiErr.StatusCode), errorBody(apiErr))
	}
	if isDecodeError(err) {
		return yuchierr.APIf("Failed to parse second API response: %v", err)
	}
	return transportError("Failed to send second request to ShapesAI API", err)
}

// transportError keeps Ctrl-C from being reported as a network failure.
func transportError(prefix string, err error) error {
	if errors.Is(err, context.Canceled) {
		return yuchierr.API("Request cancelled.")
	}
	return yuchierr.APIf("%s: %v", prefix, err)
}

// errorBody returns the full response body. The SDK refills Response.Body
// after reading it, while RawJSON only holds the "error" member.
func errorBody(apiErr *openaisdk.Error) string {
	if apiErr.Response != nil && apiErr.Response.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(apiErr.Response.Body, maxErrorBodyBytes))
		if err == nil && len(bytes.TrimSpace(raw)) > 0 {
			return string(raw)
		}
	}
	if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
		return raw
	}
	return "No response body"
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

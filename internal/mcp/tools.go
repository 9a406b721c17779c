package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/nghyane/oc-bridge/internal/bridge"
	"github.com/nghyane/oc-bridge/internal/json"
	"github.com/nghyane/oc-bridge/internal/usage"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var messagesSchema = map[string]any{
	"type":        "array",
	"description": "Messages API style conversation; the newest user message is forwarded.",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"role":    map[string]any{"type": "string"},
			"content": map[string]any{},
		},
	},
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var toolList = []ToolInfo{
	{
		Name:        "chat",
		Description: "Send a prompt to the current backend session and return the reply.",
		InputSchema: objectSchema(map[string]any{
			"prompt":   map[string]any{"type": "string", "description": "Shorthand for a single user message."},
			"messages": messagesSchema,
		}),
	},
	{
		Name:        "count_tokens",
		Description: "Estimate the token count of a message list without contacting the backend.",
		InputSchema: objectSchema(map[string]any{"messages": messagesSchema}, "messages"),
	},
	{
		Name:        "list_models",
		Description: "List the provider/model ids the backend offers.",
		InputSchema: objectSchema(map[string]any{}),
	},
	{
		Name:        "select_model",
		Description: "Switch the current model. Clears the held session.",
		InputSchema: objectSchema(map[string]any{
			"modelId": map[string]any{"type": "string"},
		}, "modelId"),
	},
	{
		Name:        "reset_session",
		Description: "Start a fresh backend session.",
		InputSchema: objectSchema(map[string]any{}),
	},
	{
		Name:        "status",
		Description: "Report the current model, counters and session state.",
		InputSchema: objectSchema(map[string]any{}),
	},
}

type toolFunc func(ctx context.Context, tr *bridge.Translator, args gjson.Result) (*CallToolResult, error)

var toolHandlers = map[string]toolFunc{
	"chat":          callChat,
	"count_tokens":  callCountTokens,
	"list_models":   callListModels,
	"select_model":  callSelectModel,
	"reset_session": callResetSession,
	"status":        callStatus,
}

// chatBody normalizes tool arguments into a Messages API body. The tool is
// an explicit chat call, so max_tokens is always set.
func chatBody(args gjson.Result) ([]byte, error) {
	body := []byte(`{"max_tokens":4096}`)
	var err error
	switch {
	case args.Get("messages").Exists():
		body, err = sjson.SetRawBytes(body, "messages", []byte(args.Get("messages").Raw))
	case args.Get("prompt").Type == gjson.String:
		body, err = sjson.SetBytes(body, "messages.0", map[string]string{
			"role":    "user",
			"content": args.Get("prompt").String(),
		})
	default:
		return nil, errors.New("either prompt or messages is required")
	}
	return body, err
}

func callChat(ctx context.Context, tr *bridge.Translator, args gjson.Result) (*CallToolResult, error) {
	body, err := chatBody(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	req, err := bridge.ParseChatRequest(body)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	req.Source = usage.SourceStdio

	res, err := tr.HandleChat(ctx, req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if res.Message == nil || len(res.Message.Content) == 0 {
		return textResult(""), nil
	}
	return textResult(res.Message.Content[0].Text), nil
}

func callCountTokens(_ context.Context, tr *bridge.Translator, args gjson.Result) (*CallToolResult, error) {
	req, err := bridge.ParseChatRequest([]byte(args.Raw))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(tr.HandleCountTokens(req))
}

func callListModels(_ context.Context, tr *bridge.Translator, _ gjson.Result) (*CallToolResult, error) {
	return jsonResult(tr.Models())
}

func callSelectModel(_ context.Context, tr *bridge.Translator, args gjson.Result) (*CallToolResult, error) {
	id := args.Get("modelId").String()
	if err := tr.SelectModel(id); err != nil {
		if errors.Is(err, bridge.ErrUnknownModel) {
			return errorResult("Model not found"), nil
		}
		return nil, err
	}
	return textResult(fmt.Sprintf("Model selected: %s", id)), nil
}

func callResetSession(ctx context.Context, tr *bridge.Translator, _ gjson.Result) (*CallToolResult, error) {
	id, err := tr.ResetSession(ctx)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(id), nil
}

func callStatus(_ context.Context, tr *bridge.Translator, _ gjson.Result) (*CallToolResult, error) {
	return jsonResult(tr.Status())
}

func jsonResult(v any) (*CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

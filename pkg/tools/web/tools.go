package web

import (
	gocontext "context"
	"fmt"
	"net/http"
	"strings"

	agctx "github.com/cgast/edgebench/pkg/context"
	"github.com/cgast/edgebench/pkg/tools"
)

// GetTool implements http:get.
type GetTool struct {
	Client *Client
}

func (c *GetTool) Name() string        { return "http:get" }
func (c *GetTool) Description() string { return "Perform an HTTP GET request to an allowed domain" }
func (c *GetTool) Namespace() string   { return "http" }

func (c *GetTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"url": {Type: "string", Description: "URL to fetch"},
	}, "url")
}

func (c *GetTool) Execute(ctx gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	rawURL, err := input.RequireString("url")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("http:get: %w", err)
	}
	resp, err := c.Client.Do(ctx, http.MethodGet, rawURL, nil, headerArgs(input))
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("http:get: %w", err)
	}
	return responseEnvelope(resp, rawURL, "http:get"), nil
}

// PostTool implements http:post.
type PostTool struct {
	Client *Client
}

func (c *PostTool) Name() string        { return "http:post" }
func (c *PostTool) Description() string { return "Perform an HTTP POST request to an allowed domain" }
func (c *PostTool) Namespace() string   { return "http" }

func (c *PostTool) InputSchema() tools.Schema {
	return tools.Object(map[string]tools.SchemaField{
		"url":          {Type: "string", Description: "URL to post to"},
		"body":         {Type: "string", Description: "Request body"},
		"content_type": {Type: "string", Description: "Content-Type header (default: application/json)"},
	}, "url")
}

func (c *PostTool) Execute(ctx gocontext.Context, input agctx.Envelope) (agctx.Envelope, error) {
	rawURL, err := input.RequireString("url")
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("http:post: %w", err)
	}
	contentType := input.StringArg("content_type")
	if contentType == "" {
		contentType = "application/json"
	}
	headers := headerArgs(input)
	headers["Content-Type"] = contentType

	resp, err := c.Client.Do(ctx, http.MethodPost, rawURL, strings.NewReader(input.StringArg("body")), headers)
	if err != nil {
		return agctx.Envelope{}, fmt.Errorf("http:post: %w", err)
	}
	return responseEnvelope(resp, rawURL, "http:post"), nil
}

// headerArgs reads an optional "headers" object argument.
func headerArgs(input agctx.Envelope) map[string]string {
	headers := make(map[string]string)
	if h, ok := input.Args()["headers"].(map[string]any); ok {
		for k, val := range h {
			if s, ok := val.(string); ok {
				headers[k] = s
			}
		}
	}
	return headers
}

func responseEnvelope(resp Response, rawURL, source string) agctx.Envelope {
	contentType := resp.Headers["Content-Type"]
	if contentType == "" {
		contentType = "text/plain"
	}
	env := agctx.NewEnvelope(resp, contentType, source)
	env.Meta.Tags["url"] = rawURL
	env.Meta.Tags["status"] = fmt.Sprintf("%d", resp.StatusCode)
	return env
}

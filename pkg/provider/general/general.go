// Package general implements the general LLM provider: a hosted model
// that answers from the prompt alone, without access to pack files.
package general

import (
	gocontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cgast/edgebench/pkg/provider"
	"github.com/cgast/edgebench/pkg/tools/web"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"

	// DefaultAPIKeyEnv names the variable the Gemini key is read from.
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
	// ModelEnv overrides the default Gemini model.
	ModelEnv = "GEMINI_MODEL"

	defaultGeminiModel = "gemini-1.5-pro"
	defaultGeminiURL   = "https://generativelanguage.googleapis.com"
	defaultTimeout     = 60 * time.Second
)

// SystemInstruction is prepended to every prompt.
const SystemInstruction = "You are a data extraction engine. " +
	"Always respond with STRICT JSON only, no markdown or prose."

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// Config selects and configures the backend.
type Config struct {
	Backend string
	Model   string
	// APIKey takes precedence over APIKeyEnv. The variable is read on every
	// call so a key installed with env:set is picked up.
	APIKey    string
	APIKeyEnv string
	// BaseURL overrides the API endpoint of the selected backend.
	BaseURL        string
	Timeout        time.Duration
	RESTFallback   bool
	AllowedDomains []string
}

// generateFunc sends one prompt and returns the model's text.
type generateFunc func(ctx gocontext.Context, apiKey, model, prompt string) (string, error)

// Provider is the general LLM provider.
type Provider struct {
	cfg    Config
	logger *zap.Logger
	sdk    generateFunc
	rest   *web.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New creates a provider. Missing settings fall back to defaults: the
// gemini backend, GEMINI_API_KEY and a 60 second timeout.
func New(cfg Config, opts ...Option) *Provider {
	if cfg.Backend == "" {
		cfg.Backend = BackendGemini
	}
	if cfg.APIKeyEnv == "" {
		switch cfg.Backend {
		case BackendOpenAI:
			cfg.APIKeyEnv = "OPENAI_API_KEY"
		default:
			cfg.APIKeyEnv = DefaultAPIKeyEnv
		}
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Backend)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	p := &Provider{
		cfg:    cfg,
		logger: zap.NewNop(),
		rest:   web.NewClient(cfg.AllowedDomains, cfg.Timeout),
	}
	p.sdk = p.geminiSDK
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultModel(backend string) string {
	if backend == BackendOpenAI {
		return openai.GPT4oMini
	}
	if m := os.Getenv(ModelEnv); m != "" {
		return m
	}
	return defaultGeminiModel
}

func (p *Provider) Name() string { return "general_provider" }

// Model returns the configured model name.
func (p *Provider) Model() string { return p.cfg.Model }

// Run asks the model for a JSON answer to prompt. packDir is ignored: the
// general provider never sees local files.
func (p *Provider) Run(ctx gocontext.Context, _ string, prompt string) (any, error) {
	key := p.apiKey()
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, p.cfg.APIKeyEnv)
	}

	ctx, cancel := gocontext.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	full := SystemInstruction + "\n\n" + prompt

	var (
		text string
		err  error
	)
	switch p.cfg.Backend {
	case BackendGemini:
		text, err = p.gemini(ctx, key, full)
	case BackendOpenAI:
		text, err = p.openAI(ctx, key, prompt)
	default:
		return nil, fmt.Errorf("unknown backend %q", p.cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}
	return provider.ExtractJSON(text), nil
}

func (p *Provider) apiKey() string {
	if k := strings.TrimSpace(p.cfg.APIKey); k != "" {
		return k
	}
	return strings.TrimSpace(os.Getenv(p.cfg.APIKeyEnv))
}

// gemini calls the SDK and falls back to the REST endpoint when the SDK
// call fails and fallback is enabled.
func (p *Provider) gemini(ctx gocontext.Context, key, prompt string) (string, error) {
	text, err := p.sdk(ctx, key, p.cfg.Model, prompt)
	if err == nil {
		return text, nil
	}
	if !p.cfg.RESTFallback {
		return "", fmt.Errorf("gemini sdk: %w", err)
	}
	p.logger.Warn("gemini SDK call failed, falling back to REST", zap.Error(err))

	text, err = p.geminiREST(ctx, key, p.cfg.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("REST call failed: %w", err)
	}
	return text, nil
}

func (p *Provider) geminiSDK(ctx gocontext.Context, key, model, prompt string) (string, error) {
	base := p.cfg.BaseURL
	if base == "" {
		base = defaultGeminiURL
	}
	if err := web.CheckAllowedDomain(base, p.cfg.AllowedDomains); err != nil {
		return "", err
	}
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.rest.HTTP,
	}
	if p.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

type restPart struct {
	Text string `json:"text,omitempty"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	Contents []restContent `json:"contents"`
}

type restResponse struct {
	Candidates []struct {
		Content struct {
			Parts []map[string]any `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// geminiREST posts to the generateContent endpoint directly. A response
// without candidates is returned as {"_raw_api_response": body} text.
func (p *Provider) geminiREST(ctx gocontext.Context, key, model, prompt string) (string, error) {
	base := p.cfg.BaseURL
	if base == "" {
		base = defaultGeminiURL
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(base, "/"), url.PathEscape(model), url.QueryEscape(key))

	body, err := json.Marshal(restRequest{Contents: []restContent{{Parts: []restPart{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	resp, err := p.rest.Do(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("generateContent returned status %d", resp.StatusCode)
	}

	var parsed restResponse
	if err := json.Unmarshal([]byte(resp.Body), &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		var raw any
		if err := json.Unmarshal([]byte(resp.Body), &raw); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		wrapped, err := json.Marshal(map[string]any{"_raw_api_response": raw})
		if err != nil {
			return "", err
		}
		return string(wrapped), nil
	}

	var texts []string
	for _, part := range parsed.Candidates[0].Content.Parts {
		if t, ok := part["text"].(string); ok {
			texts = append(texts, t)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}

// openAI sends the prompt as a chat completion in JSON mode.
func (p *Provider) openAI(ctx gocontext.Context, key, prompt string) (string, error) {
	if err := p.checkOpenAIDomain(); err != nil {
		return "", err
	}
	oc := openai.DefaultConfig(key)
	if p.cfg.BaseURL != "" {
		oc.BaseURL = p.cfg.BaseURL
	}
	oc.HTTPClient = p.rest.HTTP
	client := openai.NewClientWithConfig(oc)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *Provider) checkOpenAIDomain() error {
	base := p.cfg.BaseURL
	if base == "" {
		base = openai.DefaultConfig("").BaseURL
	}
	return web.CheckAllowedDomain(base, p.cfg.AllowedDomains)
}

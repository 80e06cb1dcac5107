// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

// DefaultTimeout bounds one-shot requests. Streams are bounded by their context.
const DefaultTimeout = 60 * time.Second

// generator is the subset of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Config holds client settings.
type Config struct {
	APIKey string
	Model  string

	// DefaultInstruction is sent when a request sets UseDefaultInstruction
	// without a custom instruction.
	DefaultInstruction string

	// Timeout applies to one-shot requests. Zero means DefaultTimeout.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Gemini API.
type Client struct {
	gen                generator
	model              string
	defaultInstruction string
	timeout            time.Duration
	keyFingerprint     string
	logger             *slog.Logger
}

var _ upstream.Service = (*Client)(nil)

// NewClient creates a client. It returns an apperr.ErrConfiguration error
// when the API key is missing.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Configuration("gemini.new", "")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, classify("gemini.new", err)
	}

	return newClient(gc.Models, cfg), nil
}

func newClient(gen generator, cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	modelName := model.ResolveModelID(cfg.Model)
	if modelName == "" {
		modelName = model.DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		gen:                gen,
		model:              modelName,
		defaultInstruction: cfg.DefaultInstruction,
		timeout:            timeout,
		keyFingerprint:     fingerprint(cfg.APIKey),
		logger:             logger.With("component", "gemini", "model", modelName),
	}
}

// Model returns the model ID requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// KeyFingerprint returns a short hash of the API key for logging.
func (c *Client) KeyFingerprint() string {
	return c.keyFingerprint
}

// =============================================================================
// ONE-SHOT REQUESTS
// =============================================================================

// Request sends a single prompt and waits for the full answer.
func (c *Client) Request(ctx context.Context, prompt string, opts upstream.Options) (upstream.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	c.logger.Debug("request", "search", opts.UseSearchGrounding, "prompt_chars", len(prompt))

	resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), c.buildConfig(opts))
	if err != nil {
		err = classify("gemini.request", err)
		c.logger.Warn("request failed", "error", err, "duration", time.Since(start))
		return upstream.Response{}, err
	}

	out := upstream.Response{
		Text:       resp.Text(),
		References: References(resp),
	}
	c.logger.Debug("request complete", "chars", len(out.Text),
		"references", len(out.References), "duration", time.Since(start))
	return out, nil
}

// =============================================================================
// STREAMING REQUESTS
// =============================================================================

// RequestStream sends prompt after the prior turns and streams the answer.
// Each chunk is delivered as a non-final fragment; a final empty fragment
// carries the last non-empty references seen. On failure onError is called
// instead of the final fragment. Cancellation stops the stream silently.
func (c *Client) RequestStream(ctx context.Context, prompt string, prior []model.Turn,
	onFragment upstream.FragmentFunc, onError upstream.ErrorFunc, opts upstream.Options) {

	contents := buildContents(prior, prompt)
	start := time.Now()
	chunks := 0
	var finalRefs []model.Reference

	c.logger.Debug("stream", "prior_turns", len(prior), "search", opts.UseSearchGrounding)

	for resp, err := range c.gen.GenerateContentStream(ctx, c.model, contents, c.buildConfig(opts)) {
		if ctx.Err() != nil {
			c.logger.Debug("stream cancelled", "chunks", chunks)
			return
		}
		if err != nil {
			err = classify("gemini.stream", err)
			c.logger.Warn("stream failed", "error", err, "chunks", chunks)
			onError(err)
			return
		}

		chunks++
		refs := References(resp)
		if len(refs) > 0 {
			finalRefs = refs
		}
		onFragment(resp.Text(), false, refs)
	}

	if ctx.Err() != nil {
		return
	}
	c.logger.Debug("stream complete", "chunks", chunks,
		"references", len(finalRefs), "duration", time.Since(start))
	onFragment("", true, finalRefs)
}

// =============================================================================
// REQUEST BUILDING
// =============================================================================

func (c *Client) buildConfig(opts upstream.Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if instr := opts.SystemInstruction(c.defaultInstruction); instr != "" {
		cfg.SystemInstruction = genai.NewContentFromText(instr, genai.RoleUser)
	}
	if opts.UseSearchGrounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

// buildContents maps prior turns onto SDK contents and appends the prompt.
func buildContents(prior []model.Turn, prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(prior)+1)
	for _, t := range prior {
		var role genai.Role = genai.RoleUser
		if t.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

// References extracts grounding sources from the first candidate, keeping
// entries that have both a title and a URI.
func References(resp *genai.GenerateContentResponse) []model.Reference {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var refs []model.Reference
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		ref := model.Reference{Title: chunk.Web.Title, URI: chunk.Web.URI}
		if ref.Valid() {
			refs = append(refs, ref)
		}
	}
	return refs
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classify maps SDK errors onto the application taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Request(op, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(op, apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(op, *apiErrPtr, err)
	}
	return apperr.Classify(op, err)
}

func classifyAPIError(op string, apiErr genai.APIError, err error) error {
	if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden ||
		apperr.IsInvalidKeyMessage(apiErr.Message) {
		return apperr.Auth(op, err)
	}
	return apperr.Request(op, fmt.Errorf("%s (%d)", apiErr.Message, apiErr.Code))
}

// fingerprint returns a secure fingerprint of the API key for logging.
func fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

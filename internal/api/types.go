// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"strings"
)

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatOptions carries the per-send settings applied to a chat or audio request.
type ChatOptions struct {
	// SenderPhone identifies the user for server-side memory. Empty means anonymous.
	SenderPhone string

	// Model is the preferred model. Empty lets the backend route automatically.
	Model string

	// GenerateAudio asks the backend to synthesize a spoken reply.
	GenerateAudio bool

	// UseRag enables retrieval-augmented generation.
	UseRag bool

	// RagNamespace restricts retrieval to one namespace. Empty means all.
	RagNamespace string

	// RagTopK is the number of retrieved passages (default 5).
	RagTopK int
}

// ChatRequest is the JSON body of POST /chat.
type ChatRequest struct {
	Prompt        string `json:"prompt" yaml:"prompt"`
	SenderPhone   string `json:"sender_phone,omitempty" yaml:"sender_phone,omitempty"`
	Model         string `json:"model,omitempty" yaml:"model,omitempty"`
	GenerateAudio bool   `json:"generate_audio" yaml:"generate_audio"`
	UseRag        bool   `json:"use_rag" yaml:"use_rag"`
	RagNamespace  string `json:"rag_namespace,omitempty" yaml:"rag_namespace,omitempty"`
	RagTopK       int    `json:"rag_top_k" yaml:"rag_top_k"`
}

// NewChatRequest builds the request body for prompt, applying option defaults.
func NewChatRequest(prompt string, opts ChatOptions) ChatRequest {
	topK := opts.RagTopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return ChatRequest{
		Prompt:        prompt,
		SenderPhone:   strings.TrimSpace(opts.SenderPhone),
		Model:         strings.TrimSpace(opts.Model),
		GenerateAudio: opts.GenerateAudio,
		UseRag:        opts.UseRag,
		RagNamespace:  strings.TrimSpace(opts.RagNamespace),
		RagTopK:       topK,
	}
}

// AudioFile is an audio attachment uploaded to POST /chat/audio.
type AudioFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ChatResponse is the body returned by both chat endpoints.
// Optional fields are nil when the backend omits them.
type ChatResponse struct {
	Text          string             `json:"text" yaml:"text"`
	Model         string             `json:"model" yaml:"model"`
	Success       *bool              `json:"success,omitempty" yaml:"success,omitempty"`
	TaskType      string             `json:"task_type,omitempty" yaml:"task_type,omitempty"`
	Confidence    *float64           `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	ModelScores   map[string]float64 `json:"model_scores,omitempty" yaml:"model_scores,omitempty"`
	Complexity    string             `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Indicators    map[string]int     `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	CostAnalysis  *CostAnalysis      `json:"cost_analysis,omitempty" yaml:"cost_analysis,omitempty"`
	Audio         *AudioPayload      `json:"audio,omitempty" yaml:"audio,omitempty"`
	Transcription string             `json:"transcription,omitempty" yaml:"transcription,omitempty"`
}

// ConfidencePercent formats the routing confidence as a percentage, or ""
// when the backend did not report one.
func (r *ChatResponse) ConfidencePercent() string {
	if r == nil || r.Confidence == nil {
		return ""
	}
	return fmt.Sprintf("%.0f%%", *r.Confidence*100)
}

// AudioPayload is a synthesized reply encoded as base64.
type AudioPayload struct {
	Base64   string  `json:"base64" yaml:"base64"`
	Format   string  `json:"format,omitempty" yaml:"format,omitempty"`
	URL      string  `json:"url,omitempty" yaml:"url,omitempty"`
	Duration float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// =============================================================================
// COST ANALYSIS
// =============================================================================

// CostAnalysis is the backend's per-request pricing breakdown. It is
// displayed as-is and never recomputed on the client.
type CostAnalysis struct {
	Model     string      `json:"model,omitempty" yaml:"model,omitempty"`
	ModelInfo *ModelInfo  `json:"model_info,omitempty" yaml:"model_info,omitempty"`
	Tokens    TokenCounts `json:"tokens" yaml:"tokens"`
	Costs     Costs       `json:"costs" yaml:"costs"`
	Pricing   *Pricing    `json:"pricing,omitempty" yaml:"pricing,omitempty"`
}

// ModelInfo describes the model that answered.
type ModelInfo struct {
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	InputPrice  float64 `json:"input_price,omitempty" yaml:"input_price,omitempty"`
	OutputPrice float64 `json:"output_price,omitempty" yaml:"output_price,omitempty"`
	DocURL      string  `json:"doc_url,omitempty" yaml:"doc_url,omitempty"`
}

// TokenCounts holds token usage. Older backends report input/output,
// newer ones prompt/completion/total.
type TokenCounts struct {
	Prompt       int `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Completion   int `json:"completion,omitempty" yaml:"completion,omitempty"`
	Total        int `json:"total,omitempty" yaml:"total,omitempty"`
	InputTokens  int `json:"input_tokens,omitempty" yaml:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty" yaml:"output_tokens,omitempty"`
}

// Input returns the number of prompt tokens regardless of which field was set.
func (t TokenCounts) Input() int {
	if t.InputTokens > 0 {
		return t.InputTokens
	}
	return t.Prompt
}

// Output returns the number of completion tokens regardless of which field was set.
func (t TokenCounts) Output() int {
	if t.OutputTokens > 0 {
		return t.OutputTokens
	}
	return t.Completion
}

// Costs holds the request cost in each currency.
type Costs struct {
	USD *Money `json:"usd,omitempty" yaml:"usd,omitempty"`
	BRL *Money `json:"brl,omitempty" yaml:"brl,omitempty"`
}

// Money is a formatted amount.
type Money struct {
	Cents     float64 `json:"cents,omitempty" yaml:"cents,omitempty"`
	Dollars   float64 `json:"dollars,omitempty" yaml:"dollars,omitempty"`
	Formatted string  `json:"formatted,omitempty" yaml:"formatted,omitempty"`
}

// Pricing holds per-1k-token prices.
type Pricing struct {
	InputPricePer1K  float64 `json:"input_price_per_1k,omitempty" yaml:"input_price_per_1k,omitempty"`
	OutputPricePer1K float64 `json:"output_price_per_1k,omitempty" yaml:"output_price_per_1k,omitempty"`
}

// Summary renders a one-line description such as
// "in 12 / out 48 tokens | $0.0012 | R$0.0060".
func (c *CostAnalysis) Summary() string {
	if c == nil {
		return ""
	}
	parts := []string{fmt.Sprintf("in %d / out %d tokens", c.Tokens.Input(), c.Tokens.Output())}
	if c.Costs.USD != nil && c.Costs.USD.Formatted != "" {
		parts = append(parts, c.Costs.USD.Formatted)
	}
	if c.Costs.BRL != nil && c.Costs.BRL.Formatted != "" {
		parts = append(parts, c.Costs.BRL.Formatted)
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// MEMORY / HEALTH
// =============================================================================

// Ack is the acknowledgement body of side-effecting endpoints.
type Ack struct {
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// HealthStatus is the liveness payload of GET /health.
type HealthStatus struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Healthy reports whether the backend described itself as healthy.
func (h *HealthStatus) Healthy() bool {
	if h == nil {
		return false
	}
	s := strings.ToLower(h.Status)
	return s == "healthy" || s == "ok"
}

// =============================================================================
// RETRIEVAL TYPES
// =============================================================================

// Document is a single entry submitted to POST /rag/index.
type Document struct {
	ID        string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Content   string                 `json:"content" yaml:"content"`
	Metadata  map[string]interface{} `json:"metadata" yaml:"metadata"`
	Namespace string                 `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// IndexRequest is the JSON body of POST /rag/index. Namespace is sent as
// null when unset.
type IndexRequest struct {
	Documents []Document `json:"documents" yaml:"documents"`
	Namespace *string    `json:"namespace" yaml:"namespace"`
}

// IndexResponse reports how many documents the backend stored.
type IndexResponse struct {
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
	Indexed int    `json:"indexed" yaml:"indexed"`
}

// SearchResult is one retrieval hit.
type SearchResult struct {
	ID         string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Content    string                 `json:"content" yaml:"content"`
	Similarity float64                `json:"similarity" yaml:"similarity"`
	Namespace  string                 `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SearchResponse is the body of GET /rag/search.
type SearchResponse struct {
	Status  string         `json:"status,omitempty" yaml:"status,omitempty"`
	Results []SearchResult `json:"results" yaml:"results"`
}

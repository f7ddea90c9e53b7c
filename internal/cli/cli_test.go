// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/mpcchat/internal/api"
	"github.com/jeranaias/mpcchat/internal/config"
	"github.com/jeranaias/mpcchat/internal/settings"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeBackend records the requests of one test.
type fakeBackend struct {
	mu        sync.Mutex
	prompts   []string
	cleared   []string
	indexed   []api.Document
	indexNS   *string
	searchQ   string
	searchK   string
	searchNS  string
	chatFails bool
	unhealthy bool
	calls     int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.calls++
		var body struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.prompts = append(fb.prompts, body.Prompt)
		if fb.chatFails {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"model unavailable"}`))
			return
		}
		w.Write([]byte(`{"text":"**Hi** there","model":"gpt-4o-mini","confidence":0.87}`))
	})
	mux.HandleFunc("/chat/clear-memory", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.calls++
		fb.cleared = append(fb.cleared, r.URL.Query().Get("sender_phone"))
		w.Write([]byte(`{"status":"success"}`))
	})
	mux.HandleFunc("/rag/index", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.calls++
		var body api.IndexRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.indexed = body.Documents
		fb.indexNS = body.Namespace
		json.NewEncoder(w).Encode(map[string]int{"indexed": len(body.Documents)})
	})
	mux.HandleFunc("/rag/search", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		fb.calls++
		q := r.URL.Query()
		fb.searchQ, fb.searchK, fb.searchNS = q.Get("q"), q.Get("top_k"), q.Get("namespace")
		w.Write([]byte(`{"results":[{"id":"doc-1","content":"Refunds within 30 days","similarity":0.91,"namespace":"handbook","metadata":{"source":"faq"}}]}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if fb.unhealthy {
			w.Write([]byte(`{"status":"degraded","message":"vector store offline"}`))
			return
		}
		w.Write([]byte(`{"status":"healthy","message":"LLM Router is running"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fb, server
}

// isolate points configuration and logs at a temp dir and disables colors.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)
	for _, k := range []string{config.EnvAPIURL, config.EnvPhone, config.EnvModel, config.EnvTimeout, config.EnvLogLevel, "FORCE_COLOR"} {
		t.Setenv(k, "")
	}
	t.Setenv("NO_COLOR", "1")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root, r := newRoot()
	t.Cleanup(func() { _ = r.close() })

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// =============================================================================
// ROOT / VERSION
// =============================================================================

func TestRootHelp(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"chat", "ask", "search", "index", "clear-memory", "health", "config", "logs", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestVersionJSON(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	out, _, err := execute(t, "ask", "--api-url", server.URL, "Hello", "there")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello there"}, fb.prompts)
	assert.Contains(t, out, "**Hi** there", "markdown is not rendered off a terminal")
	assert.Contains(t, out, "Model: gpt-4o-mini | Confidence: 87%")
}

func TestAsk_JSON(t *testing.T) {
	isolate(t)
	_, server := newFakeBackend(t)

	out, _, err := execute(t, "ask", "--api-url", server.URL, "--json", "Hello")
	require.NoError(t, err)

	var resp api.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "**Hi** there", resp.Text)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
}

func TestAsk_NoPrompt(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	_, _, err := execute(t, "ask", "--api-url", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "give a prompt")
	assert.Zero(t, fb.calls)
}

func TestAsk_ServerDetail(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)
	fb.mu.Lock()
	fb.chatFails = true
	fb.mu.Unlock()

	_, _, err := execute(t, "ask", "--api-url", server.URL, "Hello")
	require.Error(t, err)
	assert.Equal(t, "model unavailable", err.Error())
}

func TestAsk_RejectsNonAudio(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not audio"), 0o644))

	_, _, err := execute(t, "ask", "--api-url", server.URL, "--audio", path)
	require.Error(t, err)
	assert.Zero(t, fb.calls)
}

// =============================================================================
// SEARCH / INDEX
// =============================================================================

func TestSearch(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	out, _, err := execute(t, "search", "--api-url", server.URL, "-k", "50", "-n", "handbook", "refund", "policy")
	require.NoError(t, err)
	assert.Equal(t, "refund policy", fb.searchQ)
	assert.Equal(t, "20", fb.searchK, "top_k is clamped")
	assert.Equal(t, "handbook", fb.searchNS)

	assert.Contains(t, out, "Search complete: 1 results found")
	assert.Contains(t, out, "#1 doc-1")
	assert.Contains(t, out, "91.0%")
	assert.Contains(t, out, "Refunds within 30 days")
	assert.Contains(t, out, `{"source":"faq"}`)
}

func TestSearch_DefaultsAndJSON(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	out, _, err := execute(t, "search", "--api-url", server.URL, "--json", "refund")
	require.NoError(t, err)
	assert.Equal(t, "5", fb.searchK)
	assert.Empty(t, fb.searchNS)

	var results []api.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1", results[0].ID)
}

func TestSearch_BlankQueryMakesNoCall(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	_, _, err := execute(t, "search", "--api-url", server.URL, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enter a search query")
	assert.Zero(t, fb.calls)
}

func TestIndex_FilesAndInline(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.txt"), []byte("  \n"), 0o644))

	out, _, err := execute(t, "index", "--api-url", server.URL,
		filepath.Join(dir, "*.txt"),
		"--content", "inline doc",
		"--metadata", `{"source":"cli"}`,
		"-n", "handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "3 documents indexed successfully")

	require.Len(t, fb.indexed, 3, "the blank file is skipped")
	assert.Equal(t, "a", fb.indexed[0].ID)
	assert.Equal(t, "beta", fb.indexed[1].Content)
	assert.Equal(t, "inline doc", fb.indexed[2].Content)
	assert.Equal(t, "cli", fb.indexed[2].Metadata["source"])
	require.NotNil(t, fb.indexNS)
	assert.Equal(t, "handbook", *fb.indexNS)
}

func TestIndex_InvalidMetadataMakesNoCall(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	_, _, err := execute(t, "index", "--api-url", server.URL, "--content", "x", "--metadata", "{broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata must be a JSON object")
	assert.Zero(t, fb.calls)
}

func TestIndex_NothingToIndex(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	_, _, err := execute(t, "index", "--api-url", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add at least one document")
	assert.Zero(t, fb.calls)
}

// =============================================================================
// MEMORY / HEALTH
// =============================================================================

func TestClearMemory(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	_, _, err := execute(t, "clear-memory", "--api-url", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone")
	assert.Zero(t, fb.calls)

	out, _, err := execute(t, "clear-memory", "--api-url", server.URL, "--phone", "+5511999990000")
	require.NoError(t, err)
	assert.Equal(t, []string{"+5511999990000"}, fb.cleared)
	assert.Contains(t, out, "Memory cleared")
}

func TestHealth(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)

	out, _, err := execute(t, "health", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] healthy")
	assert.Contains(t, out, "LLM Router is running")

	fb.mu.Lock()
	fb.unhealthy = true
	fb.mu.Unlock()
	out, _, err = execute(t, "health", "--api-url", server.URL)
	require.Error(t, err)
	assert.Contains(t, out, "vector store offline")
}

func TestHealth_Unreachable(t *testing.T) {
	isolate(t)
	_, server := newFakeBackend(t)
	url := server.URL
	server.Close()

	_, _, err := execute(t, "health", "--api-url", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_InitSetGet(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")

	out, _, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, "not created yet")

	_, _, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, _, err = execute(t, "config", "init")
	require.Error(t, err, "init must not overwrite without --force")

	_, _, err = execute(t, "config", "set", "defaults.rag_top_k", "7")
	require.NoError(t, err)
	out, _, err = execute(t, "config", "get", "defaults.rag_top_k")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)

	_, _, err = execute(t, "config", "set", "defaults.rag_top_k", "50")
	require.Error(t, err, "out of range values are rejected")

	_, _, err = execute(t, "config", "set", "nope.key", "1")
	require.Error(t, err)
}

func TestConfig_SetDoesNotPersistEnvironment(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.EnvModel, "mistral-large")

	_, _, err := execute(t, "config", "set", "defaults.sender_phone", "+5511999990000")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "+5511999990000")
	assert.NotContains(t, string(data), "mistral-large")

	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "mistral-large")
}

func TestConfig_Keys(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "api.base_url")
	assert.Contains(t, out, "ui.theme")
}

// =============================================================================
// LOGS
// =============================================================================

func TestLogs(t *testing.T) {
	isolate(t)
	_, server := newFakeBackend(t)

	_, errOut, err := execute(t, "--verbose", "health", "--api-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, errOut, "command started", "verbose echoes logs to stderr")

	out, _, err := execute(t, "logs", "--level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "command started")
	assert.Contains(t, out, "DEBUG")

	_, _, err = execute(t, "logs", "--level", "loud")
	require.Error(t, err)
}

// =============================================================================
// REPL
// =============================================================================

func newTestREPL(t *testing.T, baseURL string) (*repl, *bytes.Buffer) {
	t.Helper()
	r := &runner{
		cfg:    config.Default(),
		client: api.NewClient(baseURL),
		logger: zap.NewNop(),
	}
	var out bytes.Buffer
	return r.newREPL(&out), &out
}

func TestREPL_Conversation(t *testing.T) {
	isolate(t)
	fb, server := newFakeBackend(t)
	c, out := newTestREPL(t, server.URL)
	ctx := context.Background()

	more, err := c.handle(ctx, "   ")
	assert.True(t, more)
	assert.NoError(t, err)

	more, err = c.handle(ctx, "Hello")
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []string{"Hello"}, fb.prompts)
	assert.Contains(t, out.String(), "**Hi** there")
	assert.Equal(t, 2, c.session.Transcript().Len())

	exportPath := filepath.Join(t.TempDir(), "chat.json")
	_, err = c.handle(ctx, "/export "+exportPath)
	require.NoError(t, err)
	assert.FileExists(t, exportPath)

	_, err = c.handle(ctx, "/clear")
	require.Error(t, err, "clearing needs a phone")
	assert.Equal(t, 2, c.session.Transcript().Len())

	_, err = c.handle(ctx, "/set phone +5511999990000")
	require.NoError(t, err)
	_, err = c.handle(ctx, "/clear")
	require.NoError(t, err)
	assert.Equal(t, []string{"+5511999990000"}, fb.cleared)
	assert.Zero(t, c.session.Transcript().Len())

	more, err = c.handle(ctx, "/quit")
	assert.False(t, more)
	assert.NoError(t, err)
	more, _ = c.handle(ctx, "exit")
	assert.False(t, more)
}

func TestREPL_Errors(t *testing.T) {
	isolate(t)
	_, server := newFakeBackend(t)
	c, _ := newTestREPL(t, server.URL)
	ctx := context.Background()

	more, err := c.handle(ctx, "/bogus")
	assert.True(t, more)
	assert.Error(t, err)

	_, err = c.handle(ctx, "/audio")
	assert.Error(t, err)

	_, err = c.handle(ctx, "/audio "+filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)

	_, err = c.handle(ctx, "/save")
	assert.Error(t, err, "no reply with audio yet")

	_, err = c.handle(ctx, "/export")
	assert.Error(t, err)
}

func TestApplySetting(t *testing.T) {
	store := settings.NewStore(settings.Settings{})

	require.NoError(t, applySetting(store, "model", "gpt-4o"))
	require.NoError(t, applySetting(store, "audio", "on"))
	require.NoError(t, applySetting(store, "rag", "yes"))
	require.NoError(t, applySetting(store, "namespace", " docs "))
	require.NoError(t, applySetting(store, "topk", "99"))

	s := store.Snapshot()
	assert.Equal(t, "gpt-4o", s.Model)
	assert.True(t, s.GenerateAudio)
	assert.True(t, s.UseRag)
	assert.Equal(t, "docs", s.RagNamespace)
	assert.Equal(t, 20, s.RagTopK)

	require.NoError(t, applySetting(store, "model", "auto"))
	assert.Empty(t, store.Snapshot().Model)

	assert.Error(t, applySetting(store, "model", "gpt-9"))
	assert.Error(t, applySetting(store, "rag", "maybe"))
	assert.Error(t, applySetting(store, "topk", "many"))
	assert.Error(t, applySetting(store, "color", "blue"))
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0o644))

	paths, err := expandPaths([]string{filepath.Join(dir, "*.md"), "literal.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md"), "literal.txt"}, paths)
}

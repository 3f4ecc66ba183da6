package llm

import (
	"testing"
)

func TestNormalizeBaseURL_StripsChatCompletionsSuffix(t *testing.T) {
	// Strips a trailing "/chat/completions" suffix
	got := normalizeBaseURL("https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions")
	want := "https://dashscope.aliyuncs.com/compatible-mode/v1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeBaseURL_StripTrailingSlash(t *testing.T) {
	// Strips a trailing slash without "/chat/completions"
	got := normalizeBaseURL("https://api.openai.com/v1/")
	want := "https://api.openai.com/v1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeBaseURL_EmptyInput(t *testing.T) {
	// Returns "" for empty input
	if got := normalizeBaseURL(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestNewTier_UsesTierSpecificVars(t *testing.T) {
	// Uses {prefix}_API_KEY / _BASE_URL / _MODEL when set and non-empty
	t.Setenv("ROUTER_API_KEY", "sk-router-key")
	t.Setenv("ROUTER_BASE_URL", "https://api.deepseek.com")
	t.Setenv("ROUTER_MODEL", "deepseek-chat")
	t.Setenv("OPENAI_API_KEY", "sk-shared-key")
	t.Setenv("OPENAI_BASE_URL", "https://api.shared.com")
	t.Setenv("OPENAI_MODEL", "shared-model")
	c := NewTier("ROUTER")
	if c.apiKey != "sk-router-key" {
		t.Errorf("apiKey: got %q, want sk-router-key", c.apiKey)
	}
	if c.baseURL != "https://api.deepseek.com" {
		t.Errorf("baseURL: got %q, want https://api.deepseek.com", c.baseURL)
	}
	if c.model != "deepseek-chat" {
		t.Errorf("model: got %q, want deepseek-chat", c.model)
	}
}

func TestNewTier_FallsBackToSharedVars(t *testing.T) {
	// Falls back to OPENAI_* vars for any unset tier-specific var
	t.Setenv("EXTRACT_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-shared-key")
	t.Setenv("OPENAI_BASE_URL", "https://api.shared.com")
	t.Setenv("OPENAI_MODEL", "shared-model")
	c := NewTier("EXTRACT")
	if c.apiKey != "sk-shared-key" {
		t.Errorf("apiKey: got %q, want sk-shared-key", c.apiKey)
	}
	if c.Label() != "EXTRACT" {
		t.Errorf("label: got %q, want EXTRACT", c.Label())
	}
}

func TestStripThinkBlocks_RemovesSingleBlock(t *testing.T) {
	// Removes a single <think>...</think> block
	got := StripThinkBlocks("<think>reasoning here</think>{\"a\":1}")
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestStripThinkBlocks_UnclosedBlock(t *testing.T) {
	// Strips an unclosed <think> block from its start to end of string
	got := StripThinkBlocks(`{"a":1}<think>trailing`)
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestStripFences_RemovesJSONFence(t *testing.T) {
	// Removes ```json ... ``` fences around a JSON body
	got := StripFences("```json\n{\"a\":1}\n```")
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestStripFences_NoFenceUnchanged(t *testing.T) {
	// Returns trimmed input when no fence is present
	got := StripFences("  {\"a\":1}  ")
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.HTTP.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", s.HTTP.Addr)
	}
	if s.HTTP.RequestTimeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %s", s.HTTP.RequestTimeout)
	}
	if s.Data.DuckDBPath != "cbb_data.duckdb" {
		t.Errorf("unexpected default database path: %s", s.Data.DuckDBPath)
	}
	if s.Data.MaxConns != 1 {
		t.Errorf("expected 1 engine connection by default, got %d", s.Data.MaxConns)
	}
	if s.Cache.Capacity != 256 {
		t.Errorf("expected default capacity 256, got %d", s.Cache.Capacity)
	}
	if s.LLM.Provider != "openai" || s.LLM.MaxTokens != 4096 {
		t.Errorf("unexpected LLM defaults: %+v", s.LLM)
	}
	if s.Assistant.MaxRounds != 4 {
		t.Errorf("expected default round budget 4, got %d", s.Assistant.MaxRounds)
	}
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "30s")
	t.Setenv("DUCKDB_PATH", "/data/hoops.duckdb")
	t.Setenv("DUCKDB_MAX_CONNS", "2")
	t.Setenv("DUCKDB_THREADS", "4")
	t.Setenv("DUCKDB_MEMORY_LIMIT", "512MB")
	t.Setenv("SESSION_DB_PATH", "/data/sessions.db")
	t.Setenv("CACHE_CAPACITY", "512")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_MODEL", "custom-model")
	t.Setenv("LLM_MAX_TOKENS", "2048")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("ASSISTANT_MAX_ROUNDS", "6")

	s, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.HTTP.Addr != ":9090" || s.HTTP.RequestTimeout != 30*time.Second {
		t.Errorf("HTTP settings not applied: %+v", s.HTTP)
	}
	if s.Data.DuckDBPath != "/data/hoops.duckdb" || s.Data.MaxConns != 2 || s.Data.SessionDBPath != "/data/sessions.db" {
		t.Errorf("data settings not applied: %+v", s.Data)
	}
	if s.Data.Threads != 4 || s.Data.MemoryLimit != "512MB" {
		t.Errorf("engine limits not applied: %+v", s.Data)
	}
	if s.Cache.Capacity != 512 {
		t.Errorf("cache capacity not applied: %d", s.Cache.Capacity)
	}
	if s.LLM.Provider != "anthropic" || s.LLM.Model != "custom-model" || s.LLM.MaxTokens != 2048 || s.LLM.Temperature != 0.7 {
		t.Errorf("LLM settings not applied: %+v", s.LLM)
	}
	if s.Assistant.MaxRounds != 6 {
		t.Errorf("round budget not applied: %d", s.Assistant.MaxRounds)
	}
}

func TestNewRejectsMalformedValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"DUCKDB_MAX_CONNS", "many"},
		{"CACHE_CAPACITY", "0"},
		{"CACHE_CAPACITY", "huge"},
		{"LLM_MAX_TOKENS", "-1"},
		{"LLM_TEMPERATURE", "warm"},
		{"ASSISTANT_MAX_ROUNDS", "0"},
		{"HTTP_REQUEST_TIMEOUT", "soon"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := New(); err == nil {
				t.Errorf("expected error for %s=%q", tc.key, tc.value)
			} else if !strings.Contains(err.Error(), tc.key) {
				t.Errorf("error should name the variable: %v", err)
			}
		})
	}
}

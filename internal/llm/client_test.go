package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	})
	return srv, client
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotReq chatRequest
	_, client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  hello  "}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	out, err := client.CompleteWithSystem(context.Background(), "be brief", "hi")
	require.NoError(t, err)
	require.Equal(t, "hello", out, "output is trimmed")

	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, "user", gotReq.Messages[1].Role)
	require.Equal(t, "gpt-4o-mini", gotReq.Model)
}

func TestOpenAIClient_RetriesOn429(t *testing.T) {
	var calls int32
	_, client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	})

	out, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_NonRetryableStatus(t *testing.T) {
	var calls int32
	_, client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures are not retried")
}

func TestOpenAIClient_APIError(t *testing.T) {
	_, client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model overloaded", "type": "server_error"},
		})
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model overloaded")
}

func TestOpenAIClient_MissingKey(t *testing.T) {
	client := NewOpenAIClient("")
	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
}

func newHFTestServer(t *testing.T, handler http.HandlerFunc) *HFClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHFClientWithConfig(HFConfig{
		APIToken: "hf_test",
		BaseURL:  srv.URL,
		Model:    "Salesforce/codet5p-770m",
		Timeout:  5 * time.Second,
	})
}

func TestHFClient_Complete(t *testing.T) {
	var gotReq hfRequest
	client := newHFTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Salesforce/codet5p-770m", r.URL.Path)
		require.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode([]map[string]string{{"generated_text": "a prompt"}})
	})

	out, err := client.CompleteWithSystem(context.Background(), "instructions", "code")
	require.NoError(t, err)
	require.Equal(t, "a prompt", out)

	// No chat schema: the system prompt is folded into the input.
	require.Equal(t, "instructions\n\ncode", gotReq.Inputs)
	require.True(t, gotReq.Options.WaitForModel)
}

func TestHFClient_RetriesColdStart(t *testing.T) {
	var calls int32
	client := newHFTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"error": "Model is loading", "estimated_time": 1.5})
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{{"generated_text": "warm now"}})
	})

	out, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "warm now", out)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHFClient_EmptyGeneration(t *testing.T) {
	client := newHFTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{})
	})

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
}

func TestGeminiClient_Complete(t *testing.T) {
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		require.Equal(t, "g-test", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "part1 "}, {"text": "part2"}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewGeminiClientWithConfig(GeminiConfig{
		APIKey:  "g-test",
		BaseURL: srv.URL,
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	})

	out, err := client.CompleteWithSystem(context.Background(), "sys", "user")
	require.NoError(t, err)
	require.Equal(t, "part1 part2", out, "multi-part candidates concatenate")

	require.NotNil(t, gotReq.SystemInstruction)
	require.Equal(t, "sys", gotReq.SystemInstruction.Parts[0].Text)
}

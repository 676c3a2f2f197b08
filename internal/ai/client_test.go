package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/prompt"
)

type fakeCompletions struct {
	mu       sync.Mutex
	requests []map[string]any
	status   map[string]int
	content  string
}

func (f *fakeCompletions) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, payload)
		f.mu.Unlock()

		model, _ := payload["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		if code := f.status[model]; code != 0 {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error":{"message":"model unavailable","type":"invalid_request_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": f.content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newFake(t *testing.T, content string, status map[string]int) (*fakeCompletions, *httptest.Server) {
	t.Helper()
	fake := &fakeCompletions{content: content, status: status}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	return fake, server
}

func newTestClient(t *testing.T, baseURL, model string) *Client {
	t.Helper()
	client, err := NewClient(Config{APIKey: "test-key", BaseURL: baseURL, Model: model, MaxRetries: 0})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

const threeCandidates = "```json\n" + `{"candidates":[
 {"headline":"여름엔 레몬","subline":"지금 바로 상큼하게","hashtags":["#레몬","여름"],"reasons":"short"},
 {"headline":"레몬 에이드?","subline":"한 잔으로 충분해요","hashtags":"#레몬"},
 {"headline":"상큼한 시작","subline":12}
]}` + "\n```"

func TestClientGenerateSendsImageAndParses(t *testing.T) {
	fake, server := newFake(t, threeCandidates, nil)
	client := newTestClient(t, server.URL, "gpt-4o-mini")

	raws, err := client.Generate(context.Background(), GenerateRequest{
		Brief: prompt.Brief{Brand: "Acme"},
		Image: &Image{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := []candidate.Raw{
		{Headline: "여름엔 레몬", Subline: "지금 바로 상큼하게", Hashtags: []string{"#레몬", "여름"}, Reasons: "short"},
		{Headline: "레몬 에이드?", Subline: "한 잔으로 충분해요", Hashtags: []string{"#레몬"}},
		{Headline: "상큼한 시작", Subline: "12"},
	}
	if diff := cmp.Diff(want, raws); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req["temperature"] != 0.8 {
		t.Fatalf("expected generation temperature 0.8, got %v", req["temperature"])
	}
	body, _ := json.Marshal(req["messages"])
	if !strings.Contains(string(body), "data:image/png;base64,") {
		t.Fatalf("expected inline image in request: %s", body)
	}
	if !strings.Contains(string(body), "Acme") {
		t.Fatalf("expected brief in prompt: %s", body)
	}
}

func TestClientRegenerateUsesLowerTemperature(t *testing.T) {
	fake, server := newFake(t, `{"headline":"Acme 레몬","subline":"지금 바로"}`, nil)
	client := newTestClient(t, server.URL, "gpt-4o-mini")

	raw, err := client.Regenerate(context.Background(), "- Include Acme", candidate.Candidate{Headline: "레몬", Subline: "지금 바로"})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if raw.Headline != "Acme 레몬" {
		t.Fatalf("unexpected headline %q", raw.Headline)
	}
	if fake.requests[0]["temperature"] != 0.3 {
		t.Fatalf("expected refine temperature 0.3, got %v", fake.requests[0]["temperature"])
	}
}

func TestClientMalformedOutput(t *testing.T) {
	_, server := newFake(t, "Sorry, I cannot help with that.", nil)
	client := newTestClient(t, server.URL, "gpt-4o-mini")

	_, err := client.Generate(context.Background(), GenerateRequest{})
	if !errors.Is(err, candidate.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestClientStatusErrors(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		modelError bool
	}{
		{"not found", http.StatusNotFound, true},
		{"bad request", http.StatusBadRequest, true},
		{"server error", http.StatusInternalServerError, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, server := newFake(t, "", map[string]int{"broken": tc.status})
			client := newTestClient(t, server.URL, "broken")
			_, err := client.Generate(context.Background(), GenerateRequest{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if StatusCode(err) != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, StatusCode(err))
			}
			if IsModelError(err) != tc.modelError {
				t.Fatalf("expected model error %v for %v", tc.modelError, err)
			}
		})
	}
}

func TestWithFallbackOnModelError(t *testing.T) {
	fake, server := newFake(t, threeCandidates, map[string]int{"gpt-4o-mini": http.StatusNotFound})
	gen := WithFallback(newTestClient(t, server.URL, "gpt-4o-mini"), newTestClient(t, server.URL, "gpt-4o"))

	raws, err := gen.Generate(context.Background(), GenerateRequest{})
	if err != nil {
		t.Fatalf("generate with fallback: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(raws))
	}
	models := []any{fake.requests[0]["model"], fake.requests[1]["model"]}
	if diff := cmp.Diff([]any{"gpt-4o-mini", "gpt-4o"}, models); diff != "" {
		t.Fatalf("model order mismatch (-want +got):\n%s", diff)
	}
}

func TestWithFallbackSkipsOnServerError(t *testing.T) {
	fake, server := newFake(t, threeCandidates, map[string]int{"gpt-4o-mini": http.StatusInternalServerError})
	gen := WithFallback(newTestClient(t, server.URL, "gpt-4o-mini"), newTestClient(t, server.URL, "gpt-4o"))

	if _, err := gen.Generate(context.Background(), GenerateRequest{}); err == nil {
		t.Fatalf("expected server error to surface")
	}
	if len(fake.requests) != 1 {
		t.Fatalf("expected no fallback call, got %d requests", len(fake.requests))
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if gen := WithFallback(nil, nil); gen != nil {
		t.Fatalf("expected nil chain")
	}
	if Regenerator(nil) != nil {
		t.Fatalf("expected nil regenerator for missing generator")
	}
}

func TestMockGenerator(t *testing.T) {
	gen := NewMockGenerator()
	raws, err := gen.Generate(context.Background(), GenerateRequest{Brief: prompt.Brief{Product: "레몬 에이드", Brand: "Acme"}})
	if err != nil {
		t.Fatalf("mock generate: %v", err)
	}
	if len(raws) != prompt.DefaultCount {
		t.Fatalf("expected %d candidates, got %d", prompt.DefaultCount, len(raws))
	}
	again, _ := gen.Generate(context.Background(), GenerateRequest{Brief: prompt.Brief{Product: "레몬 에이드", Brand: "Acme"}})
	if diff := cmp.Diff(raws, again); diff != "" {
		t.Fatalf("mock output must be deterministic:\n%s", diff)
	}

	regen := Regenerator(gen)
	out, err := regen(context.Background(), "anything", candidate.Candidate{Headline: "h", Subline: "s"})
	if err != nil || out.Headline != "h" || out.Subline != "s" {
		t.Fatalf("unexpected regenerate result %+v, %v", out, err)
	}
}

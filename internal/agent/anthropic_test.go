package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func upstreamStub(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected streaming request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprint(w, f)
			flusher.Flush()
		}
	}))
}

func TestAnthropicRespond(t *testing.T) {
	frames := []string{
		"event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"model\":\"claude-test\",\"usage\":{\"input_tokens\":12,\"output_tokens\":1}}}\n\n",
		"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello \"}}\n\n",
		"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"world\"}}\n\n",
		"event: message_delta\ndata: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":9}}\n\n",
		"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
	}
	srv := upstreamStub(t, frames)
	defer srv.Close()

	a := NewAnthropic(srv.URL, "test-key", "claude-test", 256)

	var reply strings.Builder
	result, err := a.Respond(context.Background(), Request{SessionID: "s1", Message: "hello there"}, func(fragment string) error {
		reply.WriteString(fragment)
		return nil
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	if reply.String() != "Hello world" {
		t.Errorf("reply = %q, want %q", reply.String(), "Hello world")
	}
	if result.Model != "claude-test" {
		t.Errorf("model = %q", result.Model)
	}
	if result.Usage.InputTokens != 12 || result.Usage.OutputTokens != 9 {
		t.Errorf("usage = %+v", result.Usage)
	}
	if result.Usage.TotalTokens != 21 {
		t.Errorf("total = %d, want 21", result.Usage.TotalTokens)
	}
	if result.Intent != IntentGeneralChat {
		t.Errorf("intent = %s", result.Intent)
	}
}

func TestAnthropicRespondAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	a := NewAnthropic(srv.URL, "bad-key", "claude-test", 256)

	_, err := a.Respond(context.Background(), Request{SessionID: "s1", Message: "hi"}, func(string) error {
		t.Fatal("emit called on error response")
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid x-api-key") {
		t.Errorf("err = %v, want upstream message surfaced", err)
	}
}

func TestAnthropicRespondNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	a := NewAnthropic(srv.URL, "test-key", "claude-test", 256)
	_, err := a.Respond(context.Background(), Request{Message: "hi"}, func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error")
	}
}

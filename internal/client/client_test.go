package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/velkovn/agentchat/internal/stream"
)

func chatStub(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("session_id") == "" {
			t.Error("missing session_id")
		}
		if r.PostForm.Get("user_message") == "" {
			t.Error("missing user_message")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprint(w, f)
			flusher.Flush()
		}
	}))
}

func TestChatAssemblesTranscript(t *testing.T) {
	frames := []string{
		`data: {"type":"streaming","message":"The answer "}` + "\n\n",
		`data: {"type":"streaming","message":"is 42."}` + "\n\n",
		`data: {"type":"usage","input_tokens":100,"output_tokens":20,"total_tokens":120}` + "\n\n",
	}
	srv := chatStub(t, frames)
	defer srv.Close()

	c := New(srv.URL)
	var tr Transcript
	if err := c.Chat(context.Background(), NewSessionID(), "what is the answer?", tr.Apply); err != nil {
		t.Fatalf("chat: %v", err)
	}

	if tr.Reply() != "The answer is 42." {
		t.Errorf("reply = %q", tr.Reply())
	}
	if !tr.HasUsage || tr.Usage.InputTokens != 100 || tr.Usage.OutputTokens != 20 {
		t.Errorf("usage = %+v (has=%v)", tr.Usage, tr.HasUsage)
	}
	if tr.ErrMsg != "" {
		t.Errorf("unexpected error message %q", tr.ErrMsg)
	}
}

func TestChatServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"session_id is required"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Chat(context.Background(), "", "hi", func(stream.Event) error { return nil })
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "server 400: session_id is required" {
		t.Errorf("err = %q", got)
	}
}

func TestChatErrorEvent(t *testing.T) {
	frames := []string{
		`data: {"type":"error","message":"agent failed"}` + "\n\n",
	}
	srv := chatStub(t, frames)
	defer srv.Close()

	c := New(srv.URL)
	var tr Transcript
	if err := c.Chat(context.Background(), NewSessionID(), "hi", tr.Apply); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if tr.ErrMsg != "agent failed" {
		t.Errorf("error message = %q", tr.ErrMsg)
	}
}

func TestChatCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, `data: {"type":"streaming","message":"partial"}`+"\n\n")
		flusher.Flush()
		<-release // hold the stream open
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())

	c := New(srv.URL)
	var count int
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Chat(ctx, NewSessionID(), "hi", func(stream.Event) error {
			count++
			cancel()
			return nil
		})
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("chat did not return after cancellation")
	}
	if count != 1 {
		t.Errorf("delivered %d events, want 1", count)
	}
}

func TestChatWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Chat(context.Background(), NewSessionID(), "hi", func(stream.Event) error { return nil }); err == nil {
		t.Fatal("expected error for non-SSE response")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ent0n29/convo/internal/fallback"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	verbose = false
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func deadNLU(t *testing.T) {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	t.Setenv("NLU_BASE_URL", url)
	t.Setenv("APP_LOG_LEVEL", "error")
}

func TestSentimentCommand(t *testing.T) {
	deadNLU(t)
	out, err := runCLI(t, "", "sentiment", "this", "is", "awful")
	if err != nil {
		t.Fatalf("sentiment error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got["sentiment"] != "negative" {
		t.Fatalf("sentiment = %q, want negative", got["sentiment"])
	}
}

func TestIntentCommandFallsBack(t *testing.T) {
	deadNLU(t)
	out, err := runCLI(t, "", "intent", "what", "services", "do", "you", "offer")
	if err != nil {
		t.Fatalf("intent error = %v", err)
	}
	var got struct {
		Intent struct {
			Name string `json:"intent"`
		} `json:"intent"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got.Intent.Name != fallback.IntentAskServices || len(got.Suggestions) == 0 {
		t.Fatalf("intent output = %+v", got)
	}
}

func TestStatusCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model_file":"models/m.tar.gz"}`))
	}))
	defer ts.Close()
	t.Setenv("NLU_BASE_URL", ts.URL)
	t.Setenv("APP_LOG_LEVEL", "error")

	out, err := runCLI(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, `"model_loaded": true`) {
		t.Fatalf("status output = %q", out)
	}
}

func TestTrainCommandFailsWhenRejected(t *testing.T) {
	deadNLU(t)
	if _, err := runCLI(t, "", "train"); err == nil {
		t.Fatalf("train against a dead server should fail")
	}
}

func TestChatREPL(t *testing.T) {
	deadNLU(t)
	out, err := runCLI(t, "hello\n\nhow much is it\n/quit\nnever read\n", "chat")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "session user_") {
		t.Fatalf("missing session banner: %q", out)
	}
	if !strings.Contains(out, "intent=greet") || !strings.Contains(out, "intent=ask_pricing") {
		t.Fatalf("missing fallback turns: %q", out)
	}
	if strings.Contains(out, "never read") {
		t.Fatalf("input after /quit was processed")
	}
}

func TestConfigErrorStopsCommand(t *testing.T) {
	t.Setenv("APP_LOG_LEVEL", "loud")
	if _, err := runCLI(t, "", "sentiment", "ok"); err == nil {
		t.Fatalf("invalid log level should fail")
	}
}

package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ent0n29/convo/internal/reliability"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(Options{BaseURL: ts.URL + "/", Timeout: 5 * time.Second})
}

func TestSendPostsWebhookPayload(t *testing.T) {
	var got Message
	var gotHeader string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/webhooks/rest/webhook" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		gotHeader = r.Header.Get(SessionHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[{"recipient_id":"user","text":"hi there","buttons":[{"title":"Services","payload":"/ask_services"}]}]`))
	})

	msg := NewMessage("hello", "user", "user_1_abc", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	resp, err := c.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	want := []Response{{
		RecipientID: "user",
		Text:        "hi there",
		Buttons:     []Button{{Title: "Services", Payload: "/ask_services"}},
	}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("Send() mismatch (-want +got):\n%s", diff)
	}
	if got.Metadata.SessionID != "user_1_abc" || got.Metadata.Timestamp != "2024-05-01T10:00:00.000Z" {
		t.Fatalf("metadata = %+v", got.Metadata)
	}
	if got.Message != "hello" || got.Sender != "user" {
		t.Fatalf("payload = %+v", got)
	}
	if gotHeader != "user_1_abc" {
		t.Fatalf("%s = %q, want session id", SessionHeader, gotHeader)
	}
}

func TestSendEmptyBodyIsNoReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	resp, err := c.Send(context.Background(), NewMessage("x", "user", "s", time.Now()))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp == nil || len(resp) != 0 {
		t.Fatalf("Send() = %#v, want empty non-nil slice", resp)
	}
}

func TestSendFailuresAreGatewayUnavailable(t *testing.T) {
	cases := []struct {
		name      string
		handler   http.HandlerFunc
		wantClass string
		wantCode  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantClass: reliability.ClassTransient,
			wantCode:  http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantClass: reliability.ClassRejected,
			wantCode:  http.StatusNotFound,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not":"a list"`))
			},
			wantClass: reliability.ClassMalformed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.Send(context.Background(), NewMessage("x", "user", "s", time.Now()))
			if !errors.Is(err, ErrGatewayUnavailable) {
				t.Fatalf("Send() error = %v, want ErrGatewayUnavailable", err)
			}
			var gw *GatewayError
			if !errors.As(err, &gw) {
				t.Fatalf("error %T is not *GatewayError", err)
			}
			if gw.Class != tc.wantClass || gw.StatusCode != tc.wantCode || gw.Op != "send" {
				t.Fatalf("GatewayError = %+v", gw)
			}
		})
	}
}

func TestSendNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.Send(context.Background(), NewMessage("x", "user", "s", time.Now()))
	var gw *GatewayError
	if !errors.As(err, &gw) || gw.Class != reliability.ClassNetwork {
		t.Fatalf("Send() error = %v, want network GatewayError", err)
	}
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("network error should match ErrGatewayUnavailable")
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		code int
		body string
		want bool
	}{
		{"loaded", http.StatusOK, `{"model_file":"models/20240501.tar.gz"}`, true},
		{"empty model", http.StatusOK, `{"model_file":""}`, false},
		{"missing model", http.StatusOK, `{}`, false},
		{"server error", http.StatusServiceUnavailable, `{}`, false},
		{"garbage", http.StatusOK, `<html>`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/status" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get(SessionHeader) != "sess" {
					t.Errorf("missing session header")
				}
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})
			if got := c.Status(context.Background(), "sess"); got != tc.want {
				t.Fatalf("Status() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTrain(t *testing.T) {
	var got TrainRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/model/train" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("training started"))
	})
	if !c.Train(context.Background(), "sess", DefaultTrainRequest()) {
		t.Fatalf("Train() = false, want true")
	}
	if diff := cmp.Diff(DefaultTrainRequest(), got); diff != "" {
		t.Fatalf("train body mismatch (-want +got):\n%s", diff)
	}

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	})
	if failing.Train(context.Background(), "sess", DefaultTrainRequest()) {
		t.Fatalf("Train() = true on 409, want false")
	}
}

func TestParse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "book a call for monday" {
			t.Errorf("parse text = %q", body["text"])
		}
		_, _ = w.Write([]byte(`{
			"text":"book a call for monday",
			"intent":{"name":"book_consultation","confidence":0.93},
			"entities":[{"entity":"day","value":"monday","start":16,"end":22,"extractor":"DIETClassifier"}]
		}`))
	})

	got, err := c.Parse(context.Background(), "sess", "book a call for monday")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := ParseResult{
		Text:   "book a call for monday",
		Intent: &ParsedIntent{Name: "book_consultation", Confidence: 0.93},
		Entities: []Entity{{
			Entity: "day", Value: "monday", Start: 16, End: 22, Extractor: "DIETClassifier",
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	if _, err := c.Parse(context.Background(), "sess", "x"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Parse() error = %v, want ErrGatewayUnavailable", err)
	}
}

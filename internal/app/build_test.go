package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ent0n29/convo/internal/config"
	"github.com/ent0n29/convo/internal/nlu"
)

func TestBuildWiresSharedGateway(t *testing.T) {
	var seen []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(nlu.SessionHeader))
		_, _ = w.Write([]byte(`{"model_file":"models/m.tar.gz"}`))
	}))
	defer backend.Close()

	cfg := config.Config{
		MetricsNamespace:         "test_app",
		SessionInactivityTimeout: time.Minute,
		NLUBaseURL:               backend.URL,
		NLUTimeout:               time.Second,
		Training:                 nlu.DefaultTrainRequest(),
	}
	built, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer built.Cleanup()

	if built.Gateway.BaseURL() != backend.URL {
		t.Fatalf("gateway base URL = %q", built.Gateway.BaseURL())
	}

	api := httptest.NewServer(built.API.Router())
	defer api.Close()
	res, err := http.Get(api.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d", res.StatusCode)
	}
	if len(seen) != 1 || seen[0] == "" {
		t.Fatalf("status probe headers = %v, want one call with a session id", seen)
	}

	families, err := built.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_app_nlu_gateway_calls_total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("gateway calls counter not registered")
	}
}

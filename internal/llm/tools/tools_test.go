package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invoice-backend/internal/llm"
)

type echoTool struct{ name string }

func (t echoTool) Spec() llm.ToolSpec { return llm.ToolSpec{Name: t.name} }

func (t echoTool) Call(ctx context.Context, arguments json.RawMessage) (string, error) {
	return t.name + ":" + string(arguments), nil
}

func TestRegistrySpecsKeepOrder(t *testing.T) {
	r := NewRegistry(echoTool{"b"}, echoTool{"a"}, echoTool{"c"})
	specs := r.Specs()
	got := make([]string, len(specs))
	for i, s := range specs {
		got[i] = s.Name
	}
	if strings.Join(got, ",") != "b,a,c" {
		t.Fatalf("registration order not kept: %v", got)
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(echoTool{"echo"})

	out, err := r.Dispatch(context.Background(), "echo", `{"x":1}`)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out != `echo:{"x":1}` {
		t.Fatalf("unexpected result %q", out)
	}

	if _, err := r.Dispatch(context.Background(), "missing", "{}"); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestWeatherCall(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"current":{"temperature_2m":21.5}}`)
	}))
	defer srv.Close()

	weather := NewWeather()
	weather.BaseURL = srv.URL + "/forecast"

	out, err := weather.Call(context.Background(), json.RawMessage(`{"latitude":52.52,"longitude":13.41}`))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !strings.Contains(out, "temperature_2m") {
		t.Fatalf("unexpected payload %q", out)
	}
	if gotPath != "/forecast" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestWeatherRejectsBadArguments(t *testing.T) {
	weather := NewWeather()
	if _, err := weather.Call(context.Background(), json.RawMessage("not json")); err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

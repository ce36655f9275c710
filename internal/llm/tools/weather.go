package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"invoice-backend/internal/llm"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast?latitude=%f&longitude=%f&current=temperature_2m&hourly=temperature_2m"

// Weather fetches current conditions from Open-Meteo.
type Weather struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewWeather() *Weather {
	return &Weather{HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Weather) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        "getWeather",
		Description: "Get the current weather at a location",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude":  map[string]any{"type": "number"},
				"longitude": map[string]any{"type": "number"},
			},
			"required": []string{"latitude", "longitude"},
		},
	}
}

func (w *Weather) Call(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return "", fmt.Errorf("getWeather: bad arguments: %w", err)
	}

	url := fmt.Sprintf(openMeteoURL, args.Latitude, args.Longitude)
	if w.BaseURL != "" {
		url = w.BaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	client := w.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("getWeather: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

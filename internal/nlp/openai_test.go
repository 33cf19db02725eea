package nlp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hibiki/internal/intent"
	"hibiki/internal/nlp"
)

// chatServer returns an httptest server that answers every chat completion
// request with the given message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newProvider(baseURL string) intent.Provider {
	return nlp.New(nlp.Config{APIKey: "test-key", BaseURL: baseURL})
}

func TestClassify_WellFormedReply(t *testing.T) {
	srv := chatServer(t, `{"intent":"set_reminder","parameters":{"description":"call mom","reminder_time":"2025-03-10T09:30:00Z"},"confidence":0.93}`)
	defer srv.Close()

	cmd, err := newProvider(srv.URL).Classify(context.Background(), "remind me to call mom in 30 minutes")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cmd.Intent != intent.SetReminder {
		t.Errorf("intent = %s, want %s", cmd.Intent, intent.SetReminder)
	}
	if cmd.Confidence != 0.93 {
		t.Errorf("confidence = %v, want 0.93", cmd.Confidence)
	}
	if got := cmd.Parameters["description"]; got != "call mom" {
		t.Errorf("description = %v, want 'call mom'", got)
	}
	if got := cmd.Parameters["original_text"]; got != "remind me to call mom in 30 minutes" {
		t.Errorf("original_text = %v, want the verbatim utterance", got)
	}
}

func TestClassify_InventedIntentCollapsesToUnknown(t *testing.T) {
	srv := chatServer(t, `{"intent":"order_pizza","parameters":{},"confidence":0.99}`)
	defer srv.Close()

	cmd, err := newProvider(srv.URL).Classify(context.Background(), "order a pizza")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cmd.Intent != intent.Unknown {
		t.Errorf("intent = %s, want %s (invented names must not pass through)", cmd.Intent, intent.Unknown)
	}
	if cmd.Confidence != intent.UnknownConfidence {
		t.Errorf("confidence = %v, want %v", cmd.Confidence, intent.UnknownConfidence)
	}
}

func TestClassify_MalformedOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I think you want a reminder!"},
		{"missing intent", `{"parameters":{},"confidence":0.9}`},
		{"empty intent", `{"intent":"","confidence":0.9}`},
		{"confidence out of range", `{"intent":"greet","confidence":1.7}`},
		{"parameters not an object", `{"intent":"greet","parameters":[1,2],"confidence":0.9}`},
	}

	for _, tc := range tests {
		srv := chatServer(t, tc.content)
		_, err := newProvider(srv.URL).Classify(context.Background(), "hello")
		srv.Close()
		if !errors.Is(err, intent.ErrMalformedOutput) {
			t.Errorf("%s: err = %v, want ErrMalformedOutput", tc.name, err)
		}
	}
}

func TestClassify_UpstreamRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newProvider(srv.URL).Classify(context.Background(), "hello")
	if !errors.Is(err, nlp.ErrRateLimit) {
		t.Errorf("err = %v, want ErrRateLimit", err)
	}
}

func TestClassify_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth_error"}}`))
	}))
	defer srv.Close()

	_, err := newProvider(srv.URL).Classify(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error for an API error body")
	}
}

func TestClassify_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"intent\":\"greet\",\"confidence\":0.9}"}}]}`))
	}))
	defer srv.Close()

	if _, err := newProvider(srv.URL).Classify(context.Background(), "hello"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want the bearer token", gotAuth)
	}
}

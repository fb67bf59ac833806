package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: HTTP
    enabled: true
    http:
      url: " https://example.com/2 "
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	cfg := enabled[0]
	if cfg.Type != TypeHTTP || cfg.HTTP.URL != "https://example.com/2" || cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("expected normalized http config, got %+v", cfg.HTTP)
	}
	if _, ok := reg.ByID("http1"); !ok {
		t.Fatal("disabled publishers must still be addressable by id")
	}
}

func TestLoadRegistryJSONAllTypes(t *testing.T) {
	t.Setenv("PADDOCK_TG_TOKEN", "123:abc")
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers": [
  {"id": "q", "type": "sqs", "sqs": {"uri": "https://sqs.eu-west-1.amazonaws.com/1/q", "region": "eu-west-1"}},
  {"id": "t", "type": "sns", "sns": {"topic_arn": "arn:aws:sns:eu-west-1:1:t", "region": "eu-west-1"}},
  {"id": "g", "type": "gcp_pubsub", "gcp_pubsub": {"project_id": "p", "topic": "headlines"}},
  {"id": "tg", "type": "telegram", "telegram": {"token_env": "PADDOCK_TG_TOKEN", "chat_id": -100}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if got := len(reg.All()); got != 4 {
		t.Fatalf("expected 4 publishers, got %d", got)
	}
	tg, ok := reg.ByID("tg")
	if !ok || tg.Telegram.Token != "123:abc" {
		t.Fatalf("expected telegram token resolved from env, got %+v", tg.Telegram)
	}
}

func TestParseRegistryRejectsDuplicatesAndGarbage(t *testing.T) {
	dup := `
publishers:
  - id: a
    type: http
    http: {url: https://a}
  - id: a
    type: http
    http: {url: https://b}
`
	if _, err := ParseRegistry([]byte(dup), ".yaml"); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if _, err := ParseRegistry([]byte("{not json"), ".json"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseRegistry([]byte("publishers: []"), ""); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  PublisherConfig
	}{
		{name: "missing id", cfg: PublisherConfig{Type: TypeHTTP}},
		{name: "missing type", cfg: PublisherConfig{ID: "x"}},
		{name: "missing http block", cfg: PublisherConfig{ID: "h1", Type: TypeHTTP}},
		{name: "sqs without region", cfg: PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}}},
		{name: "sns without topic", cfg: PublisherConfig{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "r"}}},
		{name: "pubsub without topic", cfg: PublisherConfig{ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "p"}}},
		{name: "telegram without chat", cfg: PublisherConfig{ID: "tg", Type: TypeTelegram, Telegram: &TelegramPublisherConfig{Token: "t"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validatePublisherConfig(tt.cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	yaml "gopkg.in/yaml.v3"
)

// marshalJSON keeps "<secret>" readable, json.Marshal would escape angle
// brackets.
func marshalJSON(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		t.Fatalf("json encode error = %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestSecretString_Hidden(t *testing.T) {
	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantText string
	}{
		{"empty", "", "null", ""},
		{"password", "hunter2", `"` + SecretStringValue + `"`, SecretStringValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := marshalJSON(t, tt.input); got != tt.wantJSON {
				t.Errorf("json = %s, want %s", got, tt.wantJSON)
			}
			if s := fmt.Sprintf("%v", tt.input); s != tt.wantText {
				t.Errorf("%%v = %q, want %q", s, tt.wantText)
			}
		})
	}
}

func TestSecretString_InConfigs(t *testing.T) {
	cfg := TransportConfig{
		Channel: "content-change",
		NATS:    NATSConfig{URL: "nats://127.0.0.1:4222", User: "me", Password: "pw-nats"},
		Redis:   RedisConfig{Addr: "127.0.0.1:6379", Password: "pw-redis"},
	}

	y, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	j := marshalJSON(t, cfg)
	for _, out := range []string{string(y), j} {
		if strings.Contains(out, "pw-") {
			t.Errorf("secret leaked:\n%s", out)
		}
		if !strings.Contains(out, SecretStringValue) {
			t.Errorf("placeholder missing:\n%s", out)
		}
	}
	// empty token is omitted from yaml
	if strings.Contains(string(y), "token") {
		t.Errorf("empty token present in yaml:\n%s", y)
	}

	core, logs := observer.New(zap.DebugLevel)
	zap.New(core).Info("connecting", zap.Stringer("password", cfg.NATS.Password), zap.String("addr", cfg.Redis.Addr))
	for _, e := range logs.All() {
		for k, v := range e.ContextMap() {
			if strings.Contains(fmt.Sprint(v), "pw-") {
				t.Errorf("secret leaked in log field %s: %v", k, v)
			}
		}
	}
}

func TestSecretString_JSONDecodes(t *testing.T) {
	data, err := json.Marshal(RedisConfig{Addr: "h:1", Password: "pw"})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got["Password"] != SecretStringValue {
		t.Errorf("Password = %v, want %s", got["Password"], SecretStringValue)
	}
}

func TestSecretString_YAMLRoundTrip(t *testing.T) {
	var cfg RedisConfig
	if err := yaml.Unmarshal([]byte("addr: localhost:6379\npassword: s3cret\n"), &cfg); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if string(cfg.Password) != "s3cret" {
		t.Errorf("Password = %q", string(cfg.Password))
	}
}

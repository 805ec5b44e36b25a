package email

import (
	"strings"
	"testing"
)

func TestConfigured(t *testing.T) {
	if (Config{}).Configured() {
		t.Fatal("empty config must not be configured")
	}
	if (Config{Host: "smtp.example.com"}).Configured() {
		t.Fatal("config without From must not be configured")
	}
	if !(Config{Host: "smtp.example.com", From: "noreply@example.com"}).Configured() {
		t.Fatal("expected configured")
	}
}

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	s := NewSender(Config{From: "noreply@example.com", FromName: "Lookout"})
	msg := string(s.buildMessage("a@example.com\r\nBcc: evil@example.com", "Hi\nthere", "<p>body</p>"))

	if strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("header injection survived: %q", msg)
	}
	if !strings.HasPrefix(msg, "From: Lookout <noreply@example.com>\r\n") {
		t.Fatalf("unexpected from header: %q", msg)
	}
	if !strings.Contains(msg, "Subject: Hithere\r\n") {
		t.Fatalf("unexpected subject: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<p>body</p>") {
		t.Fatalf("unexpected body: %q", msg)
	}
}

func TestPasswordResetBodyEscapes(t *testing.T) {
	body := PasswordResetBody("<bob>", "https://example.com/reset?token=a&b")
	if !strings.Contains(body, "&lt;bob&gt;") {
		t.Fatalf("username not escaped: %s", body)
	}
	if !strings.Contains(body, `href="https://example.com/reset?token=a&amp;b"`) {
		t.Fatalf("link not escaped: %s", body)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.local")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SMTP_FROM", "noreply@local")

	cfg := LoadConfig()
	if cfg.Host != "mail.local" || cfg.Port != "587" || cfg.From != "noreply@local" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

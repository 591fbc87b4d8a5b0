package config

import "testing"

func TestLoad_MailDefaults(t *testing.T) {
	t.Setenv("SMTP_SERVER", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("EMAIL_USER", "")
	t.Setenv("EMAIL_PASS", "")
	t.Setenv("MAIL_DRIVER", "")

	cfg := Load()

	if cfg.Mail.Port != 587 {
		t.Fatalf("expected default smtp port 587, got %d", cfg.Mail.Port)
	}
	if cfg.Mail.Configured() {
		t.Fatalf("mail must not be configured without credentials")
	}
}

func TestLoad_MailConfigured(t *testing.T) {
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_USER", "shop@example.com")
	t.Setenv("EMAIL_PASS", "secret")
	t.Setenv("MAIL_DRIVER", "smtp")

	cfg := Load()

	if !cfg.Mail.Configured() {
		t.Fatalf("expected mail to be configured")
	}
	if cfg.Mail.Port != 2525 {
		t.Fatalf("got port %d, want 2525", cfg.Mail.Port)
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	if got := getEnvInt("PORT", 8080); got != 8080 {
		t.Fatalf("got %d, want fallback 8080", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing_stripe_key", cfg: Config{StripeWebhookSecret: "whsec"}, wantErr: true},
		{name: "missing_webhook_secret", cfg: Config{StripeSecretKey: "sk"}, wantErr: true},
		{name: "prod_default_session_secret", cfg: Config{Env: "prod", StripeSecretKey: "sk", StripeWebhookSecret: "whsec", SessionSecret: "dev-session-secret-change-me"}, wantErr: true},
		{name: "ok", cfg: Config{Env: "dev", StripeSecretKey: "sk", StripeWebhookSecret: "whsec"}, wantErr: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected split result: %#v", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{raw: "", want: 1},
		{raw: "0.25", want: 0.25},
		{raw: "1.5", want: 1},
		{raw: "half", want: 1},
	}

	for _, tt := range tests {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.raw)
		if got := getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1); got != tt.want {
			t.Fatalf("raw=%q: got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	if got := Load().TrustedProxies; got != nil {
		t.Fatalf("no proxies configured, got %v", got)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	got := Load().TrustedProxies
	if len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "127.0.0.1" {
		t.Fatalf("unexpected proxies: %#v", got)
	}
}

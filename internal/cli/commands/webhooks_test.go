package commands

import (
	"testing"

	"github.com/ccollicutt/tracecheck/pkg/config"
)

func TestCollectWebhooks(t *testing.T) {
	cfg := &config.Config{
		Webhooks: []config.WebhookConfig{
			{Name: "slack", URL: "https://slack.com/webhook"},
			{Name: "pagerduty", URL: "https://pagerduty.com/webhook"},
		},
	}

	t.Run("config only", func(t *testing.T) {
		webhooks := collectWebhooks(cfg, &RunOptions{})
		if len(webhooks) != 2 {
			t.Errorf("got %d webhooks, want 2", len(webhooks))
		}
	})

	t.Run("cli added", func(t *testing.T) {
		opts := &RunOptions{WebhookURL: "https://cli.example.com", WebhookToken: "tok", WebhookTrigger: "always"}
		webhooks := collectWebhooks(cfg, opts)
		if len(webhooks) != 3 {
			t.Fatalf("got %d webhooks, want 3", len(webhooks))
		}
		cli := webhooks[2]
		if cli.Name != "cli" || cli.Token != "tok" || cli.Trigger != config.WebhookTriggerAlways {
			t.Errorf("cli webhook = %+v", cli)
		}
		if cli.Timeout != config.DefaultWebhookTimeout {
			t.Errorf("Timeout = %v, want %v", cli.Timeout, config.DefaultWebhookTimeout)
		}
		if len(cfg.Webhooks) != 2 {
			t.Error("config webhooks were modified")
		}
	})

	t.Run("empty trigger", func(t *testing.T) {
		webhooks := collectWebhooks(&config.Config{}, &RunOptions{WebhookURL: "https://x"})
		if webhooks[0].Trigger != config.WebhookTriggerOnFailure {
			t.Errorf("Trigger = %q, want on_failure", webhooks[0].Trigger)
		}
	})
}

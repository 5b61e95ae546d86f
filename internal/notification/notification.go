// Package notification handles sending notifications to external services.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/zorak1103/releasectl/internal/config"
)

// sendFunc matches shoutrrr.Send.
type sendFunc func(rawURL, message string) error

// Notifier handles sending notifications via Shoutrrr
type Notifier struct {
	enabled     bool
	shoutrrrURL string
	send        sendFunc
}

// NewNotifier initializes a Shoutrrr-based notification client from config.
func NewNotifier(cfg *config.Config) (*Notifier, error) {
	if !cfg.Notification.Enabled {
		return &Notifier{enabled: false}, nil
	}

	url := strings.TrimSpace(cfg.Notification.ShoutrrURL)
	if url == "" {
		return &Notifier{enabled: false}, fmt.Errorf("notification enabled but shoutrrr_url not configured: provide URL in format 'service://credentials' (e.g., slack://token@channel, discord://token@webhookid)")
	}

	return &Notifier{
		enabled:     true,
		shoutrrrURL: url,
		send:        shoutrrr.Send,
	}, nil
}

// Release is what the notification message reports about a finished release.
type Release struct {
	Headline  string
	Tag       string
	Channel   string
	Artifacts int
	Report    string // path of the saved report, may be empty
}

// SendReleaseSummary announces a finished release via the configured notification channel.
func (n *Notifier) SendReleaseSummary(r Release) error {
	if !n.IsEnabled() {
		return nil // Notifications disabled
	}

	message := formatRelease(r, time.Now())

	send := n.send
	if send == nil {
		send = shoutrrr.Send
	}
	if err := send(n.shoutrrrURL, message); err != nil {
		return fmt.Errorf("notification failed to send via %s (release: %s, channel: %s): %w",
			serviceType(n.shoutrrrURL), r.Tag, r.Channel, err)
	}

	return nil
}

func formatRelease(r Release, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("🚀 Release published\n")
	sb.WriteString(fmt.Sprintf("📅 Time: %s\n", now.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("🏷️  Tag: %s\n", r.Tag))
	sb.WriteString(fmt.Sprintf("📡 Channel: %s\n", r.Channel))
	sb.WriteString(fmt.Sprintf("📦 Artifacts: %d\n", r.Artifacts))
	if r.Report != "" {
		sb.WriteString(fmt.Sprintf("📝 Report: %s\n", r.Report))
	}

	sb.WriteString("\n")
	sb.WriteString(r.Headline)
	return sb.String()
}

// serviceType extracts the scheme, e.g. "slack://..." -> "slack".
func serviceType(url string) string {
	if idx := strings.Index(url, "://"); idx > 0 {
		return url[:idx]
	}
	return "unknown"
}

// IsEnabled reports whether notifications are configured and active.
func (n *Notifier) IsEnabled() bool {
	return n != nil && n.enabled
}

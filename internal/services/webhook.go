package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/alerts"
	"github.com/sitewarden-dev/sitewarden/internal/models"
	"github.com/sitewarden-dev/sitewarden/pkg/logger"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed   = 16711680 // #FF0000 - Alert opened
	ColorGreen = 65280    // #00FF00 - Alert resolved

	Username = "Sitewarden"
)

// WebhookDispatcher consumes alert lifecycle events and fans them out to
// configured Discord/Slack webhooks. Events are buffered and dropped on
// overflow; notification delivery never blocks the alert lifecycle.
type WebhookDispatcher struct {
	discordURL string
	slackURL   string
	events     chan alerts.Event
	client     *http.Client
}

func NewWebhookDispatcher(discordURL, slackURL string) *WebhookDispatcher {
	return &WebhookDispatcher{
		discordURL: discordURL,
		slackURL:   slackURL,
		events:     make(chan alerts.Event, 64),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements alerts.Notifier.
func (d *WebhookDispatcher) Notify(ev alerts.Event) {
	select {
	case d.events <- ev:
	default:
		logger.Warn("webhook event buffer full, dropping event",
			logger.String("alert_id", ev.Alert.ID),
			logger.String("event", ev.Type))
	}
}

// Run drains events until the context is cancelled.
func (d *WebhookDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			if err := d.dispatch(ev); err != nil {
				logger.Error("webhook delivery failed",
					logger.String("alert_id", ev.Alert.ID),
					logger.Err(err))
			}
		}
	}
}

func (d *WebhookDispatcher) dispatch(ev alerts.Event) error {
	if d.discordURL == "" && d.slackURL == "" {
		return nil
	}

	if d.discordURL != "" {
		if err := d.sendDiscord(ev); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if d.slackURL != "" {
		if err := d.sendSlack(ev); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func (d *WebhookDispatcher) sendDiscord(ev alerts.Event) error {
	alert := ev.Alert

	title := "🚨 **ALERT OPENED**"
	color := ColorRed
	if ev.Type == alerts.EventResolved {
		title = "✅ **ALERT RESOLVED**"
		color = ColorGreen
	}

	fields := []DiscordWebhookField{
		{Name: "Severity", Value: alert.Severity, Inline: true},
		{Name: "Occurrences", Value: fmt.Sprintf("%d", alert.OccurrenceCount), Inline: true},
		{Name: "Tenant", Value: alert.TenantID, Inline: true},
		{Name: "Details", Value: alert.Message, Inline: false},
	}
	if ev.Type == alerts.EventResolved {
		fields = append(fields, DiscordWebhookField{
			Name: "Resolved By", Value: resolvedBy(alert), Inline: true,
		})
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: alert.Title,
				Color:       color,
				Fields:      fields,
				Footer:      &DiscordFooter{Text: "Sitewarden Monitoring"},
				Timestamp:   time.Now().Format(time.RFC3339),
			},
		},
	}

	return d.post(d.discordURL, payload)
}

func (d *WebhookDispatcher) sendSlack(ev alerts.Event) error {
	alert := ev.Alert

	text := ":rotating_light: *ALERT OPENED*"
	color := "danger"
	emoji := ":rotating_light:"
	if ev.Type == alerts.EventResolved {
		text = ":white_check_mark: *ALERT RESOLVED*"
		color = "good"
		emoji = ":white_check_mark:"
	}

	payload := SlackWebhookRequest{
		Username:  Username,
		IconEmoji: emoji,
		Text:      text,
		Attachments: []SlackAttachment{
			{
				Color: color,
				Title: alert.Title,
				Text:  alert.Message,
				Fields: []SlackField{
					{Title: "Severity", Value: alert.Severity, Short: true},
					{Title: "Occurrences", Value: fmt.Sprintf("%d", alert.OccurrenceCount), Short: true},
					{Title: "Tenant", Value: alert.TenantID, Short: false},
				},
				Footer:    "Sitewarden Monitoring",
				Timestamp: time.Now().Unix(),
			},
		},
	}

	return d.post(d.slackURL, payload)
}

func (d *WebhookDispatcher) post(url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	resp, err := d.client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func resolvedBy(alert models.Alert) string {
	if alert.ResolvedBy == "" {
		return "unknown"
	}
	return alert.ResolvedBy
}

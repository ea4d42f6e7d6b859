package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobboard/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier forwards toasts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each toast to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the toast as one Block Kit message. A 429 is retried once
// after the advertised Retry-After.
func (s *SlackNotifier) Notify(n model.Notification) error {
	body, err := json.Marshal(buildPayload(n))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent", "application_id", n.ApplicationID(), "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent", "application_id", n.ApplicationID())
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func variantIcon(v model.Variant) string {
	switch v {
	case model.VariantSuccess:
		return "🎉"
	case model.VariantError:
		return "❌"
	}
	return "👤"
}

func buildPayload(n model.Notification) slackPayload {
	message := n.Message()
	blocks := []slackBlock{
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: variantIcon(n.Variant()) + " " + message},
		},
	}

	var fields []slackText
	switch n.Kind {
	case model.KindApplicantStatus:
		if c := n.StatusChange; c != nil {
			if c.Job != nil && c.Job.Company != "" {
				fields = append(fields, slackText{Type: "mrkdwn", Text: "*Company:*\n" + c.Job.Company})
			}
			if c.StatusUpdatedAt != nil {
				fields = append(fields, slackText{Type: "mrkdwn", Text: "*Decided:*\n" + c.StatusUpdatedAt.Format(time.RFC1123)})
			}
		}
	case model.KindEmployerApply:
		if a := n.NewApplicant; a != nil && !a.AppliedAt.IsZero() {
			fields = append(fields, slackText{Type: "mrkdwn", Text: "*Applied:*\n" + a.AppliedAt.Format(time.RFC1123)})
		}
	}
	if len(fields) > 0 {
		blocks = append(blocks, slackBlock{Type: "section", Fields: fields})
	}

	blocks = append(blocks,
		slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: "Application `" + n.ApplicationID() + "`"}},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Text: message, Blocks: blocks}
}

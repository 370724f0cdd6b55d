package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/application/port"
)

const (
	receiveIDTypeEmail = "email"
	msgTypePost        = "post"
)

// MessageSender is the subset of the Lark IM API the mailer needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Mailer delivers requester notifications as Lark post messages addressed by email
type Mailer struct {
	sender  MessageSender
	timeout time.Duration
	logger  *zap.Logger
}

// NewMailer creates a Lark-backed mail dispatcher. A positive timeout bounds each delivery.
func NewMailer(sender MessageSender, timeout time.Duration, logger *zap.Logger) *Mailer {
	return &Mailer{sender: sender, timeout: timeout, logger: logger}
}

// Send implements port.MailDispatcher
func (m *Mailer) Send(ctx context.Context, mail port.Mail) error {
	if mail.To == "" {
		return fmt.Errorf("mail for request %d has no recipient", mail.RequestID)
	}

	content, err := BuildPostContent(mail)
	if err != nil {
		return err
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	messageID, err := m.sender.SendMessage(ctx, receiveIDTypeEmail, mail.To, msgTypePost, content)
	if err != nil {
		return fmt.Errorf("failed to deliver %s notice for request %d: %w", mail.Kind, mail.RequestID, err)
	}

	m.logger.Info("Notification delivered",
		zap.String("kind", string(mail.Kind)),
		zap.Int64("request_id", mail.RequestID),
		zap.String("message_id", messageID))
	return nil
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// BuildPostContent renders the mail as the JSON content of a Lark "post" message
func BuildPostContent(mail port.Mail) (string, error) {
	title, lines, err := renderMail(mail)
	if err != nil {
		return "", err
	}

	body := postBody{Title: title}
	for _, line := range lines {
		body.Content = append(body.Content, []postElement{{Tag: "text", Text: line}})
	}

	raw, err := json.Marshal(map[string]postBody{"en_us": body})
	if err != nil {
		return "", fmt.Errorf("failed to encode post content: %w", err)
	}
	return string(raw), nil
}

func renderMail(mail port.Mail) (string, []string, error) {
	greeting := fmt.Sprintf("Dear %s,", mail.RecipientName)
	ref := fmt.Sprintf("%s request #%d", mail.RequestType, mail.RequestID)

	switch mail.Kind {
	case port.MailSettled:
		return fmt.Sprintf("%s settled", ref), []string{
			greeting,
			fmt.Sprintf("Your %s has been fully approved and settled.", ref),
			fmt.Sprintf("Amount: %s %s", mail.Currency, mail.Amount.StringFixed(2)),
		}, nil
	case port.MailRejected:
		lines := []string{
			greeting,
			fmt.Sprintf("Your %s was rejected by %s.", ref, mail.RejectedBy),
		}
		if mail.Reason != "" {
			lines = append(lines, fmt.Sprintf("Reason: %s", mail.Reason))
		}
		return fmt.Sprintf("%s rejected", ref), lines, nil
	default:
		return "", nil, fmt.Errorf("unknown mail kind %q", mail.Kind)
	}
}

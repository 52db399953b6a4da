package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendMailer sends reminder emails through Resend.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *ResendMailer) Send(ctx context.Context, msg EmailMessage) (string, error) {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:     a.Content,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}

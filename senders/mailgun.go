package senders

import (
	"context"
	"time"

	"github.com/fiffu/indexwatch/lib/models"
	"github.com/fiffu/indexwatch/senders/email"
	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	base
}

func (e *mailgunSender) SendItem(ctx context.Context, n *models.Notification) (string, error) {
	ef := &email.ItemEmailFormat{Notification: n}
	return e.send(ctx, ef.Subject(), ef.Body())
}

func (e *mailgunSender) SendText(ctx context.Context, text string) (string, error) {
	ef := &email.AlertEmailFormat{Text: text}
	return e.send(ctx, ef.Subject(), ef.Body())
}

func (e *mailgunSender) send(ctx context.Context, subject, body string) (string, error) {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	mg.Client().Transport = e.transport

	// Create message with empty body first.
	message := mg.NewMessage(e.cfg.Mailgun.SenderFrom, subject, "", e.cfg.Mailgun.Recipient)
	// SetHtml with the payload proper. This will assign the MIME type properly.
	message.SetHtml(body)

	timeout := time.Duration(e.cfg.Mailgun.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, id, err := mg.Send(ctx, message)
	return id, err
}

package senders

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/indexwatch/lib/models"
)

type telegramSender struct {
	base
}

type telegramPayload struct {
	ChatID      string          `json:"chat_id"`
	ThreadID    int             `json:"message_thread_id,omitempty"`
	Text        string          `json:"text,omitempty"`
	Photo       string          `json:"photo,omitempty"`
	Caption     string          `json:"caption,omitempty"`
	ParseMode   string          `json:"parse_mode,omitempty"`
	ReplyMarkup *inlineKeyboard `json:"reply_markup,omitempty"`
	LinkPreview *linkPreview    `json:"link_preview_options,omitempty"`
}

type linkPreview struct {
	IsDisabled bool `json:"is_disabled"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

func (t *telegramSender) SendItem(ctx context.Context, n *models.Notification) (string, error) {
	text := formatItemMarkdown(n)
	keyboard := itemKeyboard(n.Item)

	if cover := n.Item.CoverURL; cover != "" {
		payload := t.payload()
		payload.Photo = cover
		payload.Caption = text
		payload.ReplyMarkup = keyboard

		id, err := t.call(ctx, "sendPhoto", payload)
		if err == nil {
			return id, nil
		}
		// Mostly a 400 from Telegram for covers it cannot fetch.
		t.log.Sugar().Warnw("Error sending release with cover. Trying to send without cover.", "cover", cover, "err", err)
	}

	payload := t.payload()
	payload.Text = text
	payload.ReplyMarkup = keyboard
	return t.call(ctx, "sendMessage", payload)
}

func (t *telegramSender) SendText(ctx context.Context, text string) (string, error) {
	payload := t.payload()
	payload.Text = escapeMarkdown(text)
	return t.call(ctx, "sendMessage", payload)
}

func (t *telegramSender) payload() *telegramPayload {
	return &telegramPayload{
		ChatID:      t.cfg.Telegram.ChatID,
		ThreadID:    t.cfg.Telegram.ThreadID,
		ParseMode:   "MarkdownV2",
		LinkPreview: &linkPreview{IsDisabled: true},
	}
}

func (t *telegramSender) call(ctx context.Context, method string, payload *telegramPayload) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.cfg.Telegram.APIBase, "/"), t.cfg.Telegram.Token, method)

	var resp, errResp telegramResponse
	err := requests.URL(endpoint).
		Transport(t.transport).
		Post().
		BodyJSON(payload).
		AddValidator(requests.ValidatorHandler(requests.DefaultValidator, requests.ToJSON(&errResp))).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		if errResp.Description != "" {
			return "", fmt.Errorf("telegram %s: %s", method, errResp.Description)
		}
		return "", fmt.Errorf("telegram %s: %s", method, t.redact(err))
	}
	if !resp.OK {
		return "", fmt.Errorf("telegram %s: %s", method, resp.Description)
	}
	return strconv.Itoa(resp.Result.MessageID), nil
}

// redact renders err without the request url, whose path holds the bot token.
func (t *telegramSender) redact(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	msg := err.Error()
	if token := t.cfg.Telegram.Token; token != "" {
		msg = strings.ReplaceAll(msg, token, "<token>")
	}
	return msg
}

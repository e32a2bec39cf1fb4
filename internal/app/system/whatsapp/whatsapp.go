// Package whatsapp sends bulk WhatsApp messages through an HTTP provider.
//
// Without an API key the sender runs in mock mode and only logs each message.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/stratarecruit/internal/app/system/phone"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is used when no provider URL is configured.
const DefaultAPIURL = "https://api.whatsapp.provider.com/send"

// NamePlaceholder is replaced with the recipient's full name.
const NamePlaceholder = "{name}"

// Recipient is one addressee of a bulk send.
type Recipient struct {
	Name  string
	Phone string
}

// Result counts outcomes of a bulk send.
type Result struct {
	BatchID string `json:"batch_id"`
	Mode    string `json:"mode"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

// Sender delivers messages. A nil-safe zero value is not provided; use New.
type Sender struct {
	apiURL string
	client *http.Client
	mock   bool
	log    *zap.Logger
}

// New returns a Sender. An empty apiKey selects mock mode.
func New(apiKey, apiURL string, log *zap.Logger) *Sender {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	s := &Sender{apiURL: apiURL, log: log, mock: apiKey == ""}
	if !s.mock {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
		s.client = oauth2.NewClient(context.Background(), ts)
	}
	return s
}

// Configured reports whether real delivery is enabled.
func (s *Sender) Configured() bool { return !s.mock }

// Render substitutes the recipient name into template.
func Render(template, name string) string {
	return strings.ReplaceAll(template, NamePlaceholder, name)
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	BatchID string `json:"batch_id"`
}

// SendBulk sends template to every recipient. A failure for one recipient is
// logged and counted; the batch always runs to completion unless ctx ends.
func (s *Sender) SendBulk(ctx context.Context, recipients []Recipient, template string) Result {
	res := Result{BatchID: uuid.NewString(), Mode: "real"}
	if s.mock {
		res.Mode = "mock"
	}
	s.log.Info("whatsapp bulk send started",
		zap.String("batch_id", res.BatchID),
		zap.String("mode", res.Mode),
		zap.Int("recipients", len(recipients)))

	for _, rc := range recipients {
		if ctx.Err() != nil {
			res.Failed++
			continue
		}
		to := phone.Format(rc.Phone)
		msg := Render(template, rc.Name)

		if err := s.send(ctx, res.BatchID, to, msg); err != nil {
			s.log.Warn("whatsapp send failed",
				zap.String("batch_id", res.BatchID),
				zap.String("to", to),
				zap.Error(err))
			res.Failed++
			continue
		}
		res.Sent++
	}

	s.log.Info("whatsapp bulk send finished",
		zap.String("batch_id", res.BatchID),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed))
	return res
}

func (s *Sender) send(ctx context.Context, batchID, to, msg string) error {
	if s.mock {
		s.log.Info("whatsapp mock send", zap.String("to", to), zap.String("message", msg))
		return nil
	}

	body, err := json.Marshal(sendRequest{To: to, Message: msg, BatchID: batchID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return nil
}

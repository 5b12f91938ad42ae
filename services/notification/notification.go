package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"casabay/config"
	"casabay/models"
	"casabay/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// DefaultNotificationService is the production implementation. Email goes
// out through the configured mail provider endpoint; a push is additionally
// attempted when the guest's booking carries an FCM token.
type DefaultNotificationService struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewDefaultNotificationService(logger *zap.Logger) *DefaultNotificationService {
	return &DefaultNotificationService{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

type mailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendSettlementConfirmation emails the guest that their payment was
// accepted, with the kind-specific details, and pushes to their device when
// a token is known. Push failures are logged only; the email result decides
// the return value.
func (s *DefaultNotificationService) SendSettlementConfirmation(ctx context.Context, payload models.SettlementNotification) error {
	subject := fmt.Sprintf("Payment confirmed for your booking at %s", payload.PropertyName)
	body := composeConfirmationBody(payload)

	if payload.FCMToken != "" {
		if err := s.sendPush(ctx, payload.FCMToken, subject, body, map[string]string{
			"type":      "settlement_confirmed",
			"reference": payload.Reference,
			"bookingId": payload.BookingID,
		}); err != nil {
			s.Logger.Warn("push notification failed", zap.String("reference", payload.Reference), zap.Error(err))
		}
	}

	return s.sendMail(ctx, mailMessage{
		From:    config.AppConfig.MailFromAddress,
		To:      payload.GuestEmail,
		Subject: subject,
		Text:    body,
	})
}

// NotifyExpiredTransfers mails the administrator a digest of bank transfers
// whose deadline has passed. It never cancels anything.
func (s *DefaultNotificationService) NotifyExpiredTransfers(ctx context.Context, count int, references []string) error {
	if count == 0 {
		return nil
	}
	body := fmt.Sprintf(
		"%d bank-transfer settlement%s past the payment deadline and still pending review:\n%s\n",
		count, plural(count), strings.Join(references, ", "),
	)
	return s.sendMail(ctx, mailMessage{
		From:    config.AppConfig.MailFromAddress,
		To:      config.AppConfig.AdminEmail,
		Subject: fmt.Sprintf("%d expired bank transfer%s awaiting review", count, plural(count)),
		Text:    body,
	})
}

func (s *DefaultNotificationService) sendMail(ctx context.Context, msg mailMessage) error {
	providerURL := config.AppConfig.MailProviderURL
	if providerURL == "" {
		// No provider configured (development); log the outgoing mail instead.
		s.Logger.Sugar().Infof("mail provider not configured, would send to %s: %s", msg.To, msg.Subject)
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, providerURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *DefaultNotificationService) sendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	if utils.FCMClient == nil {
		return fmt.Errorf("FCM client not initialized")
	}
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

func composeConfirmationBody(p models.SettlementNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", p.GuestName)
	fmt.Fprintf(&b, "We have confirmed your payment of %s %.2f for your stay at %s (check-in %s).\n",
		p.Currency, float64(p.Amount)/100, p.PropertyName, p.CheckIn)
	fmt.Fprintf(&b, "Payment reference: %s\n\n", p.Reference)

	switch p.Kind {
	case models.KindBankTransfer:
		if p.BankTransfer != nil {
			fmt.Fprintf(&b, "Received by bank transfer to %s (%s, %s) at %s.\n",
				p.BankTransfer.AccountHolder, p.BankTransfer.IBAN, p.BankTransfer.BIC, p.BankTransfer.BankName)
		}
	case models.KindCash:
		if p.Cash != nil {
			fmt.Fprintf(&b, "Registered as cash payment at %s, expected arrival %s.\n",
				p.Cash.PayAtLocation, p.Cash.ExpectedArrival)
		}
	}

	b.WriteString("\nWe look forward to welcoming you!\n")
	return b.String()
}

// plural returns "s" if n is not 1, otherwise returns an empty string.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

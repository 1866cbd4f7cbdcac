package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/push"
)

// PushSender is the delivery channel behind NotificationService.
type PushSender interface {
	Send(ctx context.Context, msg push.Message) error
}

type NotificationService struct {
	sender  PushSender
	log     *zap.Logger
	timeout time.Duration
}

func NewNotificationService(sender PushSender, log *zap.Logger) *NotificationService {
	return &NotificationService{sender: sender, log: log, timeout: 10 * time.Second}
}

// Notify pushes title/body to the recipient's device. Accounts without a device token are
// skipped. Delivery runs in its own goroutine so the API response is never held up.
func (s *NotificationService) Notify(ctx context.Context, recipient *models.Account, title, body string) {
	if recipient == nil || recipient.FCMToken == "" {
		return
	}
	msg := push.Message{
		Token: recipient.FCMToken,
		Title: title,
		Body:  body,
		Data:  map[string]string{"accountId": recipient.ID.Hex()},
	}
	log := s.log.With(zap.String("recipient", recipient.ID.Hex()))

	// The request context is cancelled once the handler returns.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	go func() {
		defer cancel()
		if err := s.sender.Send(sendCtx, msg); err != nil {
			log.Warn("push notification failed", zap.Error(err))
			return
		}
		log.Debug("push notification sent", zap.String("title", title))
	}()
}

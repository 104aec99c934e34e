package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/shipgate/engine/internal/services"
	appErr "github.com/shipgate/engine/pkg/errors"
	"github.com/shipgate/engine/pkg/logger"
	"go.uber.org/zap"
)

// TypeEmailNotification is the asynq task type for outbound notification
// emails (stage approvals, new blockers, workspace invitations).
const TypeEmailNotification = "email:notification"

// EmailSender delivers a single notification. The worker owns retries via
// asynq; senders should return an error on transient failure and let the
// queue redeliver.
type EmailSender interface {
	Send(ctx context.Context, n services.Notification) error
}

// LogSender is the default sender: it logs the notification instead of
// delivering it. Used in development and in deployments without an email
// provider configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n services.Notification) error {
	logger.L().Info("email notification (log sender)",
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("event", n.Event))
	return nil
}

// EmailTaskHandler consumes email notification tasks.
type EmailTaskHandler struct {
	sender EmailSender
}

func NewEmailTaskHandler(sender EmailSender) *EmailTaskHandler {
	if sender == nil {
		sender = LogSender{}
	}
	return &EmailTaskHandler{sender: sender}
}

func (h *EmailTaskHandler) HandleEmail(ctx context.Context, t *asynq.Task) error {
	var n services.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		logger.L().Error("invalid email task payload", zap.Error(err))
		return err
	}
	if n.To == "" {
		// Nothing to deliver; don't retry.
		logger.L().Warn("email task without recipient dropped", zap.String("event", n.Event))
		return nil
	}
	logger.L().Info("handling email task", zap.String("to", n.To), zap.String("event", n.Event))
	if err := h.sender.Send(ctx, n); err != nil {
		logger.L().Error("email send failed", zap.Error(err), zap.String("to", n.To))
		return appErr.Wrap(err, appErr.CodeInternal, "email send failed")
	}
	return nil
}

// QueueNotifier enqueues notifications for the worker. It satisfies
// services.Notifier; with a nil client it logs and drops, so the API keeps
// working without redis.
type QueueNotifier struct {
	client *asynq.Client
}

func NewQueueNotifier(client *asynq.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (q *QueueNotifier) Notify(ctx context.Context, n services.Notification) error {
	pb, err := json.Marshal(n)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "marshal notification failed")
	}
	task := asynq.NewTask(TypeEmailNotification, pb)
	if q.client == nil {
		logger.L().Warn("asynq client not configured, dropping notification", zap.String("event", n.Event))
		return nil
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "enqueue notification failed")
	}
	return nil
}

package tasks

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/services"
	"github.com/shipgate/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	_, err := logger.Init("error", "console")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, n services.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestHandleEmailDelivers(t *testing.T) {
	n := services.Notification{
		To:      "dev@example.com",
		Subject: "Stage approved",
		Event:   "stage.approved",
		Payload: map[string]any{"release": "R1"},
	}
	pb, err := json.Marshal(n)
	require.NoError(t, err)

	sender := &mockSender{}
	sender.On("Send", mock.Anything, n).Return(nil)

	h := NewEmailTaskHandler(sender)
	err = h.HandleEmail(context.Background(), asynq.NewTask(TypeEmailNotification, pb))
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestHandleEmailBadPayload(t *testing.T) {
	sender := &mockSender{}
	h := NewEmailTaskHandler(sender)
	err := h.HandleEmail(context.Background(), asynq.NewTask(TypeEmailNotification, []byte("{not json")))
	require.Error(t, err)
	sender.AssertNotCalled(t, "Send")
}

func TestHandleEmailDropsMissingRecipient(t *testing.T) {
	pb, err := json.Marshal(services.Notification{Event: "blocker.created"})
	require.NoError(t, err)

	sender := &mockSender{}
	h := NewEmailTaskHandler(sender)
	// no recipient is a permanent condition; returning nil prevents retries
	require.NoError(t, h.HandleEmail(context.Background(), asynq.NewTask(TypeEmailNotification, pb)))
	sender.AssertNotCalled(t, "Send")
}

func TestQueueNotifierWithoutClient(t *testing.T) {
	q := NewQueueNotifier(nil)
	err := q.Notify(context.Background(), services.Notification{To: "dev@example.com", Event: "x"})
	require.NoError(t, err)
}

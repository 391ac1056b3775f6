package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpnda/billing-sync/pkg/models"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		prefix   string
		wantType models.MessageType
	}{
		{"Invoice", "Show me overdue invoices", "I can help you with invoice management.", models.MessageTypeAction},
		{"Invoice is case insensitive", "INVOICE status?", "I can help you with invoice management.", models.MessageTypeAction},
		{"Payment", "Any pending payments?", "I've identified $127,000 in pending payments.", models.MessageTypeInfo},
		{"Client", "Tell me about this client", "I can access client data and CRM records.", models.MessageTypeInfo},
		{"Customer", "customer details please", "I can access client data and CRM records.", models.MessageTypeInfo},
		{"Invoice wins over payment", "invoice payment", "I can help you with invoice management.", models.MessageTypeAction},
		{"Payment wins over client", "client payment", "I've identified $127,000", models.MessageTypeInfo},
		{"Default", "hello there", "I understand you need assistance with billing operations.", models.MessageTypeInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := Respond(tt.input)
			assert.True(t, strings.HasPrefix(reply.Content, tt.prefix), "got %q", reply.Content)
			assert.Equal(t, tt.wantType, reply.Type)
		})
	}
}

func TestAssistantSend(t *testing.T) {
	var slept []time.Duration
	fixed := time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)
	a := NewAssistant(
		WithResponseDelay(250*time.Millisecond),
		WithClock(func() time.Time { return fixed }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
	)

	initial := a.Messages()
	require.Len(t, initial, 1)
	assert.Equal(t, Greeting, initial[0].Content)
	assert.Equal(t, models.SenderAI, initial[0].Sender)

	reply, err := a.Send(context.Background(), "list invoices")
	require.NoError(t, err)
	assert.Equal(t, models.SenderAI, reply.Sender)
	assert.Equal(t, models.MessageTypeAction, reply.Type)
	assert.Equal(t, fixed, reply.Timestamp)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, slept)
	assert.False(t, a.Loading())

	msgs := a.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, models.SenderUser, msgs[1].Sender)
	assert.Equal(t, "list invoices", msgs[1].Content)
	assert.Equal(t, reply.ID, msgs[2].ID)

	ids := map[string]bool{}
	for _, m := range msgs {
		assert.NotEmpty(t, m.ID)
		ids[m.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestAssistantSendEmpty(t *testing.T) {
	a := NewAssistant(WithSleeper(func(context.Context, time.Duration) error {
		t.Fatal("should not wait for an empty message")
		return nil
	}))

	_, err := a.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, a.Messages(), 1)
}

func TestAssistantSendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAssistant()
	_, err := a.Send(ctx, "payment status")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, a.Loading())

	msgs := a.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderUser, msgs[1].Sender)
}

func TestAssistantMessagesIsCopy(t *testing.T) {
	a := NewAssistant()
	msgs := a.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, Greeting, a.Messages()[0].Content)
}

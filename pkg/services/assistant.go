package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vpnda/billing-sync/pkg/models"
)

const (
	DefaultResponseDelay = 1500 * time.Millisecond

	Greeting = "Hello! I'm your ABI assistant. I can help you with billing inquiries, invoice processing, " +
		"client management, and CRM actions. What would you like me to help you with today?"
)

var ErrEmptyMessage = errors.New("message is empty")

// Reply is a canned assistant answer
type Reply struct {
	Content string
	Type    models.MessageType
}

// Respond picks a canned reply by keyword. The first matching keyword wins:
// invoice, payment, client/customer, then a generic answer.
func Respond(input string) Reply {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "invoice"):
		return Reply{
			Content: "I can help you with invoice management. I found 3 overdue invoices totaling $45,200. " +
				"Would you like me to send follow-up emails to these clients automatically?",
			Type: models.MessageTypeAction,
		}
	case strings.Contains(lower, "payment"):
		return Reply{
			Content: "I've identified $127,000 in pending payments. I can schedule automated reminders and " +
				"update payment terms. Should I proceed with the standard reminder sequence?",
			Type: models.MessageTypeInfo,
		}
	case strings.Contains(lower, "client"), strings.Contains(lower, "customer"):
		return Reply{
			Content: "I can access client data and CRM records. What specific client information do you need? " +
				"I can also create follow-up tasks or schedule communications.",
			Type: models.MessageTypeInfo,
		}
	}
	return Reply{
		Content: "I understand you need assistance with billing operations. I can help with invoice processing, " +
			"payment tracking, client communications, and generating reports. What specific task would you like me to handle?",
		Type: models.MessageTypeInfo,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Assistant keeps a conversation with the canned responder
type Assistant struct {
	mu       sync.Mutex
	messages []models.Message
	loading  bool

	delay time.Duration
	sleep Sleeper
	now   func() time.Time
}

type AssistantOption func(*Assistant)

func WithResponseDelay(d time.Duration) AssistantOption {
	return func(a *Assistant) {
		a.delay = d
	}
}

func WithSleeper(s Sleeper) AssistantOption {
	return func(a *Assistant) {
		a.sleep = s
	}
}

func WithClock(now func() time.Time) AssistantOption {
	return func(a *Assistant) {
		a.now = now
	}
}

func NewAssistant(opts ...AssistantOption) *Assistant {
	a := &Assistant{
		delay: DefaultResponseDelay,
		sleep: contextSleep,
		now:   time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.messages = []models.Message{{
		ID:        uuid.NewString(),
		Content:   Greeting,
		Sender:    models.SenderAI,
		Timestamp: a.now(),
		Type:      models.MessageTypeInfo,
	}}
	return a
}

// Send records the user's message, waits out the response delay and records
// the reply. If ctx ends during the delay the user message stays without a
// reply.
func (a *Assistant) Send(ctx context.Context, input string) (*models.Message, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyMessage
	}

	a.mu.Lock()
	a.messages = append(a.messages, models.Message{
		ID:        uuid.NewString(),
		Content:   input,
		Sender:    models.SenderUser,
		Timestamp: a.now(),
	})
	a.loading = true
	a.mu.Unlock()

	err := a.sleep(ctx, a.delay)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if err != nil {
		return nil, err
	}

	reply := Respond(input)
	msg := models.Message{
		ID:        uuid.NewString(),
		Content:   reply.Content,
		Sender:    models.SenderAI,
		Timestamp: a.now(),
		Type:      reply.Type,
	}
	a.messages = append(a.messages, msg)
	return &msg, nil
}

// Loading reports whether a reply is pending
func (a *Assistant) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Messages returns a copy of the conversation so far
func (a *Assistant) Messages() []models.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.messages)
}

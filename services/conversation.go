package services

import (
	"context"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lborres/medassist/core"
)

// Conversation is one chat thread with the assistant. The first reply
// assigns the conversation id; later messages continue that thread.
type Conversation struct {
	gateway     core.Gateway
	credentials core.CredentialSource

	mu         sync.Mutex
	id         *int64
	transcript []core.ChatMessage
	symptoms   []string
}

func NewConversation(gateway core.Gateway, credentials core.CredentialSource) *Conversation {
	return &Conversation{
		gateway:     gateway,
		credentials: credentials,
	}
}

// Send posts a message and records both sides of the exchange. The
// transcript is only extended when the assistant answers.
func (c *Conversation) Send(ctx context.Context, text string) (*core.ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, core.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > core.MaxChatMessageLength {
		return nil, core.ErrMessageTooLong
	}

	c.mu.Lock()
	input := core.ChatInput{Message: text, ConversationID: c.id}
	c.mu.Unlock()

	reply, err := c.gateway.Chat(ctx, c.credentials.Token(), input)
	if err != nil {
		return nil, core.AsRequestError(err, core.ChatEndpoint.Op, core.FallbackChat)
	}
	if reply == nil {
		return nil, core.NormalizeError(core.ChatEndpoint.Op, 0, nil, core.ErrMalformedResponse, core.FallbackChat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := reply.ConversationID
	c.id = &id
	c.transcript = append(c.transcript,
		core.ChatMessage{Role: core.RoleUser, Content: text},
		core.ChatMessage{Role: core.RoleAssistant, Content: reply.Message},
	)
	for _, s := range reply.Symptoms {
		if !slices.Contains(c.symptoms, s) {
			c.symptoms = append(c.symptoms, s)
		}
	}

	return reply, nil
}

// ID returns the conversation id, or false before the first reply.
func (c *Conversation) ID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == nil {
		return 0, false
	}
	return *c.id, true
}

func (c *Conversation) Transcript() []core.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transcript)
}

// Symptoms lists every symptom the assistant extracted so far, first
// mention first.
func (c *Conversation) Symptoms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.symptoms)
}

package agents

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"storefront/internal/llm"
)

const (
	historyWindow = 10
	apology       = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment."
)

var ErrUnknownPersona = fmt.Errorf("unknown agent type")

// Classify picks the persona for a message by case-insensitive substring
// match. Support keywords win over product keywords, which win over sales;
// no match falls through to sales.
func Classify(message string) string {
	m := strings.ToLower(message)
	for _, id := range []string{PersonaSupport, PersonaProductExpert, PersonaSales} {
		for _, kw := range personas[id].Keywords {
			if strings.Contains(m, kw) {
				return id
			}
		}
	}
	return PersonaSales
}

type Reply struct {
	AgentName        string   `json:"agent_name"`
	AgentType        string   `json:"agent_type"`
	Response         string   `json:"response"`
	SuggestedActions []Action `json:"suggested_actions"`
}

type historyKey struct {
	userID  int64
	persona string
}

// Service holds per-user persona selections and per-(user, persona)
// conversation logs. State is in-process only; a restart forgets it.
type Service struct {
	model llm.Completer

	mu       sync.Mutex
	sessions map[int64]string
	history  map[historyKey][]llm.Message
}

func NewService(model llm.Completer) *Service {
	return &Service{
		model:    model,
		sessions: make(map[int64]string),
		history:  make(map[historyKey][]llm.Message),
	}
}

// Route classifies the message, moves the user's session to the winning
// persona and produces that persona's reply. Model failures come back as
// an apology string, never as an error.
func (s *Service) Route(ctx context.Context, userID int64, message string, extra map[string]any) Reply {
	persona := Classify(message)

	s.mu.Lock()
	s.sessions[userID] = persona
	s.mu.Unlock()

	return s.respond(ctx, userID, persona, message, extra)
}

// Respond generates a reply from the user's current persona without
// re-classifying. Used by the pinned product-inquiry and order-status
// endpoints after a forced switch.
func (s *Service) Respond(ctx context.Context, userID int64, message string, extra map[string]any) Reply {
	return s.respond(ctx, userID, s.Current(userID), message, extra)
}

func (s *Service) respond(ctx context.Context, userID int64, personaID, message string, extra map[string]any) Reply {
	p := personas[personaID]

	merged := make(map[string]any, len(p.Extras)+len(extra))
	for k, v := range p.Extras {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	enhanced := formatContext(merged) + "\nUser: " + message

	key := historyKey{userID: userID, persona: personaID}

	s.mu.Lock()
	s.history[key] = trim(append(s.history[key], llm.Message{Role: "user", Content: message}))
	window := make([]llm.Message, len(s.history[key]))
	copy(window, s.history[key])
	s.mu.Unlock()

	response, err := s.model.Complete(ctx, p.SystemPrompt, window, enhanced)
	if err != nil {
		log.Printf("agent %s: model call failed: %v", personaID, err)
		response = apology
	}

	s.mu.Lock()
	s.history[key] = trim(append(s.history[key], llm.Message{Role: "assistant", Content: response}))
	s.mu.Unlock()

	return Reply{
		AgentName:        p.Name,
		AgentType:        personaID,
		Response:         response,
		SuggestedActions: p.SuggestedActions,
	}
}

// Switch forces the session to a persona. Unknown names leave the
// existing selection untouched.
func (s *Service) Switch(userID int64, personaID string) error {
	if _, ok := personas[personaID]; !ok {
		return ErrUnknownPersona
	}
	s.mu.Lock()
	s.sessions[userID] = personaID
	s.mu.Unlock()
	return nil
}

func (s *Service) Current(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.sessions[userID]; ok {
		return p
	}
	return PersonaSales
}

func trim(msgs []llm.Message) []llm.Message {
	if len(msgs) > historyWindow {
		return msgs[len(msgs)-historyWindow:]
	}
	return msgs
}

func formatContext(ctx map[string]any) string {
	if len(ctx) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Context Information:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, ctx[k])
	}
	return b.String()
}

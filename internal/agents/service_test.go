package agents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/llm"
)

var errModelDown = errors.New("model unavailable")

type fakeModel struct {
	mu       sync.Mutex
	err      error
	response string
	calls    int
	lastSys  string
	lastHist []llm.Message
	lastUser string
}

func (m *fakeModel) Complete(ctx context.Context, system string, history []llm.Message, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastSys = system
	m.lastHist = append([]llm.Message(nil), history...)
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "sure, happy to help", nil
}

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"I want to buy a laptop", PersonaSales},
		{"what is the spec of this camera", PersonaProductExpert},
		{"can I track my package", PersonaSupport},
		// support keywords beat sales keywords in the same message
		{"I want to track the thing I just decided to buy", PersonaSupport},
		// product keywords beat sales keywords
		{"compare the price of these two", PersonaProductExpert},
		// matching is case-insensitive
		{"REFUND please", PersonaSupport},
		// no recognized keyword falls through to sales
		{"lovely weather today", PersonaSales},
		{"", PersonaSales},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.message), "message %q", c.message)
	}
}

func TestRouteMovesSession(t *testing.T) {
	svc := NewService(&fakeModel{})

	reply := svc.Route(context.Background(), 1, "where is my order", nil)
	assert.Equal(t, PersonaSupport, reply.AgentType)
	assert.Equal(t, "Customer Support", reply.AgentName)
	assert.Equal(t, PersonaSupport, svc.Current(1))

	reply = svc.Route(context.Background(), 1, "recommend me a gift", nil)
	assert.Equal(t, PersonaSales, reply.AgentType)
	assert.Equal(t, PersonaSales, svc.Current(1))
}

func TestSwitchUnknownPersonaLeavesSession(t *testing.T) {
	svc := NewService(&fakeModel{})
	require.NoError(t, svc.Switch(1, PersonaSupport))

	err := svc.Switch(1, "wizard")
	assert.ErrorIs(t, err, ErrUnknownPersona)
	assert.Equal(t, PersonaSupport, svc.Current(1), "failed switch must not move the session")
}

func TestCurrentDefaultsToSales(t *testing.T) {
	svc := NewService(&fakeModel{})
	assert.Equal(t, PersonaSales, svc.Current(99))
}

func TestModelFailureBecomesApology(t *testing.T) {
	model := &fakeModel{err: errModelDown}
	svc := NewService(model)

	reply := svc.Route(context.Background(), 1, "hello there", nil)
	assert.Equal(t, apology, reply.Response)
	assert.NotEmpty(t, reply.SuggestedActions, "suggested actions survive a model outage")
}

func TestContextIsFormattedIntoPrompt(t *testing.T) {
	model := &fakeModel{}
	svc := NewService(model)

	svc.Route(context.Background(), 1, "hello", map[string]any{"user_name": "Ada"})

	assert.Contains(t, model.lastUser, "Context Information:")
	assert.Contains(t, model.lastUser, "- user_name: Ada")
	assert.Contains(t, model.lastUser, "User: hello")
	// persona extras ride along
	assert.Contains(t, model.lastUser, "current_promotions")
}

func TestHistoryWindowCapped(t *testing.T) {
	model := &fakeModel{}
	svc := NewService(model)

	for i := 0; i < 12; i++ {
		svc.Route(context.Background(), 1, "hello again", nil)
	}
	assert.LessOrEqual(t, len(model.lastHist), historyWindow)
}

func TestHistoryIsPerUserAndPersona(t *testing.T) {
	model := &fakeModel{}
	svc := NewService(model)

	svc.Route(context.Background(), 1, "hello, any deals?", nil)
	svc.Route(context.Background(), 2, "hi there", nil)

	// the second user's first call must not see the first user's turns
	require.NotEmpty(t, model.lastHist)
	assert.Equal(t, "hi there", model.lastHist[0].Content)
	assert.Len(t, model.lastHist, 1)
}

func TestRespondUsesForcedPersona(t *testing.T) {
	model := &fakeModel{}
	svc := NewService(model)

	require.NoError(t, svc.Switch(5, PersonaProductExpert))
	reply := svc.Respond(context.Background(), 5, "does it fit a 13 inch laptop?", nil)

	assert.Equal(t, PersonaProductExpert, reply.AgentType)
	assert.Contains(t, model.lastSys, "Alex")
}

func TestAvailableListsAllPersonas(t *testing.T) {
	infos := Available()
	require.Len(t, infos, 3)
	assert.Equal(t, PersonaSales, infos[0].Type)
	assert.Equal(t, PersonaProductExpert, infos[1].Type)
	assert.Equal(t, PersonaSupport, infos[2].Type)
}

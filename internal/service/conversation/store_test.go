package conversation

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
)

const greeting = "I'm here to assist you."

// steppingClock returns a clock that advances one second per call
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore() *Store {
	return NewStore(Options{Greeting: greeting, Now: steppingClock()})
}

func TestNewStore_SeedsOneActiveConversation(t *testing.T) {
	s := newTestStore()

	convs := s.List()
	require.Len(t, convs, 1)
	assert.Equal(t, convs[0].ID, s.ActiveID())
	assert.Equal(t, "New Conversation", convs[0].Title)
}

func TestCreate_SeedsGreetingAndActivates(t *testing.T) {
	s := newTestStore()
	typeID := "type-1"

	conv := s.Create(&typeID)

	require.Len(t, conv.Messages, 1)
	assert.Equal(t, models.SenderSystem, conv.Messages[0].Sender)
	assert.Equal(t, greeting, conv.Messages[0].Content)
	assert.Equal(t, conv.ID, s.ActiveID())
	require.NotNil(t, conv.ChatTypeID)
	assert.Equal(t, "type-1", *conv.ChatTypeID)

	// New conversations go to the front
	assert.Equal(t, conv.ID, s.List()[0].ID)
	assert.Len(t, s.List(), 2)
}

func TestSwitch(t *testing.T) {
	s := newTestStore()
	first := s.ActiveID()
	s.Create(nil)

	require.NoError(t, s.Switch(first))
	assert.Equal(t, first, s.ActiveID())

	err := s.Switch("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, first, s.ActiveID(), "unknown id must not move the active pointer")
}

func TestAddUserMessage_TitleFromFirstMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "short message", message: "hello", want: "hello"},
		{name: "exactly twenty", message: "12345678901234567890", want: "12345678901234567890"},
		{name: "longer than twenty", message: "123456789012345678901", want: "12345678901234567890..."},
		{name: "multibyte", message: strings.Repeat("é", 25), want: strings.Repeat("é", 20) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.AddUserMessage(tt.message)
			assert.Equal(t, tt.want, s.Active().Title)
		})
	}
}

func TestAddUserMessage_LaterMessagesKeepTitle(t *testing.T) {
	s := newTestStore()

	s.AddUserMessage("first question")
	s.AppendSystemMessage("an answer")
	s.AddUserMessage("a completely different follow-up")

	active := s.Active()
	assert.Equal(t, "first question", active.Title)
	require.Len(t, active.Messages, 4)
	assert.Equal(t, models.SenderUser, active.Messages[3].Sender)
}

func TestAppendSystemMessageTo_TargetsOriginConversation(t *testing.T) {
	s := newTestStore()
	origin := s.ActiveID()
	s.Create(nil)

	_, err := s.AppendSystemMessageTo(origin, "late reply")
	require.NoError(t, err)

	conv, err := s.Get(origin)
	require.NoError(t, err)
	assert.Equal(t, "late reply", conv.Messages[len(conv.Messages)-1].Content)
	assert.Len(t, s.Active().Messages, 1)

	_, err = s.AppendSystemMessageTo("missing", "x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete_ActivePromotesMostRecentlyUpdated(t *testing.T) {
	s := newTestStore()
	a := s.ActiveID()
	b := s.Create(nil).ID
	c := s.Create(nil).ID

	// a becomes the most recently updated conversation
	require.NoError(t, s.Switch(a))
	s.AddUserMessage("touch a")
	require.NoError(t, s.Switch(c))

	require.NoError(t, s.Delete(c))

	assert.Equal(t, a, s.ActiveID())
	assert.Len(t, s.List(), 2)
	_, err := s.Get(b)
	assert.NoError(t, err)
}

func TestDelete_InactiveKeepsActive(t *testing.T) {
	s := newTestStore()
	a := s.ActiveID()
	b := s.Create(nil).ID

	require.NoError(t, s.Delete(a))
	assert.Equal(t, b, s.ActiveID())
	assert.Len(t, s.List(), 1)
}

func TestDelete_LastConversationCreatesFreshOne(t *testing.T) {
	s := newTestStore()
	only := s.ActiveID()

	require.NoError(t, s.Delete(only))

	convs := s.List()
	require.Len(t, convs, 1)
	assert.NotEqual(t, only, convs[0].ID)
	assert.Equal(t, convs[0].ID, s.ActiveID())
	assert.Len(t, convs[0].Messages, 1)
}

func TestDelete_Unknown(t *testing.T) {
	s := newTestStore()
	err := s.Delete("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_ReturnsCopies(t *testing.T) {
	s := newTestStore()
	convs := s.List()
	convs[0].Messages[0].Content = "mutated"
	convs[0].Title = "mutated"

	active := s.Active()
	assert.Equal(t, greeting, active.Messages[0].Content)
	assert.Equal(t, "New Conversation", active.Title)
}

func TestSummaries_OrderedByLastUpdated(t *testing.T) {
	s := newTestStore()
	a := s.ActiveID()
	s.Create(nil)
	require.NoError(t, s.Switch(a))
	s.AddUserMessage("bump")

	summaries := s.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, a, summaries[0].ID)
	assert.Equal(t, 2, summaries[0].MessageCount)
}

func TestRegistry_OneStorePerOwner(t *testing.T) {
	r := NewRegistry(Options{Greeting: greeting}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	user := models.Identity{ID: "abc"}
	guest := models.Identity{ID: "abc", Guest: true}

	assert.Same(t, r.For(user), r.For(user))
	assert.NotSame(t, r.For(user), r.For(guest))
	assert.Equal(t, 2, r.Len())
}

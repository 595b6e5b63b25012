package repositories

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"chat-store/internal/config"
	"chat-store/internal/db"
	"chat-store/internal/logger"
	"chat-store/internal/models"
)

// stepClock advances one second per reading so ordering by timestamp is deterministic.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	db       *sqlx.DB
	users    *UserRepo
	groups   *ContactGroupRepo
	agents   *AgentRepo
	chats    *ChatRepo
	messages *MessageRepo
	reads    *ReadStateRepo
	contacts *ContactRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	conn, err := db.Open(context.Background(), config.DatabaseConfig{Driver: db.DriverSQLite, DSN: path, MaxOpenConns: 1}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	clock := newStepClock()
	log := logger.Nop()
	return &fixture{
		db:       conn,
		users:    NewUserRepo(conn, log, clock),
		groups:   NewContactGroupRepo(conn, log),
		agents:   NewAgentRepo(conn, log),
		chats:    NewChatRepo(conn, log, clock),
		messages: NewMessageRepo(conn, log, clock),
		reads:    NewReadStateRepo(conn, log, clock),
		contacts: NewContactRepo(conn, log, clock),
	}
}

func (f *fixture) user(t *testing.T, name string) models.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), models.NewUser{Name: name})
	require.NoError(t, err)
	return u
}

func (f *fixture) group(t *testing.T, name string) models.ContactGroup {
	t.Helper()
	g, err := f.groups.CreateContactGroup(context.Background(), name, nil)
	require.NoError(t, err)
	return g
}

// individualChat creates a 1:1 chat between a and b without messages.
func (f *fixture) individualChat(t *testing.T, a, b models.User) models.Chat {
	t.Helper()
	chat, err := f.chats.CreateIndividualChat(context.Background(), models.NewIndividualChat{InitiatorID: a.ID, ReceiverID: b.ID})
	require.NoError(t, err)
	return chat
}

func (f *fixture) send(t *testing.T, chatID, senderID, content string) models.Message {
	t.Helper()
	msg, err := f.messages.SendMessage(context.Background(), models.NewMessage{ChatID: chatID, SenderID: senderID, Content: content})
	require.NoError(t, err)
	return msg
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, f.db.Rebind(query), args...))
	return n
}

func (f *fixture) participant(t *testing.T, chatID, userID string) models.ChatParticipant {
	t.Helper()
	p, err := f.chats.GetParticipant(context.Background(), chatID, userID)
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
	"messenger-bot-demo/backend/internal/repository"
	"messenger-bot-demo/backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BotUser{}, &models.BotMessage{}))
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

// fakeProfileFetcher serves canned profiles or a canned error
type fakeProfileFetcher struct {
	mu      sync.Mutex
	profile *messenger.Profile
	err     error
	calls   int
}

func (f *fakeProfileFetcher) FetchProfile(_ context.Context, _ string) (*messenger.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = f.calls + 1
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

// sentCall records one outbound client call
type sentCall struct {
	recipient string
	action    messenger.SenderAction
	message   *messenger.OutgoingMessage
}

// fakeSender records sends and optionally fails selected message sends
type fakeSender struct {
	mu    sync.Mutex
	calls []sentCall
	// failMessageAt holds 1-based message-send indexes that return an error
	failMessageAt map[int]error
	messageSends  int
}

func newFakeSender() *fakeSender {
	return &fakeSender{failMessageAt: map[int]error{}}
}

func (f *fakeSender) SendMessage(_ context.Context, recipientID string, msg messenger.OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageSends++
	f.calls = append(f.calls, sentCall{recipient: recipientID, message: &msg})
	if err, ok := f.failMessageAt[f.messageSends]; ok {
		return err
	}
	return nil
}

func (f *fakeSender) SendAction(_ context.Context, recipientID string, action messenger.SenderAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{recipient: recipientID, action: action})
	return nil
}

// actions returns the presence actions in call order
func (f *fakeSender) actions() []messenger.SenderAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []messenger.SenderAction
	for _, c := range f.calls {
		if c.action != "" {
			out = append(out, c.action)
		}
	}
	return out
}

// messages returns the sent message texts in call order
func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.message != nil {
			out = append(out, c.message.Text)
		}
	}
	return out
}

func textEvent(sender, recipient, mid, text string, ts int64) messenger.Event {
	return messenger.Event{
		Sender:    messenger.Principal{ID: sender},
		Recipient: messenger.Principal{ID: recipient},
		Timestamp: ts,
		Message:   &messenger.Message{MID: mid, Text: text},
	}
}

func echoEvent(page, user, mid string, ts int64) messenger.Event {
	return messenger.Event{
		Sender:    messenger.Principal{ID: page},
		Recipient: messenger.Principal{ID: user},
		Timestamp: ts,
		Message:   &messenger.Message{MID: mid, Text: "echo", IsEcho: true},
	}
}

func postbackEvent(user, page, payload string, ts int64) messenger.Event {
	return messenger.Event{
		Sender:    messenger.Principal{ID: user},
		Recipient: messenger.Principal{ID: page},
		Timestamp: ts,
		Postback:  &messenger.Postback{Payload: payload},
	}
}

func deliveryEvent(user, page string, watermark int64) messenger.Event {
	return messenger.Event{
		Sender:    messenger.Principal{ID: user},
		Recipient: messenger.Principal{ID: page},
		Timestamp: watermark,
		Delivery:  &messenger.Delivery{Watermark: watermark},
	}
}

func readEvent(user, page string, watermark int64) messenger.Event {
	return messenger.Event{
		Sender:    messenger.Principal{ID: user},
		Recipient: messenger.Principal{ID: page},
		Timestamp: watermark,
		Read:      &messenger.Read{Watermark: watermark},
	}
}

// testStack bundles the sqlite-backed pipeline pieces one test needs
type testStack struct {
	db         *gorm.DB
	users      repository.UserRepository
	messages   repository.MessageRepository
	directory  *Directory
	messageLog *MessageLog
}

func newTestStack(t *testing.T, fetcher ProfileFetcher) *testStack {
	t.Helper()
	db := newTestDB(t)
	users := repository.NewGormUserRepository(db)
	messages := repository.NewGormMessageRepository(db)
	return &testStack{
		db:         db,
		users:      users,
		messages:   messages,
		directory:  NewDirectory(users, fetcher, nil, 0, testLogger()),
		messageLog: NewMessageLog(messages, testLogger()),
	}
}

func (s *testStack) userCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(&models.BotUser{}).Count(&count).Error)
	return count
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/models"
)

func replyWith(texts ...string) Handler {
	return func(_ context.Context, _ *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
		var out []messenger.OutgoingMessage
		for _, t := range texts {
			out = append(out, messenger.TextMessage(t))
		}
		return out, nil
	}
}

func newDispatcher(stack *testStack, sender Sender, handlers Handlers) *Dispatcher {
	return NewDispatcher(stack.directory, sender, stack.messageLog, handlers, testLogger())
}

func TestDispatchSendsPresenceAroundHandler(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{
		messenger.KindText: replyWith("hello"),
	})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.Equal(t, []messenger.SenderAction{
		messenger.ActionMarkSeen,
		messenger.ActionTypingOn,
		messenger.ActionTypingOff,
	}, sender.actions())
	assert.Equal(t, []string{"hello"}, sender.messages())
}

func TestDispatchSkipsPresenceForReceipts(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{})

	ev := deliveryEvent("U1", "PAGE", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.Empty(t, sender.calls)
}

func TestDispatchSkipsPresenceForEchoes(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{})

	ev := echoEvent("PAGE", "U1", "m1", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.Empty(t, sender.calls)
}

func TestDispatchContinuesPastFailedReply(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	sender.failMessageAt[2] = errors.New("transport down")
	d := newDispatcher(stack, sender, Handlers{
		messenger.KindText: replyWith("one", "two", "three"),
	})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	// All three sends are attempted even though the second one failed
	assert.Equal(t, []string{"one", "two", "three"}, sender.messages())
}

func TestDispatchTreatsNotSupportedAsNoReply(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{
		messenger.KindText: func(_ context.Context, _ *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
			return nil, ErrNotSupported
		},
	})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.Empty(t, sender.messages())
}

func TestDispatchSwallowsHandlerErrors(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{
		messenger.KindText: func(_ context.Context, _ *messenger.Event, _ *models.BotUser) ([]messenger.OutgoingMessage, error) {
			return nil, errors.New("handler blew up")
		},
	})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.Empty(t, sender.messages())
}

func TestDispatchWithoutHandlerIsNoOp(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.Empty(t, sender.messages())
}

func TestDispatchCreatesUserAndLogsEvent(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{profile: adaProfile()})
	sender := newFakeSender()

	var seen *models.BotUser
	d := newDispatcher(stack, sender, Handlers{
		messenger.KindText: func(_ context.Context, _ *messenger.Event, user *models.BotUser) ([]messenger.OutgoingMessage, error) {
			seen = user
			return nil, nil
		},
	})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{CreateUser: true, LogEvent: true})

	require.NotNil(t, seen)
	assert.Equal(t, "Ada Lovelace", seen.FullName())
	assert.EqualValues(t, 1, stack.userCount(t))

	row, err := stack.messages.GetByMID("m1")
	require.NoError(t, err)
	assert.True(t, row.Received)
}

func TestDispatchWithoutCreateUserPassesNil(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{profile: adaProfile()})
	sender := newFakeSender()

	called := false
	d := newDispatcher(stack, sender, Handlers{
		messenger.KindText: func(_ context.Context, _ *messenger.Event, user *models.BotUser) ([]messenger.OutgoingMessage, error) {
			called = true
			assert.Nil(t, user)
			return nil, nil
		},
	})

	ev := textEvent("U1", "PAGE", "m1", "hi", 1_600_000_000_000)
	d.Dispatch(context.Background(), &ev, Options{})

	assert.True(t, called)
	assert.EqualValues(t, 0, stack.userCount(t))
}

func TestDispatchBatchAppliesReceiptsToEarlierMessages(t *testing.T) {
	stack := newTestStack(t, &fakeProfileFetcher{})
	sender := newFakeSender()
	d := newDispatcher(stack, sender, Handlers{})

	base := int64(1_600_000_000_000)
	events := []messenger.Event{
		echoEvent("PAGE", "U1", "m1", base),
		deliveryEvent("U1", "PAGE", base+10_000),
		readEvent("U1", "PAGE", base+20_000),
	}
	d.DispatchBatch(context.Background(), events, Options{LogEvent: true})

	row, err := stack.messages.GetByMID("m1")
	require.NoError(t, err)
	assert.True(t, row.Delivered())
	assert.True(t, row.Read())
}

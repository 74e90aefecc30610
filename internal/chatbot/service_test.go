package chatbot

import (
	"context"
	"testing"
	"time"

	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/events"
	"taskbridge-bot/internal/mocks"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	// genai starts the opencensus stats worker from its package init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const allowedUser int64 = 42

func newTestService(t *testing.T) (*Service, *mocks.MockTelegramProvider, events.EventBus) {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockTelegramProvider(ctrl)
	bus := events.NewEventBus(zap.NewNop())
	t.Cleanup(func() { _ = bus.Close() })

	s, err := NewService(bus, zaptest.NewLogger(t), provider, config.TelegramConfig{
		AllowedUserID: allowedUser,
		UpdateTimeout: 30,
	}, "Todoist")
	require.NoError(t, err)
	return s, provider, bus
}

func message(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func TestHandleUpdate_UnauthorizedUser(t *testing.T) {
	s, provider, bus := newTestService(t)
	provider.EXPECT().SendMessage(int64(7), DenialText).Return(nil)

	published := 0
	require.NoError(t, bus.Subscribe(events.TopicMessageReceived, func(events.MessageReceived) { published++ }))

	err := s.HandleUpdate(message(7, "Купить молоко"))

	assert.True(t, IsAuthorizationDenied(err))
	assert.Equal(t, 0, published)
}

func TestHandleUpdate_UnauthorizedCommand(t *testing.T) {
	s, provider, _ := newTestService(t)
	provider.EXPECT().SendMessage(int64(7), DenialText).Return(nil)

	err := s.HandleUpdate(message(7, "/start"))
	assert.True(t, IsAuthorizationDenied(err))
}

func TestHandleUpdate_Commands(t *testing.T) {
	tests := []struct {
		text     string
		contains string
	}{
		{"/start", "Привет! Я бот для создания задач в Todoist."},
		{"/help", "- Голосовых сообщений"},
		{"/status", "Сервис задач: Todoist"},
		{"/list", UnknownCommandText},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s, provider, _ := newTestService(t)
			provider.EXPECT().SendMessage(allowedUser, gomock.Any()).
				DoAndReturn(func(_ int64, text string) error {
					assert.Contains(t, text, tt.contains)
					return nil
				})

			assert.NoError(t, s.HandleUpdate(message(allowedUser, tt.text)))
		})
	}
}

func TestHandleUpdate_PublishesText(t *testing.T) {
	s, _, bus := newTestService(t)

	var got events.MessageReceived
	require.NoError(t, bus.Subscribe(events.TopicMessageReceived, func(e events.MessageReceived) { got = e }))

	require.NoError(t, s.HandleUpdate(message(allowedUser, "Завтра позвонить маме, важно")))

	assert.Equal(t, "Завтра позвонить маме, важно", got.Text)
	assert.Equal(t, allowedUser, got.ChatID)
	assert.Equal(t, 10, got.MessageID)
	assert.NotEmpty(t, got.CorrelationID)
}

func TestHandleUpdate_PublishesVoice(t *testing.T) {
	s, _, bus := newTestService(t)

	var got events.VoiceReceived
	require.NoError(t, bus.Subscribe(events.TopicVoiceReceived, func(e events.VoiceReceived) { got = e }))

	update := message(allowedUser, "")
	update.Message.Voice = &tgbotapi.Voice{FileID: "voice-1", Duration: 4, MimeType: "audio/ogg"}
	require.NoError(t, s.HandleUpdate(update))

	assert.Equal(t, "voice-1", got.FileID)
	assert.Equal(t, 4, got.Duration)
}

func TestHandleUpdate_UnsupportedMessage(t *testing.T) {
	s, provider, _ := newTestService(t)
	provider.EXPECT().SendMessage(allowedUser, UnsupportedText).Return(nil)

	update := message(allowedUser, "")
	update.Message.Sticker = &tgbotapi.Sticker{FileID: "s"}
	assert.NoError(t, s.HandleUpdate(update))
}

func TestHandleUpdate_IgnoresNonMessageUpdates(t *testing.T) {
	s, _, _ := newTestService(t)
	assert.NoError(t, s.HandleUpdate(tgbotapi.Update{UpdateID: 3}))
}

func TestHandleWebhook(t *testing.T) {
	s, _, bus := newTestService(t)

	var got events.MessageReceived
	require.NoError(t, bus.Subscribe(events.TopicMessageReceived, func(e events.MessageReceived) { got = e }))

	body := `{"update_id":100,"message":{"message_id":5,"date":0,"from":{"id":42,"is_bot":false,"first_name":"A"},"chat":{"id":42,"type":"private"},"text":"Купить хлеб"}}`
	require.NoError(t, s.HandleWebhook([]byte(body)))
	assert.Equal(t, "Купить хлеб", got.Text)

	var perr WebhookParsingError
	assert.ErrorAs(t, s.HandleWebhook([]byte(`{"message":`)), &perr)
	assert.ErrorAs(t, s.HandleWebhook(nil), &perr)
}

func TestService_DeliversPipelineReplies(t *testing.T) {
	_, provider, bus := newTestService(t)

	sent := make(chan string, 2)
	provider.EXPECT().SendMessage(allowedUser, gomock.Any()).
		DoAndReturn(func(_ int64, text string) error {
			sent <- text
			return nil
		}).Times(2)

	require.NoError(t, bus.Publish(events.TopicTaskCreated, events.TaskCreated{Event: events.NewEvent(), ChatID: allowedUser, Reply: "✅ ok"}))
	require.NoError(t, bus.Publish(events.TopicTaskFailed, events.TaskFailed{Event: events.NewEvent(), ChatID: allowedUser, Reply: "❌ fail"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case text := <-sent:
			got[text] = true
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for reply")
		}
	}
	assert.Equal(t, map[string]bool{"✅ ok": true, "❌ fail": true}, got)
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	s, provider, bus := newTestService(t)

	updates := make(chan tgbotapi.Update, 2)
	provider.EXPECT().DeleteWebhook().Return(nil)
	provider.EXPECT().GetUpdatesChan(30).Return(tgbotapi.UpdatesChannel(updates))
	provider.EXPECT().StopReceivingUpdates()
	provider.EXPECT().SendMessage(int64(9), DenialText).Return(nil)

	received := make(chan string, 1)
	require.NoError(t, bus.Subscribe(events.TopicMessageReceived, func(e events.MessageReceived) { received <- e.Text }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	updates <- message(9, "intruder")
	updates <- message(allowedUser, "задача")

	select {
	case text := <-received:
		assert.Equal(t, "задача", text)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for polled update")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_ClosedChannel(t *testing.T) {
	s, provider, _ := newTestService(t)

	updates := make(chan tgbotapi.Update)
	close(updates)
	provider.EXPECT().DeleteWebhook().Return(nil)
	provider.EXPECT().GetUpdatesChan(30).Return(tgbotapi.UpdatesChannel(updates))

	assert.NoError(t, s.Run(context.Background()))
}

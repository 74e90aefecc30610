// Package pipeline orchestrates extraction, resolution and task creation for
// text and voice messages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"taskbridge-bot/internal/events"
	"taskbridge-bot/internal/tasks"

	"go.uber.org/zap"
)

// Extractor turns raw text into a task intent. It must not fail.
type Extractor interface {
	Extract(ctx context.Context, raw string) tasks.TaskIntent
}

// Resolver maps project and section names to provider identifiers.
type Resolver interface {
	Resolve(ctx context.Context, intent tasks.TaskIntent) (tasks.ResolvedTask, error)
}

// Transcriber converts a voice recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// AudioSource downloads a voice file by its messenger file id.
type AudioSource interface {
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// VoiceError marks a failure before a transcript was available.
type VoiceError struct {
	Stage string
	Err   error
}

func (e *VoiceError) Error() string {
	return fmt.Sprintf("voice %s failed: %v", e.Stage, e.Err)
}

func (e *VoiceError) Unwrap() error {
	return e.Err
}

// Dependencies are the collaborators of the pipeline.
type Dependencies struct {
	Provider    tasks.Provider
	Extractor   Extractor
	Resolver    Resolver
	Transcriber Transcriber
	Audio       AudioSource
}

// Outcome is the result of a successfully handled message.
type Outcome struct {
	Intent tasks.TaskIntent
	Task   *tasks.CreatedTask
	Reply  string
}

// Service handles one message at a time and keeps no state between
// messages.
type Service struct {
	eventBus events.EventBus
	logger   *zap.Logger
	deps     Dependencies
	timeout  time.Duration
}

// NewService creates the pipeline and subscribes it to inbound message
// events. timeout bounds the handling of a single event.
func NewService(eventBus events.EventBus, logger *zap.Logger, deps Dependencies, timeout time.Duration) (*Service, error) {
	s := &Service{
		eventBus: eventBus,
		logger:   logger,
		deps:     deps,
		timeout:  timeout,
	}

	if eventBus != nil {
		if err := s.setupEventSubscriptions(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) setupEventSubscriptions() error {
	if err := s.eventBus.SubscribeAsync(events.TopicMessageReceived, s.handleMessageReceived); err != nil {
		return fmt.Errorf("failed to subscribe to MessageReceived events: %w", err)
	}
	if err := s.eventBus.SubscribeAsync(events.TopicVoiceReceived, s.handleVoiceReceived); err != nil {
		return fmt.Errorf("failed to subscribe to VoiceReceived events: %w", err)
	}
	return nil
}

// HandleText creates a task from a text message.
func (s *Service) HandleText(ctx context.Context, text string) (*Outcome, error) {
	return s.createTask(ctx, text, false)
}

// HandleVoice downloads and transcribes a voice message, then creates a task
// from the transcript. Download and transcription failures are *VoiceError.
func (s *Service) HandleVoice(ctx context.Context, fileID string) (*Outcome, error) {
	audio, err := s.deps.Audio.DownloadFile(ctx, fileID)
	if err != nil {
		return nil, &VoiceError{Stage: "download", Err: err}
	}
	defer audio.Close()

	text, err := s.deps.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, &VoiceError{Stage: "transcription", Err: err}
	}

	s.logger.Info("Voice message transcribed", zap.String("text", text))
	return s.createTask(ctx, text, true)
}

func (s *Service) createTask(ctx context.Context, text string, voice bool) (*Outcome, error) {
	intent := s.deps.Extractor.Extract(ctx, text)

	resolved, err := s.deps.Resolver.Resolve(ctx, intent)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve task intent: %w", err)
	}

	created, err := s.deps.Provider.CreateTask(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create task in %s: %w", s.deps.Provider.Name(), err)
	}
	if created.Content == "" {
		created.Content = resolved.Content
	}

	s.logger.Info("Task created",
		zap.String("provider", s.deps.Provider.Name()),
		zap.String("task_id", created.ID),
		zap.Bool("due_dropped", created.DueDropped))

	return &Outcome{
		Intent: intent,
		Task:   created,
		Reply:  SuccessReply(s.deps.Provider.Name(), voice, created),
	}, nil
}

func (s *Service) handleMessageReceived(event events.MessageReceived) {
	ctx, cancel := s.requestContext()
	defer cancel()

	logger := s.logger.With(zap.String("correlation_id", event.CorrelationID))
	defer s.recoverPanic(logger, event.Event, event.ChatID, events.SourceText)

	outcome, err := s.HandleText(ctx, event.Text)
	s.publishResult(logger, event.Event, event.ChatID, events.SourceText, outcome, err)
}

func (s *Service) handleVoiceReceived(event events.VoiceReceived) {
	ctx, cancel := s.requestContext()
	defer cancel()

	logger := s.logger.With(zap.String("correlation_id", event.CorrelationID))
	defer s.recoverPanic(logger, event.Event, event.ChatID, events.SourceVoice)

	outcome, err := s.HandleVoice(ctx, event.FileID)
	s.publishResult(logger, event.Event, event.ChatID, events.SourceVoice, outcome, err)
}

func (s *Service) recoverPanic(logger *zap.Logger, origin events.Event, chatID int64, source events.Source) {
	if r := recover(); r != nil {
		s.publishResult(logger, origin, chatID, source, nil, fmt.Errorf("panic while handling message: %v", r))
	}
}

func (s *Service) requestContext() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Service) publishResult(logger *zap.Logger, origin events.Event, chatID int64, source events.Source, outcome *Outcome, err error) {
	// Replies keep the correlation id of the inbound event.
	base := events.NewEvent()
	base.CorrelationID = origin.CorrelationID

	var topic string
	var payload interface{}
	if err != nil {
		logger.Error("Failed to handle message", zap.String("source", string(source)), zap.Error(err))
		topic = events.TopicTaskFailed
		payload = events.TaskFailed{
			Event:  base,
			ChatID: chatID,
			Source: source,
			Reason: err.Error(),
			Reply:  FailureReply(err),
		}
	} else {
		topic = events.TopicTaskCreated
		payload = events.TaskCreated{
			Event:      base,
			ChatID:     chatID,
			Source:     source,
			Provider:   s.deps.Provider.Name(),
			TaskID:     outcome.Task.ID,
			Content:    outcome.Task.Content,
			URL:        outcome.Task.URL,
			DueDropped: outcome.Task.DueDropped,
			Reply:      outcome.Reply,
		}
	}

	if err := s.eventBus.Publish(topic, payload); err != nil {
		logger.Error("Failed to publish pipeline result", zap.String("topic", topic), zap.Error(err))
	}
}

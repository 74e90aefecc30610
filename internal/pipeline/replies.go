package pipeline

import (
	"errors"
	"fmt"
	"html"

	"taskbridge-bot/internal/resolver"
	"taskbridge-bot/internal/tasks"
)

const (
	ReplyProviderFailure = "❌ Не удалось создать задачу. Попробуйте позже."
	ReplyVoiceFailure    = "❌ Не удалось обработать голосовое сообщение. Попробуйте позже."
	ReplyDueDropped      = "⚠️ Срок не распознан, задача создана без срока."
)

// SuccessReply formats the confirmation for a created task. Content is
// HTML-escaped.
func SuccessReply(providerName string, voice bool, task *tasks.CreatedTask) string {
	content := html.EscapeString(task.Content)

	var reply string
	if voice {
		reply = fmt.Sprintf("✅ Задача создана из голосового сообщения: %s", content)
	} else {
		reply = fmt.Sprintf("✅ Задача создана в %s: %s", providerName, content)
	}
	if task.DueDropped {
		reply += "\n" + ReplyDueDropped
	}
	return reply
}

// FailureReply maps a pipeline error to the text shown to the user. The
// technical cause is never included.
func FailureReply(err error) string {
	var rerr *resolver.ResolutionError
	if errors.As(err, &rerr) && rerr.Cause == nil {
		switch rerr.Kind {
		case resolver.KindSection:
			return fmt.Sprintf("❌ Раздел «%s» не найден. Задача не создана.", html.EscapeString(rerr.Name))
		default:
			return fmt.Sprintf("❌ Проект «%s» не найден. Задача не создана.", html.EscapeString(rerr.Name))
		}
	}

	var verr *VoiceError
	if errors.As(err, &verr) {
		return ReplyVoiceFailure
	}
	return ReplyProviderFailure
}

package intent

import (
	"strings"

	"taskbridge-bot/internal/tasks"
)

const todoistPrompt = `Ты — помощник, который извлекает параметры для создания задачи в Todoist из пользовательского текста.
Верни результат в формате JSON с ключами: content (текст задачи), due_string (срок, если есть), priority (1-4, если есть), labels (список, если есть), project_name (название проекта, если упомянут), section_name (название раздела проекта, если упомянут). Если параметр не найден — не включай его в JSON.

Пример:
Вход: Завтра купить молоко, важно
Выход: {"content": "Купить молоко", "due_string": "завтра", "priority": 4}

Вход: Позвонить маме
Выход: {"content": "Позвонить маме"}

Вход: В проект Работа, раздел Отчёты: подготовить отчёт к пятнице
Выход: {"content": "Подготовить отчёт", "due_string": "пятница", "project_name": "Работа", "section_name": "Отчёты"}

Вход: `

const yougilePrompt = `Ты — помощник, который извлекает название задачи для Yougile из пользовательского текста.
Верни результат в формате JSON с единственным ключом title (текст задачи). Если в тексте указан срок, добавь его в конец title в квадратных скобках.

Пример:
Вход: Завтра купить молоко
Выход: {"title": "Купить молоко [завтра]"}

Вход: Позвонить маме
Выход: {"title": "Позвонить маме"}

Вход: `

// BuildPrompt returns the few-shot extraction prompt for dialect with raw
// appended as the final input.
func BuildPrompt(dialect tasks.Dialect, raw string) string {
	var b strings.Builder
	switch dialect {
	case tasks.DialectYougile:
		b.WriteString(yougilePrompt)
	default:
		b.WriteString(todoistPrompt)
	}
	b.WriteString(raw)
	b.WriteString("\nВыход:\n")
	return b.String()
}

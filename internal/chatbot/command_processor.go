package chatbot

import (
	"fmt"

	"taskbridge-bot/version"

	"go.uber.org/zap"
)

// Command represents supported bot commands
type Command string

const (
	CommandStart  Command = "start"
	CommandHelp   Command = "help"
	CommandStatus Command = "status"
)

const (
	DenialText         = "⛔️ У вас нет доступа к этому боту."
	UnknownCommandText = "Незнакомая команда."
	UnsupportedText    = "Отправьте текст или голосовое сообщение, и я создам из него задачу."
)

// CommandProcessor answers bot commands. Commands never reach the task
// pipeline.
type CommandProcessor struct {
	logger       *zap.Logger
	providerName string
}

// NewCommandProcessor creates a new CommandProcessor instance
func NewCommandProcessor(providerName string, logger *zap.Logger) *CommandProcessor {
	return &CommandProcessor{
		logger:       logger,
		providerName: providerName,
	}
}

// Process returns the reply for command, which is the text after the slash
// without the bot mention.
func (cp *CommandProcessor) Process(command string) string {
	cp.logger.Info("Processing command", zap.String("command", command))

	switch Command(command) {
	case CommandStart:
		return fmt.Sprintf("Привет! Я бот для создания задач в %s.\n"+
			"Просто отправь мне текст или голосовое сообщение, и я создам из него задачу.", cp.providerName)
	case CommandHelp:
		return fmt.Sprintf("Я могу создавать задачи в %s из:\n"+
			"- Текстовых сообщений\n"+
			"- Голосовых сообщений\n\n"+
			"Просто отправь мне сообщение, и я создам задачу.", cp.providerName)
	case CommandStatus:
		return fmt.Sprintf("🤖 Версия: %s\nСервис задач: %s", version.String(), cp.providerName)
	default:
		return UnknownCommandText
	}
}

package mocks

//go:generate mockgen -source=../llm/provider.go -destination=llm_mocks.go -package=mocks
//go:generate mockgen -source=../speech/transcriber.go -destination=speech_mocks.go -package=mocks
//go:generate mockgen -source=../tasks/domain.go -destination=tasks_mocks.go -package=mocks
//go:generate mockgen -source=../chatbot/provider.go -destination=chatbot_mocks.go -package=mocks

// This file contains go:generate directives for creating mocks

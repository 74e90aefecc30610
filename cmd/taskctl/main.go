// Command taskctl looks up Todoist project and section ids for the bot
// configuration.
package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"errors"
	"fmt"
	"os"

	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/tasks"
	"taskbridge-bot/internal/tasks/todoist"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd(&app{
		out:       os.Stdout,
		directory: todoistDirectory,
	})

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errNotFound) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// todoistDirectory builds a Todoist client from the same configuration the
// bot uses. Only the token is required here.
func todoistDirectory() (tasks.ProjectDirectory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Todoist.Token == "" {
		return nil, config.NewConfigurationError("TODOIST_TOKEN is not set", "todoist.token")
	}
	return todoist.NewClient(cfg.Todoist, zap.NewNop()), nil
}

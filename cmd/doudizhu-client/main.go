// Command doudizhu-client runs an interactive terminal client: it connects
// to a room server over websocket and drives internal/tui's Bubble Tea
// model from the server events it receives.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/lox/doudizhu/internal/client"
	"github.com/lox/doudizhu/internal/tui"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"http://localhost:8080" help:"Room server base URL"`
	LogLevel string `short:"l" long:"log-level" default:"info" help:"Log level"`
	LogFile  string `long:"log-file" default:"doudizhu-client.log" help:"Log file path"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("doudizhu-client"),
		kong.Description("Terminal client for the Dou Dizhu room server"),
		kong.UsageOnError(),
	)

	logFile, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Printf("failed to open log file: %v\n", err)
		ctx.Exit(1)
	}
	defer logFile.Close()

	level, err := zerolog.ParseLevel(CLI.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(logFile).Level(level).With().Timestamp().Logger()

	c := client.New(CLI.Server, logger)
	if err := c.Connect(); err != nil {
		fmt.Printf("failed to connect to %s: %v\n", CLI.Server, err)
		ctx.Exit(1)
	}
	defer c.Close()

	model := tui.New(c)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Printf("tui error: %v\n", err)
		ctx.Exit(1)
	}
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zappabad/papertrade/internal/game"
	"github.com/zappabad/papertrade/tui"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := game.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogPath)

	g := game.New(cfg)
	defer g.Close()

	model := tui.NewModel(g.Market)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		logrus.WithError(err).Error("terminal UI failed")
		fmt.Fprintf(os.Stderr, "papertrade: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends logs to a rotating file. Stdout belongs to the TUI, so
// an empty path means the logs are discarded.
func setupLogging(path string) {
	if path == "" {
		logrus.SetOutput(io.Discard)
		return
	}
	logrus.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.InfoLevel)
}

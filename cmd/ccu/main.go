// Package main is the entry point for the Claude/Codex usage monitor.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/israelmirsky/claude-codex-usage/internal/app"
	"github.com/israelmirsky/claude-codex-usage/internal/config"
	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/services"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/tabs/dashboard"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/tabs/history"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/tabs/info"
	"github.com/israelmirsky/claude-codex-usage/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file in the config dir.
	logger.Setup(cfg.ConfigDir)

	// Starts the background refresh loop and the settings file watcher.
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	// Each tab receives the shared application state for consistent data access.
	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state, svcManager),
		history.New(state, svcManager),
		info.New(state, svcManager, cfg),
	}
	model.SetTabs(tabs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Claude/Codex Usage - terminal rate-limit monitor for Claude and Codex

Usage:
  ccu [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  r               Refresh data
  n               Toggle notifications (Info tab)
  +/-             Adjust alert threshold (Info tab)
  p               Switch provider (History tab)
  m               Switch metric (History tab)
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CCU_CONFIG_DIR      Config directory (default: ~/.config/claude-codex-usage)
  CCU_SETTINGS_PATH   Settings JSON file path
  CCU_DATABASE_PATH   SQLite usage history database path
  CODEX_AUTH_PATH     Codex auth.json path (default: ~/.codex/auth.json)
  CCU_HTTP_TIMEOUT    HTTP timeout for provider requests (default: 30s)
  OPENROUTER_API_KEY  OpenRouter key fallback when no keychain entry exists
  LOG_LEVEL           debug, info, warn or error (default: info)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/claude-codex-usage/.env
  - ~/.claude-codex-usage/.env`)
}

// Command replyloop collects timeline posts, picks the one most worth
// replying to, drafts a reply and posts it after confirmation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibeckermayer/replyloop/internal/app"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/logging"
)

func main() {
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	configPath := flag.String("config", "", "config file (default: user config dir)")
	envFile := flag.String("env", ".env", "optional .env file with API keys")
	flag.Usage = printUsage
	flag.Parse()

	logging.Init(*logLevel)

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	// Commands that need no pipeline
	switch cmd {
	case "open":
		if len(args) < 1 {
			fmt.Println("Usage: replyloop open <config|cache|screenshot>")
			os.Exit(1)
		}
		exitOn(runOpen(loadConfig(*configPath, *envFile), args[0]))
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg := loadConfig(*configPath, *envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == "bot-test" {
		exitOn(runBotTest(ctx, cfg))
		return
	}

	a, err := app.Build(cfg)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	switch cmd {
	case "run":
		err = runLoop(ctx, a, args)
	case "collect":
		err = runCollect(ctx, a, args)
	case "analyze":
		err = runAnalyze(ctx, a, args)
	case "post":
		err = runPost(ctx, a, args)
	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout()
	case "serve":
		err = runServe(ctx, a, args)
	case "history":
		err = runHistory(a, args)
	default:
		printUsage()
		a.Close()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, a.UserMessage(err))
		slog.Debug("Command failed", "command", cmd, "error", err)
		a.Close()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: replyloop [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run [-scrolls N]        Collect, analyze, confirm and post in one loop")
	fmt.Println("  collect [-scrolls N]    Scrape the home timeline into the data file")
	fmt.Println("  analyze [-from-cache]   Pick the best item and draft a reply")
	fmt.Println("  post [-reply TEXT]      Post the drafted (or given) reply")
	fmt.Println("  login                   Open a browser window to log in to X")
	fmt.Println("  logout                  Forget the saved session")
	fmt.Println("  serve [-addr ADDR] [-run-now]")
	fmt.Println("                          Run the HTTP API and scheduled analysis")
	fmt.Println("  history [-n N]          Show recent runs and replies")
	fmt.Println("  open config|cache|screenshot")
	fmt.Println("                          Open a file or directory with the default app")
	fmt.Println("  bot-test                Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// loadConfig reads the config file, creating a default one on first run
func loadConfig(path, envFile string) *config.Config {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// First run - create default config
			cfg = config.Default()
			if path != "" {
				err = cfg.SaveFile(path)
			} else {
				err = cfg.Save()
			}
			if err != nil {
				slog.Warn("Could not save default config", "error", err)
			} else {
				slog.Info("Created default config")
			}
		} else {
			slog.Warn("Could not load config, using defaults", "error", err)
			cfg = config.Default()
		}
	}

	cfg.ApplyEnv(envFile)
	return cfg
}

func exitOn(err error) {
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

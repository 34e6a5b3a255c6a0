package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	pkgbrowser "github.com/pkg/browser"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/replyloop/internal/app"
	"github.com/ibeckermayer/replyloop/internal/browser"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/report"
	"github.com/ibeckermayer/replyloop/internal/scheduler"
	"github.com/ibeckermayer/replyloop/internal/server"
)

const botTestURL = "https://bot.sannysoft.com"

func scrollFlags(name string, args []string, def int) (int, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	scrolls := fs.Int("scrolls", def, "timeline scrolls (1-10)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	return *scrolls, nil
}

func runLoop(ctx context.Context, a *app.App, args []string) error {
	scrolls, err := scrollFlags("run", args, a.Config().Scraping.ScrollCount)
	if err != nil {
		return err
	}

	result, err := a.RunLoop(ctx, scrolls, app.NewPromptConfirmer(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("Quit without posting.")
		return nil
	}
	printPosting(result.Posting.Posted, result.Posting.Screenshot, result.Posting.Error)
	return nil
}

func runCollect(ctx context.Context, a *app.App, args []string) error {
	scrolls, err := scrollFlags("collect", args, a.Config().Scraping.ScrollCount)
	if err != nil {
		return err
	}

	items, err := a.Collect(ctx, scrolls)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No tweets were found. Please try again.")
		return nil
	}
	fmt.Printf("Collected %d tweets into %s\n", len(items), a.Config().Files.DataFile)
	return nil
}

func runAnalyze(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fromCache := fs.Bool("from-cache", false, "analyze the most recent cached collection")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fromCache {
		if _, err := a.RestoreItems(); err != nil {
			return err
		}
	}

	result, err := a.Analyze(ctx)
	if err != nil {
		return err
	}
	fmt.Println(report.Plain(result))
	fmt.Println("Run `replyloop post` to publish the reply, optionally with -reply to edit it.")
	return nil
}

func runPost(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	reply := fs.String("reply", "", "reply text to post instead of the generated one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.Confirm(ctx, *reply)
	if err != nil {
		return err
	}
	printPosting(result.Posting.Posted, result.Posting.Screenshot, result.Posting.Error)
	return nil
}

func printPosting(posted bool, screenshot, errText string) {
	if posted {
		fmt.Println("Reply posted successfully!")
	} else {
		fmt.Printf("Failed to post reply: %s\n", errText)
	}
	if screenshot != "" {
		fmt.Printf("Screenshot: %s\n", screenshot)
	}
}

// runServe runs the HTTP API and, when configured, the analysis schedule until interrupted
func runServe(ctx context.Context, a *app.App, args []string) error {
	cfg := a.Config()
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	schedule := fs.String("schedule", cfg.Server.AnalyzeSchedule, "cron schedule for collect+analyze (empty disables)")
	runNow := fs.Bool("run-now", false, "run collect+analyze once at startup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runNow && *schedule == "" {
		return errors.New("-run-now needs a schedule")
	}

	g, ctx := errgroup.WithContext(ctx)

	var jobs server.JobLister
	if *schedule != "" {
		sched, err := scheduler.New(cfg.Server.Timezone)
		if err != nil {
			return err
		}
		pipeline := func(ctx context.Context) error {
			if _, err := a.Collect(ctx, cfg.Scraping.ScrollCount); err != nil {
				return err
			}
			_, err := a.Analyze(ctx)
			return err
		}
		if err := sched.AddPipelineJob(*schedule, pipeline); err != nil {
			return err
		}
		jobs = sched
		g.Go(func() error { return sched.Run(ctx) })
		if *runNow {
			g.Go(func() error {
				// A failed startup run is logged like a scheduled one and does not stop the server
				if err := sched.RunNow(ctx, "pipeline", pipeline); err != nil {
					slog.Error("Startup run failed", "error", a.UserMessage(err))
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		return server.Run(ctx, *addr, server.NewRouter(a, jobs))
	})

	return g.Wait()
}

func runHistory(a *app.App, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	n := fs.Int("n", 10, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	runs, err := a.History.ListRuns(*n)
	if err != nil {
		return err
	}
	replies, err := a.History.ListReplies(*n)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tWHEN\tITEMS\tON-TOPIC\tBEST\tURL")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f\t%s\n",
			r.RunID[:min(8, len(r.RunID))], r.CreatedAt.Local().Format(time.DateTime),
			r.TotalItems, r.OnTopicCount, r.BestScore, r.BestURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "RUN\tWHEN\tPOSTED\tEDITED\tTEXT")
	for _, r := range replies {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
			r.RunID[:min(8, len(r.RunID))], r.PostedAt.Local().Format(time.DateTime),
			r.Posted, r.Edited, r.Text)
	}
	return w.Flush()
}

func runOpen(cfg *config.Config, target string) error {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "cache":
		path, err = config.CacheDir()
	case "screenshot":
		if err = cfg.ResolveFiles(); err == nil {
			path = cfg.Files.ScreenshotFile
		}
	default:
		return fmt.Errorf("unknown target: %s", target)
	}
	if err != nil {
		return fmt.Errorf("failed to get path: %w", err)
	}

	if err := pkgbrowser.OpenFile(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

// runBotTest opens a fingerprinting page with the configured engine and stealth options
func runBotTest(ctx context.Context, cfg *config.Config) error {
	slog.Info("Opening bot test page with stealth browser options", "url", botTestURL, "engine", cfg.Scraping.Engine)

	scraping := cfg.Scraping
	scraping.Headless = false // visible so you can inspect it
	launcher, err := browser.New(scraping)
	if err != nil {
		return err
	}
	if s, ok := launcher.(interface{ Stop() error }); ok {
		defer s.Stop()
	}

	page, err := launcher.Open(ctx, nil)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Navigate(ctx, botTestURL); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	fmt.Println("Press Enter to close the browser...")
	bufio.NewReader(os.Stdin).ReadString('\n')

	slog.Info("Done")
	return nil
}

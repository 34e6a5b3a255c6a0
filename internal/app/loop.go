package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ibeckermayer/replyloop/internal/report"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// Decision is the operator's answer to a generated reply
type Decision int

const (
	// DecisionPost posts the reply
	DecisionPost Decision = iota
	// DecisionRestart discards the run and collects again
	DecisionRestart
	// DecisionQuit ends the loop without posting
	DecisionQuit
)

func (d Decision) String() string {
	switch d {
	case DecisionPost:
		return "post"
	case DecisionRestart:
		return "restart"
	case DecisionQuit:
		return "quit"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Confirmer asks the operator what to do with a result. The returned text
// replaces the generated reply when it is not blank.
type Confirmer interface {
	Confirm(ctx context.Context, result *types.Result) (Decision, string, error)
}

// RunLoop runs collect, analyze and confirm until the operator posts or quits.
// It returns the posted result, or nil when the operator quit.
func (a *App) RunLoop(ctx context.Context, scrollCount int, confirmer Confirmer) (*types.Result, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	for {
		if _, err := a.collect(ctx, scrollCount); err != nil {
			return nil, err
		}
		result, err := a.analyze(ctx)
		if err != nil {
			return nil, err
		}

		decision, edited, err := confirmer.Confirm(ctx, result)
		if err != nil {
			return nil, err
		}
		slog.Info("Operator decision", "decision", decision)

		switch decision {
		case DecisionPost:
			return a.confirm(ctx, edited)
		case DecisionRestart:
			if err := a.restart(); err != nil {
				slog.Warn("Failed to clear previous run", "error", err)
			}
		default:
			return nil, nil
		}
	}
}

// PromptConfirmer asks on a terminal
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer reads answers from in and writes prompts to out
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *PromptConfirmer) Confirm(ctx context.Context, result *types.Result) (Decision, string, error) {
	fmt.Fprintln(p.out, report.Plain(result))

	for {
		if err := ctx.Err(); err != nil {
			return DecisionQuit, "", err
		}
		fmt.Fprint(p.out, "Post this reply? [y]es, [e]dit, [n]o (start over), [q]uit: ")
		answer, err := p.readLine()
		if err != nil {
			return DecisionQuit, "", err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return DecisionPost, "", nil
		case "e", "edit":
			fmt.Fprint(p.out, "Reply text: ")
			text, err := p.readLine()
			if err != nil {
				return DecisionQuit, "", err
			}
			if text == "" {
				fmt.Fprintln(p.out, "Empty reply, keeping the generated one.")
			}
			return DecisionPost, text, nil
		case "n", "no":
			return DecisionRestart, "", nil
		case "q", "quit":
			return DecisionQuit, "", nil
		}
	}
}

func (p *PromptConfirmer) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

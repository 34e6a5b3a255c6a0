package analyzer

import (
	"context"
	"log/slog"

	"github.com/ibeckermayer/replyloop/internal/logging"
)

// foldItems applies step to each input in order and accumulates the kept
// outputs. A step error drops that input with a log line instead of aborting
// the batch. Only cancellation of ctx stops the fold early.
func foldItems[In, Out any](
	ctx context.Context,
	stage string,
	in []In,
	excerpt func(In) string,
	step func(context.Context, In) (Out, bool, error),
) ([]Out, error) {
	out := make([]Out, 0, len(in))
	dropped := 0

	for i, item := range in {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		result, keep, err := step(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			dropped++
			slog.Warn("Dropping item",
				"stage", stage,
				"index", i,
				"item", logging.Excerpt(excerpt(item), excerptLen),
				"error", err)
			continue
		}
		if keep {
			out = append(out, result)
		}
	}

	slog.Debug("Stage complete", "stage", stage, "in", len(in), "out", len(out), "dropped", dropped)
	return out, nil
}

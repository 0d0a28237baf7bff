package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/translog"
)

func (r Runner) commandStats(ctx context.Context, cfg config.Config) int {
	path, err := config.TranslogPath(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := translog.Open(ctx, path, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	stats, err := store.Stats(ctx, time.Now())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: read stats: %v\n", err)
		return 1
	}
	translog.WriteStats(r.Stdout, stats)
	return 0
}

// Package main compiles raidboss timeline scripts into JSON timeline data.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/louisbranch/raidboss-timelines/internal/platform/cmd"
	"github.com/louisbranch/raidboss-timelines/internal/platform/config"
	"github.com/louisbranch/raidboss-timelines/internal/tools/timelinecompiler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := timelinecompiler.ParseConfig()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = cmd.RunWithTelemetry(context.Background(), cmd.ServiceTimelineCompiler, func(ctx context.Context) error {
		_, err := timelinecompiler.Run(ctx, cfg, os.Stdout, os.Stderr)
		return err
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}

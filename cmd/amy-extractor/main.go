package main

import (
	"context"

	"amy-extractor/cmd/amy-extractor/commands"
	"amy-extractor/lib/telemetry"
)

func main() {
	ctx := context.Background()
	telemetry.SetupFromEnv(ctx, "amy-extractor")
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}

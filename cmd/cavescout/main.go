package main

import (
	"cavescout/cmd/cavescout/commands"
	"cavescout/lib/serviceutil"
	"cavescout/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "cavescout")
	commands.ExecuteContext(ctx)
}

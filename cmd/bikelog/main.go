package main

import (
	"bikelog/cmd/bikelog/commands"
	"bikelog/lib/osutil"
	"os"
)

func main() {
	ctx, stop := osutil.SignalContext()
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}

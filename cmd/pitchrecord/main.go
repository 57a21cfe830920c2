// Command pitchrecord credits pitching decisions from plate appearance logs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/pitchrecord/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "pitchrecord:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command docbatch fetches batches of documents from a key-limited store,
// either once from the command line or over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/docbatch/internal/cli"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := cli.NewRootCmd(Version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

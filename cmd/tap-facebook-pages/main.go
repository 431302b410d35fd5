// Command tap-facebook-pages extracts Facebook Pages data as a Singer tap.
package main

import (
	"os"

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Command welfarectl runs the translation pipeline from the command line:
// translate questions, check SQL safety and compare the schema catalog with
// the live database.
package main

import (
	"os"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// queuerepair manages the device repair queue from the terminal.
//
// Usage:
//
//	queuerepair add --device=<name> --issue=<text> [--serial=] [--submitted=] [--contact=]
//	queuerepair list [--search=<text>] [--sort=<field>]
//	queuerepair show <id>
//	queuerepair repaired <id> | cancel <id>
//	queuerepair delete <id> [--yes]
//	queuerepair export [--search=<text>] [--dir=<path>]
//	queuerepair dashboard | cleanup
//	queuerepair token [--operator=<name>]
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tracecheck - Network Capture Validation Tool
//
// tracecheck polls a capture dump for the HTTP requests a client is
// expected to send and reports the ones that never arrived.
package main

import (
	"os"

	"github.com/ccollicutt/tracecheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// benchd is the attendance service binary: HTTP API, background scheduler,
// one-shot pipeline runs, and report exports.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

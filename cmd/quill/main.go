// Command quill is the interactive prompt for the quill embedded SQL
// engine (spec §6's CLI prompt, an external collaborator specified only by
// its interface contract): it reads multi-line input terminated by ';',
// treats a bare "exit" line as termination, and prints each statement's
// formatted result.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ABOUTME: Entry point for the drive CLI
// ABOUTME: Signs in to the Drive Ogan Ilir web tier and uploads files with live progress

package main

import (
	"fmt"
	"os"

	"github.com/angga1207/drive-oi-v3-sub000/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

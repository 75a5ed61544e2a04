// Command rangelockctl drives an in-process rangelock.Manager through a set
// of scripted scenarios and prints the outcome of each step.
//
// There is no server: rangelock is a library meant to be embedded next to a
// file-node object, so this binary is a demonstration and inspection tool
// rather than a remote-management client.
package main

import (
	"fmt"
	"os"

	"github.com/fileloom/rangelockd/cmd/rangelockctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

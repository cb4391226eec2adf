// Command meridian is a thin composition-root CLI over the core engine
// package.
package main

import (
	"fmt"
	"os"

	"github.com/meridian-mem/meridian/cmd/meridian/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command hsa-patcher downloads the HearthstoneAccess patch and merges it into
// the local Hearthstone installation.
//
// A bare invocation finds the installation on its own, patches it, offers to
// put the readme on the desktop and waits for enter before exiting so the
// messages can be read.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// Command csync mirrors a project directory to and from a remote host with
// rsync over SSH, driven by a per-project configuration file.
package main

import (
	"context"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], newApp(os.Stdout, os.Stderr)))
}

package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/tasknest/internal/cli"
	"github.com/eleven-am/tasknest/pkg/tasknest"
)

// Set with -ldflags "-X main.gitCommit=... -X main.buildDate=...".
var (
	gitCommit string
	buildDate string
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func Execute() error {
	tasknest.SetBuildInfo(gitCommit, buildDate)
	return cli.NewRootCommand().Execute()
}

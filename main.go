package main

import (
	"github.com/maprix/maprix/cmd"
	"github.com/maprix/maprix/internal/version"
)

// Version is set at build time with -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

func main() {
	cmd.SetVersion(version.Effective(Version))
	cmd.Execute()
}

package govtracker

import (
	"fmt"
	"runtime"
)

// set with -ldflags "-X github.com/axiomesh/govtracker.CurrentVersion=..." at build time
var (
	CurrentVersion = "0.1.0"
	CurrentBranch  = "main"
	CurrentCommit  = ""
	BuildDate      = ""
)

var (
	Platform  = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	GoVersion = runtime.Version()
)

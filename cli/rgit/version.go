package main

import (
	"fmt"
	"runtime"
)

var version = "0.1.0"

func versionRun(args []string) error {
	fmt.Printf("%s version %s (%s %s/%s)\n",
		bin, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

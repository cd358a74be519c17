package main

import (
	"fmt"
	"os"
)

const (
	bin = "rgit"

	lsRemoteName = "ls-remote"
	fetchName    = "fetch"
	unpackName   = "unpack"
	versionName  = "version"

	usage = `Please specify one command of: ls-remote, fetch, unpack or version
Usage:
	rgit <ls-remote | fetch | unpack | version> [ARGS]

Help Options:
	-h, --help  Show this help message

Available commands:
	ls-remote  List the references advertised by a remote.
	fetch      Download a packfile from a remote.
	unpack     List the objects contained in a packfile.
	version    Show the version information.
`

	cannotStartExitCode  = 129
	generalErrorExitCode = 1
)

var commands = map[string]func([]string) error{
	lsRemoteName: lsRemoteRun,
	fetchName:    fetchRun,
	unpackName:   unpackRun,
	versionName:  versionRun,
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(cannotStartExitCode)
	}

	var args []string
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		showUsage()
		os.Exit(cannotStartExitCode)
	}

	if err := cmd(args); err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		os.Exit(generalErrorExitCode)
	}
}

func showUsage() {
	fmt.Print(usage)
}

package main

import (
	"fmt"
	"io"

	"github.com/rgit-scm/rgit/clients"
)

func lsRemoteRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s %s <url>", bin, lsRemoteName)
	}

	service, endpoint, err := clients.NewGitUploadPackService(args[0])
	if err != nil {
		return err
	}

	if err := service.Connect(endpoint); err != nil {
		return err
	}
	defer service.Disconnect()

	info, err := service.Info()
	if err != nil {
		return err
	}

	if head := info.Head(); head != nil {
		fmt.Printf("%s\tHEAD\n", head.Hash())
	}

	iter, err := info.Refs.Iter()
	if err != nil {
		return err
	}
	defer iter.Close()

	for {
		ref, err := iter.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if ref.Name() == "HEAD" {
			continue
		}

		fmt.Printf("%s\t%s\n", ref.Hash(), ref.Name())
	}
}

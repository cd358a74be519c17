package main

import (
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rgit-scm/rgit/clients"
	"github.com/rgit-scm/rgit/clients/common"
)

func fetchRun(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: %s %s <url> [output.pack]", bin, fetchName)
	}

	output := "output.pack"
	if len(args) == 2 {
		output = args[1]
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

	head := info.Head()
	if head == nil {
		return fmt.Errorf("remote did not advertise HEAD")
	}

	req := &common.GitUploadPackRequest{}
	req.Want(head.Hash())

	reader, err := service.Fetch(req)
	if err != nil {
		return err
	}
	defer reader.Close()

	fs := osfs.New(".")
	f, err := fs.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, reader)
	if err != nil {
		return err
	}

	fmt.Printf("fetched %s (%d bytes) into %s\n", head.Hash(), n, output)
	return nil
}

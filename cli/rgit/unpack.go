package main

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rgit-scm/rgit/core"
	"github.com/rgit-scm/rgit/formats/packfile"
)

func unpackRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s %s <file.pack>", bin, unpackName)
	}

	pack, err := packfile.DecodeFile(osfs.New("."), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("pack version %d, %d objects\n", pack.Version, pack.ObjectCount)
	for _, obj := range pack.Objects {
		switch obj.Type {
		case core.OFSDeltaObject:
			fmt.Printf("%-9s size %-8d offset %-8d base offset %d\n",
				obj.Type, obj.Size, obj.Offset, obj.OffsetReference)
		case core.REFDeltaObject:
			fmt.Printf("%-9s size %-8d offset %-8d base %s\n",
				obj.Type, obj.Size, obj.Offset, obj.Reference)
		default:
			fmt.Printf("%-9s size %-8d offset %-8d %s\n",
				obj.Type, obj.Size, obj.Offset, obj.Hash)
		}
	}

	return nil
}

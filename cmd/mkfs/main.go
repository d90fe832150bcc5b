// Command mkfs formats one or more disk images into a new WFS filesystem.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cs537-wisc/wfs"
)

func main() {
	app := &cli.App{
		Name:  "mkfs.wfs",
		Usage: "format disk images as a WFS filesystem",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "r", Usage: "raid mode: 0, 1, or 1v", Required: true},
			&cli.StringSliceFlag{Name: "d", Usage: "disk image path (repeatable)", Required: true},
			&cli.IntFlag{Name: "i", Usage: "number of inodes", Required: true},
			&cli.IntFlag{Name: "b", Usage: "number of data blocks", Required: true},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	mode, err := wfs.ParseRaidMode(c.String("r"))
	if err != nil {
		return err
	}

	numInodes := c.Int("i")
	numBlocks := c.Int("b")
	if numInodes <= 0 {
		return fmt.Errorf("invalid number of inodes: %d", numInodes)
	}
	if numBlocks <= 0 {
		return fmt.Errorf("invalid number of data blocks: %d", numBlocks)
	}

	return wfs.Format(wfs.FormatOptions{
		RaidMode:      mode,
		DiskPaths:     c.StringSlice("d"),
		NumInodes:     uint64(numInodes),
		NumDataBlocks: uint64(numBlocks),
	})
}

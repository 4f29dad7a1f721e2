package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"

	"github.com/eak1mov/go-octiles/index"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type importCmd struct {
	inputIndexPath string
	inputDataPath  string
	outputFormat   string
	outputPath     string
	scene          sceneFlags
}

func (c *importCmd) Name() string     { return "import_index" }
func (c *importCmd) Synopsis() string { return "create node store from exported index and payload data" }
func (c *importCmd) Usage() string {
	return "octiles import_index -i <path> -t <path> -o <path> [-of <format> -bounds <b> -maxdepth <n>]\n"
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputIndexPath, "i", "", "Input index file path")
	f.StringVar(&c.inputDataPath, "t", "", "Input payload data file path")
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format (octiles, sqlite, dir)")
	c.scene.register(f)
}

func (c *importCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	indexData, err := os.ReadFile(c.inputIndexPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	items, err := index.ReadAll(indexData)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	dataFile, err := os.Open(c.inputDataPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer dataFile.Close()

	s, err := c.scene.apply(scene{})
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	writer, err := newWriter(deduceFormat(c.outputFormat, c.outputPath), c.outputPath, s)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := writer.(io.Closer); ok {
		defer closer.Close()
	}

	maxLength := uint32(0)
	if len(items) > 0 {
		maxLength = slices.MaxFunc(items, func(a, b index.Item) int {
			return cmp.Compare(a.Length, b.Length)
		}).Length
	}
	buffer := make([]byte, maxLength)

	slices.SortFunc(items, func(a, b index.Item) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	bar := progressbar.New(len(items))

	for _, item := range items {
		data := buffer[:item.Length]
		if _, err := dataFile.ReadAt(data, int64(item.Offset)); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		if err := writer.WritePayload(item.NodeID(), data); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		bar.Add(1)
	}

	bar.Finish()
	fmt.Println()

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

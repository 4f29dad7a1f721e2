package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/eak1mov/go-octiles/index"
	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type exportCmd struct {
	inputFormat     string
	inputPath       string
	outputIndexPath string
	outputDataPath  string
}

func (c *exportCmd) Name() string     { return "export_index" }
func (c *exportCmd) Synopsis() string { return "export node index and payload data from a node store" }
func (c *exportCmd) Usage() string {
	return "octiles export_index -i <path> -o <path> [-t <path> -if <format>]\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format (octiles, sqlite, dir)")
	f.StringVar(&c.outputIndexPath, "o", "", "Output index file path")
	f.StringVar(&c.outputDataPath, "t", "", "Output payload data file path")
}

// exportPayloads copies every payload to the data file and indexes it there.
func (c *exportCmd) exportPayloads(reader store.Visitor) error {
	indexFile, err := os.Create(c.outputIndexPath)
	if err != nil {
		return err
	}
	defer indexFile.Close()
	indexWriter := bufio.NewWriter(indexFile)

	dataFile, err := os.Create(c.outputDataPath)
	if err != nil {
		return err
	}
	defer dataFile.Close()
	dataWriter := bufio.NewWriter(dataFile)
	dataOffset := uint64(0)

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())

	err = reader.VisitPayloads(func(id octree.ID, data []byte) error {
		item := index.NewItem(id, store.Location{Offset: dataOffset, Length: uint64(len(data))})
		if err := index.WriteAll([]index.Item{item}, indexWriter); err != nil {
			return err
		}

		if _, err := dataWriter.Write(data); err != nil {
			return err
		}

		dataOffset += uint64(len(data))

		bar.Add(1)

		return nil
	})

	bar.Finish()
	fmt.Println()

	if err != nil {
		return err
	}

	if err := dataWriter.Flush(); err != nil {
		return err
	}
	return indexWriter.Flush()
}

// exportLocations indexes payloads in place, inside the input file.
func (c *exportCmd) exportLocations(reader store.LocationVisitor) error {
	items := make([]index.Item, 0)
	for id, location := range store.IterLocations(reader) {
		items = append(items, index.NewItem(id, location))
	}

	file, err := os.Create(c.outputIndexPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return index.WriteAll(items, file)
}

func (c *exportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, err := newReader(deduceFormat(c.inputFormat, c.inputPath), c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	if visitor, ok := reader.(store.LocationVisitor); ok && c.outputDataPath == "" {
		err = c.exportLocations(visitor)
	} else if c.outputDataPath != "" {
		err = c.exportPayloads(reader)
	} else {
		err = fmt.Errorf("-t is required for %q input", c.inputPath)
	}

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

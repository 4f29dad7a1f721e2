package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/eak1mov/go-octiles/store"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type convertCmd struct {
	inputFormat  string
	inputPath    string
	outputFormat string
	outputPath   string
	scene        sceneFlags
}

func (c *convertCmd) Name() string     { return "convert" }
func (c *convertCmd) Synopsis() string { return "convert between node storage formats" }
func (c *convertCmd) Usage() string {
	return "octiles convert -i <path> -o <path> [-if <format> | -of <format>]\n"
}
func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format (octiles, sqlite, dir)")
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format (octiles, sqlite, dir)")
	c.scene.register(f)
}

func (c *convertCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, err := newReader(deduceFormat(c.inputFormat, c.inputPath), c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	s, err := readScene(reader)
	if err == nil {
		s, err = c.scene.apply(s)
	}
	if err != nil {
		log.Println("failed to read scene:", err)
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

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = store.Copy(writer, reader, func() { bar.Add(1) })
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

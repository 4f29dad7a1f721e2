package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/eak1mov/go-octiles/glbexport"
	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/tiling"
	"github.com/golang/geo/r3"
	"github.com/google/subcommands"
)

type selectCmd struct {
	inputFormat string
	inputPath   string
	eye         string
	threshold   float64
	glbPath     string
	scene       sceneFlags
}

func (c *selectCmd) Name() string     { return "select" }
func (c *selectCmd) Synopsis() string { return "print the nodes selected from a viewpoint" }
func (c *selectCmd) Usage() string {
	return "octiles select -i <path> -eye <x,y,z> [-if <format> -threshold <t> -glb <path>]\n"
}
func (c *selectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format (octiles, sqlite, dir)")
	f.StringVar(&c.eye, "eye", "0,0,0", "Eye position x,y,z")
	f.Float64Var(&c.threshold, "threshold", tiling.DefaultErrorThreshold, "Refinement error threshold")
	f.StringVar(&c.glbPath, "glb", "", "Write selected node boxes to this .glb file")
	c.scene.register(f)
}

func (c *selectCmd) run() error {
	var eye r3.Vector
	if _, err := fmt.Sscanf(c.eye, "%g,%g,%g", &eye.X, &eye.Y, &eye.Z); err != nil {
		return fmt.Errorf("-eye: %w", err)
	}

	reader, err := newReader(deduceFormat(c.inputFormat, c.inputPath), c.inputPath)
	if err != nil {
		return err
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	s, err := readScene(reader)
	if err != nil {
		return err
	}
	if s, err = c.scene.apply(s); err != nil {
		return err
	}
	tree, err := s.newTree()
	if err != nil {
		return err
	}

	tiler := tiling.New(tree, tiling.WithErrorThreshold(c.threshold), tiling.WithLogger(slog.Default()))
	if err := tiler.Populate(reader); err != nil {
		return err
	}

	nodes := tiler.Select(eye)
	tiler.Replay(func(node *octree.Node) {
		fmt.Printf("%d\tlevel=%d\tobjects=%d\n", node.ID(), node.Level(), tiler.SubtreeObjects(node.ID()))
	})

	if c.glbPath != "" {
		return glbexport.Write(c.glbPath, nodes)
	}
	return nil
}

func (c *selectCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := c.run(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

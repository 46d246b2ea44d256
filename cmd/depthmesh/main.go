// Command depthmesh converts depth images into triangle meshes.
//
//	depthmesh -in depth.png -out depth.stl
//	depthmesh -in captures/ -out meshes/ -script kinect.dm -format obj
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("depthmesh: ")

	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// options holds parsed command-line flags.
type options struct {
	in, out     string
	script      string
	format      string
	mode        string
	precision   int
	workers     int
	noWeld      bool
	compact     bool
	normals     bool
	zeroMissing bool
	scale       float64
	gl          bool
	pinhole     bool

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := flag.NewFlagSet("depthmesh", flag.ContinueOnError)
	fs.StringVar(&o.in, "in", "", "Source depth image or directory")
	fs.StringVar(&o.out, "out", "", "Destination mesh file or directory")
	fs.StringVar(&o.script, "script", "", "Pipeline script (.dm)")
	fs.StringVar(&o.format, "format", "", "Output format: stl or obj (default from -out extension, stl for directories)")
	fs.StringVar(&o.mode, "mode", "dense", "Triangulation mode: dense or filtered")
	fs.IntVar(&o.precision, "precision", 6, "Welding precision in decimal digits")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent rows or files; 0 is sequential")
	fs.BoolVar(&o.noWeld, "no-weld", false, "Skip vertex welding")
	fs.BoolVar(&o.compact, "compact", false, "Drop vertices left unreferenced after welding")
	fs.BoolVar(&o.normals, "normals", false, "Compute per-vertex normals")
	fs.BoolVar(&o.zeroMissing, "zero-missing", false, "Treat zero-valued pixels as missing depth")
	fs.Float64Var(&o.scale, "scale", 1, "Depth scale applied to normalized pixel values")
	fs.BoolVar(&o.gl, "gl", false, "Flip into an OpenGL frame (x, -y, -z*0.1)")
	fs.BoolVar(&o.pinhole, "pinhole", false, "Back-project through a default pinhole camera")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.in == "" || o.out == "" {
		fs.Usage()
		return nil, fmt.Errorf("usage: depthmesh -in depth.png -out mesh.stl")
	}
	if o.gl && o.pinhole {
		return nil, fmt.Errorf("-gl and -pinhole are mutually exclusive")
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return &o, nil
}

func run(args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(o)
	if err != nil {
		return err
	}
	jobs, err := planJobs(o)
	if err != nil {
		return err
	}
	return process(jobs, o, cfg)
}

// Command blurx applies a Gaussian smoothing filter to an image
// file and writes the result to another image file. The output
// format is inferred from the output path's extension.
//
// Usage:
//
//	blurx [flags] [input_path] [output_path]
//
// Both paths are optional and default to ./input.jpg and
// ./output.jpg.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/adriansahlman/blurstuff/blurx"
)

type config struct {
	inputPath  string
	outputPath string
	kernelRows int
	kernelCols int
	sigmaX     float64
	sigmaY     float64
	workers    int
}

func parseArgs(args []string) (config, error) {
	cfg := config{
		inputPath:  "./input.jpg",
		outputPath: "./output.jpg",
	}
	fs := flag.NewFlagSet("blurx", flag.ContinueOnError)
	fs.IntVar(
		&cfg.kernelRows,
		"rows",
		blurx.DefaultKernelRows,
		"kernel height",
	)
	fs.IntVar(
		&cfg.kernelCols,
		"cols",
		blurx.DefaultKernelCols,
		"kernel width",
	)
	fs.Float64Var(
		&cfg.sigmaX,
		"sigma-x",
		blurx.DefaultSigma,
		"horizontal gaussian spread",
	)
	fs.Float64Var(
		&cfg.sigmaY,
		"sigma-y",
		blurx.DefaultSigma,
		"vertical gaussian spread",
	)
	fs.IntVar(
		&cfg.workers,
		"workers",
		0,
		"maximum number of parallel workers (0 = number of CPUs)",
	)
	fs.Usage = func() {
		fmt.Fprintf(
			fs.Output(),
			"usage: blurx [flags] [input_path] [output_path]\n",
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	rest := fs.Args()
	if len(rest) > 2 {
		fs.Usage()
		return cfg, fmt.Errorf("expected at most 2 arguments, got %d", len(rest))
	}
	if len(rest) > 0 {
		cfg.inputPath = rest[0]
	}
	if len(rest) > 1 {
		cfg.outputPath = rest[1]
	}
	return cfg, nil
}

func run(cfg config) error {
	opts := []blurx.FilterOption{
		blurx.WithFilterKernelSize(cfg.kernelRows, cfg.kernelCols),
		blurx.WithFilterSigma(cfg.sigmaX, cfg.sigmaY),
	}
	if cfg.workers > 0 {
		opts = append(opts, blurx.WithFilterParallelLimit(cfg.workers))
	}
	return blurx.FilterFile(cfg.inputPath, cfg.outputPath, opts...)
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf(
		"Successfully applied %dx%d gaussian filter to %s\n",
		cfg.kernelRows,
		cfg.kernelCols,
		cfg.inputPath,
	)
	fmt.Printf("Output saved to %s\n", cfg.outputPath)
}

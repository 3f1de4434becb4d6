// Command etch is the thin driver: load the driver configuration, run the
// compilation pipeline, and either execute the result or report whichever
// E-* diagnostic stopped it (spec §7).
//
// Lexing and parsing are explicitly out of core scope (spec §1: "E-Parse —
// produced outside the core"); this module ships no lexer/parser. Source
// parses to *ast.Program through the ParseSource hook below, which a
// frontend built against this module is expected to set before main runs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kunitoki/etch-sub002/internal/ast"
	"github.com/kunitoki/etch-sub002/internal/cache"
	"github.com/kunitoki/etch-sub002/internal/cli"
	"github.com/kunitoki/etch-sub002/internal/compiler"
	"github.com/kunitoki/etch-sub002/internal/driverconfig"
	"github.com/kunitoki/etch-sub002/internal/pipeline"
	"github.com/kunitoki/etch-sub002/internal/vm"
)

// ParseSource turns source text into an AST. The core has no lexer/parser
// (spec §1 scopes that out); a real binary built from this module sets
// this hook before calling run. Left unset, it reports that plainly rather
// than pretending to parse.
var ParseSource func(filename string, src []byte) (*ast.Program, error)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("etch", flag.ContinueOnError)
	configPath := fs.String("config", "etch.yaml", "path to the driver config file")
	release := fs.Bool("release", false, "compile in release mode (no debug info)")
	verbose := fs.Bool("verbose", false, "verbose driver output")
	noCache := fs.Bool("no-cache", false, "skip the bytecode cache")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: etch [flags] <source-file>")
		return 2
	}
	sourceFile := fs.Arg(0)

	cfg, err := driverconfig.Load(*configPath, sourceFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cfg.SourceFile = sourceFile
	if *release {
		cfg.Debug = false
	}
	cfg.Verbose = cfg.Verbose || *verbose

	reporter := cli.NewReporter(stderr)

	source, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	compiled, err := loadOrCompile(source, cfg, *noCache, reporter)
	if err != nil {
		return reporter.Report(err)
	}

	result, err := vm.New(compiled).Run()
	if err != nil {
		return reporter.Report(err)
	}
	if cfg.Verbose {
		fmt.Fprintf(stdout, "exit value: %v\n", result)
	}
	return 0
}

func loadOrCompile(source []byte, cfg *driverconfig.Config, noCache bool, reporter *cli.Reporter) (*compiler.Program, error) {
	if !noCache {
		if artifact, ok, err := cache.Load(cfg.CacheDir, cfg.SourceFile, source, cfg.Debug); err == nil && ok {
			return artifact.Program, nil
		}
	}

	if ParseSource == nil {
		return nil, fmt.Errorf("etch: no frontend registered; ParseSource must be set by the binary embedding this module")
	}
	prog, err := ParseSource(cfg.SourceFile, source)
	if err != nil {
		return nil, err
	}

	compiled, err := pipeline.Compile(prog, cfg)
	if err != nil {
		return nil, err
	}

	if !noCache {
		hash := cache.ComputeHash(source, cfg.Debug)
		artifact := &cache.Artifact{SourceHash: hash, DebugInfo: cfg.Debug, SourceFile: cfg.SourceFile, Program: compiled}
		if err := cache.Store(cfg.CacheDir, cfg.SourceFile, artifact); err != nil && cfg.Verbose {
			fmt.Fprintf(os.Stderr, "etch: cache write failed: %v\n", err)
		}
	}
	return compiled, nil
}

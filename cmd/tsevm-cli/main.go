// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"tsevm/internal/compiler"
	"tsevm/internal/config"
	"tsevm/internal/errors"
	"tsevm/internal/ir"
)

func main() {
	configPath := flag.String("config", config.FileName, "project configuration file")
	outDir := flag.String("out", "", "output directory (overrides outDir)")
	printIR := flag.Bool("ir", false, "print the IR of every contract")
	bytecode := flag.Bool("bytecode", false, "assemble bytecode with solc")
	verbose := flag.Int("v", 0, "log verbosity")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tsevm-cli [flags] [file.ts...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	commonlog.Configure(*verbose, nil)

	cfg, err := config.Load(*configPath)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *bytecode {
		cfg.Emit.Bytecode = true
	}

	sources := flag.Args()
	if len(sources) == 0 {
		sources = cfg.Sources
	}
	if len(sources) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	startTime := time.Now()

	var assembler compiler.Assembler
	if cfg.Emit.Bytecode {
		assembler = compiler.NewSolcAssembler(cfg)
	}
	result, err := compiler.New(assembler).Compile(context.Background(), sources...)
	duration := formatDuration(time.Since(startTime))
	if err != nil {
		report(err)
		color.Red("Compilation failed after %s", duration)
		os.Exit(1)
	}

	for _, w := range result.Warnings {
		fmt.Print(format(w))
	}
	for _, a := range result.Artifacts {
		if *printIR {
			fmt.Println(ir.Print(a.Contract))
		}
		if err := write(cfg, a); err != nil {
			color.Red("%v", err)
			os.Exit(1)
		}
	}

	color.Green("Compiled %d contract(s) in %s", len(result.Artifacts), duration)
}

// write stores the artifacts the configuration asks for.
func write(cfg *config.Config, a *compiler.Artifact) error {
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	outputs := []struct {
		enabled bool
		ext     string
		data    string
	}{
		{cfg.Emit.ABI, ".abi.json", string(a.ABI) + "\n"},
		{cfg.Emit.Assembly, ".yul", a.Assembly},
		{cfg.Emit.IR, ".ir", ir.Print(a.Contract)},
		{cfg.Emit.Bytecode && a.Bytecode != "", ".bin", a.Bytecode + "\n"},
	}
	for _, out := range outputs {
		if !out.enabled {
			continue
		}
		path := filepath.Join(cfg.OutDir, a.Name+out.ext)
		if err := os.WriteFile(path, []byte(out.data), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func report(err error) {
	ce, ok := errors.As(err)
	if !ok {
		color.Red("error: %v", err)
		return
	}
	fmt.Print(format(*ce))
}

// format renders a diagnostic with its source line when the file is readable.
func format(ce errors.CompilerError) string {
	source, err := os.ReadFile(ce.Position.Filename)
	if err != nil || ce.Position.Line == 0 {
		return ce.Error() + "\n"
	}
	return errors.NewErrorReporter(ce.Position.Filename, string(source)).FormatError(ce)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

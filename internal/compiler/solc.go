package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"

	"tsevm/internal/config"
	"tsevm/internal/errors"
)

// Assembler turns formatted assembly into hex bytecode.
type Assembler interface {
	Assemble(ctx context.Context, name, assembly string) (string, error)
}

// SolcAssembler drives solc in standard JSON mode with Yul as the input language.
type SolcAssembler struct {
	Path      string
	Optimizer config.Optimizer
	// run executes solc; tests replace it.
	run func(ctx context.Context, path string, input []byte) ([]byte, error)
}

func NewSolcAssembler(cfg *config.Config) *SolcAssembler {
	return &SolcAssembler{Path: cfg.Solc, Optimizer: cfg.Optimizer, run: runSolc}
}

type solcSource struct {
	Content string `json:"content"`
}

type solcInput struct {
	Language string                `json:"language"`
	Sources  map[string]solcSource `json:"sources"`
	Settings solcSettings          `json:"settings"`
}

type solcSettings struct {
	Optimizer       config.Optimizer               `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type solcDiagnostic struct {
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

func (d solcDiagnostic) text() string {
	if d.FormattedMessage != "" {
		return d.FormattedMessage
	}
	return d.Message
}

type solcOutput struct {
	Errors    []solcDiagnostic `json:"errors"`
	Contracts map[string]map[string]struct {
		EVM struct {
			Bytecode struct {
				Object string `json:"object"`
			} `json:"bytecode"`
		} `json:"evm"`
	} `json:"contracts"`
}

// Assemble compiles one object. Diagnostics of severity "error" fail with an
// ExternalToolError holding their text unmodified; the others are logged.
func (s *SolcAssembler) Assemble(ctx context.Context, name, assembly string) (string, error) {
	file := name + ".yul"
	input, err := json.Marshal(solcInput{
		Language: "Yul",
		Sources:  map[string]solcSource{file: {Content: assembly}},
		Settings: solcSettings{
			Optimizer:       s.Optimizer,
			OutputSelection: map[string]map[string][]string{"*": {"*": {"evm.bytecode.object"}}},
		},
	})
	if err != nil {
		return "", err
	}

	run := s.run
	if run == nil {
		run = runSolc
	}
	raw, err := run(ctx, s.Path, input)
	if err != nil {
		return "", errors.ExternalTool(name, []string{err.Error()})
	}

	var out solcOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.ExternalTool(name, []string{fmt.Sprintf("unreadable solc output: %v", err)})
	}

	var failures []string
	for _, d := range out.Errors {
		if d.Severity == "error" {
			failures = append(failures, d.text())
			continue
		}
		log.Warningf("solc %s for %s: %s", d.Severity, name, d.text())
	}
	if len(failures) > 0 {
		return "", errors.ExternalTool(name, failures)
	}

	objects := out.Contracts[file]
	if obj, ok := objects[name]; ok {
		return obj.EVM.Bytecode.Object, nil
	}
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "", errors.ExternalTool(name, []string{"solc produced no bytecode"})
	}
	return objects[keys[0]].EVM.Bytecode.Object, nil
}

func runSolc(ctx context.Context, path string, input []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s: %w: %s", path, err, stderr.String())
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

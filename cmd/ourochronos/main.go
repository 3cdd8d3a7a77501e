package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/averagestudentdontfail/Ourochronos/bytecode"
	"github.com/averagestudentdontfail/Ourochronos/cmds"
	"github.com/averagestudentdontfail/Ourochronos/config"
	"github.com/averagestudentdontfail/Ourochronos/driver"
	"github.com/averagestudentdontfail/Ourochronos/logs"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/smtenc"
)

var (
	inputFlag      = cmds.Var[string]("-input")
	unrollFlag     = cmds.Var[int]("-unroll")
	solverPathFlag = cmds.Var[string]("-solver")
)

func init() {
	cmds.Define("run", cmds.Func(runCommand).
		Desc("run a compiled program to fixed point"))
	cmds.Define("encode", cmds.Func(encodeCommand).
		Desc("emit the SMT-LIB2 encoding of a compiled program, optionally solving it"))
}

func main() {
	cmds.GlobalExecutor.MustExecute(os.Args[1:])
}

func runCommand(path string) error {
	logger := logs.NewLogger(logs.NewWriter())

	loader := config.NewLoader(logger)
	cfg, err := config.LoadRunConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prog, err := loadProgram(path)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}

	input, err := parseInput(*inputFlag)
	if err != nil {
		return fmt.Errorf("parse -input: %w", err)
	}

	logger.Info("starting run", "path", path, "mode", cfg.Mode.String())

	result := driver.Run(prog, input, cfg)

	logger.Info("run finished",
		"kind", result.Kind.String(),
		"epochs", result.Epochs,
	)

	switch result.Kind {
	case driver.ResultConsistent, driver.ResultMultipleConsistent:
		fmt.Fprintln(os.Stdout, formatUint64s(result.Output))
	default:
		if result.Message != "" {
			logger.Error("run did not converge", "reason", result.Message)
		}
	}

	os.Exit(result.Kind.ExitCode())
	return nil
}

func encodeCommand(path string) error {
	logger := logs.NewLogger(logs.NewWriter())

	prog, err := loadProgram(path)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}

	bound := smtenc.DefaultUnrollBound
	if *unrollFlag != 0 {
		bound = *unrollFlag
	}

	script, err := smtenc.Encode(prog, bound)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if script.Incomplete {
		logger.Warn("while loops are unrolled only up to the bound and cut off there; encoding is incomplete")
	}

	if *solverPathFlag == "" {
		fmt.Fprint(os.Stdout, script.Text)
		return nil
	}

	solver := smtenc.NewProcessSolver(*solverPathFlag)
	result, err := solver.Solve(context.Background(), script)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	logger.Info("solver finished", "verdict", result.Verdict.String())
	fmt.Fprintln(os.Stdout, result.Raw)
	return nil
}

func loadProgram(path string) (*program.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytecode.Decompile(data)
}

func parseInput(raw string) ([]uint64, error) {
	if raw == "" {
		return nil, nil
	}
	var values []uint64
	for _, field := range strings.Fields(raw) {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", field, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func formatUint64s(values []uint64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, " ")
}

// Command jamnode is the reference CLI for the JAM STF: import a block
// trace against genesis, benchmark repeated imports, or query a trace's
// pre/post Merklisation dictionary (spec.md §6).
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/jamstate/jamnode/internal/accumulate"
	"github.com/jamstate/jamnode/internal/conformance"
	"github.com/jamstate/jamnode/internal/importer"
	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/merkle"
	"github.com/jamstate/jamnode/internal/state"
	"github.com/jamstate/jamnode/internal/statekey"
)

// Exit codes per spec.md §6.
const (
	exitSuccess     = 0
	exitInvalidArgs = 1
	exitTestFailure = 2
	exitLoadFailure = 3
)

// pvmStub stands in for the PVM's "execute service accumulate" named
// collaborator (spec.md §1 treats the PVM as out of scope); it always
// reports a deterministic placeholder hash and zero gas used, never a
// real execution result.
type pvmStub struct{}

func (pvmStub) ExecuteAccumulate(service jamtypes.ServiceID, results []jamtypes.WorkResult, gasLimit jamtypes.Gas) (jamtypes.Hash, jamtypes.Gas, bool) {
	var out jamtypes.Hash
	copy(out[:], []byte(fmt.Sprintf("pvm-stub:%d", service)))
	return out, 0, true
}

var _ accumulate.Executor = pvmStub{}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync() //nolint:errcheck

	app := &cli.App{
		Name:  "jamnode",
		Usage: "JAM state-transition-function reference tool",
		Commands: []*cli.Command{
			importTraceCommand(log, stdout),
			benchCommand(stdout),
			queryCommand(stdout),
		},
	}

	if err := app.Run(args); err != nil {
		fmt.Fprintln(stderr, err)
		if ec, ok := err.(cli.ExitCoder); ok {
			return ec.ExitCode()
		}
		return exitInvalidArgs
	}
	return exitSuccess
}

func importTraceCommand(log *zap.Logger, out *os.File) *cli.Command {
	return &cli.Command{
		Name:      "import-trace",
		Usage:     "apply a trace's block against genesis and check the resulting state root",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("import-trace: expected exactly one <path> argument", exitInvalidArgs)
			}
			trace, params, genesis, block, err := loadTrace(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, exitLoadFailure)
			}

			drv := newDriver(params, log)
			result, err := drv.ImportBlock(genesis, block)
			if err != nil {
				return cli.Exit(fmt.Errorf("import-trace: block rejected: %w", err), exitTestFailure)
			}

			wantRoot, err := trace.ExpectedStateRoot()
			if err != nil {
				return cli.Exit(err, exitLoadFailure)
			}
			if result.StateRoot != wantRoot {
				return cli.Exit(fmt.Errorf("import-trace: state root mismatch: got %x, want %x", result.StateRoot, wantRoot), exitTestFailure)
			}

			fmt.Fprintf(out, "ok: state root %x\n", result.StateRoot)
			return nil
		},
	}
}

func benchCommand(out *os.File) *cli.Command {
	return &cli.Command{
		Name:      "bench",
		Usage:     "repeatedly import a trace's block against fresh genesis and report timing",
		ArgsUsage: "<trace> [iterations]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 || c.NArg() > 2 {
				return cli.Exit("bench: expected <trace> [iterations]", exitInvalidArgs)
			}
			iterations := 1
			if c.NArg() == 2 {
				n, err := strconv.Atoi(c.Args().Get(1))
				if err != nil || n < 1 {
					return cli.Exit("bench: iterations must be a positive integer", exitInvalidArgs)
				}
				iterations = n
			}

			_, params, genesis, block, err := loadTrace(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, exitLoadFailure)
			}

			quietLog := zap.NewNop()
			var total time.Duration
			for i := 0; i < iterations; i++ {
				drv := newDriver(params, quietLog)
				start := time.Now()
				if _, err := drv.ImportBlock(genesis, block); err != nil {
					return cli.Exit(fmt.Errorf("bench: iteration %d: %w", i, err), exitTestFailure)
				}
				total += time.Since(start)
			}

			fmt.Fprintf(out, "%d iterations, total %s, avg %s\n", iterations, total, total/time.Duration(iterations))
			return nil
		},
	}
}

func queryCommand(out *os.File) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "look up a state key in a trace's pre- or post-state Merklisation dictionary",
		ArgsUsage: "<trace.bin> <path> [pre|post]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 || c.NArg() > 3 {
				return cli.Exit("query: expected <trace.bin> <path> [pre|post]", exitInvalidArgs)
			}
			which := "pre"
			if c.NArg() == 3 {
				which = c.Args().Get(2)
			}
			if which != "pre" && which != "post" {
				return cli.Exit("query: third argument must be pre or post", exitInvalidArgs)
			}

			keyBytes, err := hex.DecodeString(strings.TrimPrefix(c.Args().Get(1), "0x"))
			if err != nil || len(keyBytes) != 31 {
				return cli.Exit("query: <path> must be a 31-byte hex state key", exitInvalidArgs)
			}
			var key statekey.Key
			copy(key[:], keyBytes)

			_, params, genesis, block, err := loadTrace(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, exitLoadFailure)
			}

			target := genesis
			if which == "post" {
				drv := newDriver(params, zap.NewNop())
				result, err := drv.ImportBlock(genesis, block)
				if err != nil {
					return cli.Exit(fmt.Errorf("query: block rejected: %w", err), exitTestFailure)
				}
				target = result.PosteriorState
			}

			dict := merkle.Build(target)
			value, ok := dict.Get(key)
			if !ok {
				fmt.Fprintln(out, "not found")
				return nil
			}
			fmt.Fprintf(out, "%x\n", value)
			return nil
		},
	}
}

// loadTrace reads the named trace file, resolves its parameter set,
// builds the genesis state it applies against, and decodes its block.
func loadTrace(path string) (*conformance.Trace, *jamparams.Params, *state.State, *jamtypes.Block, error) {
	trace, err := conformance.NewFileLoader().Load(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	params, err := trace.Params()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	block, err := trace.DecodeBlock(params)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	genesis := state.NewGenesis(params)
	return trace, params, genesis, block, nil
}

// newDriver wires a fresh importer.Driver from the standard crypto
// collaborators and the PVM stand-in.
func newDriver(params *jamparams.Params, log *zap.Logger) *importer.Driver {
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	return importer.New(params, hasher, jamcrypto.NewEd25519(), ring, pvmStub{}, log)
}

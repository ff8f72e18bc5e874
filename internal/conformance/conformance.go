// Package conformance is a thin, named-interface adapter for loading
// block-import test vectors from disk (spec.md §1 treats test-vector
// loaders as an out-of-scope external collaborator; this is the
// minimal adapter behind cmd/jamnode, not a conformance test suite).
package conformance

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jamstate/jamnode/internal/codec"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
)

// Trace is the on-disk JSON shape of one import-trace test vector: a
// parameter set name, a hex-encoded block, and the expected posterior
// state root.
type Trace struct {
	ParamSet        string `json:"param_set"`
	BlockHex        string `json:"block"`
	PostStateRootHex string `json:"post_state_root"`
}

// Loader retrieves a Trace by path; the named interface spec.md §1
// asks for in place of any concrete fixture format.
type Loader interface {
	Load(path string) (*Trace, error)
}

// FileLoader reads a Trace from a JSON file on disk.
type FileLoader struct{}

// NewFileLoader returns the standard on-disk Loader.
func NewFileLoader() *FileLoader { return &FileLoader{} }

func (FileLoader) Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("conformance: read %s: %w", path, err)
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("conformance: decode %s: %w", path, err)
	}
	return &t, nil
}

// Params resolves the trace's named parameter set.
func (t *Trace) Params() (*jamparams.Params, error) {
	switch t.ParamSet {
	case "", "tiny":
		return jamparams.Tiny(), nil
	case "full":
		return jamparams.Full(), nil
	default:
		return nil, fmt.Errorf("conformance: unknown param_set %q", t.ParamSet)
	}
}

// DecodeBlock decodes the trace's hex-encoded block against params.
func (t *Trace) DecodeBlock(params *jamparams.Params) (*jamtypes.Block, error) {
	raw, err := decodeHex(t.BlockHex)
	if err != nil {
		return nil, fmt.Errorf("conformance: block hex: %w", err)
	}
	d := codec.NewDecoder(raw)
	block, err := jamtypes.DecodeBlock(d, int(params.ValidatorsCount), int(params.EpochLength), int(params.AvailBitfieldBytes))
	if err != nil {
		return nil, fmt.Errorf("conformance: decode block: %w", err)
	}
	return block, nil
}

// ExpectedStateRoot parses the trace's expected posterior state root.
func (t *Trace) ExpectedStateRoot() (jamtypes.Hash, error) {
	raw, err := decodeHex(t.PostStateRootHex)
	if err != nil {
		return jamtypes.Hash{}, fmt.Errorf("conformance: post_state_root hex: %w", err)
	}
	if len(raw) != 32 {
		return jamtypes.Hash{}, fmt.Errorf("conformance: post_state_root has %d bytes, want 32", len(raw))
	}
	var h jamtypes.Hash
	copy(h[:], raw)
	return h, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

package conformance

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/codec"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
)

func writeTrace(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileLoaderRoundTrips(t *testing.T) {
	params := jamparams.Tiny()
	header := jamtypes.Header{
		Slot:          1,
		VRFSignature:  make([]byte, 32),
		Seal:          make([]byte, 32),
		ExtrinsicHash: jamtypes.Hash{},
	}
	e := codec.NewEncoder()
	header.EncodeJAM(e, int(params.EpochLength))
	jamtypes.Extrinsic{}.EncodeJAM(e)
	blockHex := hex.EncodeToString(e.Bytes())

	path := writeTrace(t, `{"param_set":"tiny","block":"`+blockHex+`","post_state_root":"`+hex.EncodeToString(make([]byte, 32))+`"}`)

	loader := NewFileLoader()
	trace, err := loader.Load(path)
	require.NoError(t, err)

	resolved, err := trace.Params()
	require.NoError(t, err)
	require.Equal(t, params.EpochLength, resolved.EpochLength)

	block, err := trace.DecodeBlock(resolved)
	require.NoError(t, err)
	require.EqualValues(t, 1, block.Header.Slot)

	root, err := trace.ExpectedStateRoot()
	require.NoError(t, err)
	require.Equal(t, jamtypes.Hash{}, root)
}

func TestParamsRejectsUnknownSet(t *testing.T) {
	trace := &Trace{ParamSet: "mainnet-ish"}
	_, err := trace.Params()
	require.Error(t, err)
}

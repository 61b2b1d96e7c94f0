package blobstore

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/blob-store/types"
)

// newTestSidecar builds a well formed sidecar whose content is derived from seed.
func newTestSidecar(version byte, seed byte, blobs int) *types.Sidecar {
	proofsPerBlob := 1
	if version == types.SidecarVersion1 {
		proofsPerBlob = types.CellProofsPerBlob
	}
	sc := &types.Sidecar{
		Version:     version,
		Blobs:       make([]kzg4844.Blob, blobs),
		Commitments: make([]kzg4844.Commitment, blobs),
		Proofs:      make([]kzg4844.Proof, blobs*proofsPerBlob),
	}
	for i := 0; i < blobs; i++ {
		sc.Blobs[i][0], sc.Blobs[i][1] = seed, byte(i)
		sc.Commitments[i][0], sc.Commitments[i][1] = seed, byte(i)
	}
	for i := range sc.Proofs {
		sc.Proofs[i][0], sc.Proofs[i][1] = seed, byte(i)
	}
	return sc
}

func txHash(n int) common.Hash {
	return common.BigToHash(big.NewInt(int64(n) + 1))
}

func newTestDiskStore(t *testing.T, dir string) *DiskStore {
	store, err := OpenDiskStore(DiskStoreConfig{Dir: dir})
	require.NoError(t, err)
	return store
}

// testStores returns a fresh instance of every store keeping data.
func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"disk":   newTestDiskStore(t, t.TempDir()),
	}
}

func encodedSize(t *testing.T, sc *types.Sidecar) uint64 {
	data, err := types.EncodeSidecar(sc)
	require.NoError(t, err)
	return uint64(len(data))
}

// storedSize is the size a store accounts for sc.
func storedSize(t *testing.T, store Store, sc *types.Sidecar) uint64 {
	if _, ok := store.(*DiskStore); ok {
		return encodedSize(t, sc)
	}
	return sc.Size()
}

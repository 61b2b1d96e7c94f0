package blobstore

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/blob-store/types"
)

func TestNoopStore(t *testing.T) {
	store := NewNoopStore()
	tx := txHash(1)
	sc := newTestSidecar(types.SidecarVersion0, 1, 1)

	require.NoError(t, store.Insert(tx, sc))
	require.NoError(t, store.InsertAll([]TxSidecar{{TxHash: tx, Sidecar: sc}}))

	got, err := store.Get(tx)
	require.NoError(t, err)
	require.Nil(t, got)

	ok, err := store.Contains(tx)
	require.NoError(t, err)
	require.False(t, ok)

	all, err := store.GetAll([]common.Hash{tx})
	require.NoError(t, err)
	require.Empty(t, all)

	require.NoError(t, store.Delete(tx))
	require.NoError(t, store.DeleteAll([]common.Hash{tx}))
	require.Equal(t, CleanupStat{}, store.Cleanup())

	size, ok := store.DataSizeHint()
	require.True(t, ok)
	require.Zero(t, size)
	require.Zero(t, store.BlobsLen())
}

func TestNoopStoreLookups(t *testing.T) {
	store := NewNoopStore()
	tx := txHash(1)

	exact, err := store.GetExact(nil)
	require.NoError(t, err)
	require.NotNil(t, exact)
	require.Empty(t, exact)

	_, err = store.GetExact([]common.Hash{tx, txHash(2)})
	require.True(t, IsMissingSidecar(err))
	var missing *MissingSidecarError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, tx, missing.TxHash)

	vhs := newTestSidecar(types.SidecarVersion0, 1, 2).BlobHashes()
	v1, err := store.GetByVersionedHashesV1(vhs)
	require.NoError(t, err)
	require.Equal(t, []*types.BlobAndProofV1{nil, nil}, v1)

	v2, err := store.GetByVersionedHashesV2(vhs)
	require.NoError(t, err)
	require.Nil(t, v2)

	v2, err = store.GetByVersionedHashesV2(nil)
	require.NoError(t, err)
	require.NotNil(t, v2)
	require.Empty(t, v2)
}

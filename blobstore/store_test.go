package blobstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/blob-store/types"
)

func TestStoreInsertGet(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			tx := txHash(1)
			sc := newTestSidecar(types.SidecarVersion0, 1, 2)
			require.NoError(t, store.Insert(tx, sc))

			got, err := store.Get(tx)
			require.NoError(t, err)
			require.Equal(t, sc, got)

			ok, err := store.Contains(tx)
			require.NoError(t, err)
			require.True(t, ok)

			got, err = store.Get(txHash(2))
			require.NoError(t, err)
			require.Nil(t, got)
			ok, err = store.Contains(txHash(2))
			require.NoError(t, err)
			require.False(t, ok)

			require.Equal(t, 1, store.BlobsLen())
			size, ok := store.DataSizeHint()
			require.True(t, ok)
			require.Equal(t, storedSize(t, store, sc), size)
		})
	}
}

func TestStoreInsertOverwrites(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			tx := txHash(1)
			first := newTestSidecar(types.SidecarVersion0, 1, 2)
			second := newTestSidecar(types.SidecarVersion1, 2, 1)
			require.NoError(t, store.Insert(tx, first))
			require.NoError(t, store.Insert(tx, second))

			got, err := store.Get(tx)
			require.NoError(t, err)
			require.Equal(t, second, got)

			require.Equal(t, 1, store.BlobsLen())
			size, _ := store.DataSizeHint()
			require.Equal(t, storedSize(t, store, second), size)
		})
	}
}

func TestStoreInsertInvalid(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			bad := newTestSidecar(types.SidecarVersion1, 1, 1)
			bad.Proofs = bad.Proofs[:1]

			err := store.Insert(txHash(1), bad)
			var other *OtherError
			require.ErrorAs(t, err, &other)

			err = store.Insert(txHash(2), nil)
			require.ErrorAs(t, err, &other)
			require.Zero(t, store.BlobsLen())
		})
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Delete(txHash(9)))

			tx := txHash(1)
			require.NoError(t, store.Insert(tx, newTestSidecar(types.SidecarVersion0, 1, 1)))
			before, _ := store.DataSizeHint()
			require.NoError(t, store.Delete(txHash(9)))
			require.NoError(t, store.DeleteAll([]common.Hash{txHash(9), txHash(10)}))
			after, _ := store.DataSizeHint()
			require.Equal(t, before, after)
			require.Equal(t, 1, store.BlobsLen())

			require.NoError(t, store.Delete(tx))
			require.NoError(t, store.Delete(tx))

			got, err := store.Get(tx)
			require.NoError(t, err)
			require.Nil(t, got)
			require.Zero(t, store.BlobsLen())
			size, _ := store.DataSizeHint()
			require.Zero(t, size)
		})
	}
}

func TestStoreDeleteAll(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			keep := newTestSidecar(types.SidecarVersion0, 3, 1)
			require.NoError(t, store.InsertAll([]TxSidecar{
				{TxHash: txHash(1), Sidecar: newTestSidecar(types.SidecarVersion0, 1, 1)},
				{TxHash: txHash(2), Sidecar: newTestSidecar(types.SidecarVersion0, 2, 1)},
				{TxHash: txHash(3), Sidecar: keep},
			}))
			require.NoError(t, store.DeleteAll([]common.Hash{txHash(1), txHash(2), txHash(7)}))

			require.Equal(t, 1, store.BlobsLen())
			size, _ := store.DataSizeHint()
			require.Equal(t, storedSize(t, store, keep), size)
			ok, err := store.Contains(txHash(3))
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestStoreInsertAllRejectsInvalidBatch(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.InsertAll([]TxSidecar{
				{TxHash: txHash(1), Sidecar: newTestSidecar(types.SidecarVersion0, 1, 1)},
				{TxHash: txHash(2), Sidecar: nil},
			})
			require.Error(t, err)

			require.Zero(t, store.BlobsLen())
			ok, err := store.Contains(txHash(1))
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreGetAllAndGetExact(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			a, b := newTestSidecar(types.SidecarVersion0, 1, 1), newTestSidecar(types.SidecarVersion1, 2, 1)
			require.NoError(t, store.InsertAll([]TxSidecar{
				{TxHash: txHash(1), Sidecar: a},
				{TxHash: txHash(2), Sidecar: b},
			}))
			missing := txHash(3)

			all, err := store.GetAll([]common.Hash{txHash(2), missing, txHash(1)})
			require.NoError(t, err)
			require.Len(t, all, 2)
			found := make(map[common.Hash]*types.Sidecar)
			for _, item := range all {
				found[item.TxHash] = item.Sidecar
			}
			require.Equal(t, a, found[txHash(1)])
			require.Equal(t, b, found[txHash(2)])

			exact, err := store.GetExact([]common.Hash{txHash(2), txHash(1)})
			require.NoError(t, err)
			require.Equal(t, []*types.Sidecar{b, a}, exact)

			_, err = store.GetExact([]common.Hash{txHash(1), missing, txHash(2)})
			require.True(t, IsMissingSidecar(err))
			var missingErr *MissingSidecarError
			require.ErrorAs(t, err, &missingErr)
			require.Equal(t, missing, missingErr.TxHash)

			exact, err = store.GetExact(nil)
			require.NoError(t, err)
			require.Empty(t, exact)
		})
	}
}

func TestStoreVersionedHashes(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			v0 := newTestSidecar(types.SidecarVersion0, 1, 2)
			v1 := newTestSidecar(types.SidecarVersion1, 2, 2)
			require.NoError(t, store.Insert(txHash(1), v0))
			require.NoError(t, store.Insert(txHash(2), v1))

			v0Hashes, v1Hashes := v0.BlobHashes(), v1.BlobHashes()
			unknown := newTestSidecar(types.SidecarVersion0, 9, 1).BlobHashes()[0]

			items, err := store.GetByVersionedHashesV1([]common.Hash{v0Hashes[1], unknown, v0Hashes[0]})
			require.NoError(t, err)
			require.Len(t, items, 3)
			require.Equal(t, v0.Blobs[1], *items[0].Blob)
			require.Equal(t, v0.Proofs[1], items[0].Proof)
			require.Nil(t, items[1])
			require.Equal(t, v0.Blobs[0], *items[2].Blob)

			// v1 lookups only serve single proof sidecars
			items, err = store.GetByVersionedHashesV1([]common.Hash{v1Hashes[0]})
			require.NoError(t, err)
			require.Equal(t, []*types.BlobAndProofV1{nil}, items)

			full, err := store.GetByVersionedHashesV2([]common.Hash{v1Hashes[1], v1Hashes[0]})
			require.NoError(t, err)
			require.Len(t, full, 2)
			require.Equal(t, v1.Blobs[1], *full[0].Blob)
			require.Equal(t, v1.Proofs[types.CellProofsPerBlob:], full[0].CellProofs)
			require.Equal(t, v1.Blobs[0], *full[1].Blob)

			full, err = store.GetByVersionedHashesV2([]common.Hash{v1Hashes[0], unknown})
			require.NoError(t, err)
			require.Nil(t, full)

			full, err = store.GetByVersionedHashesV2([]common.Hash{v0Hashes[0]})
			require.NoError(t, err)
			require.Nil(t, full)

			full, err = store.GetByVersionedHashesV2(nil)
			require.NoError(t, err)
			require.NotNil(t, full)
			require.Empty(t, full)

			items, err = store.GetByVersionedHashesV1(nil)
			require.NoError(t, err)
			require.Empty(t, items)
		})
	}
}

func TestStoreVersionedHashesAfterDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			sc := newTestSidecar(types.SidecarVersion0, 1, 1)
			require.NoError(t, store.Insert(txHash(1), sc))
			require.NoError(t, store.Delete(txHash(1)))

			items, err := store.GetByVersionedHashesV1(sc.BlobHashes())
			require.NoError(t, err)
			require.Equal(t, []*types.BlobAndProofV1{nil}, items)
		})
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	const (
		workers   = 8
		perWorker = 4
	)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			var expected uint64
			sidecars := make([]*types.Sidecar, workers*perWorker)
			for n := range sidecars {
				sidecars[n] = newTestSidecar(types.SidecarVersion0, byte(n), 1)
				expected += storedSize(t, store, sidecars[n])
			}

			var wg sync.WaitGroup
			errs := make(chan error, len(sidecars))
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						n := w*perWorker + i
						if err := store.Insert(txHash(n), sidecars[n]); err != nil {
							errs <- err
							return
						}
						// a get after a completed insert always sees the entry
						got, err := store.Get(txHash(n))
						if err != nil || got == nil {
							errs <- fmt.Errorf("sidecar %d not visible after insert, err=%v", n, err)
							return
						}
						_ = store.Delete(txHash(len(sidecars) + n))
					}
				}(w)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			require.Equal(t, len(sidecars), store.BlobsLen())
			size, _ := store.DataSizeHint()
			require.Equal(t, expected, size)
		})
	}
}

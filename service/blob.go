package service

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/bnb-chain/blob-store/blobstore"
	"github.com/bnb-chain/blob-store/logging"
	"github.com/bnb-chain/blob-store/types"
)

// MaxBlobsRequest is the largest number of versioned hashes accepted per request.
const MaxBlobsRequest = 128

// BlobAndProofV1 is the JSON shape of one get-blobs v1 response entry.
type BlobAndProofV1 struct {
	Blob  hexutil.Bytes `json:"blob"`
	Proof hexutil.Bytes `json:"proof"`
}

// BlobAndProofV2 is the JSON shape of one get-blobs v2 response entry.
type BlobAndProofV2 struct {
	Blob       hexutil.Bytes   `json:"blob"`
	CellProofs []hexutil.Bytes `json:"proofs"`
}

type Blob interface {
	// GetBlobsV1 returns one entry per versioned hash, nil where the blob is unknown.
	GetBlobsV1(versionedHashes []common.Hash) ([]*BlobAndProofV1, error)
	// GetBlobsV2 returns all requested blobs with their cell proofs, or nil if any is unknown.
	GetBlobsV2(versionedHashes []common.Hash) ([]*BlobAndProofV2, error)
	// GetSidecars returns the sidecars of txHashes in request order.
	GetSidecars(txHashes []common.Hash) ([]*types.Sidecar, error)
	// PutSidecars stores the sidecars of pooled blob transactions.
	PutSidecars(items []*TxSidecar) error
}

type BlobService struct {
	store blobstore.Store
}

func NewBlobService(store blobstore.Store) Blob {
	return &BlobService{
		store: store,
	}
}

func checkRequestSize(n int) error {
	if n > MaxBlobsRequest {
		return ErrTooLargeRequest.Enrich(fmt.Sprintf("requested %d, max %d", n, MaxBlobsRequest))
	}
	return nil
}

func (b BlobService) GetBlobsV1(versionedHashes []common.Hash) ([]*BlobAndProofV1, error) {
	if err := checkRequestSize(len(versionedHashes)); err != nil {
		return nil, err
	}
	items, err := b.store.GetByVersionedHashesV1(versionedHashes)
	if err != nil {
		logging.Logger.Errorf("failed to get blobs v1, err=%s", err.Error())
		return nil, InternalErrorWithError(err)
	}
	result := make([]*BlobAndProofV1, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		result[i] = &BlobAndProofV1{
			Blob:  item.Blob[:],
			Proof: item.Proof[:],
		}
	}
	return result, nil
}

func (b BlobService) GetBlobsV2(versionedHashes []common.Hash) ([]*BlobAndProofV2, error) {
	if err := checkRequestSize(len(versionedHashes)); err != nil {
		return nil, err
	}
	items, err := b.store.GetByVersionedHashesV2(versionedHashes)
	if err != nil {
		logging.Logger.Errorf("failed to get blobs v2, err=%s", err.Error())
		return nil, InternalErrorWithError(err)
	}
	if items == nil {
		return nil, nil
	}
	result := make([]*BlobAndProofV2, len(items))
	for i, item := range items {
		if item == nil {
			return nil, nil
		}
		proofs := make([]hexutil.Bytes, len(item.CellProofs))
		for j := range item.CellProofs {
			proofs[j] = item.CellProofs[j][:]
		}
		result[i] = &BlobAndProofV2{
			Blob:       item.Blob[:],
			CellProofs: proofs,
		}
	}
	return result, nil
}

func (b BlobService) GetSidecars(txHashes []common.Hash) ([]*types.Sidecar, error) {
	sidecars, err := b.store.GetExact(txHashes)
	if err != nil {
		if blobstore.IsMissingSidecar(err) {
			return nil, BadRequestWithError(err)
		}
		return nil, InternalErrorWithError(err)
	}
	return sidecars, nil
}

func (b BlobService) PutSidecars(items []*TxSidecar) error {
	if len(items) > MaxBlobsRequest {
		return ErrTooLargeRequest.Enrich(fmt.Sprintf("requested %d, max %d", len(items), MaxBlobsRequest))
	}
	txs := make([]blobstore.TxSidecar, 0, len(items))
	for i, item := range items {
		if item == nil {
			return ErrInvalidParams.Enrich(fmt.Sprintf("missing item %d", i))
		}
		sc, err := item.Sidecar.ToSidecar()
		if err != nil {
			return BadRequestWithError(errors.Wrapf(err, "tx %s", item.TxHash.Hex()))
		}
		txs = append(txs, blobstore.TxSidecar{TxHash: item.TxHash, Sidecar: sc})
	}
	if err := b.store.InsertAll(txs); err != nil {
		logging.Logger.Errorf("failed to insert sidecars, num=%d, err=%s", len(txs), err.Error())
		return InternalErrorWithError(err)
	}
	return nil
}

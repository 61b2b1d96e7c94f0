package service

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/pkg/errors"

	"github.com/bnb-chain/blob-store/types"
)

// Sidecar is the JSON shape of a blob sidecar.
type Sidecar struct {
	Version     hexutil.Uint64  `json:"version"`
	Blobs       []hexutil.Bytes `json:"blobs"`
	Commitments []hexutil.Bytes `json:"commitments"`
	Proofs      []hexutil.Bytes `json:"proofs"`
}

// TxSidecar is one entry of a put-sidecars request.
type TxSidecar struct {
	TxHash  common.Hash `json:"tx_hash"`
	Sidecar *Sidecar    `json:"sidecar"`
}

func fixedBytes(items []hexutil.Bytes, size int, name string, fn func(i int, bz []byte)) error {
	for i, bz := range items {
		if len(bz) != size {
			return errors.Errorf("invalid %s %d length: have %d, want %d", name, i, len(bz), size)
		}
		fn(i, bz)
	}
	return nil
}

// ToSidecar converts the JSON shape into a validated sidecar.
func (sc *Sidecar) ToSidecar() (*types.Sidecar, error) {
	if sc == nil {
		return nil, errors.New("missing sidecar")
	}
	if sc.Version > 0xff {
		return nil, errors.Errorf("unsupported sidecar version %d", sc.Version)
	}
	blobs := make([]kzg4844.Blob, len(sc.Blobs))
	commitments := make([]kzg4844.Commitment, len(sc.Commitments))
	proofs := make([]kzg4844.Proof, len(sc.Proofs))
	if err := fixedBytes(sc.Blobs, types.BlobSize, "blob", func(i int, bz []byte) { copy(blobs[i][:], bz) }); err != nil {
		return nil, err
	}
	if err := fixedBytes(sc.Commitments, types.CommitmentSize, "commitment", func(i int, bz []byte) { copy(commitments[i][:], bz) }); err != nil {
		return nil, err
	}
	if err := fixedBytes(sc.Proofs, types.ProofSize, "proof", func(i int, bz []byte) { copy(proofs[i][:], bz) }); err != nil {
		return nil, err
	}
	result := types.NewSidecar(byte(sc.Version), blobs, commitments, proofs)
	if err := result.ValidateShape(); err != nil {
		return nil, err
	}
	return result, nil
}

// NewSidecarJSON converts a stored sidecar into its JSON shape.
func NewSidecarJSON(sc *types.Sidecar) *Sidecar {
	result := &Sidecar{
		Version:     hexutil.Uint64(sc.Version),
		Blobs:       make([]hexutil.Bytes, len(sc.Blobs)),
		Commitments: make([]hexutil.Bytes, len(sc.Commitments)),
		Proofs:      make([]hexutil.Bytes, len(sc.Proofs)),
	}
	for i := range sc.Blobs {
		result.Blobs[i] = sc.Blobs[i][:]
	}
	for i := range sc.Commitments {
		result.Commitments[i] = sc.Commitments[i][:]
	}
	for i := range sc.Proofs {
		result.Proofs[i] = sc.Proofs[i][:]
	}
	return result
}

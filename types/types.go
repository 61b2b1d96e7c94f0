package types

import (
	"crypto/sha256"
	"hash"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

const (
	// SidecarVersion0 is the EIP-4844 sidecar shape, one KZG proof per blob.
	SidecarVersion0 byte = 0
	// SidecarVersion1 is the EIP-7594 sidecar shape, CellProofsPerBlob cell proofs per blob.
	SidecarVersion1 byte = 1

	CellProofsPerBlob = 128

	// BlobHashVersionKZG is the first byte of every versioned hash.
	BlobHashVersionKZG byte = 0x01

	BlobSize       = len(kzg4844.Blob{})
	CommitmentSize = len(kzg4844.Commitment{})
	ProofSize      = len(kzg4844.Proof{})
)

// Sidecar is the blob payload attached to one blob transaction.
//
// Stores hand out *Sidecar values shared between callers, they must be treated
// as read-only once inserted.
type Sidecar struct {
	Version     byte
	Blobs       []kzg4844.Blob
	Commitments []kzg4844.Commitment
	Proofs      []kzg4844.Proof
}

// BlobAndProofV1 is one entry of a get-blobs v1 response.
type BlobAndProofV1 struct {
	Blob  *kzg4844.Blob
	Proof kzg4844.Proof
}

// BlobAndProofV2 is one entry of a get-blobs v2 response, carrying all cell proofs of the blob.
type BlobAndProofV2 struct {
	Blob       *kzg4844.Blob
	CellProofs []kzg4844.Proof
}

func NewSidecar(version byte, blobs []kzg4844.Blob, commitments []kzg4844.Commitment, proofs []kzg4844.Proof) *Sidecar {
	return &Sidecar{
		Version:     version,
		Blobs:       blobs,
		Commitments: commitments,
		Proofs:      proofs,
	}
}

// ValidateShape checks that the number of commitments and proofs matches the blobs for the sidecar version.
func (sc *Sidecar) ValidateShape() error {
	if len(sc.Commitments) != len(sc.Blobs) {
		return errors.Errorf("invalid number of commitments: have %d, want %d", len(sc.Commitments), len(sc.Blobs))
	}
	var want int
	switch sc.Version {
	case SidecarVersion0:
		want = len(sc.Blobs)
	case SidecarVersion1:
		want = len(sc.Blobs) * CellProofsPerBlob
	default:
		return errors.Errorf("unsupported sidecar version %d", sc.Version)
	}
	if len(sc.Proofs) != want {
		return errors.Errorf("invalid number of proofs for version %d: have %d, want %d", sc.Version, len(sc.Proofs), want)
	}
	return nil
}

// Size returns the in-memory payload size of the sidecar in bytes.
func (sc *Sidecar) Size() uint64 {
	return uint64(len(sc.Blobs)*BlobSize + len(sc.Commitments)*CommitmentSize + len(sc.Proofs)*ProofSize)
}

// BlobHashes computes the versioned hashes of all blobs in the sidecar.
func (sc *Sidecar) BlobHashes() []common.Hash {
	hasher := sha256.New()
	hashes := make([]common.Hash, len(sc.Commitments))
	for i := range sc.Commitments {
		hashes[i] = blobHash(hasher, &sc.Commitments[i])
	}
	return hashes
}

// blobHash computes the version 0x01 (KZG) versioned hash of a commitment.
func blobHash(hasher hash.Hash, commit *kzg4844.Commitment) (vh common.Hash) {
	hasher.Reset()
	hasher.Write(commit[:])
	hasher.Sum(vh[:0])
	vh[0] = BlobHashVersionKZG
	return vh
}

// BlobAndProofV1At returns the blob at index idx with its single proof. Only valid for version 0 sidecars.
func (sc *Sidecar) BlobAndProofV1At(idx int) *BlobAndProofV1 {
	if sc.Version != SidecarVersion0 || idx < 0 || idx >= len(sc.Blobs) || idx >= len(sc.Proofs) {
		return nil
	}
	return &BlobAndProofV1{
		Blob:  &sc.Blobs[idx],
		Proof: sc.Proofs[idx],
	}
}

// BlobAndProofV2At returns the blob at index idx with its cell proofs. Only valid for version 1 sidecars.
func (sc *Sidecar) BlobAndProofV2At(idx int) *BlobAndProofV2 {
	start, end := idx*CellProofsPerBlob, (idx+1)*CellProofsPerBlob
	if sc.Version != SidecarVersion1 || idx < 0 || idx >= len(sc.Blobs) || end > len(sc.Proofs) {
		return nil
	}
	return &BlobAndProofV2{
		Blob:       &sc.Blobs[idx],
		CellProofs: sc.Proofs[start:end],
	}
}

// MatchVersionedHashes returns, for every requested versioned hash carried by this
// sidecar, the request position and the blob index inside the sidecar.
func (sc *Sidecar) MatchVersionedHashes(versionedHashes []common.Hash) map[int]int {
	matches := make(map[int]int)
	for blobIdx, h := range sc.BlobHashes() {
		for reqIdx, want := range versionedHashes {
			if h == want {
				matches[reqIdx] = blobIdx
			}
		}
	}
	return matches
}

// EncodeSidecar serialises the sidecar for durable storage.
func EncodeSidecar(sc *Sidecar) ([]byte, error) {
	return rlp.EncodeToBytes(sc)
}

// DecodeSidecar parses a sidecar previously produced by EncodeSidecar. Data that
// decodes into a sidecar of invalid shape is rejected.
func DecodeSidecar(data []byte) (*Sidecar, error) {
	sc := new(Sidecar)
	if err := rlp.DecodeBytes(data, sc); err != nil {
		return nil, err
	}
	if err := sc.ValidateShape(); err != nil {
		return nil, errors.Wrap(err, "decoded sidecar is malformed")
	}
	return sc, nil
}

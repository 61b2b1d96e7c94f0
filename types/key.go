package types

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	// TempFileSuffix marks sidecar files that are still being written.
	TempFileSuffix = ".tmp"
)

// SidecarFileName is the name of the file holding the sidecar of txHash.
func SidecarFileName(txHash common.Hash) string {
	return hex.EncodeToString(txHash[:])
}

// ParseSidecarFileName recovers the transaction hash from a sidecar file name.
func ParseSidecarFileName(name string) (common.Hash, error) {
	if len(name) != 2*common.HashLength {
		return common.Hash{}, errors.Errorf("invalid sidecar file name length %d", len(name))
	}
	if strings.ToLower(name) != name {
		return common.Hash{}, errors.Errorf("sidecar file name %s is not lowercase", name)
	}
	bz, err := hex.DecodeString(name)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "invalid sidecar file name %s", name)
	}
	return common.BytesToHash(bz), nil
}

// IsTempFileName reports whether name belongs to an unfinished write.
func IsTempFileName(name string) bool {
	return strings.HasSuffix(name, TempFileSuffix)
}

package syncer

import (
	"context"
	"math/big"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainReader is the part of an execution client the follower depends on.
// *ethclient.Client satisfies it.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*ethtypes.Block, error)
}

type ETHClient struct {
	*ethclient.Client
	endpoint  string
	updatedAt time.Time
}

var _ ChainReader = (*ETHClient)(nil)

func NewETHClient(rpcAddr string) (*ETHClient, error) {
	ethClient, err := ethclient.Dial(rpcAddr)
	if err != nil {
		return nil, err
	}
	return &ETHClient{
		Client:    ethClient,
		endpoint:  rpcAddr,
		updatedAt: time.Now(),
	}, nil
}

func (c *ETHClient) Endpoint() string {
	return c.endpoint
}

// DialFirst connects to the first reachable address of rpcAddrs.
func DialFirst(rpcAddrs []string) (*ETHClient, error) {
	var lastErr error
	for _, addr := range rpcAddrs {
		client, err := NewETHClient(addr)
		if err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}
	if lastErr == nil {
		lastErr = errNoRPCAddr
	}
	return nil, lastErr
}

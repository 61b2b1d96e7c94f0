package db

type Block struct {
	Id          int64
	Number      uint64 `gorm:"NOT NULL;uniqueIndex:idx_block_number"`
	BlobTxCount int
	CreatedTime int64 `gorm:"NOT NULL;comment:created_time"`
}

func (*Block) TableName() string {
	return "block"
}

// BlobTx records the block in which a blob transaction was first included.
type BlobTx struct {
	Id          int64
	TxHash      string `gorm:"NOT NULL;uniqueIndex:idx_blob_tx_hash;size:66"`
	BlockNumber uint64 `gorm:"NOT NULL;index:idx_blob_tx_block_number"`
}

func (*BlobTx) TableName() string {
	return "blob_tx"
}

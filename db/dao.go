package db

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrackerDao interface {
	BlockDB
	BlobTxDB
	SaveBlockAndBlobTxs(block *Block, txs []*BlobTx) error
}

type TrackerSvcDB struct {
	db *gorm.DB
}

func NewTrackerSvcDB(db *gorm.DB) *TrackerSvcDB {
	return &TrackerSvcDB{
		db,
	}
}

var _ TrackerDao = (*TrackerSvcDB)(nil)

type BlockDB interface {
	GetBlock(number uint64) (*Block, error)
	GetLatestBlock() (*Block, error)
	DeleteBlocksFrom(number uint64) error
	DeleteBlocksUpTo(number uint64) error
}

func (d *TrackerSvcDB) GetBlock(number uint64) (*Block, error) {
	block := Block{}
	err := d.db.Model(Block{}).Where("number = ?", number).Take(&block).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return &block, nil
}

func (d *TrackerSvcDB) GetLatestBlock() (*Block, error) {
	block := Block{}
	err := d.db.Model(Block{}).Order("number desc").Take(&block).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return &block, nil
}

// DeleteBlocksFrom removes every block with a number greater than or equal to number, together with its blob txs.
func (d *TrackerSvcDB) DeleteBlocksFrom(number uint64) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		if err := dbTx.Where("block_number >= ?", number).Delete(&BlobTx{}).Error; err != nil {
			return err
		}
		return dbTx.Where("number >= ?", number).Delete(&Block{}).Error
	})
}

// DeleteBlocksUpTo removes every block with a number lower than or equal to number, together with its blob txs.
func (d *TrackerSvcDB) DeleteBlocksUpTo(number uint64) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		if err := dbTx.Where("block_number <= ?", number).Delete(&BlobTx{}).Error; err != nil {
			return err
		}
		return dbTx.Where("number <= ?", number).Delete(&Block{}).Error
	})
}

type BlobTxDB interface {
	GetBlobTxsByBlock(number uint64) ([]*BlobTx, error)
	GetAllBlobTxs() ([]*BlobTx, error)
}

func (d *TrackerSvcDB) GetBlobTxsByBlock(number uint64) ([]*BlobTx, error) {
	txs := make([]*BlobTx, 0)
	if err := d.db.Where("block_number = ?", number).Order("id asc").Find(&txs).Error; err != nil {
		return txs, err
	}
	return txs, nil
}

func (d *TrackerSvcDB) GetAllBlobTxs() ([]*BlobTx, error) {
	txs := make([]*BlobTx, 0)
	if err := d.db.Order("block_number asc, id asc").Find(&txs).Error; err != nil {
		return txs, err
	}
	return txs, nil
}

func (d *TrackerSvcDB) SaveBlockAndBlobTxs(block *Block, txs []*BlobTx) error {
	return d.db.Transaction(func(dbTx *gorm.DB) error {
		err := dbTx.Create(block).Error
		if err != nil && !IsDuplicateEntry(err) {
			return err
		}
		if len(txs) != 0 {
			err = dbTx.Clauses(clause.OnConflict{DoNothing: true}).Create(txs).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveBlock persists the blob transactions first included in block number.
func (d *TrackerSvcDB) SaveBlock(number uint64, txHashes []common.Hash) error {
	txs := make([]*BlobTx, 0, len(txHashes))
	for _, h := range txHashes {
		txs = append(txs, &BlobTx{
			TxHash:      h.Hex(),
			BlockNumber: number,
		})
	}
	return d.SaveBlockAndBlobTxs(&Block{
		Number:      number,
		BlobTxCount: len(txs),
		CreatedTime: time.Now().Unix(),
	}, txs)
}

// LoadBlocks returns all persisted blocks with their blob transaction hashes.
func (d *TrackerSvcDB) LoadBlocks() (map[uint64][]common.Hash, error) {
	blocks := make([]*Block, 0)
	if err := d.db.Order("number asc").Find(&blocks).Error; err != nil {
		return nil, err
	}
	result := make(map[uint64][]common.Hash, len(blocks))
	for _, b := range blocks {
		result[b.Number] = make([]common.Hash, 0, b.BlobTxCount)
	}
	txs, err := d.GetAllBlobTxs()
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		result[tx.BlockNumber] = append(result[tx.BlockNumber], common.HexToHash(tx.TxHash))
	}
	return result, nil
}

func AutoMigrateDB(db *gorm.DB) {
	var err error
	if err = db.AutoMigrate(&Block{}); err != nil {
		panic(err)
	}
	if err = db.AutoMigrate(&BlobTx{}); err != nil {
		panic(err)
	}
}

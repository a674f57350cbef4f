package syncer

import "github.com/bnb-chain/keys-hub/db"

// StreamBatchSize is the number of keys a KeyIterator reads per query.
const StreamBatchSize = 10000

// KeyIterator walks the keys of a module in (operator index, key index) order, one batch at a time.
// It stops at the first empty batch. Abandoning it early is fine; Close only drops the buffer.
type KeyIterator struct {
	reader        db.RegistryReader
	moduleAddress string
	filter        db.KeyFilter
	batchSize     int

	offset int
	batch  []*db.RegistryKey
	pos    int
	cur    *db.RegistryKey
	err    error
	done   bool
}

func NewKeyIterator(reader db.RegistryReader, moduleAddress string, filter db.KeyFilter, batchSize int) *KeyIterator {
	if batchSize <= 0 {
		batchSize = StreamBatchSize
	}
	return &KeyIterator{
		reader:        reader,
		moduleAddress: moduleAddress,
		filter:        filter,
		batchSize:     batchSize,
	}
}

func (it *KeyIterator) Next() bool {
	if it.done {
		return false
	}
	if it.pos >= len(it.batch) {
		batch, err := it.reader.FindKeys(it.moduleAddress, it.filter, it.batchSize, it.offset)
		if err != nil {
			it.err = err
			it.finish()
			return false
		}
		if len(batch) == 0 {
			it.finish()
			return false
		}
		it.batch = batch
		it.pos = 0
		it.offset += len(batch)
	}
	it.cur = it.batch[it.pos]
	it.pos++
	return true
}

// Key returns the key Next advanced to.
func (it *KeyIterator) Key() *db.RegistryKey {
	return it.cur
}

func (it *KeyIterator) Err() error {
	return it.err
}

func (it *KeyIterator) Close() {
	it.finish()
}

func (it *KeyIterator) finish() {
	it.done = true
	it.batch = nil
	it.cur = nil
}

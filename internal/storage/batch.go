package storage

// Batch accumulates Put/Delete operations to be applied atomically:
// either every operation in the batch lands, or (on a Commit error)
// none of them are observable. internal/ledger uses exactly one batch
// per block commit, per spec.md §4.D/§6.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Commit() error
}

// Batcher is implemented by a DB that supports atomic batched writes.
// Both BadgerDB and MemoryDB implement it.
type Batcher interface {
	NewBatch() Batch
}

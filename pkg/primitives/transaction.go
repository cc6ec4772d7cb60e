package primitives

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter int64

// TransactionID identifies the transaction responsible for a set of page
// mutations. The buffer pool records which transaction last dirtied each page;
// it never infers one from content changes.
type TransactionID struct {
	id int64
}

func NewTransactionID() *TransactionID {
	return &TransactionID{
		id: atomic.AddInt64(&transactionCounter, 1),
	}
}

// NewTransactionIDFromValue creates a TransactionID with a specific ID value.
// This is primarily used by recovery components replaying persisted records.
func NewTransactionIDFromValue(id int64) *TransactionID {
	return &TransactionID{
		id: id,
	}
}

func (tid *TransactionID) ID() int64 {
	return tid.id
}

func (tid *TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}

func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}

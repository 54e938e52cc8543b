package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions. Journal writers and
// readers pick the active transaction up from the context via GetTx.
type TransactionManager interface {
	// ExecTx runs fn in a read-write transaction; a returned error rolls it back
	ExecTx(ctx context.Context, fn TxFn) error

	// ExecSnapshotTx runs fn in a read-only repeatable-read transaction so
	// every query inside sees the same snapshot
	ExecSnapshotTx(ctx context.Context, fn TxFn) error
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. Use-case interfaces stay clean of
// storage types; repositories accept NoTX for the non-transactional path and
// detect a concrete tx handle (e.g. pgx.Tx) implementation-side when they
// need tx-bound Exec/Query such as the credit consume+unlock pair.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

// Package export defines the ports for outbound transaction export
// backends. Implementations live in the subpackages.
package export

import (
	"context"

	"bilancio/internal/core"
)

type (
	// TransactionWriter appends a transaction to the export backend and
	// returns an opaque row reference.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes a previously exported transaction,
	// identified by its ID.
	TransactionDeleter interface {
		Delete(ctx context.Context, id string) error
	}
)

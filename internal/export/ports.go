// Package export defines the outbound ports for mirroring the local ledger
// into an external document.
package export

import (
	"context"

	"moneta/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter appends a posting to the external mirror and
	// returns an opaque row reference.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a previously mirrored posting by its
	// local transaction ID.
	TransactionRemover interface {
		Remove(ctx context.Context, id int64) error
	}
)

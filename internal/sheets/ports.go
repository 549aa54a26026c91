package sheets

import (
	"context"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
)

// Ports for outbound adapters.
type (
	// InstanceWriter exports a generated expense instance to an external
	// sheet and returns a reference to the written row.
	InstanceWriter interface {
		AppendInstance(ctx context.Context, inst core.ExpenseInstance) (rowRef string, err error)
	}
)

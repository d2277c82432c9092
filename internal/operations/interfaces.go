package operations

import (
	"context"

	"hotparts/pkg/contracts/domain"
)

// Processor runs one pass over one file.
type Processor interface {
	ProcessFile(ctx context.Context, path string) Result
}

// Router moves a file after its pass. Implemented by files.Manager.
type Router interface {
	MarkProcessed(path string) (string, error)
	Divert(path string, reason error) (string, error)
}

// Journal records the processing history. Implemented by master stores.
type Journal interface {
	AppendLog(ctx context.Context, entry domain.ProcessingLog) error
}

// ResultListener is notified after a file has been processed and routed.
// Listeners are called from worker goroutines.
type ResultListener func(ctx context.Context, res Result)

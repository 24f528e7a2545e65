package empresa

import "errors"

var (
	// ErrEmpresaNotIndexed is returned on an index miss. A miss is not
	// proof of nonexistence: the empresa may live in a tenant the index
	// has not learned about yet.
	ErrEmpresaNotIndexed = errors.New("empresa not indexed")

	// ErrIndexInconsistent signals that the index named a tenant whose
	// store does not actually contain the empresa. Callers fall back to
	// the scan and repair the entry; the stale entry is never trusted
	// twice within one unit of work.
	ErrIndexInconsistent = errors.New("empresa index entry is stale")
)

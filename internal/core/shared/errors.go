package shared

import "errors"

var (
	// Content errors

	ErrUnsupportedContent = errors.New("unsupported content kind")
	ErrIntegratedType     = errors.New("type is already integrated into a document")

	// Range errors

	ErrIndexOutOfRange = errors.New("index out of range")

	// Transaction errors

	ErrNoTransaction      = errors.New("transaction required for integrated type")
	ErrForeignTransaction = errors.New("transaction belongs to another document")
	ErrTransactionClosed  = errors.New("transaction is closed")

	// Document errors

	ErrTypeMismatch = errors.New("root type already defined with a different kind")
)

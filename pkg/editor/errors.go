package editor

import "errors"

var (
	// ErrUnsupported is returned by Validate when the dialect cannot express a change.
	ErrUnsupported = errors.New("not supported by dialect")
	// ErrEmptyName is returned for tables and columns without a name.
	ErrEmptyName = errors.New("name is required")
	// ErrEmptyType is returned for columns without a data type.
	ErrEmptyType = errors.New("data type is required")
	// ErrUnknownType is returned for data types the dialect does not know.
	ErrUnknownType = errors.New("unknown data type")
	// ErrNoColumns is returned when a new table has no columns.
	ErrNoColumns = errors.New("table has no columns")
)

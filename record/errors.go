package record

import "errors"

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrNoCandidates    = errors.New("no candidates found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingArgument = errors.New("not enough arguments")
	ErrShortWindow     = errors.New("window outside buffer")
)

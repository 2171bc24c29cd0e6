package detect

import "errors"

// ErrArgument reports missing or invalid required inputs, such as a scene
// with no georeferencing. Runs failing with ErrArgument produce no result.
var ErrArgument = errors.New("detect: invalid argument")

// ErrLogic reports an internal invariant the algorithm cannot proceed
// without, such as an empty candidate tile set after filtering.
var ErrLogic = errors.New("detect: logic error")

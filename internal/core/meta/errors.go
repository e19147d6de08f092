package meta

import "errors"

// ErrConfiguration reports broken model metadata or an unresolvable lookup.
var ErrConfiguration = errors.New("model configuration error")

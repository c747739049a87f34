package settings

import "errors"

// ErrUnknownKey is returned when Set receives a key outside the known set.
var ErrUnknownKey = errors.New("unknown setting key")

package configs

import "errors"

// ErrValueNotFound is returned by Loader.AssignFirst when path is absent
// from every root value.
var ErrValueNotFound = errors.New("configs: value not found")

package config

import "github.com/doodlesbykumbi/amtt/pkg/keyfile"

// ErrKeyFileNotFound is keyfile.ErrNotFound so either package's sentinel
// matches with errors.Is.
var ErrKeyFileNotFound = keyfile.ErrNotFound

// Package migrations holds the versioned base schema of the registry.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

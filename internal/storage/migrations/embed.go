// Package migrations embeds the versioned schema files applied at open.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

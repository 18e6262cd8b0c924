// Package migrations embeds the SQL migrations applied by `tasknest migrate`.
package migrations

import "embed"

// FS holds every *.sql migration, applied in file name order.
//
//go:embed *.sql
var FS embed.FS

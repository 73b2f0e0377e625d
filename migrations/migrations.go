// Package migrations embeds the SQL schema migrations into the binary.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair
//
//go:embed *.sql
var FS embed.FS

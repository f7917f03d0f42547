// Package db embeds the SQL schema so binaries can apply it without shipping
// loose files.
package db

import _ "embed"

//go:embed schema.sql
var Schema string

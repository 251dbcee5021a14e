// Package migrations embeds the profile store schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package migrations embeds the bootstrap SQL that installs the stored
// helpers a managed schema must already have before the catalog loader
// or transaction façade can use it.
package migrations

import _ "embed"

//go:embed bootstrap.sql
var Bootstrap string

// Package database embed dosyası: migration SQL dosyalarını binary'ye gömer.
package database

import "embed"

// EmbeddedMigrations, migrations/ dizinindeki SQL dosyalarını içerir.
// Kullanım: fs.Sub(EmbeddedMigrations, "migrations").
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

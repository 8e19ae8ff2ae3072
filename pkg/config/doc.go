// Package config loads typed configuration structs from environment
// variables via github.com/caarlos0/env, with an optional .env file read
// through github.com/joho/godotenv for local development.
//
// Every subsystem of the service (catalog pool, token codec, HTTP server,
// authentication gate) declares its own Config struct with env tags; this
// package guarantees each type is parsed exactly once per process and that
// concurrent loaders observe the same value.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg) // panics at boot when CATALOG_DB_URL is missing
package config

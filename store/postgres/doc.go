// Package postgres implements store.Store on PostgreSQL using pgx/v5 with
// raw SQL and embedded migrations.
//
// Writes are conditional upserts: a row is only replaced when the incoming
// version is at least the stored one, so a delayed write from an earlier
// state never overwrites a later one.
package postgres

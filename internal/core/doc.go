// Package core holds the listing import pipeline, independent of the database
// driver and of any transport. It is used by cmd/import, cmd/server and tests
// without modification.
//
// # Pipeline
//
// A CSV export is streamed row by row:
//
//  1. [WrapForStreaming] drops a BOM and replaces invalid UTF-8
//  2. [Normalize] parses a row into a [Record] or reports a [SkipReason]
//  3. [ResolveReferences] finds or creates the location, building, owner and
//     features rows the listing points at
//  4. [UpsertListing] inserts the listing or overwrites the one with the
//     same url
//
// [Importer] drives the pipeline in batches. A batch is one transaction and
// every row inside it runs under a savepoint, so one bad row costs only
// itself.
//
// # Persistence
//
// The pipeline talks to storage through [Store], [Tx] and [Session]. The
// postgres and sqlite packages under internal/store implement them; tests use
// an in-memory fake. Values cross that boundary as pgtype values, which both
// pgx and database/sql know how to bind.
//
// # Reading
//
// [ListingReader] is the query side used by the HTTP server: listing filters
// with paging and location autocomplete.
//
// # Error Handling
//
// [MapError] maps driver and I/O errors to short codes (DB001, FILE002, ...)
// that the importer logs next to each failed row.
package core

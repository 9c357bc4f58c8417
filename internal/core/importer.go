package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultBatchSize is the number of listings committed per transaction when
// ImportOptions.BatchSize is unset.
const DefaultBatchSize = 100

// ImportOptions configures an Importer. Zero values select the defaults.
type ImportOptions struct {
	BatchSize     int
	LocationMatch MatchPolicy
	StrictQuotes  bool             // reject bare quotes instead of reading them literally
	Now           func() time.Time // reference time for relative dates
	OnBatch       ProgressCallback
	Logger        *slog.Logger
}

// Importer loads listing CSV exports into a Store.
//
// Rows are read one at a time and written in batches. Each batch runs in one
// transaction; each row gets its own savepoint, so a failing row is rolled
// back and counted without losing the rest of its batch. Batches committed
// before a fatal error stay committed.
type Importer struct {
	store Store
	opts  ImportOptions
	log   *slog.Logger
}

// NewImporter creates an Importer writing to store.
func NewImporter(store Store, opts ImportOptions) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Importer{store: store, opts: opts, log: log}
}

// pendingRow is a normalized row waiting for its batch.
type pendingRow struct {
	line int
	rec  *Record
}

// batchStats are merged into the Summary once the batch commits.
type batchStats struct {
	created int
	updated int
	errors  int
}

// ImportFile opens path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Summary{FileName: filepath.Base(path)}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return im.run(ctx, f, filepath.Base(path))
}

// Import reads a CSV export with a header row from r.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Summary, error) {
	return im.run(ctx, r, "")
}

func (im *Importer) run(ctx context.Context, r io.Reader, fileName string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.NewString(), FileName: fileName}
	log := im.log.With("run_id", sum.RunID)
	if fileName != "" {
		log = log.With("file", fileName)
	}

	src, counter := WrapForStreaming(r)
	defer func() {
		sum.Bytes = counter.BytesRead()
		sum.Duration = time.Since(start)
	}()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = !im.opts.StrictQuotes

	header, err := reader.Read()
	if err == io.EOF {
		log.Info("empty input, nothing to import")
		return sum, nil
	}
	if err != nil {
		return sum, fmt.Errorf("read header: %w", err)
	}
	idx := MakeHeaderIndex(header)
	now := im.opts.Now()

	log.Info("import started",
		"batch_size", im.opts.BatchSize,
		"location_match", im.opts.LocationMatch.String(),
	)

	batch := make([]pendingRow, 0, im.opts.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return sum, fmt.Errorf("read csv: %w", err)
			}
			sum.Errors++
			log.Warn("malformed csv row", "line", pe.Line, "code", MapError(err).Code, "error", err)
			continue
		}

		line, _ := reader.FieldPos(0)
		rec, reason := Normalize(row, idx, now)
		if reason != SkipNone {
			sum.Skipped++
			log.Debug("row skipped", "line", line, "reason", string(reason))
			continue
		}

		batch = append(batch, pendingRow{line: line, rec: rec})
		if len(batch) >= im.opts.BatchSize {
			if err := im.flush(ctx, batch, sum, log); err != nil {
				return sum, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := im.flush(ctx, batch, sum, log); err != nil {
			return sum, err
		}
	}

	log.Info("import completed",
		"imported", sum.Imported,
		"created", sum.Created,
		"updated", sum.Updated,
		"skipped", sum.Skipped,
		"errors", sum.Errors,
		"batches", sum.Batches,
		"bytes", counter.BytesRead(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}

// flush writes one batch in a single transaction.
func (im *Importer) flush(ctx context.Context, batch []pendingRow, sum *Summary, log *slog.Logger) error {
	tx, err := im.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	var stats batchStats
	for i, row := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		sp := fmt.Sprintf("sp_%d", i)
		if err := tx.Savepoint(ctx, sp); err != nil {
			return fmt.Errorf("create savepoint: %w", err)
		}

		outcome, err := im.importRow(ctx, tx, row.rec)
		if err != nil {
			if rbErr := tx.RollbackToSavepoint(ctx, sp); rbErr != nil {
				return fmt.Errorf("rollback to savepoint: %w", rbErr)
			}
			stats.errors++
			log.Warn("row failed",
				"line", row.line,
				"url", row.rec.URL.String,
				"code", MapError(err).Code,
				"error", err,
			)
			continue
		}

		if err := tx.ReleaseSavepoint(ctx, sp); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
		if outcome == ListingCreated {
			stats.created++
		} else {
			stats.updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	committed = true

	sum.Created += stats.created
	sum.Updated += stats.updated
	sum.Imported += stats.created + stats.updated
	sum.Errors += stats.errors
	sum.Batches++

	log.Debug("batch committed",
		"batch", sum.Batches,
		"rows", len(batch),
		"imported", sum.Imported,
	)

	if im.opts.OnBatch != nil {
		im.opts.OnBatch(ImportProgress{
			RunID:    sum.RunID,
			Batch:    sum.Batches,
			Imported: sum.Imported,
			Skipped:  sum.Skipped,
			Errors:   sum.Errors,
		})
	}
	return nil
}

// importRow resolves the references of rec and upserts the listing.
func (im *Importer) importRow(ctx context.Context, sess Session, rec *Record) (UpsertOutcome, error) {
	fk, err := ResolveReferences(ctx, sess, rec, im.opts.LocationMatch)
	if err != nil {
		return 0, err
	}
	return UpsertListing(ctx, sess, fk, rec)
}

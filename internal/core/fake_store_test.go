package core

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"time"
)

// fakeStore is an in-memory Store. Every Tx writes straight into the shared
// tables and keeps snapshots for Rollback and RollbackToSavepoint. Ids come
// from a per-table counter that rollbacks do not rewind, like a sequence.
type fakeStore struct {
	tables map[string][]fakeRow
	nextID map[string]int64

	// failOn, when set, is consulted before every write.
	failOn       func(op, table string, values []Column) error
	failBegin    error
	failCommitAt int // 1-based commit number to fail; 0 never

	begins    int
	commits   int
	rollbacks int
}

type fakeRow struct {
	id   int64
	cols map[string]driver.Value
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables: make(map[string][]fakeRow),
		nextID: make(map[string]int64),
	}
}

func (s *fakeStore) Begin(ctx context.Context) (Tx, error) {
	if s.failBegin != nil {
		return nil, s.failBegin
	}
	s.begins++
	return &fakeTx{store: s, begin: s.snapshot(), savepoints: map[string]map[string][]fakeRow{}}, nil
}

func (s *fakeStore) snapshot() map[string][]fakeRow {
	out := make(map[string][]fakeRow, len(s.tables))
	for table, rows := range s.tables {
		copied := make([]fakeRow, len(rows))
		for i, r := range rows {
			cols := make(map[string]driver.Value, len(r.cols))
			for k, v := range r.cols {
				cols[k] = v
			}
			copied[i] = fakeRow{id: r.id, cols: cols}
		}
		out[table] = copied
	}
	return out
}

func (s *fakeStore) count(table string) int {
	return len(s.tables[table])
}

// get returns the row of table whose column equals want.
func (s *fakeStore) get(table, column string, want driver.Value) (fakeRow, bool) {
	for _, r := range s.tables[table] {
		if sameValue(r.cols[column], want) {
			return r, true
		}
	}
	return fakeRow{}, false
}

type fakeTx struct {
	store      *fakeStore
	begin      map[string][]fakeRow
	savepoints map[string]map[string][]fakeRow
	done       bool
}

func (tx *fakeTx) check(op, table string, values []Column) error {
	if tx.done {
		return errors.New("tx is closed")
	}
	if tx.store.failOn != nil {
		return tx.store.failOn(op, table, values)
	}
	return nil
}

func (tx *fakeTx) FindID(ctx context.Context, table, idColumn string, match []Column) (int64, bool, error) {
	if err := tx.check("find", table, match); err != nil {
		return 0, false, err
	}
	rows := tx.store.tables[table]
	for _, r := range rows { // rows are kept in id order
		if rowMatches(r, match) {
			return r.id, true, nil
		}
	}
	return 0, false, nil
}

func (tx *fakeTx) Insert(ctx context.Context, table, idColumn string, values []Column) (int64, error) {
	if err := tx.check("insert", table, values); err != nil {
		return 0, err
	}
	cols, err := driverValues(values)
	if err != nil {
		return 0, err
	}
	if table == ListingTable {
		if _, dup := tx.store.get(table, ListingURL, cols[ListingURL]); dup {
			return 0, errors.New("UNIQUE constraint failed: listing.url")
		}
	}

	tx.store.nextID[table]++
	id := tx.store.nextID[table]
	tx.store.tables[table] = append(tx.store.tables[table], fakeRow{id: id, cols: cols})
	return id, nil
}

func (tx *fakeTx) Update(ctx context.Context, table, idColumn string, id int64, values []Column) error {
	if err := tx.check("update", table, values); err != nil {
		return err
	}
	cols, err := driverValues(values)
	if err != nil {
		return err
	}
	for _, r := range tx.store.tables[table] {
		if r.id == id {
			for k, v := range cols {
				r.cols[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("%s %d not found", table, id)
}

func (tx *fakeTx) Savepoint(ctx context.Context, name string) error {
	if err := tx.check("savepoint", "", nil); err != nil {
		return err
	}
	tx.savepoints[name] = tx.store.snapshot()
	return nil
}

func (tx *fakeTx) RollbackToSavepoint(ctx context.Context, name string) error {
	snap, ok := tx.savepoints[name]
	if !ok {
		return fmt.Errorf("savepoint %s does not exist", name)
	}
	tx.store.tables = snap
	tx.savepoints[name] = tx.store.snapshot()
	return nil
}

func (tx *fakeTx) ReleaseSavepoint(ctx context.Context, name string) error {
	if _, ok := tx.savepoints[name]; !ok {
		return fmt.Errorf("savepoint %s does not exist", name)
	}
	delete(tx.savepoints, name)
	return nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("tx is closed")
	}
	tx.store.commits++
	if tx.store.failCommitAt == tx.store.commits {
		tx.store.tables = tx.begin
		tx.done = true
		return errors.New("commit failed: connection reset by peer")
	}
	tx.done = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.store.rollbacks++
	tx.store.tables = tx.begin
	tx.done = true
	return nil
}

func rowMatches(r fakeRow, match []Column) bool {
	for _, c := range match {
		want, err := columnValue(c)
		if err != nil || !sameValue(r.cols[c.Name], want) {
			return false
		}
	}
	return true
}

func driverValues(values []Column) (map[string]driver.Value, error) {
	out := make(map[string]driver.Value, len(values))
	for _, c := range values {
		v, err := columnValue(c)
		if err != nil {
			return nil, err
		}
		out[c.Name] = v
	}
	return out, nil
}

func columnValue(c Column) (driver.Value, error) {
	if c.Value == nil {
		return nil, nil
	}
	return c.Value.Value()
}

// sameValue compares driver values with SQL equality, except that NULL
// equals NULL (the IS NULL rendering of the real stores).
func sameValue(a, b driver.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

// ids returns the ids of table in ascending order.
func (s *fakeStore) ids(table string) []int64 {
	var out []int64
	for _, r := range s.tables[table] {
		out = append(out, r.id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

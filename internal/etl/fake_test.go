package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow satisfies pgx.Row with a canned scan function.
type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scan(dest...)
}

// fakeDB satisfies the DB interface without a database. Dimension
// inserts hand out sequential surrogate ids; CopyFrom records the size
// of each bulk write.
type fakeDB struct {
	nextID        int64
	inserts       map[string]int // table name -> insert count
	existingDates map[int]bool
	existsChecks  int
	copies        []int
	failCopyAt    int // fail the Nth CopyFrom (1-based); 0 = never
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		inserts:       make(map[string]int),
		existingDates: make(map[int]bool),
	}
}

func tableOf(sql string) string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(sql), "INSERT INTO ")
	if !ok {
		return ""
	}
	return strings.Fields(rest)[0]
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if table := tableOf(sql); table != "" {
		f.inserts[table]++
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "SELECT EXISTS") {
		f.existsChecks++
		key, _ := args[0].(int)
		exists := f.existingDates[key]
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*bool)) = exists
			return nil
		}}
	}

	table := tableOf(sql)
	if table == "" {
		return fakeRow{scan: func(...any) error {
			return fmt.Errorf("unexpected query: %s", sql)
		}}
	}
	f.inserts[table]++
	f.nextID++
	id := f.nextID
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = id
		return nil
	}}
}

func (f *fakeDB) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, rowSrc pgx.CopyFromSource) (int64, error) {
	if f.failCopyAt > 0 && len(f.copies)+1 == f.failCopyAt {
		return 0, fmt.Errorf("induced copy failure")
	}
	var n int64
	for rowSrc.Next() {
		if _, err := rowSrc.Values(); err != nil {
			return n, err
		}
		n++
	}
	f.copies = append(f.copies, int(n))
	return n, nil
}

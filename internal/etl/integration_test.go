package etl_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dwhouse/retail-bi/internal/db"
	"github.com/dwhouse/retail-bi/internal/etl"
	"github.com/dwhouse/retail-bi/internal/testutil"
)

const superstoreSample = `Row ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales
1,CA-2023-1001,08/11/2023,11/11/2023,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96
2,CA-2023-1001,08/11/2023,11/11/2023,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-CH-10000454,Furniture,Chairs,"Hon Deluxe Fabric Upholstered Stacking Chairs, Rounded Back","1,200.50"
3,CA-2023-1002,09-11-2023,12/11/2023,Standard Class,DV-13045,Darrin Van Huff,Corporate,United States,Los Angeles,California,90036,West,OFF-LA-10000240,Office Supplies,Labels,Self-Adhesive Address Labels,14.62
bad,row
4,CA-2023-1003,32/13/2023,12/11/2023,Standard Class,DV-13045,Darrin Van Huff,Corporate,United States,Los Angeles,California,90036,West,OFF-LA-10000240,Office Supplies,Labels,Self-Adhesive Address Labels,5.00
`

func setupWarehouse(t *testing.T) (*pgxpool.Pool, *testutil.TestCleanup) {
	t.Helper()

	connStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, connStr, "etl")
	cleanup := testutil.NewTestCleanup(t, connStr, testutil.GetDBNameFromConnStr(testConnStr))

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.CreateSchema(ctx, pool); err != nil {
		cleanup.Cleanup()
		t.Fatalf("Failed to create schema: %v", err)
	}
	return pool, cleanup
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int64 {
	t.Helper()
	var n int64
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

func TestLoaderAgainstPostgres(t *testing.T) {
	pool, cleanup := setupWarehouse(t)
	defer cleanup.Cleanup()

	ctx := context.Background()

	// A date row present before the run must be reused, not re-inserted.
	_, err := pool.Exec(ctx, `
        INSERT INTO dim_dates (date_id, full_date, year, month, month_name, quarter)
        VALUES (20231108, '2023-11-08', 2023, 11, 'November', 4)`)
	if err != nil {
		t.Fatalf("Failed to seed dim_dates: %v", err)
	}

	loader := etl.NewLoader(pool, 2)
	res, err := loader.Run(ctx, strings.NewReader(superstoreSample))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Loaded != 3 {
		t.Errorf("Loaded = %d, want 3", res.Loaded)
	}
	if res.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", res.Malformed)
	}
	if res.BadDates != 1 {
		t.Errorf("BadDates = %d, want 1", res.BadDates)
	}
	if loader.State() != etl.StateCommitted {
		t.Errorf("State = %v, want committed", loader.State())
	}

	counts := map[string]int64{
		"fact_sales":    3,
		"dim_customers": 2, // CG-12520 repeated
		"dim_products":  3,
		"dim_locations": 2,
		"dim_dates":     2, // seeded 20231108 reused for two rows, plus 20231109
	}
	for table, want := range counts {
		if got := countRows(t, pool, table); got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	var facts int64
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM fact_sales WHERE order_date_id = 20231108").Scan(&facts)
	if err != nil {
		t.Fatalf("Failed to query facts: %v", err)
	}
	if facts != 2 {
		t.Errorf("facts on seeded date = %d, want 2", facts)
	}

	var sales float64
	err = pool.QueryRow(ctx,
		"SELECT sales FROM fact_sales WHERE order_source_id = 'CA-2023-1002'").Scan(&sales)
	if err != nil {
		t.Fatalf("Failed to query sales: %v", err)
	}
	if sales != 14.62 {
		t.Errorf("sales = %v, want 14.62", sales)
	}
}

func TestLoaderRollbackLeavesNothingBehind(t *testing.T) {
	pool, cleanup := setupWarehouse(t)
	defer cleanup.Cleanup()

	ctx := context.Background()

	// Removing the fact table makes the bulk write fail mid-run.
	if _, err := pool.Exec(ctx, "DROP TABLE fact_sales"); err != nil {
		t.Fatalf("Failed to drop fact_sales: %v", err)
	}

	loader := etl.NewLoader(pool, 2)
	_, err := loader.Run(ctx, strings.NewReader(superstoreSample))
	if err == nil {
		t.Fatal("Expected the run to fail")
	}
	if loader.State() != etl.StateRolledBack {
		t.Errorf("State = %v, want rolled back", loader.State())
	}

	// Dimension writes from before the failure must be gone too.
	for _, table := range []string{"dim_customers", "dim_products", "dim_locations", "dim_dates"} {
		if got := countRows(t, pool, table); got != 0 {
			t.Errorf("%s rows = %d, want 0 after rollback", table, got)
		}
	}
}

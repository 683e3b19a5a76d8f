//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import "context"

// maxProductName is the width of dim_products.product_name.
const maxProductName = 500

// productPrefixLen is the number of leading name runes that take part
// in the product natural key. Two distinct products sharing a source id
// and a name prefix therefore collide onto one dimension row; the
// source system behaved the same way, and reports built on prior loads
// depend on it, so the collision is kept deliberately.
const productPrefixLen = 10

// productKey is the product natural key.
type productKey struct {
	SourceID   string
	NamePrefix string
}

// locationKey is the location natural key. Country is intentionally not
// part of the key, mirroring the source system: the same city/state pair
// in two countries resolves to one location row.
type locationKey struct {
	City  string
	State string
}

// Resolver maps natural keys to surrogate keys, inserting a dimension
// row on first sight and caching the assignment for the rest of the
// run. Caches are run-scoped; only the date dimension consults storage
// on a cache miss, because its ids must stay unique across separate
// loader invocations (see resolve).
type Resolver struct {
	db DB

	customers map[string]int64
	products  map[productKey]int64
	locations map[locationKey]int64
	dates     map[int]int64
}

// NewResolver creates a Resolver with empty caches writing through db.
func NewResolver(db DB) *Resolver {
	return &Resolver{
		db:        db,
		customers: make(map[string]int64),
		products:  make(map[productKey]int64),
		locations: make(map[locationKey]int64),
		dates:     make(map[int]int64),
	}
}

// resolve returns the surrogate id for key, inserting on first sight.
// A non-nil lookup is consulted before inserting, so dimensions whose
// uniqueness spans runs (dates) check storage while the others rely on
// the in-run cache alone. That asymmetry is configuration here, not an
// accident: pass lookup == nil to skip the storage check.
func resolve[K comparable](
	ctx context.Context,
	cache map[K]int64,
	key K,
	lookup func(context.Context) (int64, bool, error),
	insert func(context.Context) (int64, error),
) (int64, error) {
	if id, ok := cache[key]; ok {
		return id, nil
	}

	if lookup != nil {
		id, found, err := lookup(ctx)
		if err != nil {
			return 0, err
		}
		if found {
			cache[key] = id
			return id, nil
		}
	}

	id, err := insert(ctx)
	if err != nil {
		return 0, err
	}
	cache[key] = id
	return id, nil
}

// Customer resolves the customer dimension by source id.
func (r *Resolver) Customer(ctx context.Context, row Row) (int64, error) {
	return resolve(ctx, r.customers, row.CustomerID, nil,
		func(ctx context.Context) (int64, error) {
			var id int64
			err := r.db.QueryRow(ctx, `
                INSERT INTO dim_customers (customer_source_id, customer_name, segment)
                VALUES ($1, $2, $3)
                RETURNING customer_id
            `, row.CustomerID, row.CustomerName, row.Segment).Scan(&id)
			return id, err
		})
}

// Product resolves the product dimension by source id plus name prefix.
// The stored name is truncated to the column width.
func (r *Resolver) Product(ctx context.Context, row Row) (int64, error) {
	key := productKey{
		SourceID:   row.ProductID,
		NamePrefix: truncateRunes(row.ProductName, productPrefixLen),
	}
	return resolve(ctx, r.products, key, nil,
		func(ctx context.Context) (int64, error) {
			var id int64
			err := r.db.QueryRow(ctx, `
                INSERT INTO dim_products (product_source_id, product_name, category, sub_category)
                VALUES ($1, $2, $3, $4)
                RETURNING product_id
            `, row.ProductID, truncateRunes(row.ProductName, maxProductName),
				row.Category, row.SubCategory).Scan(&id)
			return id, err
		})
}

// Location resolves the location dimension by city plus state.
func (r *Resolver) Location(ctx context.Context, row Row) (int64, error) {
	key := locationKey{City: row.City, State: row.State}
	return resolve(ctx, r.locations, key, nil,
		func(ctx context.Context) (int64, error) {
			var id int64
			err := r.db.QueryRow(ctx, `
                INSERT INTO dim_locations (country, city, state, postal_code, region)
                VALUES ($1, $2, $3, $4, $5)
                RETURNING location_id
            `, row.Country, row.City, row.State, row.PostalCode, row.Region).Scan(&id)
			return id, err
		})
}

// Date resolves the date dimension. The surrogate id is the YYYYMMDD
// key itself; storage is checked on a cache miss so a day loaded by an
// earlier run is reused rather than re-inserted.
func (r *Resolver) Date(ctx context.Context, d CalendarDate) (int64, error) {
	return resolve(ctx, r.dates, d.Key,
		func(ctx context.Context) (int64, bool, error) {
			var exists bool
			err := r.db.QueryRow(ctx, `
                SELECT EXISTS (SELECT 1 FROM dim_dates WHERE date_id = $1)
            `, d.Key).Scan(&exists)
			if err != nil {
				return 0, false, err
			}
			return int64(d.Key), exists, nil
		},
		func(ctx context.Context) (int64, error) {
			_, err := r.db.Exec(ctx, `
                INSERT INTO dim_dates (date_id, full_date, year, month, month_name, quarter)
                VALUES ($1, $2, $3, $4, $5, $6)
            `, d.Key, d.Time, d.Year, d.Month, d.MonthName, d.Quarter)
			return int64(d.Key), err
		})
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

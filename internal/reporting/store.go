//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package reporting serves the read side of the warehouse: dashboard
// aggregates, product listings, and the single-row transaction insert
// used by the mobile client.
package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dwhouse/retail-bi/internal/etl"
)

// DefaultPageSize is the product listing page size used when none is
// configured.
const DefaultPageSize = 20

// DB is the database access interface the store needs; *pgxpool.Pool
// satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CategorySales is one sales-by-category bucket.
type CategorySales struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// ProductSales is one top-products entry.
type ProductSales struct {
	ProductName string  `json:"product_name"`
	TotalSales  float64 `json:"total_sales"`
}

// MonthlySales is one month's sales total.
type MonthlySales struct {
	Year      int     `json:"year"`
	MonthName string  `json:"month_name"`
	Total     float64 `json:"total"`
}

// Dashboard bundles the aggregates the dashboard renders in one
// response.
type Dashboard struct {
	TotalSales      float64         `json:"total_sales"`
	SalesByCategory []CategorySales `json:"sales_by_category"`
	TopProducts     []ProductSales  `json:"top_products"`
	MonthlyTrend    []MonthlySales  `json:"monthly_sales_trend"`
}

// Product is one dim_products row as listed by the product endpoint.
type Product struct {
	ProductID       int64  `json:"product_id"`
	ProductSourceID string `json:"product_source_id"`
	ProductName     string `json:"product_name"`
	Category        string `json:"category"`
	SubCategory     string `json:"sub_category"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products    []Product `json:"data"`
	Total       int64     `json:"total"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
	LastPage    int       `json:"last_page"`
}

// Transaction is a single sale submitted through the API rather than
// the bulk loader.
type Transaction struct {
	ProductID int64
	Quantity  int
	Sales     float64
}

// Store runs the reporting queries.
type Store struct {
	db       DB
	pageSize int
}

// NewStore creates a Store. A non-positive pageSize falls back to
// DefaultPageSize.
func NewStore(db DB, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{db: db, pageSize: pageSize}
}

// Dashboard computes the dashboard aggregates. Totals are rounded to
// two decimals.
func (s *Store) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		SalesByCategory: []CategorySales{},
		TopProducts:     []ProductSales{},
		MonthlyTrend:    []MonthlySales{},
	}

	err := s.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(sales), 0) FROM fact_sales").Scan(&d.TotalSales)
	if err != nil {
		return nil, fmt.Errorf("total sales: %w", err)
	}
	d.TotalSales = round2(d.TotalSales)

	rows, err := s.db.Query(ctx, `
        SELECT p.category, SUM(f.sales) AS total
        FROM fact_sales f
        JOIN dim_products p ON f.product_id = p.product_id
        GROUP BY p.category
        ORDER BY p.category
    `)
	if err != nil {
		return nil, fmt.Errorf("sales by category: %w", err)
	}
	for rows.Next() {
		var c CategorySales
		if err := rows.Scan(&c.Category, &c.Total); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sales by category: %w", err)
		}
		c.Total = round2(c.Total)
		d.SalesByCategory = append(d.SalesByCategory, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales by category: %w", err)
	}

	rows, err = s.db.Query(ctx, `
        SELECT p.product_name, SUM(f.sales) AS total_sales
        FROM fact_sales f
        JOIN dim_products p ON f.product_id = p.product_id
        GROUP BY p.product_id, p.product_name
        ORDER BY total_sales DESC
        LIMIT 5
    `)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductName, &p.TotalSales); err != nil {
			rows.Close()
			return nil, fmt.Errorf("top products: %w", err)
		}
		p.TotalSales = round2(p.TotalSales)
		d.TopProducts = append(d.TopProducts, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	trend, err := s.monthlyTrend(ctx)
	if err != nil {
		return nil, err
	}
	d.MonthlyTrend = trend

	return d, nil
}

// monthlyTrend returns the last six month buckets in chronological
// order. The query takes the newest six and the slice is reversed
// afterwards.
func (s *Store) monthlyTrend(ctx context.Context) ([]MonthlySales, error) {
	rows, err := s.db.Query(ctx, `
        SELECT d.year, d.month_name, SUM(f.sales) AS total
        FROM fact_sales f
        JOIN dim_dates d ON f.order_date_id = d.date_id
        GROUP BY d.year, d.month, d.month_name
        ORDER BY d.year DESC, d.month DESC
        LIMIT 6
    `)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	defer rows.Close()

	trend := []MonthlySales{}
	for rows.Next() {
		var m MonthlySales
		if err := rows.Scan(&m.Year, &m.MonthName, &m.Total); err != nil {
			return nil, fmt.Errorf("monthly trend: %w", err)
		}
		m.Total = round2(m.Total)
		trend = append(trend, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}

	for i, j := 0, len(trend)-1; i < j; i, j = i+1, j-1 {
		trend[i], trend[j] = trend[j], trend[i]
	}
	return trend, nil
}

// Products returns one page of the product listing. A non-empty search
// narrows the listing to names containing it, case-insensitively. Pages
// are 1-based; values below 1 mean the first page.
func (s *Store) Products(ctx context.Context, search string, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}

	where := ""
	args := []any{}
	if search != "" {
		where = "WHERE product_name ILIKE '%' || $1 || '%'"
		args = append(args, search)
	}

	var total int64
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM dim_products "+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * s.pageSize
	listSQL := fmt.Sprintf(`
        SELECT product_id, product_source_id, product_name, category, sub_category
        FROM dim_products
        %s
        ORDER BY product_id
        LIMIT %d OFFSET %d
    `, where, s.pageSize, offset)

	rows, err := s.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		err := rows.Scan(&p.ProductID, &p.ProductSourceID, &p.ProductName,
			&p.Category, &p.SubCategory)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	lastPage := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	if lastPage < 1 {
		lastPage = 1
	}

	return &ProductPage{
		Products:    products,
		Total:       total,
		CurrentPage: page,
		PerPage:     s.pageSize,
		LastPage:    lastPage,
	}, nil
}

// ProductExists reports whether a product surrogate id is present.
func (s *Store) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM dim_products WHERE product_id = $1)",
		productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}

// SaveTransaction appends one fact row for a sale submitted through the
// API. The missing dimensions are synthesized: a MOB-prefixed order id,
// the default customer and location, today's date id, and a 10% profit.
func (s *Store) SaveTransaction(ctx context.Context, t Transaction) error {
	now := time.Now()
	_, err := s.db.Exec(ctx, `
        INSERT INTO fact_sales
            (order_source_id, customer_id, product_id, location_id,
             order_date_id, ship_date, ship_mode, sales, quantity, discount, profit)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		fmt.Sprintf("MOB-%d", now.Unix()),
		int64(1),
		t.ProductID,
		int64(1),
		etl.DateKey(now),
		now,
		"Standard Class",
		t.Sales,
		t.Quantity,
		0.0,
		round2(t.Sales*0.1),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for the sales data warehouse: a star schema with one fact
// table (fact_sales) and four dimensions.
const createSchemaSQL = `
-- Customer Dimension
CREATE TABLE IF NOT EXISTS dim_customers (
    customer_id        BIGSERIAL PRIMARY KEY,
    customer_source_id VARCHAR(50) NOT NULL,
    customer_name      VARCHAR(255) NOT NULL,
    segment            VARCHAR(50) NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Product Dimension
CREATE TABLE IF NOT EXISTS dim_products (
    product_id        BIGSERIAL PRIMARY KEY,
    product_source_id VARCHAR(50) NOT NULL,
    product_name      VARCHAR(500) NOT NULL,
    category          VARCHAR(100) NOT NULL,
    sub_category      VARCHAR(100) NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Location Dimension
CREATE TABLE IF NOT EXISTS dim_locations (
    location_id BIGSERIAL PRIMARY KEY,
    country     VARCHAR(100) NOT NULL,
    city        VARCHAR(100) NOT NULL,
    state       VARCHAR(100) NOT NULL,
    postal_code VARCHAR(20),
    region      VARCHAR(50) NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Date Dimension. The primary key is the calendar day encoded as an
-- integer (YYYYMMDD), so it is stable across separate loader runs.
CREATE TABLE IF NOT EXISTS dim_dates (
    date_id    INTEGER PRIMARY KEY,
    full_date  DATE NOT NULL,
    year       INTEGER NOT NULL,
    month      INTEGER NOT NULL,
    month_name VARCHAR(9) NOT NULL,
    quarter    INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Sales Fact. order_date_id references dim_dates logically only; the
-- constraint is omitted to keep bulk inserts cheap.
CREATE TABLE IF NOT EXISTS fact_sales (
    fact_id         BIGSERIAL PRIMARY KEY,
    order_source_id VARCHAR(50) NOT NULL,
    customer_id     BIGINT NOT NULL REFERENCES dim_customers (customer_id),
    product_id      BIGINT NOT NULL REFERENCES dim_products (product_id),
    location_id     BIGINT NOT NULL REFERENCES dim_locations (location_id),
    order_date_id   INTEGER NOT NULL,
    ship_date       DATE NOT NULL,
    ship_mode       VARCHAR(50) NOT NULL,
    sales           NUMERIC(10,2) NOT NULL,
    quantity        INTEGER NOT NULL,
    discount        NUMERIC(5,2) NOT NULL,
    profit          NUMERIC(10,2) NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Indexes for the dashboard queries
CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON fact_sales(order_date_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_location ON fact_sales(location_id);
CREATE INDEX IF NOT EXISTS idx_dim_products_name ON dim_products(product_name);
`

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_sales CASCADE;
DROP TABLE IF EXISTS dim_dates CASCADE;
DROP TABLE IF EXISTS dim_locations CASCADE;
DROP TABLE IF EXISTS dim_products CASCADE;
DROP TABLE IF EXISTS dim_customers CASCADE;
`

// CreateSchema creates the warehouse schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the warehouse schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}

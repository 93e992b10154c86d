package adapter

import (
	"context"
	"fmt"
)

// sampleStatements builds the demo dataset shipped with Quarry: a small
// customers/products/orders star so a fresh canvas has something to query.
var sampleStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY,
		name VARCHAR,
		email VARCHAR,
		country VARCHAR,
		created_at DATE
	)`,
	`INSERT INTO customers VALUES
		(1, 'Alice Johnson', 'alice@example.com', 'USA', '2023-01-15'),
		(2, 'Bob Smith', 'bob@example.com', 'Canada', '2023-02-20'),
		(3, 'Clara Martinez', 'clara@example.com', 'Mexico', '2023-03-10'),
		(4, 'David Lee', 'david@example.com', 'USA', '2023-04-05'),
		(5, 'Eva Brown', 'eva@example.com', 'UK', '2023-05-12')`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		name VARCHAR,
		category VARCHAR,
		price DECIMAL(10,2),
		stock INTEGER
	)`,
	`INSERT INTO products VALUES
		(1, 'Laptop Pro', 'Electronics', 1299.99, 50),
		(2, 'Wireless Mouse', 'Electronics', 29.99, 200),
		(3, 'Standing Desk', 'Furniture', 599.00, 30),
		(4, 'Monitor 27"', 'Electronics', 349.99, 75),
		(5, 'Desk Lamp', 'Furniture', 39.99, 80)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER,
		product_id INTEGER,
		quantity INTEGER,
		total DECIMAL(10,2),
		status VARCHAR,
		order_date DATE
	)`,
	`INSERT INTO orders VALUES
		(1, 1, 1, 1, 1299.99, 'delivered', '2024-01-05'),
		(2, 1, 2, 2, 59.98, 'delivered', '2024-01-05'),
		(3, 2, 3, 1, 599.00, 'delivered', '2024-01-10'),
		(4, 3, 4, 2, 699.98, 'shipped', '2024-01-15'),
		(5, 4, 1, 1, 1299.99, 'delivered', '2024-01-20'),
		(6, 5, 5, 1, 39.99, 'processing', '2024-01-25')`,
}

// SeedSampleData creates the demo tables. Loading is skipped if the
// customers table already exists, so re-serving against a persistent
// database file does not duplicate rows.
func (d *DuckDB) SeedSampleData(ctx context.Context) error {
	if err := d.Init(ctx); err != nil {
		return err
	}

	tables, err := d.Tables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t == "customers" {
			d.logger.Debug("sample data already present, skipping")
			return nil
		}
	}

	for _, stmt := range sampleStatements {
		if err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to seed sample data: %w", err)
		}
	}

	d.logger.Info("seeded sample dataset", "tables", []string{"customers", "products", "orders"})
	return nil
}

package testutil

import (
	"context"
	"testing"

	"duck-adapter/internal/engine"
)

// UsersSchema creates the users table shared by engine and CLI tests.
const UsersSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name VARCHAR NOT NULL,
    email VARCHAR,
    age INTEGER,
    created_at TIMESTAMP
)`

// OrdersSchema creates the orders table; it references users.
const OrdersSchema = `
CREATE TABLE orders (
    order_id INTEGER PRIMARY KEY,
    user_id INTEGER REFERENCES users(id),
    product_name VARCHAR,
    quantity INTEGER CHECK (quantity > 0),
    price DOUBLE,
    order_date DATE
)`

// BasicUsers inserts three users aged 30, 25 and 35.
const BasicUsers = `
INSERT INTO users (id, name, email, age, created_at) VALUES
    (1, 'John Doe', 'john@example.com', 30, '2025-07-07 20:07:30'),
    (2, 'Jane Smith', 'jane@example.com', 25, '2025-07-07 20:07:30'),
    (3, 'Bob Johnson', 'bob@example.com', 35, '2025-07-07 20:07:30')`

// NumberedUsers inserts users 1..5 aged 21..25.
const NumberedUsers = `
INSERT INTO users (id, name, email, age, created_at) VALUES
    (1, 'User 1', 'user1@example.com', 21, '2025-07-07 20:07:30'),
    (2, 'User 2', 'user2@example.com', 22, '2025-07-07 20:07:30'),
    (3, 'User 3', 'user3@example.com', 23, '2025-07-07 20:07:30'),
    (4, 'User 4', 'user4@example.com', 24, '2025-07-07 20:07:30'),
    (5, 'User 5', 'user5@example.com', 25, '2025-07-07 20:07:30')`

// OpenConnection establishes a private in-memory connection, runs each
// setup batch on it and registers cleanup.
func OpenConnection(t *testing.T, setup []string, opts ...engine.Option) *engine.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := engine.Establish(ctx, engine.MemoryURL, opts...)
	if err != nil {
		t.Fatalf("establish in-memory connection: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	for _, batch := range setup {
		if err := conn.BatchExecute(ctx, batch); err != nil {
			t.Fatalf("setup batch: %v", err)
		}
	}
	return conn
}

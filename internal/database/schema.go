package database

// Schema is the storefront DDL. Constraints encode the core invariants:
// stock and total_sales can never go negative, percentage coupons cannot
// exceed 100, a cart holds at most one line per (product, size, color),
// and a coupon can be redeemed at most once per order.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY,
	sku TEXT NOT NULL UNIQUE,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
	stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
	low_stock_threshold INT NOT NULL DEFAULT 5,
	total_sales INT NOT NULL DEFAULT 0 CHECK (total_sales >= 0),
	is_published BOOLEAN NOT NULL DEFAULT TRUE,
	average_rating NUMERIC(3,2) NOT NULL DEFAULT 0,
	review_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS carts (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	coupon_code TEXT,
	discount NUMERIC(12,2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cart_items (
	id UUID PRIMARY KEY,
	cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id),
	quantity INT NOT NULL CHECK (quantity > 0),
	unit_price NUMERIC(12,2) NOT NULL,
	size TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (cart_id, product_id, size, color)
);

CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	shipping_address JSONB NOT NULL,
	billing_address JSONB NOT NULL,
	subtotal NUMERIC(12,2) NOT NULL,
	tax NUMERIC(12,2) NOT NULL,
	shipping_fee NUMERIC(12,2) NOT NULL,
	discount NUMERIC(12,2) NOT NULL DEFAULT 0,
	total NUMERIC(12,2) NOT NULL,
	coupon_code TEXT,
	payment_method TEXT NOT NULL,
	payment_status TEXT NOT NULL DEFAULT 'pending',
	payment_id TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	cancel_reason TEXT,
	shipped_at TIMESTAMPTZ,
	delivered_at TIMESTAMPTZ,
	cancelled_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id);

CREATE TABLE IF NOT EXISTS order_items (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id UUID NOT NULL,
	product_name TEXT NOT NULL,
	product_sku TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	unit_price NUMERIC(12,2) NOT NULL,
	quantity INT NOT NULL CHECK (quantity > 0),
	size TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id);

CREATE TABLE IF NOT EXISTS order_status_history (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	changed_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_order_status_history_order_id
	ON order_status_history (order_id);

CREATE TABLE IF NOT EXISTS coupons (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	discount_type TEXT NOT NULL,
	discount_value NUMERIC(12,2) NOT NULL CHECK (discount_value >= 0),
	max_discount_amount NUMERIC(12,2),
	min_purchase_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	min_items INT NOT NULL DEFAULT 0,
	starts_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	max_usage INT,
	max_usage_per_user INT NOT NULL DEFAULT 1,
	first_time_user_only BOOLEAN NOT NULL DEFAULT FALSE,
	applicable_users TEXT[] NOT NULL DEFAULT '{}',
	excluded_users TEXT[] NOT NULL DEFAULT '{}',
	current_usage INT NOT NULL DEFAULT 0 CHECK (current_usage >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (starts_at < expires_at),
	CHECK (discount_type <> 'percentage' OR discount_value <= 100)
);

CREATE TABLE IF NOT EXISTS coupon_usages (
	id UUID PRIMARY KEY,
	coupon_id UUID NOT NULL REFERENCES coupons(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	order_id UUID NOT NULL,
	discount_amount NUMERIC(12,2) NOT NULL,
	used_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (coupon_id, order_id)
);

CREATE INDEX IF NOT EXISTS idx_coupon_usages_user
	ON coupon_usages (coupon_id, user_id);

CREATE TABLE IF NOT EXISTS reviews (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reviews_product_id ON reviews (product_id);
`

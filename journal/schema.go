// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	player TEXT NOT NULL,
	instrument TEXT NOT NULL,
	kind TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price TEXT NOT NULL,
	amount TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_player ON transactions(player, time);

CREATE TABLE IF NOT EXISTS prices (
	time DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	price TEXT NOT NULL,
	previous TEXT NOT NULL,
	source TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prices_instrument ON prices(instrument, time);
`

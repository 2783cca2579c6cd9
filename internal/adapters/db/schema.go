package db

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id          UUID PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS auctions (
	listing_id     UUID PRIMARY KEY REFERENCES listings (id) ON DELETE CASCADE,
	status         TEXT NOT NULL CHECK (status IN ('Upcoming', 'Live', 'Paused', 'Ended', 'Cancelled')),
	start_time     TIMESTAMPTZ NOT NULL,
	end_time       TIMESTAMPTZ NOT NULL,
	starting_price DOUBLE PRECISION NOT NULL CHECK (starting_price >= 0),
	current_bid    DOUBLE PRECISION NOT NULL,
	reserve_price  DOUBLE PRECISION NOT NULL CHECK (reserve_price >= 0),
	winner         UUID,
	version        BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS auctions_status_start_idx ON auctions (status, start_time);
CREATE INDEX IF NOT EXISTS auctions_end_idx ON auctions (end_time);

CREATE TABLE IF NOT EXISTS bids (
	seq        BIGSERIAL PRIMARY KEY,
	id         UUID NOT NULL UNIQUE,
	auction_id UUID NOT NULL REFERENCES auctions (listing_id) ON DELETE CASCADE,
	user_id    UUID NOT NULL,
	amount     DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS bids_auction_seq_idx ON bids (auction_id, seq);
`

package local

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY,
	path TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	hash TEXT NOT NULL,
	mtime_unix INTEGER NOT NULL,
	size INTEGER NOT NULL,
	created_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blocks (
	uid TEXT PRIMARY KEY,
	page_id INTEGER NOT NULL,
	parent_uid TEXT NOT NULL DEFAULT '',
	ord INTEGER NOT NULL,
	level INTEGER NOT NULL,
	start_line INTEGER NOT NULL,
	text TEXT NOT NULL,
	markdown TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS blocks_by_page ON blocks(page_id);
CREATE INDEX IF NOT EXISTS blocks_by_parent ON blocks(page_id, parent_uid, ord);
`

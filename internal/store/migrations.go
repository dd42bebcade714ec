package store

const schema = `
CREATE TABLE IF NOT EXISTS seen_articles (
    url        TEXT PRIMARY KEY,
    headline   TEXT NOT NULL DEFAULT '',
    category   TEXT NOT NULL DEFAULT '',
    first_seen DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_seen_category ON seen_articles(category);

CREATE TABLE IF NOT EXISTS archive (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    url           TEXT NOT NULL UNIQUE,
    headline      TEXT NOT NULL,
    teaser        TEXT NOT NULL DEFAULT '',
    source        TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL,
    word_count    INTEGER NOT NULL DEFAULT 0,
    approved_date TEXT NOT NULL,
    created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_archive_date ON archive(approved_date);
CREATE INDEX IF NOT EXISTS idx_archive_category ON archive(category);
`

package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    id                   TEXT NOT NULL UNIQUE,
    financial_year       TEXT NOT NULL DEFAULT '',
    note                 TEXT NOT NULL DEFAULT '',
    unit_count           INTEGER NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_units (
    snapshot_id          TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    unit_id              TEXT NOT NULL,
    team_name            TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (snapshot_id, unit_id)
);

CREATE TABLE IF NOT EXISTS snapshot_spend (
    snapshot_id          TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    unit_id              TEXT NOT NULL,
    grp                  TEXT NOT NULL,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    amount               REAL NOT NULL,
    value                INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, unit_id, grp, position)
);

CREATE TABLE IF NOT EXISTS snapshot_months (
    snapshot_id          TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    unit_id              TEXT NOT NULL,
    position             INTEGER NOT NULL,
    date                 TEXT NOT NULL DEFAULT '',
    month                TEXT NOT NULL,
    category             TEXT NOT NULL DEFAULT '',
    actual               REAL NOT NULL,
    anticipated          REAL NOT NULL,
    PRIMARY KEY (snapshot_id, unit_id, position)
);

CREATE TABLE IF NOT EXISTS uploads (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    format               TEXT NOT NULL,
    hash                 TEXT NOT NULL,
    origin               TEXT NOT NULL DEFAULT '',
    row_count            INTEGER NOT NULL,
    applied_count        INTEGER NOT NULL,
    dropped_count        INTEGER NOT NULL,
    units                TEXT NOT NULL DEFAULT '',
    snapshot_id          TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_hash ON uploads(hash);
CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at);
`

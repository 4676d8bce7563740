package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    started_at   DATETIME NOT NULL,
    finished_at  DATETIME NOT NULL,
    candidates   INTEGER NOT NULL DEFAULT 0,
    appended     INTEGER NOT NULL DEFAULT 0,
    notified     BOOLEAN NOT NULL DEFAULT 0,
    recipients   INTEGER NOT NULL DEFAULT 0,
    error        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS search_hits (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id    TEXT NOT NULL REFERENCES runs(id),
    query     TEXT NOT NULL,
    url       TEXT NOT NULL DEFAULT '',
    title     TEXT NOT NULL DEFAULT '',
    source    TEXT NOT NULL DEFAULT '',
    accepted  BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_hits_run ON search_hits(run_id);
CREATE INDEX IF NOT EXISTS idx_hits_url ON search_hits(url);
`

package store

const queryCreateTable = `
CREATE TABLE IF NOT EXISTS Queue (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    type           TEXT    NOT NULL,
    title          TEXT    NOT NULL,
    subreddit      TEXT    NOT NULL,
    data           BLOB    NOT NULL,
    scheduled_time INTEGER NOT NULL,
    posted         INTEGER NOT NULL DEFAULT 0,
    flair_id       TEXT,
    error          TEXT
);
`

const queryInsert = `
INSERT INTO Queue (type, title, subreddit, data, scheduled_time, posted, flair_id)
VALUES (?, ?, ?, ?, ?, 0, ?);
`

const queryAll = `SELECT id, type, title, subreddit, data, scheduled_time, posted, flair_id, error FROM Queue ORDER BY id;`

const queryEligible = `
SELECT id, type, title, subreddit, data, scheduled_time, posted, flair_id, error
FROM Queue
WHERE scheduled_time < strftime('%s', 'now')
AND posted = 0
ORDER BY id;
`

const queryDelete = `DELETE FROM Queue WHERE id = ?;`

const queryMarkPosted = `UPDATE Queue SET posted = 1 WHERE id = ?;`

const queryMarkError = `UPDATE Queue SET error = ? WHERE id = ?;`

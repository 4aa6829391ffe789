package sqlite

const schema = `
-- Connection groups table
CREATE TABLE IF NOT EXISTS connection_groups (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    items TEXT NOT NULL,
    connection TEXT NOT NULL CHECK(length(connection) > 0),
    connection_type TEXT NOT NULL DEFAULT '',
    difficulty TEXT NOT NULL,
    color TEXT NOT NULL CHECK(color IN ('yellow', 'green', 'blue', 'purple')),
    difficulty_score INTEGER NOT NULL CHECK(difficulty_score >= 1 AND difficulty_score <= 4),
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'rejected')),
    usage_count INTEGER NOT NULL DEFAULT 0 CHECK(usage_count >= 0),
    last_used_at DATETIME,
    genre TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    source TEXT NOT NULL DEFAULT 'system'
);

-- Connection uniqueness per genre (upsert-with-ignore on batch insert)
CREATE UNIQUE INDEX IF NOT EXISTS idx_groups_connection ON connection_groups(genre, connection);
CREATE INDEX IF NOT EXISTS idx_groups_status ON connection_groups(status);
CREATE INDEX IF NOT EXISTS idx_groups_genre_color ON connection_groups(genre, color);
CREATE INDEX IF NOT EXISTS idx_groups_freshness ON connection_groups(usage_count, last_used_at, created_at);

-- Puzzles table
CREATE TABLE IF NOT EXISTS puzzles (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    puzzle_date TEXT,
    title TEXT NOT NULL DEFAULT '',
    group_ids TEXT NOT NULL,
    -- group_key is the sorted group-id multiset, the order-independent
    -- uniqueness key for a puzzle's four groups
    group_key TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'published', 'rejected')),
    genre TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT 'system',
    groups_snapshot TEXT,
    -- published puzzles must carry a date and a snapshot
    CHECK (status != 'published' OR (puzzle_date IS NOT NULL AND groups_snapshot IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_puzzles_date_genre ON puzzles(puzzle_date, genre) WHERE puzzle_date IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_puzzles_group_key ON puzzles(genre, group_key);
CREATE INDEX IF NOT EXISTS idx_puzzles_status ON puzzles(status);

-- Connection type taxonomy
CREATE TABLE IF NOT EXISTS connection_types (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    examples TEXT NOT NULL DEFAULT '[]',
    active INTEGER NOT NULL DEFAULT 1,
    genre TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_connection_types_name ON connection_types(genre, name);
CREATE INDEX IF NOT EXISTS idx_connection_types_active ON connection_types(genre, active);

-- Group feedback (append-only)
CREATE TABLE IF NOT EXISTS group_feedback (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    items TEXT NOT NULL,
    connection TEXT NOT NULL,
    accepted INTEGER NOT NULL,
    rejection_reason TEXT NOT NULL DEFAULT '',
    genre TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_genre_verdict ON group_feedback(genre, accepted, created_at);

-- Pipeline configuration (one row per genre)
CREATE TABLE IF NOT EXISTS pipeline_config (
    genre TEXT PRIMARY KEY,
    enabled INTEGER NOT NULL DEFAULT 1,
    rolling_window_days INTEGER NOT NULL DEFAULT 30 CHECK(rolling_window_days >= 1),
    min_groups_per_color INTEGER NOT NULL DEFAULT 10 CHECK(min_groups_per_color >= 1),
    ai_generation_batch_size INTEGER NOT NULL DEFAULT 20 CHECK(ai_generation_batch_size >= 1)
);
`

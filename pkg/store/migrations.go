package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
	id                  TEXT PRIMARY KEY,
	provider_project_id TEXT NOT NULL UNIQUE,
	name                TEXT NOT NULL,
	logo_url            TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	deleted_at          DATETIME
);

CREATE TABLE IF NOT EXISTS pending_users (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	email      TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (project_id, email)
);

CREATE TABLE IF NOT EXISTS user_project_roles (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	project_id TEXT NOT NULL REFERENCES projects(id),
	role       TEXT NOT NULL DEFAULT 'member',
	emitter_id TEXT NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, project_id)
);

CREATE TABLE IF NOT EXISTS stages (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS project_stages (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	stage_id   TEXT NOT NULL REFERENCES stages(id),
	category   TEXT NOT NULL,
	UNIQUE (project_id, stage_id)
);

CREATE TABLE IF NOT EXISTS labels (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS issues (
	id                TEXT PRIMARY KEY,
	provider_issue_id TEXT NOT NULL UNIQUE,
	project_id        TEXT NOT NULL REFERENCES projects(id),
	identifier        TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	priority          INTEGER NOT NULL DEFAULT 0,
	story_points      INTEGER,
	project_stage_id  TEXT REFERENCES project_stages(id),
	author_id         TEXT REFERENCES users(id),
	assignee_id       TEXT REFERENCES users(id),
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS issue_labels (
	id       TEXT PRIMARY KEY,
	issue_id TEXT NOT NULL REFERENCES issues(id),
	label_id TEXT NOT NULL REFERENCES labels(id),
	UNIQUE (issue_id, label_id)
);

CREATE TABLE IF NOT EXISTS issue_change_logs (
	id                TEXT PRIMARY KEY,
	issue_id          TEXT NOT NULL REFERENCES issues(id),
	provider_event_id TEXT,
	field             TEXT NOT NULL,
	from_value        TEXT,
	to_value          TEXT,
	emitter_email     TEXT,
	seq               INTEGER NOT NULL,
	created_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS blocker_status_modifications (
	id                TEXT PRIMARY KEY,
	issue_id          TEXT NOT NULL REFERENCES issues(id),
	provider_event_id TEXT,
	block_type        TEXT NOT NULL,
	reason            TEXT NOT NULL,
	comment           TEXT NOT NULL,
	emitter_email     TEXT,
	seq               INTEGER NOT NULL,
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id);
CREATE INDEX IF NOT EXISTS idx_change_logs_issue ON issue_change_logs(issue_id, seq);
CREATE INDEX IF NOT EXISTS idx_blocker_mods_issue ON blocker_status_modifications(issue_id, seq);
CREATE INDEX IF NOT EXISTS idx_pending_users_project ON pending_users(project_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

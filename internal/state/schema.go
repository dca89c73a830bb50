package state

// Schema migrations. Each constant is applied once inside its own transaction
// and recorded in schema_version.

const migrationV1Users = `
CREATE TABLE users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	org_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX idx_users_email ON users(email);
`

const migrationV2Templates = `
CREATE TABLE templates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	body TEXT NOT NULL
);
`

const migrationV3Tasks = `
CREATE TABLE tasks (
	id TEXT PRIMARY KEY,
	org_id TEXT NOT NULL DEFAULT '',
	template_id TEXT NOT NULL,
	pipeline_key TEXT NOT NULL DEFAULT '',
	stage_key TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	overridden INTEGER NOT NULL DEFAULT 0,
	override_reason TEXT NOT NULL DEFAULT '',
	override_actor_id TEXT NOT NULL DEFAULT '',
	override_at TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL DEFAULT '{}',
	priority INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX idx_tasks_status ON tasks(status);
CREATE INDEX idx_tasks_template ON tasks(template_id);
`

const migrationV4DecisionLog = `
CREATE TABLE decision_log (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	template_id TEXT NOT NULL,
	at TEXT NOT NULL,
	event_name TEXT NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	suppressed INTEGER NOT NULL DEFAULT 0,
	rationale TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX idx_decision_log_task ON decision_log(task_id, at);
`

const migrationV5Commitments = `
CREATE TABLE commitments (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	start_at TEXT NOT NULL,
	end_at TEXT NOT NULL,
	all_day INTEGER NOT NULL DEFAULT 0,
	participants TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX idx_commitments_owner ON commitments(owner_id, start_at);
`

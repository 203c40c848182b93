package database

// Schema is the complete DDL this package reads from. It is applied out of
// band (operators, or the integration test harness); the server only checks
// connectivity at startup.
//
// users.id is assigned by the identity provider and arrives via the verified
// token, so it carries no default. Act times are fixed-width "HH:MM" tokens
// with hours 00-29; hours 24 and up mean after midnight on the following
// day, kept as text so they stay lexically comparable.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	display_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	venue TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS days (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	label TEXT NOT NULL,
	date DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_days_event_id ON days(event_id);

CREATE TABLE IF NOT EXISTS stages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stages_event_id ON stages(event_id);

CREATE TABLE IF NOT EXISTS acts (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	day_id UUID NOT NULL REFERENCES days(id) ON DELETE CASCADE,
	stage_id UUID NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	start_time CHAR(5) NOT NULL CHECK (start_time ~ '^[0-2][0-9]:[0-5][0-9]$'),
	end_time CHAR(5) NOT NULL CHECK (end_time ~ '^[0-2][0-9]:[0-5][0-9]$')
);

CREATE INDEX IF NOT EXISTS idx_acts_day_id ON acts(day_id);

CREATE TABLE IF NOT EXISTS groups (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	owner_id UUID NOT NULL REFERENCES users(id),
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
	PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS selections (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	act_id UUID NOT NULL REFERENCES acts(id) ON DELETE CASCADE,
	priority INT NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, group_id, act_id)
);

CREATE INDEX IF NOT EXISTS idx_selections_group_id ON selections(group_id);
`

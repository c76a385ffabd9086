package database

// Schema is the full current schema as a single script. Tests apply it
// directly instead of running migrations. Keep in sync with the files
// under migrations/files.
const Schema = `
CREATE TABLE users (
    uuid TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    salt TEXT NOT NULL,
    public_key TEXT NOT NULL,
    encrypted_private_key TEXT NOT NULL
);

CREATE TABLE families (
    uuid TEXT PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE user_family (
    user_uuid TEXT NOT NULL REFERENCES users(uuid),
    family_uuid TEXT NOT NULL REFERENCES families(uuid),
    name TEXT NOT NULL,
    PRIMARY KEY (user_uuid, family_uuid)
);

CREATE TABLE user_family_invitations (
    uuid TEXT PRIMARY KEY,
    family_uuid TEXT NOT NULL REFERENCES families(uuid),
    user_uuid TEXT NOT NULL REFERENCES users(uuid)
);

CREATE TABLE external_email_invitations (
    uuid TEXT PRIMARY KEY,
    family_uuid TEXT NOT NULL REFERENCES families(uuid),
    email TEXT NOT NULL
);

CREATE TABLE "groups" (
    uuid TEXT PRIMARY KEY,
    family_uuid TEXT NOT NULL REFERENCES families(uuid),
    target_uuid TEXT NOT NULL REFERENCES users(uuid),
    private_data TEXT NOT NULL DEFAULT '',
    UNIQUE (family_uuid, target_uuid)
);

CREATE TABLE group_user (
    group_uuid TEXT NOT NULL REFERENCES "groups"(uuid),
    user_uuid TEXT NOT NULL REFERENCES users(uuid),
    public_key TEXT NOT NULL,
    private_key TEXT NOT NULL,
    PRIMARY KEY (group_uuid, user_uuid)
);

CREATE TABLE group_request_user (
    group_uuid TEXT NOT NULL REFERENCES "groups"(uuid),
    user_uuid TEXT NOT NULL REFERENCES users(uuid),
    PRIMARY KEY (group_uuid, user_uuid)
);

CREATE TABLE gifts (
    uuid TEXT PRIMARY KEY,
    family_uuid TEXT NOT NULL REFERENCES families(uuid),
    target_uuid TEXT NOT NULL REFERENCES users(uuid),
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_gifts_family_target ON gifts(family_uuid, target_uuid);
CREATE INDEX idx_user_family_family ON user_family(family_uuid);
CREATE INDEX idx_group_user_user ON group_user(user_uuid);
`

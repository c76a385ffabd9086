// Package database implements the gift.Store interface on SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"giftnest/internal/gift"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements gift.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens a store at path. path can be a file path or
// ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing connection. The caller is
// responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the store relies on. Exported for tools and tests that need a
// properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps the PRAGMAs in effect for every query and
	// keeps ":memory:" databases from splitting across pool connections.
	db.SetMaxOpenConns(1)

	// Foreign key enforcement is off by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}

// DB exposes the underlying connection for migrations and backups.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Path returns the database file path, empty for wrapped connections.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// User operations

func (s *SQLiteStore) CreateUser(user *gift.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (uuid, email, password_hash, salt, public_key, encrypted_private_key)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.UUID, user.Email, user.PasswordHash, user.Salt, user.PublicKey, user.EncryptedPrivateKey)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByUUID(uuid string) (*gift.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT uuid, email, password_hash, salt, public_key, encrypted_private_key
		FROM users WHERE uuid = ?`, uuid))
}

func (s *SQLiteStore) FindUserByEmail(email string) (*gift.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT uuid, email, password_hash, salt, public_key, encrypted_private_key
		FROM users WHERE email = ?`, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*gift.User, error) {
	var u gift.User
	err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.Salt, &u.PublicKey, &u.EncryptedPrivateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) ListUsers() ([]*gift.User, error) {
	rows, err := s.db.Query(`
		SELECT uuid, email, password_hash, salt, public_key, encrypted_private_key
		FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*gift.User
	for rows.Next() {
		var u gift.User
		if err := rows.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.Salt, &u.PublicKey, &u.EncryptedPrivateKey); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Family operations

func (s *SQLiteStore) CreateFamily(family *gift.Family, creator *gift.Membership) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO families (uuid, name) VALUES (?, ?)`,
		family.UUID, family.Name); err != nil {
		return fmt.Errorf("inserting family: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO user_family (user_uuid, family_uuid, name) VALUES (?, ?, ?)`,
		creator.UserUUID, creator.FamilyUUID, creator.Name); err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) FindFamily(uuid string) (*gift.Family, error) {
	var f gift.Family
	err := s.db.QueryRow(`SELECT uuid, name FROM families WHERE uuid = ?`, uuid).
		Scan(&f.UUID, &f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning family: %w", err)
	}
	return &f, nil
}

func (s *SQLiteStore) ListFamiliesForUser(userUUID string) ([]*gift.Family, error) {
	rows, err := s.db.Query(`
		SELECT f.uuid, f.name
		FROM families f
		JOIN user_family uf ON uf.family_uuid = f.uuid
		WHERE uf.user_uuid = ?
		ORDER BY f.name`, userUUID)
	if err != nil {
		return nil, fmt.Errorf("listing families: %w", err)
	}
	defer rows.Close()

	var families []*gift.Family
	for rows.Next() {
		var f gift.Family
		if err := rows.Scan(&f.UUID, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning family: %w", err)
		}
		families = append(families, &f)
	}
	return families, rows.Err()
}

func (s *SQLiteStore) FindMembership(userUUID, familyUUID string) (*gift.Membership, error) {
	var m gift.Membership
	err := s.db.QueryRow(`
		SELECT user_uuid, family_uuid, name
		FROM user_family WHERE user_uuid = ? AND family_uuid = ?`, userUUID, familyUUID).
		Scan(&m.UserUUID, &m.FamilyUUID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStore) ListMembers(familyUUID string) ([]*gift.Member, error) {
	rows, err := s.db.Query(`
		SELECT uf.user_uuid, uf.family_uuid, uf.name, u.email, u.public_key
		FROM user_family uf
		JOIN users u ON u.uuid = uf.user_uuid
		WHERE uf.family_uuid = ?
		ORDER BY uf.name`, familyUUID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []*gift.Member
	for rows.Next() {
		var m gift.Member
		if err := rows.Scan(&m.UserUUID, &m.FamilyUUID, &m.Name, &m.Email, &m.PublicKey); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (s *SQLiteStore) DeleteMembership(userUUID, familyUUID string) error {
	_, err := s.db.Exec(`DELETE FROM user_family WHERE user_uuid = ? AND family_uuid = ?`,
		userUUID, familyUUID)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	return nil
}

// Invitation operations

func (s *SQLiteStore) CreateInvitation(inv *gift.Invitation) error {
	var err error
	if inv.External {
		_, err = s.db.Exec(`
			INSERT INTO external_email_invitations (uuid, family_uuid, email)
			VALUES (?, ?, ?)`, inv.UUID, inv.FamilyUUID, inv.Email)
	} else {
		_, err = s.db.Exec(`
			INSERT INTO user_family_invitations (uuid, family_uuid, user_uuid)
			VALUES (?, ?, ?)`, inv.UUID, inv.FamilyUUID, inv.UserUUID)
	}
	if err != nil {
		return fmt.Errorf("inserting invitation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindInvitation(uuid string) (*gift.Invitation, error) {
	var inv gift.Invitation
	err := s.db.QueryRow(`
		SELECT i.uuid, i.family_uuid, f.name, i.user_uuid, u.email
		FROM user_family_invitations i
		JOIN families f ON f.uuid = i.family_uuid
		JOIN users u ON u.uuid = i.user_uuid
		WHERE i.uuid = ?`, uuid).
		Scan(&inv.UUID, &inv.FamilyUUID, &inv.FamilyName, &inv.UserUUID, &inv.Email)
	if err == nil {
		return &inv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scanning invitation: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT i.uuid, i.family_uuid, f.name, i.email
		FROM external_email_invitations i
		JOIN families f ON f.uuid = i.family_uuid
		WHERE i.uuid = ?`, uuid).
		Scan(&inv.UUID, &inv.FamilyUUID, &inv.FamilyName, &inv.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning external invitation: %w", err)
	}
	inv.External = true
	return &inv, nil
}

func (s *SQLiteStore) ListInvitationsForUser(userUUID, email string) ([]*gift.Invitation, error) {
	rows, err := s.db.Query(`
		SELECT i.uuid, i.family_uuid, f.name, i.user_uuid, ?, 0
		FROM user_family_invitations i
		JOIN families f ON f.uuid = i.family_uuid
		WHERE i.user_uuid = ?
		UNION ALL
		SELECT i.uuid, i.family_uuid, f.name, '', i.email, 1
		FROM external_email_invitations i
		JOIN families f ON f.uuid = i.family_uuid
		WHERE i.email = ?`, email, userUUID, email)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()
	return scanInvitations(rows)
}

func (s *SQLiteStore) ListInvitationsForFamily(familyUUID string) ([]*gift.Invitation, error) {
	rows, err := s.db.Query(`
		SELECT i.uuid, i.family_uuid, f.name, i.user_uuid, u.email, 0
		FROM user_family_invitations i
		JOIN families f ON f.uuid = i.family_uuid
		JOIN users u ON u.uuid = i.user_uuid
		WHERE i.family_uuid = ?
		UNION ALL
		SELECT i.uuid, i.family_uuid, f.name, '', i.email, 1
		FROM external_email_invitations i
		JOIN families f ON f.uuid = i.family_uuid
		WHERE i.family_uuid = ?`, familyUUID, familyUUID)
	if err != nil {
		return nil, fmt.Errorf("listing family invitations: %w", err)
	}
	defer rows.Close()
	return scanInvitations(rows)
}

func scanInvitations(rows *sql.Rows) ([]*gift.Invitation, error) {
	var invitations []*gift.Invitation
	for rows.Next() {
		var inv gift.Invitation
		var external int
		if err := rows.Scan(&inv.UUID, &inv.FamilyUUID, &inv.FamilyName, &inv.UserUUID, &inv.Email, &external); err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		inv.External = external != 0
		invitations = append(invitations, &inv)
	}
	return invitations, rows.Err()
}

func (s *SQLiteStore) DeleteInvitation(uuid string) error {
	res, err := s.db.Exec(`DELETE FROM user_family_invitations WHERE uuid = ?`, uuid)
	if err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM external_email_invitations WHERE uuid = ?`, uuid); err != nil {
		return fmt.Errorf("deleting external invitation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HasInvitation(familyUUID, userUUID, email string) (bool, error) {
	var n int
	var err error
	if userUUID != "" {
		err = s.db.QueryRow(`
			SELECT COUNT(*) FROM user_family_invitations
			WHERE family_uuid = ? AND user_uuid = ?`, familyUUID, userUUID).Scan(&n)
	} else {
		err = s.db.QueryRow(`
			SELECT COUNT(*) FROM external_email_invitations
			WHERE family_uuid = ? AND email = ?`, familyUUID, email).Scan(&n)
	}
	if err != nil {
		return false, fmt.Errorf("counting invitations: %w", err)
	}
	return n > 0, nil
}

// Group operations

func (s *SQLiteStore) FindGroup(uuid string) (*gift.Group, error) {
	return s.scanGroup(s.db.QueryRow(`
		SELECT uuid, family_uuid, target_uuid, private_data
		FROM "groups" WHERE uuid = ?`, uuid))
}

func (s *SQLiteStore) FindGroupByTarget(familyUUID, targetUUID string) (*gift.Group, error) {
	return s.scanGroup(s.db.QueryRow(`
		SELECT uuid, family_uuid, target_uuid, private_data
		FROM "groups" WHERE family_uuid = ? AND target_uuid = ?`, familyUUID, targetUUID))
}

func (s *SQLiteStore) scanGroup(row *sql.Row) (*gift.Group, error) {
	var g gift.Group
	err := row.Scan(&g.UUID, &g.FamilyUUID, &g.TargetUUID, &g.PrivateData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning group: %w", err)
	}
	return &g, nil
}

func (s *SQLiteStore) ListGroups(familyUUID string) ([]*gift.Group, error) {
	rows, err := s.db.Query(`
		SELECT uuid, family_uuid, target_uuid, private_data
		FROM "groups" WHERE family_uuid = ?`, familyUUID)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []*gift.Group
	for rows.Next() {
		var g gift.Group
		if err := rows.Scan(&g.UUID, &g.FamilyUUID, &g.TargetUUID, &g.PrivateData); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) FindEnvelope(groupUUID, userUUID string) (*gift.Envelope, error) {
	var e gift.Envelope
	err := s.db.QueryRow(`
		SELECT group_uuid, user_uuid, public_key, private_key
		FROM group_user WHERE group_uuid = ? AND user_uuid = ?`, groupUUID, userUUID).
		Scan(&e.GroupUUID, &e.UserUUID, &e.PublicKey, &e.PrivateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning envelope: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) FindGroupRequest(groupUUID, userUUID string) (*gift.GroupRequest, error) {
	var r gift.GroupRequest
	err := s.db.QueryRow(`
		SELECT group_uuid, user_uuid
		FROM group_request_user WHERE group_uuid = ? AND user_uuid = ?`, groupUUID, userUUID).
		Scan(&r.GroupUUID, &r.UserUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning request: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListPendingRequests(familyUUID, approverUUID string) ([]*gift.PendingRequest, error) {
	rows, err := s.db.Query(`
		SELECT r.group_uuid, r.user_uuid, cm.name, g.target_uuid, tm.name
		FROM group_request_user r
		JOIN "groups" g ON g.uuid = r.group_uuid
		JOIN group_user e ON e.group_uuid = r.group_uuid AND e.user_uuid = ?
		JOIN user_family cm ON cm.user_uuid = r.user_uuid AND cm.family_uuid = g.family_uuid
		JOIN user_family tm ON tm.user_uuid = g.target_uuid AND tm.family_uuid = g.family_uuid
		WHERE g.family_uuid = ? AND r.user_uuid != ?
		ORDER BY tm.name, cm.name`, approverUUID, familyUUID, approverUUID)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*gift.PendingRequest
	for rows.Next() {
		var r gift.PendingRequest
		if err := rows.Scan(&r.GroupUUID, &r.CandidateUUID, &r.CandidateName, &r.TargetUUID, &r.TargetName); err != nil {
			return nil, fmt.Errorf("scanning pending request: %w", err)
		}
		requests = append(requests, &r)
	}
	return requests, rows.Err()
}

func (s *SQLiteStore) CountApprovableRequests(familyUUID, approverUUID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM group_request_user r
		JOIN "groups" g ON g.uuid = r.group_uuid
		JOIN group_user e ON e.group_uuid = r.group_uuid AND e.user_uuid = ?
		WHERE g.family_uuid = ? AND r.user_uuid != ?`, approverUUID, familyUUID, approverUUID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pending requests: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) UpdateGroupPrivateData(groupUUID, privateData string) error {
	res, err := s.db.Exec(`UPDATE "groups" SET private_data = ? WHERE uuid = ?`,
		privateData, groupUUID)
	if err != nil {
		return fmt.Errorf("updating private data: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s does not exist", groupUUID)
	}
	return nil
}

func (s *SQLiteStore) OnboardMember(change *gift.OnboardChange) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	m := change.Membership
	if _, err := tx.Exec(`INSERT INTO user_family (user_uuid, family_uuid, name) VALUES (?, ?, ?)`,
		m.UserUUID, m.FamilyUUID, m.Name); err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}

	for _, g := range change.Groups {
		if _, err := tx.Exec(`INSERT INTO "groups" (uuid, family_uuid, target_uuid, private_data) VALUES (?, ?, ?, ?)`,
			g.UUID, g.FamilyUUID, g.TargetUUID, g.PrivateData); err != nil {
			return fmt.Errorf("inserting group: %w", err)
		}
	}
	for _, e := range change.Envelopes {
		if _, err := tx.Exec(`INSERT INTO group_user (group_uuid, user_uuid, public_key, private_key) VALUES (?, ?, ?, ?)`,
			e.GroupUUID, e.UserUUID, e.PublicKey, e.PrivateKey); err != nil {
			return fmt.Errorf("inserting envelope: %w", err)
		}
	}
	for _, r := range change.Requests {
		if _, err := tx.Exec(`INSERT INTO group_request_user (group_uuid, user_uuid) VALUES (?, ?)`,
			r.GroupUUID, r.UserUUID); err != nil {
			return fmt.Errorf("inserting request: %w", err)
		}
	}

	table := "user_family_invitations"
	if change.External {
		table = "external_email_invitations"
	}
	if _, err := tx.Exec(`DELETE FROM `+table+` WHERE uuid = ?`, change.InvitationUUID); err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) ApproveRequest(env *gift.Envelope) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO group_user (group_uuid, user_uuid, public_key, private_key) VALUES (?, ?, ?, ?)`,
		env.GroupUUID, env.UserUUID, env.PublicKey, env.PrivateKey); err != nil {
		return fmt.Errorf("inserting envelope: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM group_request_user WHERE group_uuid = ? AND user_uuid = ?`,
		env.GroupUUID, env.UserUUID); err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}

	return tx.Commit()
}

// Gift operations

func (s *SQLiteStore) CreateGift(g *gift.Gift) error {
	_, err := s.db.Exec(`
		INSERT INTO gifts (uuid, family_uuid, target_uuid, title, content)
		VALUES (?, ?, ?, ?, ?)`,
		g.UUID, g.FamilyUUID, g.TargetUUID, g.Title, g.Content)
	if err != nil {
		return fmt.Errorf("inserting gift: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindGift(uuid string) (*gift.Gift, error) {
	var g gift.Gift
	err := s.db.QueryRow(`
		SELECT uuid, family_uuid, target_uuid, title, content
		FROM gifts WHERE uuid = ?`, uuid).
		Scan(&g.UUID, &g.FamilyUUID, &g.TargetUUID, &g.Title, &g.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning gift: %w", err)
	}
	return &g, nil
}

func (s *SQLiteStore) DeleteGift(uuid string) error {
	_, err := s.db.Exec(`DELETE FROM gifts WHERE uuid = ?`, uuid)
	if err != nil {
		return fmt.Errorf("deleting gift: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListGifts(familyUUID, targetUUID string) ([]*gift.Gift, error) {
	rows, err := s.db.Query(`
		SELECT uuid, family_uuid, target_uuid, title, content
		FROM gifts WHERE family_uuid = ? AND target_uuid = ?
		ORDER BY title`, familyUUID, targetUUID)
	if err != nil {
		return nil, fmt.Errorf("listing gifts: %w", err)
	}
	defer rows.Close()

	var gifts []*gift.Gift
	for rows.Next() {
		var g gift.Gift
		if err := rows.Scan(&g.UUID, &g.FamilyUUID, &g.TargetUUID, &g.Title, &g.Content); err != nil {
			return nil, fmt.Errorf("scanning gift: %w", err)
		}
		gifts = append(gifts, &g)
	}
	return gifts, rows.Err()
}

// Compile-time interface check.
var _ gift.Store = (*SQLiteStore)(nil)

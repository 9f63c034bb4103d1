package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"livetunnel/pkg/logging"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists profiles in a SQLite database. Users, jump hosts
// and connect-commands live in child tables keyed by profile name and
// are deleted by cascade.
type SQLiteStore struct {
	db     *sql.DB
	mutex  sync.RWMutex
	dbPath string
}

// NewSQLiteStore creates and initializes a SQLite-backed store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Pre-create the file with restrictive permissions; sql.Open would
	// otherwise create it with the process umask.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		f, ferr := os.OpenFile(dbPath, os.O_CREATE|os.O_WRONLY, 0600)
		if ferr == nil {
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Debugf("sqlite profile store initialized at: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		name TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		ssh_port INTEGER NOT NULL DEFAULT 0,
		username TEXT NOT NULL DEFAULT '',
		key_file TEXT NOT NULL DEFAULT '',
		remote_port INTEGER NOT NULL,
		local_port INTEGER NOT NULL,
		dir TEXT NOT NULL DEFAULT '',
		upload INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS profile_users (
		profile_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		PRIMARY KEY (profile_name, position),
		FOREIGN KEY (profile_name) REFERENCES profiles(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS profile_jump_hosts (
		profile_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		host TEXT NOT NULL,
		PRIMARY KEY (profile_name, position),
		FOREIGN KEY (profile_name) REFERENCES profiles(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS profile_commands (
		profile_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		command TEXT NOT NULL,
		PRIMARY KEY (profile_name, position),
		FOREIGN KEY (profile_name) REFERENCES profiles(name) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(name string) (Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.getLocked(name)
}

func (s *SQLiteStore) getLocked(name string) (Profile, error) {
	var p Profile
	var upload int
	err := s.db.QueryRow(
		`SELECT name, host, ssh_port, username, key_file, remote_port, local_port, dir, upload
		 FROM profiles WHERE name = ?`, name,
	).Scan(&p.Name, &p.Host, &p.SSHPort, &p.Username, &p.KeyFile, &p.RemotePort, &p.LocalPort, &p.Dir, &upload)
	if err == sql.ErrNoRows {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to query profile %q: %w", name, err)
	}
	p.Upload = upload != 0

	if p.Users, err = s.queryUsers(name); err != nil {
		return Profile{}, err
	}
	if p.JumpHosts, err = s.queryOrdered("profile_jump_hosts", "host", name); err != nil {
		return Profile{}, err
	}
	if p.ConnectCommands, err = s.queryOrdered("profile_commands", "command", name); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *SQLiteStore) queryUsers(name string) ([]AuthUser, error) {
	rows, err := s.db.Query(
		`SELECT name, password_hash FROM profile_users WHERE profile_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query users for %q: %w", name, err)
	}
	defer rows.Close()

	var users []AuthUser
	for rows.Next() {
		var u AuthUser
		if err := rows.Scan(&u.Name, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) queryOrdered(table, column, name string) ([]string, error) {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT %s FROM %s WHERE profile_name = ? ORDER BY position", column, table), name)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for %q: %w", table, name, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *SQLiteStore) Save(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upload := 0
	if p.Upload {
		upload = 1
	}
	_, err = tx.Exec(
		`INSERT INTO profiles (name, host, ssh_port, username, key_file, remote_port, local_port, dir, upload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   host = excluded.host, ssh_port = excluded.ssh_port,
		   username = excluded.username, key_file = excluded.key_file,
		   remote_port = excluded.remote_port, local_port = excluded.local_port,
		   dir = excluded.dir, upload = excluded.upload`,
		p.Name, p.Host, p.SSHPort, p.Username, p.KeyFile, p.RemotePort, p.LocalPort, p.Dir, upload)
	if err != nil {
		return fmt.Errorf("failed to save profile %q: %w", p.Name, err)
	}

	// Child rows are rewritten wholesale; profiles are small.
	for _, table := range []string{"profile_users", "profile_jump_hosts", "profile_commands"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE profile_name = ?", table), p.Name); err != nil {
			return fmt.Errorf("failed to clear %s for %q: %w", table, p.Name, err)
		}
	}
	for i, u := range p.Users {
		if _, err := tx.Exec(
			`INSERT INTO profile_users (profile_name, position, name, password_hash) VALUES (?, ?, ?, ?)`,
			p.Name, i, u.Name, u.PasswordHash); err != nil {
			return fmt.Errorf("failed to save user %q: %w", u.Name, err)
		}
	}
	for i, h := range p.JumpHosts {
		if _, err := tx.Exec(
			`INSERT INTO profile_jump_hosts (profile_name, position, host) VALUES (?, ?, ?)`,
			p.Name, i, h); err != nil {
			return fmt.Errorf("failed to save jump host %q: %w", h, err)
		}
	}
	for i, c := range p.ConnectCommands {
		if _, err := tx.Exec(
			`INSERT INTO profile_commands (profile_name, position, command) VALUES (?, ?, ?)`,
			p.Name, i, c); err != nil {
			return fmt.Errorf("failed to save connect command: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile %q: %w", p.Name, err)
	}
	logging.Debugf("saved profile %q", p.Name)
	return nil
}

func (s *SQLiteStore) List() ([]Profile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rows, err := s.db.Query(`SELECT name FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan profile name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	sort.Strings(names)
	profiles := make([]Profile, 0, len(names))
	for _, n := range names {
		p, err := s.getLocked(n)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *SQLiteStore) Delete(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res, err := s.db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	logging.Debugf("deleted profile %q", name)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

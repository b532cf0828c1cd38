package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/HimbeerserverDE/lobby"
)

const settingsTable = `CREATE TABLE IF NOT EXISTS settings (
	key VARCHAR(512) NOT NULL,
	value VARCHAR(512) NOT NULL
);`

// Store keeps the settings that survive a restart:
// the identity and the last options used to host
type Store struct {
	db     *sql.DB
	dollar bool
}

// OpenSQLite3 opens and returns a SQLite3 settings store
func OpenSQLite3(file string) (*Store, error) {
	if dir := filepath.Dir(file); dir != "." {
		os.MkdirAll(dir, 0777)
	}

	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(settingsTable); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenPSQL opens and returns a PostgreSQL settings store
func OpenPSQL(host, name, user, password string, port uint16) (*Store, error) {
	psqlconn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, name)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(settingsTable); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dollar: true}, nil
}

// OpenStore opens the store the configuration asks for
func OpenStore(c *lobby.Config) (*Store, error) {
	switch c.Storage.Driver {
	case "sqlite3", "":
		return OpenSQLite3(c.Storage.File)
	case "postgres":
		return OpenPSQL(c.Storage.Host, c.Storage.Name, c.Storage.User, c.Storage.Password, c.Storage.Port)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}

// bind rewrites ? placeholders for drivers that number them
func (s *Store) bind(query string) string {
	if !s.dollar {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// Set stores value at key. An empty value deletes the key.
func (s *Store) Set(key, value string) error {
	if err := s.Delete(key); err != nil {
		return err
	}

	if value == "" {
		return nil
	}

	_, err := s.db.Exec(s.bind(`INSERT INTO settings (key, value) VALUES (?, ?);`), key, value)
	return err
}

// Get returns the value at key, or "" if there is none
func (s *Store) Get(key string) (string, error) {
	var r string

	err := s.db.QueryRow(s.bind(`SELECT value FROM settings WHERE key = ?;`), key).Scan(&r)
	if err == sql.ErrNoRows {
		return "", nil
	}

	return r, err
}

func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(s.bind(`DELETE FROM settings WHERE key = ?;`), key)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveIdentity remembers the name, color and faction
func (s *Store) SaveIdentity(id lobby.Identity) error {
	for k, v := range map[string]string{
		"player:name":    id.Name,
		"player:color":   id.Color.String(),
		"player:faction": id.Faction.String(),
	} {
		if err := s.Set(k, v); err != nil {
			return err
		}
	}

	return nil
}

// LoadIdentity applies the saved name, color and faction over id
func (s *Store) LoadIdentity(id lobby.Identity) (lobby.Identity, error) {
	name, err := s.Get("player:name")
	if err != nil {
		return id, err
	}
	if name != "" {
		id.Name = name
	}

	color, err := s.Get("player:color")
	if err != nil {
		return id, err
	}
	if c, ok := lobby.ParseColor(color); ok {
		id.Color = c
	}

	faction, err := s.Get("player:faction")
	if err != nil {
		return id, err
	}
	if f, ok := lobby.ParseFaction(faction); ok {
		id.Faction = f
	}

	return id, nil
}

// SaveOptions remembers every option under options:<key>
func (s *Store) SaveOptions(opts lobby.Options) error {
	for _, k := range lobby.OptionKeys {
		v, _ := opts.Get(k)
		if err := s.Set("options:"+k, v); err != nil {
			return err
		}
	}

	return nil
}

// LoadOptions applies the saved options over opts.
// Values that no longer parse are skipped.
func (s *Store) LoadOptions(opts lobby.Options) (lobby.Options, error) {
	for _, k := range lobby.OptionKeys {
		v, err := s.Get("options:" + k)
		if err != nil {
			return opts, err
		}

		next := opts
		if v != "" && next.Set(k, v) == nil {
			opts = next
		}
	}

	return opts, nil
}

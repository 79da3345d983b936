// Package store persists session configuration across runs in an
// embedded badger database.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"wander/internal/persona"
)

const (
	keyCredential = "config:credential"
	keyAgentName  = "config:agent_name"
	keyPersona    = "config:persona"
)

// SessionConfig is everything the user can configure mid-session.
type SessionConfig struct {
	Credential string
	AgentName  string
	Persona    persona.Persona
}

type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens or creates the database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the stored configuration. Keys that were never written
// come back as zero values; the caller applies its own defaults.
func (s *Store) Load() (SessionConfig, error) {
	var cfg SessionConfig
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if cfg.Credential, err = readString(txn, keyCredential); err != nil {
			return err
		}
		if cfg.AgentName, err = readString(txn, keyAgentName); err != nil {
			return err
		}
		raw, err := readString(txn, keyPersona)
		if err != nil {
			return err
		}
		if raw != "" {
			cfg.Persona = persona.Parse(raw)
		}
		return nil
	})
	if err != nil {
		return SessionConfig{}, fmt.Errorf("load session config: %w", err)
	}
	return cfg, nil
}

// Save writes the whole configuration in one transaction.
func (s *Store) Save(cfg SessionConfig) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyCredential), []byte(cfg.Credential)); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyAgentName), []byte(cfg.AgentName)); err != nil {
			return err
		}
		return txn.Set([]byte(keyPersona), []byte(cfg.Persona))
	})
	if err != nil {
		return fmt.Errorf("save session config: %w", err)
	}
	return nil
}

// SetCredential updates only the stored credential.
func (s *Store) SetCredential(credential string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCredential), []byte(credential))
	})
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func readString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var out string
	err = item.Value(func(val []byte) error {
		out = string(val)
		return nil
	})
	return out, err
}

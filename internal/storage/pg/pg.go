package pg

import (
	"database/sql"
	"fmt"

	"github.com/commentable-dev/commentable/internal/config"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/storage"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS comments (
	id          BIGSERIAL PRIMARY KEY,
	api_key     TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	comment_id  TEXT NOT NULL,
	parent_id   TEXT NOT NULL DEFAULT '',
	username    TEXT NOT NULL DEFAULT '',
	user_email  TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	page_url    TEXT NOT NULL DEFAULT '',
	page_title  TEXT NOT NULL DEFAULT '',
	comment_url TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	hidden      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS comments_scope_idx ON comments (api_key, item_id, id);
`

type Storage struct {
	db *sql.DB
}

var _ storage.Backend = (*Storage)(nil)

func New(cfg config.Pg) (*Storage, error) {
	logger.Log.Info("connecting to db", "host", cfg.Host, "dbname", cfg.Dbname)
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create comments schema: %w", err)
	}
	logger.Log.Info("successfully connected to db")
	return &Storage{db}, nil
}

func Connect(cfg config.Pg) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/xtop/internal/types"
)

// Store keeps the history of seen posts and ranking runs
type Store struct {
	db *sql.DB
}

// RankingEntry is one row of a past ranking run
type RankingEntry struct {
	Username  string
	RankedAt  time.Time
	Rank      int
	PostID    string
	Likes     int
	Permalink string
	Text      string
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; serialize through a single connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", dbPath, err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		like_count INTEGER NOT NULL,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rankings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		ranked_at INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		post_id TEXT NOT NULL REFERENCES posts(id),
		like_count INTEGER NOT NULL,
		permalink TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_username ON posts(username, created_at);
	CREATE INDEX IF NOT EXISTS idx_rankings_username ON rankings(username, ranked_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePosts inserts posts or refreshes the like counts of known ones
func (s *Store) SavePosts(username string, posts []types.Post, seenAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePosts(tx, username, posts, seenAt); err != nil {
		return err
	}
	return tx.Commit()
}

func savePosts(tx *sql.Tx, username string, posts []types.Post, seenAt time.Time) error {
	stmt, err := tx.Prepare(`
		INSERT INTO posts (id, username, text, created_at, like_count, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			like_count = excluded.like_count,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	seen := seenAt.Unix()
	for _, p := range posts {
		if _, err := stmt.Exec(p.ID, username, p.Text, p.CreatedAt.Unix(), p.Likes, seen, seen); err != nil {
			return fmt.Errorf("failed to save post %s: %w", p.ID, err)
		}
	}
	return nil
}

// SaveRanking records the posts of a ranking run along with the run itself.
// Nothing is written when any part fails.
func (s *Store) SaveRanking(top *types.UserTop) error {
	// Ranked posts normally appear in Posts too; the upsert makes the
	// repeat harmless.
	posts := slices.Clone(top.Posts)
	for _, r := range top.Top {
		posts = append(posts, r.Post)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePosts(tx, top.Username, posts, top.RankedAt); err != nil {
		return err
	}

	for i, r := range top.Top {
		_, err := tx.Exec(`
			INSERT INTO rankings (username, ranked_at, rank, post_id, like_count, permalink)
			VALUES (?, ?, ?, ?, ?, ?)
		`, top.Username, top.RankedAt.Unix(), i+1, r.Post.ID, r.Post.Likes, r.Permalink)
		if err != nil {
			return fmt.Errorf("failed to save ranking: %w", err)
		}
	}

	return tx.Commit()
}

// History returns the rankings recorded for username, newest run first
func (s *Store) History(username string, limit int) ([]RankingEntry, error) {
	rows, err := s.db.Query(`
		SELECT r.username, r.ranked_at, r.rank, r.post_id, r.like_count, r.permalink, p.text
		FROM rankings r
		JOIN posts p ON p.id = r.post_id
		WHERE r.username = ?
		ORDER BY r.ranked_at DESC, r.rank ASC
		LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RankingEntry
	for rows.Next() {
		var e RankingEntry
		var rankedAt int64
		if err := rows.Scan(&e.Username, &rankedAt, &e.Rank, &e.PostID, &e.Likes, &e.Permalink, &e.Text); err != nil {
			return nil, err
		}
		e.RankedAt = time.Unix(rankedAt, 0).UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Posts returns the stored posts of username, newest first
func (s *Store) Posts(username string, limit int) ([]types.Post, error) {
	rows, err := s.db.Query(`
		SELECT id, text, created_at, like_count
		FROM posts
		WHERE username = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []types.Post
	for rows.Next() {
		var p types.Post
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Text, &createdAt, &p.Likes); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// PostExists checks if a post ID already exists
func (s *Store) PostExists(id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// Package ledger records which inputs a batch run has turned into quilts and
// keeps the playlist of finished quilts in SQLite.
package ledger

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"
)

// Status is the processing state of an input.
type Status int

const (
	NotProcessed Status = iota
	Processed
	NeedsReprocessing
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case NeedsReprocessing:
		return "needs reprocessing"
	default:
		return "not processed"
	}
}

// Values stored in processed_files.status.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const maxSimpleNameLen = 32

const schema = `
CREATE TABLE IF NOT EXISTS processed_files (
	path TEXT PRIMARY KEY,
	basename TEXT,
	quiltfilename TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	status TEXT
);
CREATE TABLE IF NOT EXISTS playlist (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL REFERENCES processed_files(path),
	position INTEGER NOT NULL,
	UNIQUE(position)
);`

// Ledger wraps the batch database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	// _pragma=busy_timeout=5000 helps when a viewer holds the file open.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=foreign_keys=ON", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// New creates the schema on db if needed.
func New(db *sql.DB) (*Ledger, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Status reports whether path was processed successfully before.
func (l *Ledger) Status(ctx context.Context, path string) (Status, error) {
	var status string
	err := l.db.QueryRowContext(ctx, `SELECT status FROM processed_files WHERE path = ?`, path).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return NotProcessed, nil
	}
	if err != nil {
		return NotProcessed, fmt.Errorf("query status of %s: %w", path, err)
	}
	if status == StatusSuccess {
		return Processed, nil
	}
	return NeedsReprocessing, nil
}

// MarkProcessed records the outcome for path, replacing any earlier record.
func (l *Ledger) MarkProcessed(ctx context.Context, path, basename, quiltFile, status string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO processed_files (path, basename, quiltfilename, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename = excluded.basename,
			quiltfilename = excluded.quiltfilename,
			status = excluded.status,
			timestamp = CURRENT_TIMESTAMP`,
		path, basename, quiltFile, status)
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", path, status, err)
	}
	return nil
}

// AddToPlaylist appends path to the playlist. Paths already listed keep their
// position.
func (l *Ledger) AddToPlaylist(ctx context.Context, path string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlist WHERE path = ?`, path).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check playlist: %w", err)
	}
	if exists > 0 {
		return nil
	}
	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM playlist`).Scan(&next); err != nil {
		return fmt.Errorf("next playlist position: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO playlist (path, position) VALUES (?, ?)`, path, next); err != nil {
		return fmt.Errorf("add %s to playlist: %w", path, err)
	}
	return tx.Commit()
}

// Entry is one playlist line.
type Entry struct {
	Position  int64
	Path      string
	QuiltFile string
}

// Playlist returns the playlist in order.
func (l *Ledger) Playlist(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT playlist.position, playlist.path, processed_files.quiltfilename
		FROM playlist JOIN processed_files ON playlist.path = processed_files.path
		ORDER BY playlist.position`)
	if err != nil {
		return nil, fmt.Errorf("query playlist: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Position, &e.Path, &e.QuiltFile); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SimplifyName reduces a file name to at most 32 letters and digits of its stem.
func SimplifyName(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var b strings.Builder
	n := 0
	for _, r := range stem {
		if n == maxSimpleNameLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			n++
		}
	}
	return b.String()
}

// SimpleName returns a short output name for the input at path. When other
// inputs already use the prefix, a two digit count is appended.
func (l *Ledger) SimpleName(ctx context.Context, path string) (string, error) {
	simple := SimplifyName(path)
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_files WHERE basename LIKE ? AND path != ?`,
		simple+"%", path).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("count names like %s: %w", simple, err)
	}
	if count > 0 {
		return fmt.Sprintf("%s_%02d", simple, count), nil
	}
	return simple, nil
}

// ExportM3U writes the playlist to <parent of outputDir>/<name of outputDir>.m3u,
// one quilt per line relative to the playlist file. There is no #EXTM3U
// header; Looking Glass Go rejects it.
func (l *Ledger) ExportM3U(ctx context.Context, outputDir string) (string, error) {
	entries, err := l.Playlist(ctx)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(abs)
	m3u := filepath.Join(parent, filepath.Base(abs)+".m3u")

	f, err := os.Create(m3u)
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, e := range entries {
		line := e.QuiltFile
		if absQuilt, err := filepath.Abs(e.QuiltFile); err == nil {
			if rel, err := filepath.Rel(parent, absQuilt); err == nil {
				line = filepath.ToSlash(rel)
			}
		}
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write playlist: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write playlist: %w", err)
	}
	return m3u, nil
}

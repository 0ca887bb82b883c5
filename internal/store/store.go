package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/deepltr/internal"
)

type Store struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies the schema. The parent
// directory must already exist.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Open is New with the parent directory created first.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return New(dbPath)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_requests (
		id TEXT PRIMARY KEY,
		service_name TEXT NOT NULL,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		status_code INTEGER,
		error TEXT,
		latency_ms INTEGER,
		chars_consumed INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		final_text TEXT NOT NULL,
		detected_lang TEXT,
		service_used TEXT,
		chars_consumed INTEGER DEFAULT 0,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_requests_created ON translation_requests(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before character accounting lack the column.
	for _, table := range []string{"translation_requests", "translation_memory"} {
		if err := s.addColumn(table, "chars_consumed", "INTEGER DEFAULT 0"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addColumn(table, column, decl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

func (s *Store) SaveRequest(ctx context.Context, req internal.TranslationRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_requests (id, service_name, source_text, source_lang, target_lang, status_code, error, latency_ms, chars_consumed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.ServiceName, req.SourceText, req.SourceLang, req.TargetLang, req.StatusCode, req.Error, req.LatencyMs, req.CharsConsumed, req.Timestamp)
	return err
}

// ListRequests returns the most recent requests, newest first.
func (s *Store) ListRequests(ctx context.Context, limit int) ([]internal.TranslationRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, service_name, source_text, source_lang, target_lang, COALESCE(status_code, 0), COALESCE(error, ''), COALESCE(latency_ms, 0), COALESCE(chars_consumed, 0), created_at
		 FROM translation_requests ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.TranslationRequest
	for rows.Next() {
		var r internal.TranslationRequest
		if err := rows.Scan(&r.ID, &r.ServiceName, &r.SourceText, &r.SourceLang, &r.TargetLang, &r.StatusCode, &r.Error, &r.LatencyMs, &r.CharsConsumed, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MemoryHit is a cached translation.
type MemoryHit struct {
	FinalText    string
	DetectedLang string
	ServiceUsed  string
}

// GetCachedTranslation looks up a non-invalidated entry for the exact
// (normalised) text and language pair, bumping its usage counter on a hit.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (*MemoryHit, bool, error) {
	var hit MemoryHit
	var invalidated bool

	key := normalizeText(sourceText)
	sourceLang, targetLang = normalizeLang(sourceLang), normalizeLang(targetLang)

	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, COALESCE(detected_lang, ''), COALESCE(service_used, ''), invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		key, sourceLang, targetLang).Scan(&hit.FinalText, &hit.DetectedLang, &hit.ServiceUsed, &invalidated)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if invalidated {
		return nil, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), key, sourceLang, targetLang)

	return &hit, true, err
}

// SaveToMemory stores a translation, recording the characters the service
// billed for producing it.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, finalText, detectedLang, serviceUsed string) error {
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, final_text, detected_lang, service_used, chars_consumed, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		id, normalizeText(sourceText), normalizeLang(sourceLang), normalizeLang(targetLang), finalText, detectedLang, serviceUsed, utf8.RuneCountInString(sourceText), now, now)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	FinalText   string
	ServiceUsed   string
	CharsConsumed int
	UsageCount    int
	Invalidated   bool
	LastUsed      time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
	TotalRequests  int
	FailedRequests int

	// TotalChars is the characters sent in successful requests, i.e. the
	// quota this tool consumed. CharsSaved is what memory hits avoided.
	TotalChars int64
	CharsSaved int64

	// CharsByService breaks TotalChars down per service.
	CharsByService map[string]int64
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, final_text, COALESCE(service_used, ''), COALESCE(chars_consumed, 0), usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.FinalText, &e.ServiceUsed, &e.CharsConsumed, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory and request log.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{CharsByService: map[string]int64{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0),
			COALESCE(SUM(chars_consumed * (usage_count - 1)), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
		&stats.CharsSaved,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN error IS NOT NULL AND error != '' THEN 1 ELSE 0 END), 0)
		FROM translation_requests`).Scan(&stats.TotalRequests, &stats.FailedRequests)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT service_name, COALESCE(SUM(chars_consumed), 0) FROM translation_requests GROUP BY service_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var service string
		var chars int64
		if err := rows.Scan(&service, &chars); err != nil {
			return nil, err
		}
		stats.CharsByService[service] = chars
		stats.TotalChars += chars
	}
	return stats, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ErrNotFound is returned when an entry ID does not exist.
var ErrNotFound = errors.New("entry not found")

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// DeepL codes are case-insensitive; "" and "auto" both mean detection.
func normalizeLang(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "AUTO" {
		return ""
	}
	return code
}

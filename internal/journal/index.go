package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Index is a queryable SQLite copy of the journal. Rows are written by a
// single goroutine in batched transactions; when it falls behind, records
// are dropped and counted. The JSONL files remain the source of truth.
type Index struct {
	db *sql.DB

	ch   chan Record
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

var ErrReadOnly = errors.New("journal: index is read-only")

type IndexStats struct {
	Dropped       uint64
	QueueDepth    int
	QueueCapacity int
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	ix := &Index{db: db, ch: make(chan Record, 65536)}
	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		ix.loop()
	}()
	return ix, nil
}

// OpenIndexReadOnly opens an existing index for queries. It never creates
// the file and starts no writer; Append on the result is an error.
func OpenIndexReadOnly(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA query_only=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			first_at TEXT NOT NULL,
			last_at TEXT NOT NULL,
			frames INTEGER NOT NULL,
			commands INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS frames (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			tag TEXT NOT NULL,
			outcome TEXT NOT NULL,
			err TEXT,
			frame TEXT NOT NULL,
			PRIMARY KEY (session, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_frames_tag ON frames(tag, at);`,
		`CREATE TABLE IF NOT EXISTS commands (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			command TEXT NOT NULL,
			payload TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (session, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_command ON commands(command, at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) Close() error {
	var err error
	ix.once.Do(func() {
		ix.closed.Store(true)
		if ix.ch != nil {
			close(ix.ch)
			ix.wg.Wait()
		}
		err = ix.db.Close()
	})
	return err
}

// Append queues r without blocking.
func (ix *Index) Append(r Record) error {
	if ix == nil || ix.closed.Load() {
		return nil
	}
	if ix.ch == nil {
		return ErrReadOnly
	}
	select {
	case ix.ch <- r:
	default:
		ix.dropped.Add(1)
	}
	return nil
}

func (ix *Index) Stats() IndexStats {
	if ix == nil {
		return IndexStats{}
	}
	return IndexStats{
		Dropped:       ix.dropped.Load(),
		QueueDepth:    len(ix.ch),
		QueueCapacity: cap(ix.ch),
	}
}

// TagCounts returns the number of indexed inbound frames per tag.
func (ix *Index) TagCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT tag, COUNT(*) FROM frames GROUP BY tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var tag string
		var n int64
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, err
		}
		out[tag] = n
	}
	return out, rows.Err()
}

type SessionRow struct {
	ID       string
	FirstAt  string
	LastAt   string
	Frames   int64
	Commands int64
}

func (ix *Index) Sessions(ctx context.Context) ([]SessionRow, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT id, first_at, last_at, frames, commands FROM sessions ORDER BY first_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.ID, &s.FirstAt, &s.LastAt, &s.Frames, &s.Commands); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (ix *Index) loop() {
	ctx := context.Background()

	insertFrame, _ := ix.db.Prepare(`INSERT OR REPLACE INTO frames(session,seq,at,tag,outcome,err,frame) VALUES(?,?,?,?,?,?,?)`)
	insertCommand, _ := ix.db.Prepare(`INSERT OR REPLACE INTO commands(session,seq,at,command,payload,raw_json) VALUES(?,?,?,?,?,?)`)
	upsertSession, _ := ix.db.Prepare(`INSERT INTO sessions(id,first_at,last_at,frames,commands) VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET last_at=excluded.last_at, frames=frames+excluded.frames, commands=commands+excluded.commands`)
	defer func() {
		for _, st := range []*sql.Stmt{insertFrame, insertCommand, upsertSession} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := ix.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range ix.ch {
		begin()
		if tx == nil {
			ix.dropped.Add(1)
			continue
		}
		at := r.At.UTC().Format(time.RFC3339Nano)
		var frames, commands int
		switch r.Dir {
		case Inbound:
			if insertFrame == nil {
				continue
			}
			var errText any
			if r.Err != "" {
				errText = r.Err
			}
			if _, err := tx.Stmt(insertFrame).Exec(r.Session, int64(r.Seq), at, r.Tag, r.Outcome, errText, r.Frame); err != nil {
				rollback()
				continue
			}
			frames = 1
		case Outbound:
			if insertCommand == nil {
				continue
			}
			name, payload := commandColumns(r.Frame)
			if _, err := tx.Stmt(insertCommand).Exec(r.Session, int64(r.Seq), at, name, payload, r.Frame); err != nil {
				rollback()
				continue
			}
			commands = 1
		default:
			continue
		}
		opCount++
		if upsertSession != nil {
			if _, err := tx.Stmt(upsertSession).Exec(r.Session, at, at, frames, commands); err != nil {
				rollback()
				continue
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

// commandColumns pulls the command name and payload out of an outbound
// COMMAND frame for the commands table.
func commandColumns(frame string) (string, any) {
	var c struct {
		Command string          `json:"command"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal([]byte(frame), &c); err != nil {
		return "", nil
	}
	if len(c.Payload) == 0 {
		return c.Command, nil
	}
	var token string
	if err := json.Unmarshal(c.Payload, &token); err == nil {
		return c.Command, token
	}
	return c.Command, string(c.Payload)
}

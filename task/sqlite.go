package task

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	status      INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT    NOT NULL,
	deleted     INTEGER NOT NULL DEFAULT 0,
	priority    TEXT    NOT NULL DEFAULT 'medium',
	tags        TEXT    NOT NULL DEFAULT '[]',
	due_date    TEXT,
	recurring   TEXT,
	reminder    TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_deleted ON tasks(deleted);
`

const taskColumns = `id, title, description, status, created_at, deleted, priority, tags, due_date, recurring, reminder`

// SQLiteRepository stores tasks in a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Create stores t, replacing any task with the same ID.
func (r *SQLiteRepository) Create(t Task) (int, error) {
	if err := ValidateTask(t); err != nil {
		return 0, err
	}
	if err := writeTaskRow(r.db, t); err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Get returns the task with the given ID, including deleted tasks.
func (r *SQLiteRepository) Get(id int) (Task, error) {
	t, err := scanTask(r.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if err != nil {
		return Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// All returns every non-deleted task ordered by ID.
func (r *SQLiteRepository) All() ([]Task, error) {
	return r.Search(Query{})
}

// Exists reports whether the ID is known.
func (r *SQLiteRepository) Exists(id int) (bool, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return n > 0, nil
}

// Update applies a partial update inside a transaction.
func (r *SQLiteRepository) Update(id int, patch Patch) (bool, error) {
	return r.modifyTask(id, func(t Task) (Task, bool, error) {
		updated, err := patch.Apply(t)
		if err != nil {
			return Task{}, false, err
		}
		return updated, true, nil
	})
}

// Delete marks the task as deleted.
func (r *SQLiteRepository) Delete(id int) (bool, error) {
	res, err := r.db.Exec(`UPDATE tasks SET deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return rowsChanged(res)
}

// Restore clears the deleted flag of a deleted task.
func (r *SQLiteRepository) Restore(id int) (bool, error) {
	res, err := r.db.Exec(`UPDATE tasks SET deleted = 0 WHERE id = ? AND deleted = 1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to restore task: %w", err)
	}
	return rowsChanged(res)
}

// Search returns the non-deleted tasks matching q. Status, priority, and the
// presence of a reminder are filtered in SQL; the rest in Go.
func (r *SQLiteRepository) Search(q Query) ([]Task, error) {
	where := []string{"deleted = 0"}
	var args []any
	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, boolToInt(*q.Status))
	}
	if q.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(q.Priority))
	}
	if q.ReminderBefore != nil {
		where = append(where, "reminder IS NOT NULL")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	return q.Filter(tasks), nil
}

// MaxID returns the highest stored ID, or 0 when empty.
func (r *SQLiteRepository) MaxID() (int, error) {
	var id sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(id) FROM tasks`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read max id: %w", err)
	}
	return int(id.Int64), nil
}

func (r *SQLiteRepository) modifyTask(id int, fn func(Task) (Task, bool, error)) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := scanTask(tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get task: %w", err)
	}

	updated, ok, err := fn(t)
	if err != nil || !ok {
		return false, err
	}
	if err := writeTaskRow(tx, updated); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func writeTaskRow(exec execer, t Task) error {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	var recurringJSON *string
	if rec := newRecurringRecord(t.Recurring); rec != nil {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode recurring: %w", err)
		}
		s := string(data)
		recurringJSON = &s
	}

	_, err = exec.Exec(`INSERT OR REPLACE INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, boolToInt(t.Status), FormatDate(t.CreatedAt), boolToInt(t.Deleted),
		string(t.Priority), string(tagsJSON), formatOptionalDate(t.DueDate), recurringJSON,
		formatOptionalDate(t.Reminder),
	)
	if err != nil {
		return fmt.Errorf("failed to write task: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (Task, error) {
	var (
		rec           taskRecord
		description   string
		createdAt     string
		status        int
		deleted       int
		tagsJSON      string
		recurringJSON sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Title, &description, &status, &createdAt, &deleted,
		&rec.Priority, &tagsJSON, &rec.DueDate, &recurringJSON, &rec.Reminder,
	)
	if err != nil {
		return Task{}, err
	}

	rec.Description = &description
	rec.CreatedAt = &createdAt
	rec.Status = status != 0
	rec.Deleted = deleted != 0
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return Task{}, fmt.Errorf("decode tags of task %d: %w", rec.ID, err)
	}
	if recurringJSON.Valid {
		rec.Recurring = &recurringRecord{}
		if err := json.Unmarshal([]byte(recurringJSON.String), rec.Recurring); err != nil {
			return Task{}, fmt.Errorf("decode recurring of task %d: %w", rec.ID, err)
		}
	}
	return rec.task()
}

func rowsChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

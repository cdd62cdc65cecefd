package task

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// DefaultFile is the default path of the JSON task file.
const DefaultFile = "tasks.json"

const tasksSchemaURL = "https://github.com/amonks/tasks/task/tasks.schema.json"

//go:embed tasks.schema.json
var tasksSchemaJSON []byte

var tasksSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(tasksSchemaURL, bytes.NewReader(tasksSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(tasksSchemaURL)
})

// FileRepository stores tasks as a JSON array in a single file.
//
// Every mutation rewrites the whole file under an exclusive lock. A missing,
// empty, or corrupt file reads as an empty task list.
type FileRepository struct {
	path   string
	logger *zap.Logger
}

// FileOptions configures a FileRepository.
type FileOptions struct {
	// Logger receives warnings about unreadable task files. If nil, logs are discarded.
	Logger *zap.Logger
}

// NewFileRepository returns a repository backed by the file at path.
// The file is created on first write.
func NewFileRepository(path string, opts FileOptions) *FileRepository {
	if path == "" {
		path = DefaultFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRepository{path: path, logger: logger}
}

// Path returns the backing file path.
func (r *FileRepository) Path() string {
	return r.path
}

// Create stores t, replacing any task with the same ID.
func (r *FileRepository) Create(t Task) (int, error) {
	if err := ValidateTask(t); err != nil {
		return 0, err
	}
	_, err := r.modify(func(tasks []Task) ([]Task, bool, error) {
		for i := range tasks {
			if tasks[i].ID == t.ID {
				tasks[i] = t.Clone()
				return tasks, true, nil
			}
		}
		return append(tasks, t.Clone()), true, nil
	})
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Get returns the task with the given ID, including deleted tasks.
func (r *FileRepository) Get(id int) (Task, error) {
	tasks, err := r.read()
	if err != nil {
		return Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
}

// All returns every non-deleted task ordered by ID.
func (r *FileRepository) All() ([]Task, error) {
	return r.Search(Query{})
}

// Exists reports whether the ID is known.
func (r *FileRepository) Exists(id int) (bool, error) {
	tasks, err := r.read()
	if err != nil {
		return false, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Update applies a partial update.
func (r *FileRepository) Update(id int, patch Patch) (bool, error) {
	return r.modifyTask(id, func(t Task) (Task, bool, error) {
		updated, err := patch.Apply(t)
		if err != nil {
			return Task{}, false, err
		}
		return updated, true, nil
	})
}

// Delete marks the task as deleted.
func (r *FileRepository) Delete(id int) (bool, error) {
	return r.modifyTask(id, func(t Task) (Task, bool, error) {
		t.Deleted = true
		return t, true, nil
	})
}

// Restore clears the deleted flag of a deleted task.
func (r *FileRepository) Restore(id int) (bool, error) {
	return r.modifyTask(id, func(t Task) (Task, bool, error) {
		if !t.Deleted {
			return t, false, nil
		}
		t.Deleted = false
		return t, true, nil
	})
}

// Search returns the non-deleted tasks matching q.
func (r *FileRepository) Search(q Query) ([]Task, error) {
	tasks, err := r.read()
	if err != nil {
		return nil, err
	}
	sortByID(tasks)
	return q.Filter(tasks), nil
}

// MaxID returns the highest stored ID, or 0 when empty.
func (r *FileRepository) MaxID() (int, error) {
	tasks, err := r.read()
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, t := range tasks {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest, nil
}

func (r *FileRepository) lockPath() string {
	return r.path + ".lock"
}

func (r *FileRepository) read() ([]Task, error) {
	var tasks []Task
	err := withFileLock(r.lockPath(), func() error {
		var err error
		tasks, err = r.load()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	return tasks, nil
}

// modifyTask rewrites the single task with the given ID. fn reports whether
// the change should be written.
func (r *FileRepository) modifyTask(id int, fn func(Task) (Task, bool, error)) (bool, error) {
	return r.modify(func(tasks []Task) ([]Task, bool, error) {
		for i := range tasks {
			if tasks[i].ID != id {
				continue
			}
			updated, ok, err := fn(tasks[i])
			if err != nil || !ok {
				return nil, false, err
			}
			tasks[i] = updated
			return tasks, true, nil
		}
		return nil, false, nil
	})
}

// modify performs a locked read-modify-write of the task file.
func (r *FileRepository) modify(fn func([]Task) ([]Task, bool, error)) (bool, error) {
	var changed bool
	err := withFileLock(r.lockPath(), func() error {
		tasks, err := r.load()
		if err != nil {
			return fmt.Errorf("read tasks: %w", err)
		}
		updated, ok, err := fn(tasks)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := writeTasks(r.path, updated); err != nil {
			return fmt.Errorf("write tasks: %w", err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// load reads the task file. Only I/O failures are returned; unreadable
// content is logged and treated as an empty list.
func (r *FileRepository) load() ([]Task, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	tasks, err := decodeTasks(data)
	if err != nil {
		r.logger.Warn("ignoring corrupt task file",
			zap.String("path", r.path),
			zap.Error(err),
		)
		return nil, nil
	}
	return tasks, nil
}

func decodeTasks(data []byte) ([]Task, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	schema, err := tasksSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var records []taskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]Task, 0, len(records))
	for _, rec := range records {
		t, err := rec.task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func encodeTasks(tasks []Task) ([]byte, error) {
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, newTaskRecord(t))
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTasks(path string, tasks []Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// withFileLock runs fn while holding an exclusive flock on path.
func withFileLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open file for locking: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fluxobpm/fluxo/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS processes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		bpmn_xml TEXT,
		forms_json TEXT NOT NULL DEFAULT '{}',
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS instances (
		id TEXT PRIMARY KEY,
		process_id TEXT NOT NULL,
		process_name TEXT NOT NULL,
		current_node_id TEXT NOT NULL,
		status TEXT NOT NULL,
		data_json TEXT NOT NULL DEFAULT '{}',
		started_by TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		completed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_instances_process ON instances(process_id);

	CREATE TABLE IF NOT EXISTS conversations (
		user_id TEXT PRIMARY KEY,
		messages_json TEXT NOT NULL DEFAULT '[]',
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, email, role, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Email, &user.Role, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, email, role, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		email = excluded.email,
		role = excluded.role,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Email, string(user.Role),
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// DeleteUser removes a user record.
func (s *SQLiteStore) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// GetProcess retrieves a process definition by id.
func (s *SQLiteStore) GetProcess(ctx context.Context, id string) (*domain.ProcessDefinition, error) {
	query := `
		SELECT id, name, description, bpmn_xml, forms_json, created_by, created_at
		FROM processes WHERE id = ?`

	def, err := scanProcess(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

// ListProcesses returns all saved definitions ordered by creation time.
func (s *SQLiteStore) ListProcesses(ctx context.Context) ([]*domain.ProcessDefinition, error) {
	query := `
		SELECT id, name, description, bpmn_xml, forms_json, created_by, created_at
		FROM processes ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer closeRows(rows, "processes")

	var defs []*domain.ProcessDefinition
	for rows.Next() {
		def, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}
	return defs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*domain.ProcessDefinition, error) {
	var def domain.ProcessDefinition
	var diagramXML sql.NullString
	var formsJSON string
	var createdAt int64

	err := row.Scan(&def.ID, &def.Name, &def.Description, &diagramXML, &formsJSON, &def.CreatedBy, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan process row: %w", err)
	}

	def.DiagramXML = diagramXML.String
	def.CreatedAt = time.Unix(createdAt, 0)
	def.Forms = map[string][]domain.FormField{}
	if formsJSON != "" {
		if err := json.Unmarshal([]byte(formsJSON), &def.Forms); err != nil {
			return nil, fmt.Errorf("decode forms json: %w", err)
		}
	}
	return &def, nil
}

// UpsertProcess creates or replaces a definition by id.
func (s *SQLiteStore) UpsertProcess(ctx context.Context, def *domain.ProcessDefinition) error {
	forms := def.Forms
	if forms == nil {
		forms = map[string][]domain.FormField{}
	}
	formsJSON, err := json.Marshal(forms)
	if err != nil {
		return fmt.Errorf("encode forms json: %w", err)
	}

	var diagramXML any
	if def.DiagramXML != "" {
		diagramXML = def.DiagramXML
	}

	query := `
	INSERT INTO processes (id, name, description, bpmn_xml, forms_json, created_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		bpmn_xml = excluded.bpmn_xml,
		forms_json = excluded.forms_json,
		created_by = excluded.created_by`

	_, err = s.db.ExecContext(ctx, query,
		def.ID, def.Name, def.Description, diagramXML,
		string(formsJSON), def.CreatedBy, def.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert process: %w", err)
	}
	return nil
}

// DeleteProcess removes a definition. Instances referencing it are untouched.
func (s *SQLiteStore) DeleteProcess(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	return nil
}

// GetInstance retrieves a process instance by id.
func (s *SQLiteStore) GetInstance(ctx context.Context, id string) (*domain.ProcessInstance, error) {
	query := `
		SELECT id, process_id, process_name, current_node_id, status,
		       data_json, started_by, started_at, completed_at
		FROM instances WHERE id = ?`

	inst, err := scanInstance(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// ListInstances returns all instances ordered by start time.
func (s *SQLiteStore) ListInstances(ctx context.Context) ([]*domain.ProcessInstance, error) {
	query := `
		SELECT id, process_id, process_name, current_node_id, status,
		       data_json, started_by, started_at, completed_at
		FROM instances ORDER BY started_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer closeRows(rows, "instances")

	var insts []*domain.ProcessInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return insts, nil
}

func scanInstance(row rowScanner) (*domain.ProcessInstance, error) {
	var inst domain.ProcessInstance
	var dataJSON string
	var startedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&inst.ID, &inst.ProcessID, &inst.ProcessName, &inst.CurrentNodeID,
		&inst.Status, &dataJSON, &inst.StartedBy, &startedAt, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan instance row: %w", err)
	}

	inst.StartedAt = time.Unix(startedAt, 0)
	if completedAt.Valid {
		ts := time.Unix(completedAt.Int64, 0)
		inst.CompletedAt = &ts
	}
	inst.Data = map[string]any{}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &inst.Data); err != nil {
			return nil, fmt.Errorf("decode instance data json: %w", err)
		}
	}
	return &inst, nil
}

// InsertInstance stores a newly started instance.
func (s *SQLiteStore) InsertInstance(ctx context.Context, inst *domain.ProcessInstance) error {
	dataJSON, err := encodeInstanceData(inst)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO instances (id, process_id, process_name, current_node_id, status,
		data_json, started_by, started_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		inst.ID, inst.ProcessID, inst.ProcessName, inst.CurrentNodeID,
		string(inst.Status), dataJSON, inst.StartedBy,
		inst.StartedAt.Unix(), completedAtValue(inst),
	)
	if err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}
	return nil
}

// UpdateInstance replaces a stored instance.
func (s *SQLiteStore) UpdateInstance(ctx context.Context, inst *domain.ProcessInstance) error {
	dataJSON, err := encodeInstanceData(inst)
	if err != nil {
		return err
	}

	query := `
	UPDATE instances SET process_name = ?, current_node_id = ?, status = ?,
		data_json = ?, completed_at = ?
	WHERE id = ?`

	var result sql.Result
	err = withConflictRetry(ctx, func() error {
		var execErr error
		result, execErr = s.db.ExecContext(ctx, query,
			inst.ProcessName, inst.CurrentNodeID, string(inst.Status),
			dataJSON, completedAtValue(inst), inst.ID,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeInstanceData(inst *domain.ProcessInstance) (string, error) {
	data := inst.Data
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode instance data json: %w", err)
	}
	return string(b), nil
}

func completedAtValue(inst *domain.ProcessInstance) any {
	if inst.CompletedAt != nil {
		return inst.CompletedAt.Unix()
	}
	return nil
}

// GetConversation retrieves the chat snapshot for a user.
func (s *SQLiteStore) GetConversation(ctx context.Context, userID string) (*domain.Conversation, error) {
	query := `SELECT user_id, messages_json FROM conversations WHERE user_id = ?`

	var conv domain.Conversation
	var messagesJSON string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&conv.UserID, &messagesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}

	if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
		return nil, fmt.Errorf("decode conversation messages json: %w", err)
	}
	return &conv, nil
}

// UpsertConversation persists the chat snapshot for a user.
func (s *SQLiteStore) UpsertConversation(ctx context.Context, conv *domain.Conversation) error {
	messages := conv.Messages
	if messages == nil {
		messages = []domain.Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode conversation messages json: %w", err)
	}

	query := `
	INSERT INTO conversations (user_id, messages_json, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		messages_json = excluded.messages_json,
		updated_at = excluded.updated_at`

	err = withConflictRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query, conv.UserID, string(messagesJSON), time.Now().Unix())
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// DeleteConversation removes the chat snapshot for a user.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "table", what, "error", err)
	}
}

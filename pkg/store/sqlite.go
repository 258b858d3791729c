package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode and foreign keys, and runs any pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Begin opens a transaction for one integration run.
func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &sqliteTx{tx: tx}, nil
}

// GetUserByID returns the user with the given id, or nil when absent.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return getUserByID(ctx, s.db, id)
}

// GetProjectByProviderID returns the project integrated from the given
// provider project id, or nil when none exists.
func (s *SQLiteStore) GetProjectByProviderID(ctx context.Context, providerProjectID string) (*Project, error) {
	return getProjectByProviderID(ctx, s.db, providerProjectID)
}

// CreateUser inserts a local user account. Exposed for provisioning
// and tests; integration itself never creates full accounts.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// sqliteTx implements Tx over one sqlx transaction.
type sqliteTx struct {
	tx *sqlx.Tx
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO projects (id, provider_project_id, name, logo_url, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		project.ID, project.ProviderProjectID, project.Name, project.LogoURL, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetProjectByProviderID(ctx context.Context, providerProjectID string) (*Project, error) {
	return getProjectByProviderID(ctx, t.tx, providerProjectID)
}

func (t *sqliteTx) GetUserByID(ctx context.Context, id string) (*User, error) {
	return getUserByID(ctx, t.tx, id)
}

func (t *sqliteTx) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := t.tx.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &user, nil
}

func (t *sqliteTx) CreatePendingUser(ctx context.Context, pending *PendingUser) error {
	if pending.ID == "" {
		pending.ID = uuid.NewString()
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO pending_users (id, project_id, email, name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		pending.ID, pending.ProjectID, pending.Email, pending.Name, pending.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating pending user: %w", err)
	}
	return nil
}

func (t *sqliteTx) CreateUserProjectRole(ctx context.Context, role *UserProjectRole) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.Role == "" {
		role.Role = "member"
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO user_project_roles (id, user_id, project_id, role, emitter_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.UserID, role.ProjectID, role.Role, role.EmitterID, role.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user project role: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetOrCreateStage(ctx context.Context, name string) (*Stage, error) {
	var stage Stage
	err := t.tx.GetContext(ctx, &stage, `SELECT * FROM stages WHERE name = ?`, name)
	if err == nil {
		return &stage, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting stage: %w", err)
	}

	stage = Stage{ID: uuid.NewString(), Name: name}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO stages (id, name) VALUES (?, ?)`, stage.ID, stage.Name); err != nil {
		return nil, fmt.Errorf("creating stage: %w", err)
	}
	return &stage, nil
}

func (t *sqliteTx) CreateProjectStage(ctx context.Context, projectStage *ProjectStage) error {
	if projectStage.ID == "" {
		projectStage.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO project_stages (id, project_id, stage_id, category)
		 VALUES (?, ?, ?, ?)`,
		projectStage.ID, projectStage.ProjectID, projectStage.StageID, projectStage.Category)
	if err != nil {
		return fmt.Errorf("creating project stage: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetOrCreateLabel(ctx context.Context, name string) (*Label, error) {
	var label Label
	err := t.tx.GetContext(ctx, &label, `SELECT * FROM labels WHERE name = ?`, name)
	if err == nil {
		return &label, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting label: %w", err)
	}

	label = Label{ID: uuid.NewString(), Name: name}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO labels (id, name) VALUES (?, ?)`, label.ID, label.Name); err != nil {
		return nil, fmt.Errorf("creating label: %w", err)
	}
	return &label, nil
}

func (t *sqliteTx) CreateIssueLabel(ctx context.Context, issueLabel *IssueLabel) error {
	if issueLabel.ID == "" {
		issueLabel.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO issue_labels (id, issue_id, label_id) VALUES (?, ?, ?)`,
		issueLabel.ID, issueLabel.IssueID, issueLabel.LabelID)
	if err != nil {
		return fmt.Errorf("creating issue label: %w", err)
	}
	return nil
}

func (t *sqliteTx) IssueExistsByProviderID(ctx context.Context, providerIssueID string) (bool, error) {
	var count int
	err := t.tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM issues WHERE provider_issue_id = ?`, providerIssueID)
	if err != nil {
		return false, fmt.Errorf("checking issue existence: %w", err)
	}
	return count > 0, nil
}

func (t *sqliteTx) CreateIssue(ctx context.Context, issue *Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO issues (id, provider_issue_id, project_id, identifier, title, description,
		                     priority, story_points, project_stage_id, author_id, assignee_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.ProviderIssueID, issue.ProjectID, issue.Identifier, issue.Title,
		issue.Description, issue.Priority, issue.StoryPoints, issue.ProjectStageID,
		issue.AuthorID, issue.AssigneeID, issue.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating issue: %w", err)
	}
	return nil
}

func (t *sqliteTx) CreateIssueChangeLog(ctx context.Context, entry *IssueChangeLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO issue_change_logs (id, issue_id, provider_event_id, field, from_value,
		                                to_value, emitter_email, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.IssueID, entry.ProviderEventID, entry.Field, entry.FromValue,
		entry.ToValue, entry.EmitterEmail, entry.Seq, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating issue change log: %w", err)
	}
	return nil
}

func (t *sqliteTx) CreateBlockerStatusModification(ctx context.Context, entry *BlockerStatusModification) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO blocker_status_modifications (id, issue_id, provider_event_id, block_type,
		                                           reason, comment, emitter_email, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.IssueID, entry.ProviderEventID, entry.BlockType, entry.Reason,
		entry.Comment, entry.EmitterEmail, entry.Seq, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating blocker status modification: %w", err)
	}
	return nil
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func getUserByID(ctx context.Context, q queryer, id string) (*User, error) {
	var user User
	err := q.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

func getProjectByProviderID(ctx context.Context, q queryer, providerProjectID string) (*Project, error) {
	var project Project
	err := q.GetContext(ctx, &project, `SELECT * FROM projects WHERE provider_project_id = ?`, providerProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting project by provider id: %w", err)
	}
	return &project, nil
}

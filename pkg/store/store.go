// Package store provides the persistence layer: narrow repository-style
// interfaces over a relational database with transaction support. The
// integration service drives all writes through a single Tx; no caller
// depends on query features beyond create, find-by-unique-key, and
// transaction.
package store

import "context"

// Store is the read-side entry point and transaction factory.
type Store interface {
	// Begin opens a transaction covering one integration run.
	Begin(ctx context.Context) (Tx, error)

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetProjectByProviderID(ctx context.Context, providerProjectID string) (*Project, error)

	Close() error
}

// Tx is the write-side boundary. Creates assign row IDs when the given
// struct carries none. Get* return (nil, nil) when no row matches.
type Tx interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProjectByProviderID(ctx context.Context, providerProjectID string) (*Project, error)

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreatePendingUser(ctx context.Context, pending *PendingUser) error
	CreateUserProjectRole(ctx context.Context, role *UserProjectRole) error

	GetOrCreateStage(ctx context.Context, name string) (*Stage, error)
	CreateProjectStage(ctx context.Context, projectStage *ProjectStage) error

	GetOrCreateLabel(ctx context.Context, name string) (*Label, error)
	CreateIssueLabel(ctx context.Context, issueLabel *IssueLabel) error

	IssueExistsByProviderID(ctx context.Context, providerIssueID string) (bool, error)
	CreateIssue(ctx context.Context, issue *Issue) error

	CreateIssueChangeLog(ctx context.Context, entry *IssueChangeLog) error
	CreateBlockerStatusModification(ctx context.Context, entry *BlockerStatusModification) error

	Commit() error
	Rollback() error
}

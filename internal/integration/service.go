// Package integration implements the project-integration service: the
// one-shot, idempotent import of a provider project (members, stages,
// labels, issues, history) into local storage.
//
// A run moves through the states REQUESTED -> VALIDATED -> TRANSACTING
// -> COMMITTED. Validation failures terminate as NotFound or Conflict,
// adapter failures as a provider error, and any storage failure inside
// the transaction rolls everything back: there are no partial imports.
package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/apexboard/linear-integration/pkg/adapter"
	"github.com/apexboard/linear-integration/pkg/audit"
	"github.com/apexboard/linear-integration/pkg/canonical"
	"github.com/apexboard/linear-integration/pkg/metrics"
	"github.com/apexboard/linear-integration/pkg/secrets"
	"github.com/apexboard/linear-integration/pkg/snapshot"
	"github.com/apexboard/linear-integration/pkg/store"
)

// IntegrateRequest triggers one project integration.
type IntegrateRequest struct {
	ProviderProjectID string
	RequestingUserID  string

	// MemberEmails optionally restricts which provider members are
	// integrated; empty means all.
	MemberEmails []string
}

// ProjectDTO is the created project returned on a committed run.
type ProjectDTO struct {
	ID                string    `json:"id"`
	ProviderProjectID string    `json:"provider_project_id"`
	Name              string    `json:"name"`
	LogoURL           string    `json:"logo_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Service orchestrates project integrations.
type Service struct {
	store     store.Store
	adapter   adapter.Adapter
	decryptor *secrets.Decryptor

	// encryptedAPIKey is the provider credential as configured, opened
	// only when a plaintext key must be handed to the adapter.
	encryptedAPIKey string

	// snapshots and trail are optional; nil disables the audit trail.
	snapshots   snapshot.Writer
	trail       audit.Trail
	snapshotDir string

	metrics *metrics.Metrics
	logger  logr.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithAuditTrail enables post-commit YAML snapshots and git audit
// commits under dir.
func WithAuditTrail(writer snapshot.Writer, trail audit.Trail, dir string) Option {
	return func(s *Service) {
		s.snapshots = writer
		s.trail = trail
		s.snapshotDir = dir
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates the integration service.
func NewService(st store.Store, ad adapter.Adapter, decryptor *secrets.Decryptor, encryptedAPIKey string, logger logr.Logger, opts ...Option) *Service {
	s := &Service{
		store:           st,
		adapter:         ad,
		decryptor:       decryptor,
		encryptedAPIKey: encryptedAPIKey,
		logger:          logger.WithName("integration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProviderProjects returns pre-integration summaries of every
// provider project visible to the configured credential.
func (s *Service) ListProviderProjects(ctx context.Context) ([]canonical.ProjectSummary, error) {
	apiKey, err := s.decryptor.Decrypt(s.encryptedAPIKey)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to decrypt provider credential", Err: err}
	}

	summaries, err := s.adapter.GetAndAdaptProjects(ctx, apiKey)
	if err != nil {
		return nil, s.mapAdapterError(err)
	}
	return summaries, nil
}

// ListProjectMembers returns the members of one provider project.
func (s *Service) ListProjectMembers(ctx context.Context, providerProjectID string) ([]canonical.ProjectMember, error) {
	apiKey, err := s.decryptor.Decrypt(s.encryptedAPIKey)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to decrypt provider credential", Err: err}
	}

	members, err := s.adapter.GetMembersByProjectID(ctx, providerProjectID, apiKey)
	if err != nil {
		return nil, s.mapAdapterError(err)
	}
	return members, nil
}

// IntegrateProject performs one full project integration. It is
// idempotent at the project level: a second run for the same provider
// project id fails with Conflict and writes nothing.
func (s *Service) IntegrateProject(ctx context.Context, req IntegrateRequest) (*ProjectDTO, error) {
	start := time.Now()
	log := s.logger.WithValues("provider_project_id", req.ProviderProjectID, "user_id", req.RequestingUserID)
	log.Info("integration requested")

	dto, err := s.integrate(ctx, req, log)

	if s.metrics != nil {
		s.metrics.IntegrationDuration.Observe(time.Since(start).Seconds())
		s.metrics.IntegrationsTotal.WithLabelValues(s.resultLabel(err)).Inc()
	}

	if err != nil {
		log.Error(err, "integration failed", "duration", time.Since(start))
		return nil, err
	}
	log.Info("integration committed", "project_id", dto.ID, "duration", time.Since(start))
	return dto, nil
}

func (s *Service) integrate(ctx context.Context, req IntegrateRequest, log logr.Logger) (*ProjectDTO, error) {
	// REQUESTED -> VALIDATED
	user, err := s.store.GetUserByID(ctx, req.RequestingUserID)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to look up requesting user", Err: err}
	}
	if user == nil {
		return nil, NotFoundError("requesting user does not exist")
	}

	existing, err := s.store.GetProjectByProviderID(ctx, req.ProviderProjectID)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to look up existing project", Err: err}
	}
	if existing != nil {
		if existing.DeletedAt != nil {
			return nil, ConflictError("project was integrated before and is inactive; reactivate it instead")
		}
		return nil, ConflictError("project is already integrated")
	}
	log.V(1).Info("integration validated")

	data, err := s.adapter.AdaptProjectData(ctx, adapter.AdaptInput{
		ProviderProjectID: req.ProviderProjectID,
		EncryptedAPIKey:   s.encryptedAPIKey,
		ManagerEmail:      user.Email,
		MemberEmails:      req.MemberEmails,
	})
	if err != nil {
		return nil, s.mapAdapterError(err)
	}

	// VALIDATED -> TRANSACTING
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "failed to open transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	project := &store.Project{
		ProviderProjectID: data.ProviderProjectID,
		Name:              data.Name,
		LogoURL:           data.LogoURL,
	}
	if err := tx.CreateProject(ctx, project); err != nil {
		return nil, mapStorageError("failed to create project", err)
	}

	if err := s.integrateMembers(ctx, tx, project.ID, user.ID, data.Members); err != nil {
		return nil, err
	}

	stageIDByName, err := s.integrateStages(ctx, tx, project.ID, data.Stages)
	if err != nil {
		return nil, err
	}

	labelIDByName, err := s.integrateLabels(ctx, tx, data.Labels)
	if err != nil {
		return nil, err
	}

	issueCount, eventCount, err := s.integrateIssues(ctx, tx, project.ID, data.Issues, stageIDByName, labelIDByName)
	if err != nil {
		return nil, err
	}

	// TRANSACTING -> COMMITTED
	if err := tx.Commit(); err != nil {
		return nil, mapStorageError("failed to commit integration", err)
	}

	if s.metrics != nil {
		s.metrics.IssuesIntegrated.Add(float64(issueCount))
		s.metrics.EventsPersisted.Add(float64(eventCount))
	}

	s.recordAuditTrail(data, log)

	return &ProjectDTO{
		ID:                project.ID,
		ProviderProjectID: project.ProviderProjectID,
		Name:              project.Name,
		LogoURL:           project.LogoURL,
		CreatedAt:         project.CreatedAt,
	}, nil
}

// integrateMembers resolves each provider member by email. Unknown
// emails become pending users scoped to the project; known ones get a
// role assignment emitted by the requester.
func (s *Service) integrateMembers(ctx context.Context, tx store.Tx, projectID, requesterID string, members []canonical.ProjectMember) error {
	for _, member := range members {
		local, err := tx.GetUserByEmail(ctx, member.Email)
		if err != nil {
			return mapStorageError("failed to resolve member email", err)
		}

		if local == nil {
			err = tx.CreatePendingUser(ctx, &store.PendingUser{
				ProjectID: projectID,
				Email:     member.Email,
				Name:      member.Name,
			})
			if err != nil {
				return mapStorageError("failed to create pending user", err)
			}
			continue
		}

		err = tx.CreateUserProjectRole(ctx, &store.UserProjectRole{
			UserID:    local.ID,
			ProjectID: projectID,
			EmitterID: requesterID,
		})
		if err != nil {
			return mapStorageError("failed to assign project role", err)
		}
	}
	return nil
}

// integrateStages creates stage rows and project-stage associations,
// returning the project-stage id per stage name for issue resolution.
func (s *Service) integrateStages(ctx context.Context, tx store.Tx, projectID string, stages []canonical.Stage) (map[string]string, error) {
	stageIDByName := make(map[string]string, len(stages))
	for _, stage := range stages {
		row, err := tx.GetOrCreateStage(ctx, stage.Name)
		if err != nil {
			return nil, mapStorageError("failed to get or create stage", err)
		}

		projectStage := &store.ProjectStage{
			ProjectID: projectID,
			StageID:   row.ID,
			Category:  string(stage.Category),
		}
		if err := tx.CreateProjectStage(ctx, projectStage); err != nil {
			return nil, mapStorageError("failed to create project stage", err)
		}
		stageIDByName[stage.Name] = projectStage.ID
	}
	return stageIDByName, nil
}

func (s *Service) integrateLabels(ctx context.Context, tx store.Tx, labels []string) (map[string]string, error) {
	labelIDByName := make(map[string]string, len(labels))
	for _, name := range labels {
		row, err := tx.GetOrCreateLabel(ctx, name)
		if err != nil {
			return nil, mapStorageError("failed to get or create label", err)
		}
		labelIDByName[name] = row.ID
	}
	return labelIDByName, nil
}

// integrateIssues writes new issues and their ordered event history.
// Issues whose provider id already exists locally are skipped, which
// keeps re-runs from duplicating rows.
func (s *Service) integrateIssues(ctx context.Context, tx store.Tx, projectID string, issues []canonical.IssueData, stageIDByName, labelIDByName map[string]string) (int, int, error) {
	issueCount := 0
	eventCount := 0

	for _, issue := range issues {
		exists, err := tx.IssueExistsByProviderID(ctx, issue.ProviderIssueID)
		if err != nil {
			return 0, 0, mapStorageError("failed to check issue existence", err)
		}
		if exists {
			s.logger.V(1).Info("skipping already-integrated issue", "identifier", issue.Identifier)
			continue
		}

		row := &store.Issue{
			ProviderIssueID: issue.ProviderIssueID,
			ProjectID:       projectID,
			Identifier:      issue.Identifier,
			Title:           issue.Title,
			Description:     issue.Description,
			Priority:        int(issue.Priority),
			StoryPoints:     issue.StoryPoints,
		}

		if issue.AuthorEmail != nil {
			if author, err := tx.GetUserByEmail(ctx, *issue.AuthorEmail); err != nil {
				return 0, 0, mapStorageError("failed to resolve issue author", err)
			} else if author != nil {
				row.AuthorID = &author.ID
			}
		}
		if issue.AssigneeEmail != nil {
			if assignee, err := tx.GetUserByEmail(ctx, *issue.AssigneeEmail); err != nil {
				return 0, 0, mapStorageError("failed to resolve issue assignee", err)
			} else if assignee != nil {
				row.AssigneeID = &assignee.ID
			}
		}
		if issue.StageName != nil {
			if stageID, ok := stageIDByName[*issue.StageName]; ok {
				row.ProjectStageID = &stageID
			}
		}

		if err := tx.CreateIssue(ctx, row); err != nil {
			return 0, 0, mapStorageError("failed to create issue", err)
		}
		issueCount++

		for _, name := range issue.Labels {
			labelID, ok := labelIDByName[name]
			if !ok {
				label, err := tx.GetOrCreateLabel(ctx, name)
				if err != nil {
					return 0, 0, mapStorageError("failed to get or create issue label", err)
				}
				labelID = label.ID
				labelIDByName[name] = labelID
			}
			err := tx.CreateIssueLabel(ctx, &store.IssueLabel{
				IssueID: row.ID,
				LabelID: labelID,
			})
			if err != nil {
				return 0, 0, mapStorageError("failed to attach issue label", err)
			}
		}

		persisted, err := s.persistEvents(ctx, tx, row.ID, issue.Events)
		if err != nil {
			return 0, 0, err
		}
		eventCount += persisted
	}

	return issueCount, eventCount, nil
}

// persistEvents writes the normalized history in order. The event union
// is closed; an unknown variant is a programming error and aborts the
// transaction.
func (s *Service) persistEvents(ctx context.Context, tx store.Tx, issueID string, events []canonical.Event) (int, error) {
	for seq, event := range events {
		switch e := event.(type) {
		case canonical.ChangeScalarEvent:
			err := tx.CreateIssueChangeLog(ctx, &store.IssueChangeLog{
				IssueID:         issueID,
				ProviderEventID: e.ProviderEventID,
				Field:           string(e.Field),
				FromValue:       e.From,
				ToValue:         e.To,
				EmitterEmail:    e.EmitterEmail,
				Seq:             seq,
				CreatedAt:       e.CreatedAt,
			})
			if err != nil {
				return 0, mapStorageError("failed to persist change event", err)
			}
		case canonical.BlockEvent:
			err := tx.CreateBlockerStatusModification(ctx, &store.BlockerStatusModification{
				IssueID:         issueID,
				ProviderEventID: e.ProviderEventID,
				BlockType:       string(e.Relation),
				Reason:          e.Reason,
				Comment:         e.Comment,
				EmitterEmail:    e.EmitterEmail,
				Seq:             seq,
				CreatedAt:       e.CreatedAt,
			})
			if err != nil {
				return 0, mapStorageError("failed to persist block event", err)
			}
		default:
			return 0, &Error{Kind: KindInternal, Message: "unknown canonical event variant"}
		}
	}
	return len(events), nil
}

// recordAuditTrail writes the post-commit snapshot and git commit.
// Failures here are logged and swallowed: the integration is already
// committed.
func (s *Service) recordAuditTrail(data *canonical.ProjectData, log logr.Logger) {
	if s.snapshots == nil || s.trail == nil || s.snapshotDir == "" {
		return
	}

	path, err := s.snapshots.WriteProjectSnapshot(data, s.snapshotDir)
	if err != nil {
		log.Error(err, "failed to write integration snapshot")
		return
	}
	if err := s.trail.CommitSnapshot(s.snapshotDir, path, data.Name, data.ProviderProjectID); err != nil {
		log.Error(err, "failed to commit integration snapshot")
	}
}

// mapAdapterError classifies adapter failures: manager-membership
// conflicts stay conflicts, provider failures pass through unchanged in
// content, everything else is internal.
func (s *Service) mapAdapterError(err error) error {
	if errors.Is(err, adapter.ErrManagerNotMember) {
		return ConflictError("requesting user's email is not in the provider member list")
	}

	var perr *adapter.ProviderError
	if errors.As(err, &perr) {
		return &Error{Kind: KindProvider, Message: perr.Message, Err: perr}
	}

	return &Error{Kind: KindInternal, Message: "project adaptation failed", Err: err}
}

// mapStorageError classifies storage failures. Unique-constraint
// violations surface as Conflict: they are how a concurrent run of the
// same project loses the race.
func mapStorageError(message string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint") {
		return &Error{Kind: KindConflict, Message: message + ": already integrated", Err: err}
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

func (s *Service) resultLabel(err error) string {
	if err == nil {
		return "committed"
	}
	return string(KindOf(err))
}

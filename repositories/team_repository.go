package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamNameConflict     = errors.New("team name conflict for this event")
	ErrTeamEventInvalid     = errors.New("team event invalid")
	ErrTeamMemberNotFound   = errors.New("team member not found")
	ErrTeamMemberConflict   = errors.New("profile is already a member of this team")
	ErrTeamMemberFKInvalid  = errors.New("team member references unknown team or profile")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int) error

	AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, profileID int) error
	GetMember(ctx context.Context, teamID, profileID int) (*models.TeamMember, error)
	ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error)
	CountMembers(ctx context.Context, teamID int) (int, error)
	// FindMembershipByEvent ищет членство профиля в любой команде события.
	FindMembershipByEvent(ctx context.Context, eventID, profileID int) (*models.TeamMember, error)
	Count(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (event_id, name, description, max_members, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		team.EventID,
		team.Name,
		team.Description,
		team.MaxMembers,
		team.IsPublic,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "teams_event_id_name_key" {
					return ErrTeamNameConflict
				}
			case "23503":
				if pqErr.Constraint == "teams_event_id_fkey" {
					return ErrTeamEventInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, event_id, name, description, max_members, is_public, created_at, updated_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.EventID,
		&team.Name,
		&team.Description,
		&team.MaxMembers,
		&team.IsPublic,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := r.ListMembers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	team.Members = members

	return team, nil
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]models.Team, error) {
	query := `
		SELECT id, event_id, name, description, max_members, is_public, created_at, updated_at
		FROM teams
		WHERE event_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		scanErr := rows.Scan(
			&t.ID,
			&t.EventID,
			&t.Name,
			&t.Description,
			&t.MaxMembers,
			&t.IsPublic,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			description = $2,
			max_members = $3,
			is_public = $4,
			updated_at = NOW()
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		team.Name,
		team.Description,
		team.MaxMembers,
		team.IsPublic,
		team.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_event_id_name_key" {
				return ErrTeamNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, profile_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		member.TeamID,
		member.ProfileID,
		member.Role,
	).Scan(&member.ID, &member.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "team_members_team_id_profile_id_key" {
					return ErrTeamMemberConflict
				}
			case "23503":
				return ErrTeamMemberFKInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, profileID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND profile_id = $2`, teamID, profileID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}

func (r *postgresTeamRepository) GetMember(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
	query := `
		SELECT id, team_id, profile_id, role, joined_at
		FROM team_members
		WHERE team_id = $1 AND profile_id = $2`

	member := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx, query, teamID, profileID).Scan(
		&member.ID,
		&member.TeamID,
		&member.ProfileID,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT
			tm.id, tm.team_id, tm.profile_id, tm.role, tm.joined_at,
			p.first_name, p.last_name, p.email, p.avatar_url
		FROM team_members tm
		JOIN profiles p ON tm.profile_id = p.id
		WHERE tm.team_id = $1
		ORDER BY tm.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		var p models.Profile
		scanErr := rows.Scan(
			&m.ID,
			&m.TeamID,
			&m.ProfileID,
			&m.Role,
			&m.JoinedAt,
			&p.FirstName,
			&p.LastName,
			&p.Email,
			&p.AvatarURL,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		p.ID = m.ProfileID
		m.Profile = &p
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) CountMembers(ctx context.Context, teamID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID).Scan(&count)
	return count, err
}

func (r *postgresTeamRepository) FindMembershipByEvent(ctx context.Context, eventID, profileID int) (*models.TeamMember, error) {
	query := `
		SELECT tm.id, tm.team_id, tm.profile_id, tm.role, tm.joined_at
		FROM team_members tm
		JOIN teams t ON tm.team_id = t.id
		WHERE t.event_id = $1 AND tm.profile_id = $2`

	member := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx, query, eventID, profileID).Scan(
		&member.ID,
		&member.TeamID,
		&member.ProfileID,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count)
	return count, err
}

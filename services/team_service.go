package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
)

const defaultMaxTeamMembers = 5

type TeamService interface {
	Create(ctx context.Context, currentUserID int, input TeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Team, error)
	Update(ctx context.Context, currentUserID, teamID int, input TeamInput) (*models.Team, error)
	Join(ctx context.Context, currentUserID, teamID int) error
	Leave(ctx context.Context, currentUserID, teamID int) error
	RemoveMember(ctx context.Context, currentUserID, teamID, memberProfileID int) error
	Delete(ctx context.Context, currentUserID, teamID int) error
}

type TeamInput struct {
	EventID     int      `json:"event_id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	MaxMembers  int      `json:"max_members"`
	IsPublic    bool     `json:"is_public"`
	Categories  []string `json:"categories,omitempty"`
}

type teamService struct {
	tx           txRunner
	teamRepo     repositories.TeamRepository
	eventRepo    repositories.EventRepository
	categoryRepo repositories.CategoryRepository
	logger       *slog.Logger
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	eventRepo repositories.EventRepository,
	categoryRepo repositories.CategoryRepository,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		tx:           sqlTxRunner{db: db},
		teamRepo:     teamRepo,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// Create создаёт команду, запись лидера и связи с категориями в одной
// транзакции: частичный успех здесь невозможен.
func (s *teamService) Create(ctx context.Context, currentUserID int, input TeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", input.EventID, err)
	}

	if _, err := s.teamRepo.FindMembershipByEvent(ctx, input.EventID, currentUserID); err == nil {
		return nil, ErrAlreadyInTeam
	} else if !errors.Is(err, repositories.ErrTeamMemberNotFound) {
		return nil, fmt.Errorf("failed to check existing membership: %w", err)
	}

	maxMembers := input.MaxMembers
	if maxMembers <= 0 {
		maxMembers = defaultMaxTeamMembers
	}
	if event.MaxTeamSize != nil && maxMembers > *event.MaxTeamSize {
		maxMembers = *event.MaxTeamSize
	}

	var categoryIDs []int
	if len(input.Categories) > 0 {
		resolved, err := s.categoryRepo.ResolveByNames(ctx, input.Categories)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve categories: %w", err)
		}
		for _, c := range resolved {
			categoryIDs = append(categoryIDs, c.ID)
		}
	}

	team := &models.Team{
		EventID:     input.EventID,
		Name:        input.Name,
		Description: input.Description,
		MaxMembers:  maxMembers,
		IsPublic:    input.IsPublic,
	}
	leader := &models.TeamMember{
		ProfileID: currentUserID,
		Role:      models.TeamRoleLeader,
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamNameConflict) {
				return ErrTeamNameConflict
			}
			return fmt.Errorf("failed to create team: %w", err)
		}

		leader.TeamID = team.ID
		if err := s.teamRepo.AddMember(ctx, exec, leader); err != nil {
			return fmt.Errorf("failed to add team leader: %w", err)
		}

		if len(categoryIDs) > 0 {
			if err := s.categoryRepo.AttachToTeam(ctx, exec, team.ID, categoryIDs); err != nil {
				return fmt.Errorf("failed to attach team categories: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	team.Members = []models.TeamMember{*leader}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	categories, err := s.categoryRepo.ListByTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load team categories: %w", err)
	}
	team.Categories = categories

	return team, nil
}

func (s *teamService) ListByEvent(ctx context.Context, eventID int) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}
	return teams, nil
}

func (s *teamService) Update(ctx context.Context, currentUserID, teamID int, input TeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}

	team, err := s.requireLeader(ctx, currentUserID, teamID)
	if err != nil {
		return nil, err
	}

	team.Name = input.Name
	team.Description = input.Description
	if input.MaxMembers > 0 {
		team.MaxMembers = input.MaxMembers
	}
	team.IsPublic = input.IsPublic

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) Join(ctx context.Context, currentUserID, teamID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if !team.IsPublic {
		return ErrTeamNotPublic
	}

	if _, err := s.teamRepo.FindMembershipByEvent(ctx, team.EventID, currentUserID); err == nil {
		return ErrAlreadyInTeam
	} else if !errors.Is(err, repositories.ErrTeamMemberNotFound) {
		return fmt.Errorf("failed to check existing membership: %w", err)
	}

	count, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to count team members: %w", err)
	}
	if count >= team.MaxMembers {
		return ErrTeamFull
	}

	member := &models.TeamMember{
		TeamID:    teamID,
		ProfileID: currentUserID,
		Role:      models.TeamRoleMember,
	}
	if err := s.teamRepo.AddMember(ctx, nil, member); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberConflict) {
			return ErrAlreadyInTeam
		}
		return fmt.Errorf("failed to join team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) Leave(ctx context.Context, currentUserID, teamID int) error {
	member, err := s.teamRepo.GetMember(ctx, teamID, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get membership: %w", err)
	}

	if member.Role == models.TeamRoleLeader {
		count, err := s.teamRepo.CountMembers(ctx, teamID)
		if err != nil {
			return fmt.Errorf("failed to count team members: %w", err)
		}
		if count > 1 {
			return ErrLeaderCannotLeave
		}
		// Лидер уходит последним — команда распускается.
		if err := s.teamRepo.Delete(ctx, teamID); err != nil {
			return fmt.Errorf("failed to delete empty team %d: %w", teamID, err)
		}
		return nil
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, currentUserID); err != nil {
		return fmt.Errorf("failed to leave team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) RemoveMember(ctx context.Context, currentUserID, teamID, memberProfileID int) error {
	if _, err := s.requireLeader(ctx, currentUserID, teamID); err != nil {
		return err
	}

	member, err := s.teamRepo.GetMember(ctx, teamID, memberProfileID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get membership: %w", err)
	}
	if member.Role == models.TeamRoleLeader {
		return ErrLeaderCannotBeRemoved
	}

	if err := s.teamRepo.RemoveMember(ctx, teamID, memberProfileID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func (s *teamService) Delete(ctx context.Context, currentUserID, teamID int) error {
	if _, err := s.requireLeader(ctx, currentUserID, teamID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}

func (s *teamService) requireLeader(ctx context.Context, currentUserID, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	member, err := s.teamRepo.GetMember(ctx, teamID, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return nil, ErrLeaderOnly
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if member.Role != models.TeamRoleLeader {
		return nil, ErrLeaderOnly
	}
	return team, nil
}

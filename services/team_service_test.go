package services

import (
	"context"
	"errors"
	"testing"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
)

func TestTeamCreatePreconditions(t *testing.T) {
	events := &mockEventRepo{
		GetByIDFn: func(ctx context.Context, id int) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventStatusPublished}, nil
		},
	}

	t.Run("empty name", func(t *testing.T) {
		svc := NewTeamService(nil, &mockTeamRepo{}, events, nil, testLogger())
		_, err := svc.Create(context.Background(), 1, TeamInput{EventID: 1, Name: "   "})
		if !errors.Is(err, ErrTeamNameRequired) {
			t.Fatalf("expected ErrTeamNameRequired, got %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		missing := &mockEventRepo{}
		svc := NewTeamService(nil, &mockTeamRepo{}, missing, nil, testLogger())
		_, err := svc.Create(context.Background(), 1, TeamInput{EventID: 99, Name: "Torchbearers"})
		if !errors.Is(err, ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("second team in same event", func(t *testing.T) {
		teams := &mockTeamRepo{
			FindMembershipByEventFn: func(ctx context.Context, eventID, profileID int) (*models.TeamMember, error) {
				return &models.TeamMember{TeamID: 5, ProfileID: profileID}, nil
			},
		}
		svc := NewTeamService(nil, teams, events, nil, testLogger())
		_, err := svc.Create(context.Background(), 1, TeamInput{EventID: 1, Name: "Torchbearers"})
		if !errors.Is(err, ErrAlreadyInTeam) {
			t.Fatalf("expected ErrAlreadyInTeam, got %v", err)
		}
	})
}

func TestTeamJoin(t *testing.T) {
	publicTeam := func(maxMembers int) *models.Team {
		return &models.Team{ID: 3, EventID: 1, Name: "Torchbearers", MaxMembers: maxMembers, IsPublic: true}
	}

	t.Run("private team rejects join", func(t *testing.T) {
		teams := &mockTeamRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
				team := publicTeam(5)
				team.IsPublic = false
				return team, nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Join(context.Background(), 2, 3); !errors.Is(err, ErrTeamNotPublic) {
			t.Fatalf("expected ErrTeamNotPublic, got %v", err)
		}
	})

	t.Run("full team rejects join", func(t *testing.T) {
		teams := &mockTeamRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
				return publicTeam(2), nil
			},
			CountMembersFn: func(ctx context.Context, teamID int) (int, error) {
				return 2, nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Join(context.Background(), 2, 3); !errors.Is(err, ErrTeamFull) {
			t.Fatalf("expected ErrTeamFull, got %v", err)
		}
	})

	t.Run("member of another team rejected", func(t *testing.T) {
		teams := &mockTeamRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
				return publicTeam(5), nil
			},
			FindMembershipByEventFn: func(ctx context.Context, eventID, profileID int) (*models.TeamMember, error) {
				return &models.TeamMember{TeamID: 8, ProfileID: profileID}, nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Join(context.Background(), 2, 3); !errors.Is(err, ErrAlreadyInTeam) {
			t.Fatalf("expected ErrAlreadyInTeam, got %v", err)
		}
	})

	t.Run("joins as regular member", func(t *testing.T) {
		var added *models.TeamMember
		teams := &mockTeamRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
				return publicTeam(5), nil
			},
			CountMembersFn: func(ctx context.Context, teamID int) (int, error) {
				return 1, nil
			},
			AddMemberFn: func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
				added = member
				return nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Join(context.Background(), 2, 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if added == nil || added.Role != models.TeamRoleMember {
			t.Fatalf("expected member role, got %+v", added)
		}
	})
}

func TestTeamLeave(t *testing.T) {
	t.Run("leader with members cannot leave", func(t *testing.T) {
		teams := &mockTeamRepo{
			GetMemberFn: func(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
				return &models.TeamMember{TeamID: teamID, ProfileID: profileID, Role: models.TeamRoleLeader}, nil
			},
			CountMembersFn: func(ctx context.Context, teamID int) (int, error) {
				return 3, nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Leave(context.Background(), 1, 3); !errors.Is(err, ErrLeaderCannotLeave) {
			t.Fatalf("expected ErrLeaderCannotLeave, got %v", err)
		}
	})

	t.Run("last leader dissolves team", func(t *testing.T) {
		var deleted []int
		teams := &mockTeamRepo{
			GetMemberFn: func(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
				return &models.TeamMember{TeamID: teamID, ProfileID: profileID, Role: models.TeamRoleLeader}, nil
			},
			CountMembersFn: func(ctx context.Context, teamID int) (int, error) {
				return 1, nil
			},
			DeleteFn: func(ctx context.Context, id int) error {
				deleted = append(deleted, id)
				return nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Leave(context.Background(), 1, 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(deleted) != 1 || deleted[0] != 3 {
			t.Errorf("expected team 3 deleted, got %v", deleted)
		}
	})

	t.Run("regular member just leaves", func(t *testing.T) {
		var removed bool
		teams := &mockTeamRepo{
			GetMemberFn: func(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
				return &models.TeamMember{TeamID: teamID, ProfileID: profileID, Role: models.TeamRoleMember}, nil
			},
			RemoveMemberFn: func(ctx context.Context, teamID, profileID int) error {
				removed = true
				return nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.Leave(context.Background(), 2, 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !removed {
			t.Error("expected RemoveMember to be called")
		}
	})
}

func TestTeamRemoveMember(t *testing.T) {
	leaderTeams := func(memberRole models.TeamMemberRole) *mockTeamRepo {
		return &mockTeamRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
				return &models.Team{ID: id, EventID: 1, Name: "Torchbearers", MaxMembers: 5}, nil
			},
			GetMemberFn: func(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
				if profileID == 1 {
					return &models.TeamMember{TeamID: teamID, ProfileID: profileID, Role: models.TeamRoleLeader}, nil
				}
				return &models.TeamMember{TeamID: teamID, ProfileID: profileID, Role: memberRole}, nil
			},
		}
	}

	t.Run("non-leader cannot remove", func(t *testing.T) {
		teams := &mockTeamRepo{
			GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
				return &models.Team{ID: id}, nil
			},
			GetMemberFn: func(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
				return &models.TeamMember{TeamID: teamID, ProfileID: profileID, Role: models.TeamRoleMember}, nil
			},
		}
		svc := NewTeamService(nil, teams, &mockEventRepo{}, nil, testLogger())
		if err := svc.RemoveMember(context.Background(), 2, 3, 4); !errors.Is(err, ErrLeaderOnly) {
			t.Fatalf("expected ErrLeaderOnly, got %v", err)
		}
	})

	t.Run("leader row cannot be removed", func(t *testing.T) {
		svc := NewTeamService(nil, leaderTeams(models.TeamRoleLeader), &mockEventRepo{}, nil, testLogger())
		if err := svc.RemoveMember(context.Background(), 1, 3, 1); !errors.Is(err, ErrLeaderCannotBeRemoved) {
			t.Fatalf("expected ErrLeaderCannotBeRemoved, got %v", err)
		}
	})

	t.Run("leader removes member", func(t *testing.T) {
		if err := NewTeamService(nil, leaderTeams(models.TeamRoleMember), &mockEventRepo{}, nil, testLogger()).
			RemoveMember(context.Background(), 1, 3, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestTeamCreateLeaderRoundTrip(t *testing.T) {
	var added []models.TeamMember
	teams := &mockTeamRepo{
		CreateFn: func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
			team.ID = 7
			return nil
		},
		AddMemberFn: func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
			added = append(added, *member)
			return nil
		},
		GetByIDFn: func(ctx context.Context, id int) (*models.Team, error) {
			return &models.Team{ID: id, EventID: 1, Name: "Torchbearers", Members: added}, nil
		},
	}
	events := &mockEventRepo{
		GetByIDFn: func(ctx context.Context, id int) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventStatusPublished}, nil
		},
	}
	svc := &teamService{
		tx:           fakeTxRunner{},
		teamRepo:     teams,
		eventRepo:    events,
		categoryRepo: &mockCategoryRepo{},
		logger:       testLogger(),
	}

	created, err := svc.Create(context.Background(), 42, TeamInput{EventID: 1, Name: "Torchbearers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 7 {
		t.Fatalf("expected team id 7, got %d", created.ID)
	}

	team, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(team.Members) != 1 {
		t.Fatalf("expected one member, got %d", len(team.Members))
	}
	leader := team.Members[0]
	if leader.ProfileID != 42 || leader.Role != models.TeamRoleLeader || leader.TeamID != 7 {
		t.Errorf("expected creator as leader of team 7, got %+v", leader)
	}
}

func TestTeamCreateNameConflict(t *testing.T) {
	teams := &mockTeamRepo{
		CreateFn: func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
			return repositories.ErrTeamNameConflict
		},
	}
	events := &mockEventRepo{
		GetByIDFn: func(ctx context.Context, id int) (*models.Event, error) {
			return &models.Event{ID: id, Status: models.EventStatusPublished}, nil
		},
	}
	svc := &teamService{
		tx:           fakeTxRunner{},
		teamRepo:     teams,
		eventRepo:    events,
		categoryRepo: &mockCategoryRepo{},
		logger:       testLogger(),
	}

	if _, err := svc.Create(context.Background(), 1, TeamInput{EventID: 1, Name: "Torchbearers"}); !errors.Is(err, ErrTeamNameConflict) {
		t.Fatalf("expected ErrTeamNameConflict, got %v", err)
	}
}

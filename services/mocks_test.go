package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
	"github.com/hackingtorch/hackingtorch/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner выполняет fn без настоящей транзакции: моки репозиториев
// игнорируют exec, так что nil достаточно.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// Моки на функциональных полях: тест задаёт только нужные методы,
// остальные возвращают "не найдено".

type mockProfileRepo struct {
	GetByIDFn                 func(ctx context.Context, id int) (*models.Profile, error)
	GetByEmailFn              func(ctx context.Context, email string) (*models.Profile, error)
	GetByPasswordResetTokenFn func(ctx context.Context, token string) (*models.Profile, error)
	CreateFn                  func(ctx context.Context, profile *models.Profile) error
	UpdateFn                  func(ctx context.Context, profile *models.Profile) error
	UpdateStatusFn            func(ctx context.Context, id int, status models.ProfileStatus) error
	UpdateUserTypeFn          func(ctx context.Context, id int, userType models.UserType) error
	SetPasswordResetTokenFn   func(ctx context.Context, id int, token string, expiresAt time.Time) error
	DeleteFn                  func(ctx context.Context, id int) error
	ListFn                    func(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	CountFn                   func(ctx context.Context, status *models.ProfileStatus) (int, error)
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, profile)
	}
	return nil
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrProfileNotFound
}

func (m *mockProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, repositories.ErrProfileNotFound
}

func (m *mockProfileRepo) GetByPasswordResetToken(ctx context.Context, token string) (*models.Profile, error) {
	if m.GetByPasswordResetTokenFn != nil {
		return m.GetByPasswordResetTokenFn(ctx, token)
	}
	return nil, repositories.ErrProfileNotFound
}

func (m *mockProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, profile)
	}
	return nil
}

func (m *mockProfileRepo) UpdateStatus(ctx context.Context, id int, status models.ProfileStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockProfileRepo) UpdateUserType(ctx context.Context, id int, userType models.UserType) error {
	if m.UpdateUserTypeFn != nil {
		return m.UpdateUserTypeFn(ctx, id, userType)
	}
	return nil
}

func (m *mockProfileRepo) SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	if m.SetPasswordResetTokenFn != nil {
		return m.SetPasswordResetTokenFn(ctx, id, token, expiresAt)
	}
	return nil
}

func (m *mockProfileRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockProfileRepo) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockProfileRepo) Count(ctx context.Context, status *models.ProfileStatus) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, status)
	}
	return 0, nil
}

type mockEventRepo struct {
	CreateFn         func(ctx context.Context, event *models.Event) error
	GetByIDFn        func(ctx context.Context, id int) (*models.Event, error)
	ListFn           func(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	UpdateFn         func(ctx context.Context, event *models.Event) error
	UpdateStatusFn   func(ctx context.Context, id int, status models.EventStatus) error
	SetFeaturedFn    func(ctx context.Context, id int, featured bool) error
	UpdateCoverKeyFn func(ctx context.Context, id int, key *string) error
	DeleteFn         func(ctx context.Context, id int) error
	ActivateDueFn    func(ctx context.Context, now time.Time) ([]int, error)
	CompleteDueFn    func(ctx context.Context, now time.Time) ([]int, error)
	CountFn          func(ctx context.Context, status *models.EventStatus) (int, error)
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, event)
	}
	return nil
}

func (m *mockEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrEventNotFound
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, event)
	}
	return nil
}

func (m *mockEventRepo) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockEventRepo) SetFeatured(ctx context.Context, id int, featured bool) error {
	if m.SetFeaturedFn != nil {
		return m.SetFeaturedFn(ctx, id, featured)
	}
	return nil
}

func (m *mockEventRepo) UpdateCoverKey(ctx context.Context, id int, key *string) error {
	if m.UpdateCoverKeyFn != nil {
		return m.UpdateCoverKeyFn(ctx, id, key)
	}
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockEventRepo) ActivateDue(ctx context.Context, now time.Time) ([]int, error) {
	if m.ActivateDueFn != nil {
		return m.ActivateDueFn(ctx, now)
	}
	return nil, nil
}

func (m *mockEventRepo) CompleteDue(ctx context.Context, now time.Time) ([]int, error) {
	if m.CompleteDueFn != nil {
		return m.CompleteDueFn(ctx, now)
	}
	return nil, nil
}

func (m *mockEventRepo) Count(ctx context.Context, status *models.EventStatus) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, status)
	}
	return 0, nil
}

type mockTeamRepo struct {
	CreateFn                func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error
	GetByIDFn               func(ctx context.Context, id int) (*models.Team, error)
	ListByEventFn           func(ctx context.Context, eventID int) ([]models.Team, error)
	UpdateFn                func(ctx context.Context, team *models.Team) error
	DeleteFn                func(ctx context.Context, id int) error
	AddMemberFn             func(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error
	RemoveMemberFn          func(ctx context.Context, teamID, profileID int) error
	GetMemberFn             func(ctx context.Context, teamID, profileID int) (*models.TeamMember, error)
	ListMembersFn           func(ctx context.Context, teamID int) ([]models.TeamMember, error)
	CountMembersFn          func(ctx context.Context, teamID int) (int, error)
	FindMembershipByEventFn func(ctx context.Context, eventID, profileID int) (*models.TeamMember, error)
	CountFn                 func(ctx context.Context) (int, error)
}

func (m *mockTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, exec, team)
	}
	return nil
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrTeamNotFound
}

func (m *mockTeamRepo) ListByEvent(ctx context.Context, eventID int) ([]models.Team, error) {
	if m.ListByEventFn != nil {
		return m.ListByEventFn(ctx, eventID)
	}
	return nil, nil
}

func (m *mockTeamRepo) Update(ctx context.Context, team *models.Team) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, team)
	}
	return nil
}

func (m *mockTeamRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, exec, member)
	}
	return nil
}

func (m *mockTeamRepo) RemoveMember(ctx context.Context, teamID, profileID int) error {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(ctx, teamID, profileID)
	}
	return nil
}

func (m *mockTeamRepo) GetMember(ctx context.Context, teamID, profileID int) (*models.TeamMember, error) {
	if m.GetMemberFn != nil {
		return m.GetMemberFn(ctx, teamID, profileID)
	}
	return nil, repositories.ErrTeamMemberNotFound
}

func (m *mockTeamRepo) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	if m.ListMembersFn != nil {
		return m.ListMembersFn(ctx, teamID)
	}
	return nil, nil
}

func (m *mockTeamRepo) CountMembers(ctx context.Context, teamID int) (int, error) {
	if m.CountMembersFn != nil {
		return m.CountMembersFn(ctx, teamID)
	}
	return 0, nil
}

func (m *mockTeamRepo) FindMembershipByEvent(ctx context.Context, eventID, profileID int) (*models.TeamMember, error) {
	if m.FindMembershipByEventFn != nil {
		return m.FindMembershipByEventFn(ctx, eventID, profileID)
	}
	return nil, repositories.ErrTeamMemberNotFound
}

func (m *mockTeamRepo) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

type mockCategoryRepo struct {
	ListAllFn            func(ctx context.Context) ([]models.Category, error)
	ResolveByNamesFn     func(ctx context.Context, names []string) ([]models.Category, error)
	AttachToTeamFn       func(ctx context.Context, exec repositories.SQLExecutor, teamID int, categoryIDs []int) error
	AttachToSubmissionFn func(ctx context.Context, exec repositories.SQLExecutor, submissionID int, categoryIDs []int) error
	ListByTeamFn         func(ctx context.Context, teamID int) ([]models.Category, error)
	ListBySubmissionFn   func(ctx context.Context, submissionID int) ([]models.Category, error)
}

func (m *mockCategoryRepo) ListAll(ctx context.Context) ([]models.Category, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryRepo) ResolveByNames(ctx context.Context, names []string) ([]models.Category, error) {
	if m.ResolveByNamesFn != nil {
		return m.ResolveByNamesFn(ctx, names)
	}
	return nil, nil
}

func (m *mockCategoryRepo) AttachToTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int, categoryIDs []int) error {
	if m.AttachToTeamFn != nil {
		return m.AttachToTeamFn(ctx, exec, teamID, categoryIDs)
	}
	return nil
}

func (m *mockCategoryRepo) AttachToSubmission(ctx context.Context, exec repositories.SQLExecutor, submissionID int, categoryIDs []int) error {
	if m.AttachToSubmissionFn != nil {
		return m.AttachToSubmissionFn(ctx, exec, submissionID, categoryIDs)
	}
	return nil
}

func (m *mockCategoryRepo) ListByTeam(ctx context.Context, teamID int) ([]models.Category, error) {
	if m.ListByTeamFn != nil {
		return m.ListByTeamFn(ctx, teamID)
	}
	return nil, nil
}

func (m *mockCategoryRepo) ListBySubmission(ctx context.Context, submissionID int) ([]models.Category, error) {
	if m.ListBySubmissionFn != nil {
		return m.ListBySubmissionFn(ctx, submissionID)
	}
	return nil, nil
}

type mockSubmissionRepo struct {
	CreateFn            func(ctx context.Context, exec repositories.SQLExecutor, submission *models.Submission) error
	GetByIDFn           func(ctx context.Context, id int) (*models.Submission, error)
	GetByTeamAndEventFn func(ctx context.Context, exec repositories.SQLExecutor, teamID, eventID int) (*models.Submission, error)
	ListByEventFn       func(ctx context.Context, eventID int) ([]models.Submission, error)
	ListIDsByEventFn    func(ctx context.Context, eventID int) ([]int, error)
	UpdateFn            func(ctx context.Context, submission *models.Submission) error
	UpdateStatusFn      func(ctx context.Context, id int, status models.SubmissionStatus, submittedAt *time.Time) error
	DeleteFn            func(ctx context.Context, id int) error
	AddFileFn           func(ctx context.Context, file *models.SubmissionFile) error
	ListFilesFn         func(ctx context.Context, submissionID int) ([]models.SubmissionFile, error)
	CountFn             func(ctx context.Context) (int, error)
}

func (m *mockSubmissionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, submission *models.Submission) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, exec, submission)
	}
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrSubmissionNotFound
}

func (m *mockSubmissionRepo) GetByTeamAndEvent(ctx context.Context, exec repositories.SQLExecutor, teamID, eventID int) (*models.Submission, error) {
	if m.GetByTeamAndEventFn != nil {
		return m.GetByTeamAndEventFn(ctx, exec, teamID, eventID)
	}
	return nil, repositories.ErrSubmissionNotFound
}

func (m *mockSubmissionRepo) ListByEvent(ctx context.Context, eventID int) ([]models.Submission, error) {
	if m.ListByEventFn != nil {
		return m.ListByEventFn(ctx, eventID)
	}
	return nil, nil
}

func (m *mockSubmissionRepo) ListIDsByEvent(ctx context.Context, eventID int) ([]int, error) {
	if m.ListIDsByEventFn != nil {
		return m.ListIDsByEventFn(ctx, eventID)
	}
	return nil, nil
}

func (m *mockSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, submission)
	}
	return nil
}

func (m *mockSubmissionRepo) UpdateStatus(ctx context.Context, id int, status models.SubmissionStatus, submittedAt *time.Time) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status, submittedAt)
	}
	return nil
}

func (m *mockSubmissionRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockSubmissionRepo) AddFile(ctx context.Context, file *models.SubmissionFile) error {
	if m.AddFileFn != nil {
		return m.AddFileFn(ctx, file)
	}
	return nil
}

func (m *mockSubmissionRepo) ListFiles(ctx context.Context, submissionID int) ([]models.SubmissionFile, error) {
	if m.ListFilesFn != nil {
		return m.ListFilesFn(ctx, submissionID)
	}
	return nil, nil
}

func (m *mockSubmissionRepo) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

type mockEvaluationRepo struct {
	CreateFn                      func(ctx context.Context, evaluation *models.Evaluation) error
	GetByIDFn                     func(ctx context.Context, id int) (*models.Evaluation, error)
	GetByEvaluatorAndSubmissionFn func(ctx context.Context, evaluatorID, submissionID int) (*models.Evaluation, error)
	ListBySubmissionFn            func(ctx context.Context, submissionID int) ([]models.Evaluation, error)
	ListBySubmissionIDsFn         func(ctx context.Context, submissionIDs []int) ([]models.Evaluation, error)
	UpdateFn                      func(ctx context.Context, evaluation *models.Evaluation) error
	DeleteFn                      func(ctx context.Context, id int) error
	CountFn                       func(ctx context.Context) (int, error)
}

func (m *mockEvaluationRepo) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, evaluation)
	}
	return nil
}

func (m *mockEvaluationRepo) GetByID(ctx context.Context, id int) (*models.Evaluation, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrEvaluationNotFound
}

func (m *mockEvaluationRepo) GetByEvaluatorAndSubmission(ctx context.Context, evaluatorID, submissionID int) (*models.Evaluation, error) {
	if m.GetByEvaluatorAndSubmissionFn != nil {
		return m.GetByEvaluatorAndSubmissionFn(ctx, evaluatorID, submissionID)
	}
	return nil, repositories.ErrEvaluationNotFound
}

func (m *mockEvaluationRepo) ListBySubmission(ctx context.Context, submissionID int) ([]models.Evaluation, error) {
	if m.ListBySubmissionFn != nil {
		return m.ListBySubmissionFn(ctx, submissionID)
	}
	return nil, nil
}

func (m *mockEvaluationRepo) ListBySubmissionIDs(ctx context.Context, submissionIDs []int) ([]models.Evaluation, error) {
	if m.ListBySubmissionIDsFn != nil {
		return m.ListBySubmissionIDsFn(ctx, submissionIDs)
	}
	return nil, nil
}

func (m *mockEvaluationRepo) Update(ctx context.Context, evaluation *models.Evaluation) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, evaluation)
	}
	return nil
}

func (m *mockEvaluationRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockEvaluationRepo) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

type mockCertificateRepo struct {
	CreateFn            func(ctx context.Context, certificate *models.Certificate) error
	GetBySerialFn       func(ctx context.Context, serial string) (*models.Certificate, error)
	ListByProfileFn     func(ctx context.Context, profileID int) ([]models.Certificate, error)
	UpdateDocumentKeyFn func(ctx context.Context, id int, key string) error
}

func (m *mockCertificateRepo) Create(ctx context.Context, certificate *models.Certificate) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, certificate)
	}
	return nil
}

func (m *mockCertificateRepo) GetBySerial(ctx context.Context, serial string) (*models.Certificate, error) {
	if m.GetBySerialFn != nil {
		return m.GetBySerialFn(ctx, serial)
	}
	return nil, repositories.ErrCertificateNotFound
}

func (m *mockCertificateRepo) ListByProfile(ctx context.Context, profileID int) ([]models.Certificate, error) {
	if m.ListByProfileFn != nil {
		return m.ListByProfileFn(ctx, profileID)
	}
	return nil, nil
}

func (m *mockCertificateRepo) UpdateDocumentKey(ctx context.Context, id int, key string) error {
	if m.UpdateDocumentKeyFn != nil {
		return m.UpdateDocumentKeyFn(ctx, id, key)
	}
	return nil
}

type mockUploader struct {
	UploadFn func(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error)
	DeleteFn func(ctx context.Context, key string) error
	BaseURL  string

	Uploaded []string
}

func (m *mockUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	m.Uploaded = append(m.Uploaded, key)
	if m.UploadFn != nil {
		return m.UploadFn(ctx, key, contentType, reader)
	}
	// Содержимое вычитывается, как это делает настоящий загрузчик.
	var buf bytes.Buffer
	if reader != nil {
		io.Copy(&buf, reader)
	}
	return &storage.UploadResult{Key: key, Location: m.BaseURL + "/" + key}, nil
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}

func (m *mockUploader) GetPublicURL(key string) string {
	return m.BaseURL + "/" + key
}

type mockMailer struct {
	WelcomeCalls []string
	ResetCalls   []string
	Err          error
}

func (m *mockMailer) SendWelcomeEmail(email, firstName string) error {
	m.WelcomeCalls = append(m.WelcomeCalls, email)
	return m.Err
}

func (m *mockMailer) SendPasswordResetEmail(email, resetToken string) error {
	m.ResetCalls = append(m.ResetCalls, email)
	return m.Err
}

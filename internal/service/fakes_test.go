package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
)

// In-memory repository fakes. They mirror the Postgres implementations'
// contract, including pgx.ErrNoRows on missing rows.

type memIDs struct {
	mu   sync.Mutex
	next int
}

func (m *memIDs) New(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("%s-%d", prefix, m.next)
}

var ids memIDs

type memUserRepo struct {
	users       map[string]*domain.User
	branches    map[string][]string
	departments map[string][]string
	apps        map[string][]string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:       map[string]*domain.User{},
		branches:    map[string][]string{},
		departments: map[string][]string{},
		apps:        map[string][]string{},
	}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = ids.New("user")
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context, status *domain.UserStatus) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if status != nil && user.Status != *status {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

func (r *memUserRepo) DepartmentsOf(_ context.Context, userID string) ([]string, error) {
	return r.departments[userID], nil
}

func (r *memUserRepo) SetDepartments(_ context.Context, userID string, departmentIDs []string) error {
	r.departments[userID] = departmentIDs
	return nil
}

func (r *memUserRepo) BranchesOf(_ context.Context, userID string) ([]string, error) {
	return r.branches[userID], nil
}

func (r *memUserRepo) SetBranches(_ context.Context, userID string, branchIDs []string) error {
	r.branches[userID] = branchIDs
	return nil
}

func (r *memUserRepo) AppsOf(_ context.Context, userID string) ([]string, error) {
	return r.apps[userID], nil
}

func (r *memUserRepo) SetApps(_ context.Context, userID string, appIDs []string) error {
	r.apps[userID] = appIDs
	return nil
}

type memDepartmentRepo struct {
	departments map[string]*domain.Department
	users       *memUserRepo
}

func newMemDepartmentRepo(users *memUserRepo) *memDepartmentRepo {
	return &memDepartmentRepo{departments: map[string]*domain.Department{}, users: users}
}

func (r *memDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	if dept.ID == "" {
		dept.ID = ids.New("dept")
	}
	copied := *dept
	r.departments[dept.ID] = &copied
	return nil
}

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *dept
	return &copied, nil
}

func (r *memDepartmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	for _, dept := range r.departments {
		if dept.Name == name {
			copied := *dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.departments {
		result = append(result, *dept)
	}
	return result, nil
}

func (r *memDepartmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.departments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.departments, id)
	return nil
}

func (r *memDepartmentRepo) ListAgents(ctx context.Context, departmentID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users.users {
		if user.Role != domain.RoleAgent || !user.IsActive() {
			continue
		}
		for _, deptID := range r.users.departments[user.ID] {
			if deptID == departmentID {
				result = append(result, *user)
			}
		}
	}
	return result, nil
}

func (r *memDepartmentRepo) CountAgents(_ context.Context, departmentID string) (int, error) {
	count := 0
	for userID := range r.users.users {
		for _, deptID := range r.users.departments[userID] {
			if deptID == departmentID {
				count++
			}
		}
	}
	return count, nil
}

type memCategoryRepo struct {
	categories map[string]*domain.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: map[string]*domain.Category{}}
}

func (r *memCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = ids.New("cat")
	}
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *memCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.categories {
		result = append(result, *category)
	}
	return result, nil
}

func (r *memCategoryRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.categories {
		if category.DepartmentID == departmentID {
			result = append(result, *category)
		}
	}
	return result, nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.categories, id)
	return nil
}

type memTicketRepo struct {
	tickets map[string]*domain.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = ids.New("ticket")
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(filter.DepartmentIDs) > 0 && !containsString(filter.DepartmentIDs, ticket.DepartmentID) {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, ticket.State) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *memTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *memTicketRepo) CountByDepartment(_ context.Context, departmentID string) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if ticket.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountByCategory(_ context.Context, categoryID string) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if ticket.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) CountByCreator(_ context.Context, creatorID string) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if ticket.CreatorID == creatorID {
			count++
		}
	}
	return count, nil
}

type memCommentRepo struct {
	comments map[string]*domain.Comment
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: map[string]*domain.Comment{}}
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = ids.New("comment")
	}
	copied := *comment
	r.comments[comment.ID] = &copied
	return nil
}

func (r *memCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, *comment)
		}
	}
	return result, nil
}

func (r *memCommentRepo) DeleteByTicket(_ context.Context, ticketID string) error {
	for id, comment := range r.comments {
		if comment.TicketID == ticketID {
			delete(r.comments, id)
		}
	}
	return nil
}

type memAttachmentRepo struct {
	attachments map[string]*domain.Attachment
}

func newMemAttachmentRepo() *memAttachmentRepo {
	return &memAttachmentRepo{attachments: map[string]*domain.Attachment{}}
}

func (r *memAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = ids.New("att")
	}
	copied := *attachment
	r.attachments[attachment.ID] = &copied
	return nil
}

func (r *memAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			result = append(result, *attachment)
		}
	}
	return result, nil
}

func (r *memAttachmentRepo) GetByStorageKey(_ context.Context, ticketID, storageKey string) (*domain.Attachment, error) {
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID && attachment.StorageKey == storageKey {
			copied := *attachment
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAttachmentRepo) FindByHash(_ context.Context, ticketID, contentHash string) (*domain.Attachment, error) {
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID && attachment.ContentHash == contentHash {
			copied := *attachment
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memAttachmentRepo) CountByTicket(_ context.Context, ticketID string) (int, error) {
	count := 0
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

func (r *memAttachmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.attachments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.attachments, id)
	return nil
}

func (r *memAttachmentRepo) DeleteByTicket(_ context.Context, ticketID string) error {
	for id, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			delete(r.attachments, id)
		}
	}
	return nil
}

type memBranchRepo struct {
	branches map[string]*domain.Branch
}

func newMemBranchRepo() *memBranchRepo {
	return &memBranchRepo{branches: map[string]*domain.Branch{}}
}

func (r *memBranchRepo) Create(_ context.Context, branch *domain.Branch) error {
	if branch.ID == "" {
		branch.ID = ids.New("branch")
	}
	copied := *branch
	r.branches[branch.ID] = &copied
	return nil
}

func (r *memBranchRepo) GetByID(_ context.Context, id string) (*domain.Branch, error) {
	branch, ok := r.branches[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *branch
	return &copied, nil
}

func (r *memBranchRepo) List(_ context.Context) ([]domain.Branch, error) {
	var result []domain.Branch
	for _, branch := range r.branches {
		result = append(result, *branch)
	}
	return result, nil
}

func (r *memBranchRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.branches[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.branches, id)
	return nil
}

type memAppRepo struct {
	apps map[string]*domain.App
}

func newMemAppRepo() *memAppRepo {
	return &memAppRepo{apps: map[string]*domain.App{}}
}

func (r *memAppRepo) Create(_ context.Context, app *domain.App) error {
	if app.ID == "" {
		app.ID = ids.New("app")
	}
	copied := *app
	r.apps[app.ID] = &copied
	return nil
}

func (r *memAppRepo) GetByID(_ context.Context, id string) (*domain.App, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (r *memAppRepo) List(_ context.Context) ([]domain.App, error) {
	var result []domain.App
	for _, app := range r.apps {
		result = append(result, *app)
	}
	return result, nil
}

func (r *memAppRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.apps[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.apps, id)
	return nil
}

type memPasswordResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
}

func newMemPasswordResetRepo() *memPasswordResetRepo {
	return &memPasswordResetRepo{tokens: map[string]*repository.PasswordResetToken{}}
}

func (r *memPasswordResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = ids.New("reset")
	}
	copied := *token
	r.tokens[token.ID] = &copied
	return nil
}

func (r *memPasswordResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	for _, token := range r.tokens {
		if token.Token == tokenStr {
			copied := *token
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memPasswordResetRepo) MarkUsed(_ context.Context, id string) error {
	token, ok := r.tokens[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	token.UsedAt = &now
	return nil
}

type memBlobStore struct {
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (s *memBlobStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := s.blobs[name]
	return ok, nil
}

func (s *memBlobStore) Put(_ context.Context, name string, data []byte) error {
	s.blobs[name] = append([]byte{}, data...)
	return nil
}

func (s *memBlobStore) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := s.blobs[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *memBlobStore) Delete(_ context.Context, name string) error {
	if _, ok := s.blobs[name]; !ok {
		return storage.ErrNotFound
	}
	delete(s.blobs, name)
	return nil
}

func (s *memBlobStore) PublicURL(name string) (string, bool) {
	return "", false
}

// recordingDispatcher captures published events synchronously so tests can
// assert on them without racing a drain goroutine.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) Close() {}

func (d *recordingDispatcher) typeNames() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		names = append(names, event.Type)
	}
	return names
}

func (d *recordingDispatcher) last() *events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		return nil
	}
	event := d.events[len(d.events)-1]
	return &event
}

func containsString(set []string, val string) bool {
	for _, item := range set {
		if item == val {
			return true
		}
	}
	return false
}

func containsState(set []domain.TicketState, val domain.TicketState) bool {
	for _, item := range set {
		if item == val {
			return true
		}
	}
	return false
}

func containsPriority(set []domain.TicketPriority, val domain.TicketPriority) bool {
	for _, item := range set {
		if item == val {
			return true
		}
	}
	return false
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venuepilot/backend/internal/models"
	"github.com/venuepilot/backend/internal/schedule"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeStore struct {
	events  map[uuid.UUID]*models.Event
	created []*models.Event
	updated []*models.Event
	deleted []uuid.UUID

	listFilter ListFilter
	listItems  []models.Event
	listTotal  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[uuid.UUID]*models.Event{}}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, e *models.Event) error {
	e.ID = uuid.New()
	f.created = append(f.created, e)
	f.events[e.ID] = e
	return nil
}

func (f *fakeStore) Update(_ context.Context, e *models.Event) error {
	if _, ok := f.events[e.ID]; !ok {
		return models.ErrNotFound
	}
	f.updated = append(f.updated, e)
	f.events[e.ID] = e
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.events[id]; !ok {
		return models.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	delete(f.events, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, filter ListFilter) ([]models.Event, int, error) {
	f.listFilter = filter
	return f.listItems, f.listTotal, nil
}

type fakeRegs struct {
	registered   []uuid.UUID
	unregistered []uuid.UUID
	result       *models.Registration
	err          error
}

func (f *fakeRegs) Register(_ context.Context, userID, eventID uuid.UUID) (*models.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, eventID)
	if f.result != nil {
		return f.result, nil
	}
	return &models.Registration{ID: uuid.New(), UserID: userID, EventID: &eventID, Status: models.RegistrationConfirmed}, nil
}

func (f *fakeRegs) Unregister(_ context.Context, userID, eventID uuid.UUID) (*models.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.unregistered = append(f.unregistered, eventID)
	return &models.Registration{UserID: userID, EventID: &eventID}, nil
}

func (f *fakeRegs) ListByUser(context.Context, uuid.UUID) ([]models.Registration, error) {
	return nil, f.err
}

type fakeChecker struct {
	conflict *schedule.ConflictError
	calls    int

	lastSpace   uuid.UUID
	lastRange   schedule.TimeRange
	lastExclude *uuid.UUID
}

func (f *fakeChecker) SpaceConflict(_ context.Context, spaceID uuid.UUID, r schedule.TimeRange, excludeEventID, _ *uuid.UUID) (*schedule.ConflictError, error) {
	f.calls++
	f.lastSpace = spaceID
	f.lastRange = r
	f.lastExclude = excludeEventID
	return f.conflict, nil
}

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, regs *fakeRegs, checker *fakeChecker) *Service {
	return NewService(store, regs, checker, fixedClock{now: testNow}, zap.NewNop())
}

func organizer() models.Identity {
	return models.Identity{UserID: uuid.New(), Email: "org@example.com", Roles: []string{models.RoleOrganizer}}
}

func admin() models.Identity {
	return models.Identity{UserID: uuid.New(), Email: "admin@example.com", Roles: []string{models.RoleAdmin}}
}

func customer() models.Identity {
	return models.Identity{UserID: uuid.New(), Email: "cust@example.com", Roles: []string{models.RoleCustomer}}
}

func validRange(t *testing.T) *schedule.TimeRange {
	t.Helper()
	r, err := schedule.NewTimeRange(
		time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return &r
}

func TestCreateRequiresOrganizerRole(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRegs{}, &fakeChecker{})

	_, err := svc.Create(context.Background(), customer(), CreateParams{Title: "Meetup"})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCreateDefaultsToDraft(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRegs{}, &fakeChecker{})
	caller := organizer()

	e, err := svc.Create(context.Background(), caller, CreateParams{Title: "Meetup"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, e.Status)
	assert.Equal(t, caller.UserID, e.OrganizerID)
	require.Len(t, store.created, 1)
}

func TestCreateRejectsSpaceWithoutRange(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRegs{}, &fakeChecker{})
	spaceID := uuid.New()

	_, err := svc.Create(context.Background(), organizer(), CreateParams{Title: "Meetup", SpaceID: &spaceID})
	var vErr *schedule.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = svc.Create(context.Background(), organizer(), CreateParams{Title: "Meetup", TimeRange: validRange(t)})
	require.ErrorAs(t, err, &vErr)
}

func TestCreateRejectsInvalidStatus(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRegs{}, &fakeChecker{})

	_, err := svc.Create(context.Background(), organizer(), CreateParams{Title: "Meetup", Status: "archived"})
	var vErr *schedule.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "invalid status", vErr.Reason)
}

func TestCreateValidatesTiming(t *testing.T) {
	store := newFakeStore()
	checker := &fakeChecker{}
	svc := newTestService(store, &fakeRegs{}, checker)
	spaceID := uuid.New()

	// Same calendar day as "now" must be rejected even though it is in the future.
	sameDay, err := schedule.NewTimeRange(
		testNow.Add(2*time.Hour),
		testNow.Add(4*time.Hour),
	)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), organizer(), CreateParams{
		Title: "Meetup", SpaceID: &spaceID, TimeRange: &sameDay,
	})
	var vErr *schedule.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, checker.calls, "overlap scan must not run for invalid timing")
	assert.Empty(t, store.created)
}

func TestCreateAbortsOnSpaceConflict(t *testing.T) {
	store := newFakeStore()
	checker := &fakeChecker{conflict: &schedule.ConflictError{Kind: "event", Title: "Standup"}}
	svc := newTestService(store, &fakeRegs{}, checker)
	spaceID := uuid.New()

	_, err := svc.Create(context.Background(), organizer(), CreateParams{
		Title: "Meetup", SpaceID: &spaceID, TimeRange: validRange(t),
	})
	var cErr *schedule.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, spaceID, checker.lastSpace)
	assert.Empty(t, store.created, "conflicting event must not be persisted")
}

func TestCreatePlacedEvent(t *testing.T) {
	store := newFakeStore()
	checker := &fakeChecker{}
	svc := newTestService(store, &fakeRegs{}, checker)
	spaceID := uuid.New()
	tr := validRange(t)

	e, err := svc.Create(context.Background(), organizer(), CreateParams{
		Title: "Meetup", Status: models.StatusPublished, SpaceID: &spaceID, TimeRange: tr, Capacity: ptr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)
	assert.Nil(t, checker.lastExclude)
	assert.Equal(t, *tr, checker.lastRange)
	require.NotNil(t, e.TimeRange)
	assert.Equal(t, models.StatusPublished, e.Status)
}

func TestUpdateForbiddenForOtherOrganizer(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	e := &models.Event{ID: uuid.New(), OrganizerID: owner.UserID, Title: "Meetup", Status: models.StatusDraft}
	store.events[e.ID] = e
	svc := newTestService(store, &fakeRegs{}, &fakeChecker{})

	_, err := svc.Update(context.Background(), organizer(), e.ID, UpdateParams{Title: ptr("Renamed")})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUpdateAdminCanEditAnyEvent(t *testing.T) {
	store := newFakeStore()
	e := &models.Event{ID: uuid.New(), OrganizerID: uuid.New(), Title: "Meetup", Status: models.StatusDraft}
	store.events[e.ID] = e
	svc := newTestService(store, &fakeRegs{}, &fakeChecker{})

	got, err := svc.Update(context.Background(), admin(), e.ID, UpdateParams{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestUpdateRescheduleExcludesSelf(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	spaceID := uuid.New()
	e := &models.Event{
		ID: uuid.New(), OrganizerID: owner.UserID, Title: "Meetup",
		Status: models.StatusPublished, SpaceID: &spaceID, TimeRange: validRange(t),
	}
	store.events[e.ID] = e
	checker := &fakeChecker{}
	svc := newTestService(store, &fakeRegs{}, checker)

	next, err := schedule.NewTimeRange(
		time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 12, 11, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), owner, e.ID, UpdateParams{TimeRange: &next})
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)
	require.NotNil(t, checker.lastExclude)
	assert.Equal(t, e.ID, *checker.lastExclude)
	assert.Equal(t, next, *got.TimeRange)
}

func TestUpdateWithoutRescheduleSkipsOverlapScan(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	spaceID := uuid.New()
	e := &models.Event{
		ID: uuid.New(), OrganizerID: owner.UserID, Title: "Meetup",
		Status: models.StatusPublished, SpaceID: &spaceID, TimeRange: validRange(t),
	}
	store.events[e.ID] = e
	checker := &fakeChecker{}
	svc := newTestService(store, &fakeRegs{}, checker)

	_, err := svc.Update(context.Background(), owner, e.ID, UpdateParams{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.Zero(t, checker.calls)
}

func TestDeleteReturnsRemovedEvent(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	e := &models.Event{ID: uuid.New(), OrganizerID: owner.UserID, Title: "Meetup", Status: models.StatusDraft}
	store.events[e.ID] = e
	svc := newTestService(store, &fakeRegs{}, &fakeChecker{})

	got, err := svc.Delete(context.Background(), owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, []uuid.UUID{e.ID}, store.deleted)

	_, err = svc.Delete(context.Background(), owner, e.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListScopesByRole(t *testing.T) {
	t.Run("admin sees everything", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeRegs{}, &fakeChecker{})

		_, err := svc.List(context.Background(), admin(), ListOptions{})
		require.NoError(t, err)
		assert.Nil(t, store.listFilter.OrganizerID)
		assert.Empty(t, store.listFilter.Statuses)
	})

	t.Run("organizer sees own", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeRegs{}, &fakeChecker{})
		caller := organizer()

		_, err := svc.List(context.Background(), caller, ListOptions{})
		require.NoError(t, err)
		require.NotNil(t, store.listFilter.OrganizerID)
		assert.Equal(t, caller.UserID, *store.listFilter.OrganizerID)
	})

	t.Run("customer sees published only", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeRegs{}, &fakeChecker{})

		_, err := svc.List(context.Background(), customer(), ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []models.EventStatus{models.StatusPublished}, store.listFilter.Statuses)
	})

	t.Run("status filter stacks with role scope", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store, &fakeRegs{}, &fakeChecker{})
		status := models.StatusDraft

		_, err := svc.List(context.Background(), customer(), ListOptions{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, []models.EventStatus{models.StatusPublished, models.StatusDraft}, store.listFilter.Statuses)
	})
}

func TestListPagination(t *testing.T) {
	store := newFakeStore()
	store.listItems = []models.Event{{Title: "A"}, {Title: "B"}}
	store.listTotal = 27
	svc := newTestService(store, &fakeRegs{}, &fakeChecker{})

	page, err := svc.List(context.Background(), admin(), ListOptions{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, store.listFilter.Offset)
	assert.Equal(t, 10, store.listFilter.Limit)
	assert.Equal(t, 27, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)

	_, err = svc.List(context.Background(), admin(), ListOptions{Page: -3, Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, 0, store.listFilter.Offset)
	assert.Equal(t, 100, store.listFilter.Limit)
}

func TestRegisterDelegatesToStore(t *testing.T) {
	regs := &fakeRegs{}
	svc := newTestService(newFakeStore(), regs, &fakeChecker{})
	caller := customer()
	eventID := uuid.New()

	reg, err := svc.Register(context.Background(), caller, eventID)
	require.NoError(t, err)
	assert.Equal(t, caller.UserID, reg.UserID)
	assert.Equal(t, []uuid.UUID{eventID}, regs.registered)
}

func TestRegisterPropagatesAdmissionErrors(t *testing.T) {
	regs := &fakeRegs{err: models.ErrCapacityExceeded}
	svc := newTestService(newFakeStore(), regs, &fakeChecker{})

	_, err := svc.Register(context.Background(), customer(), uuid.New())
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
}

func ptr[T any](v T) *T { return &v }

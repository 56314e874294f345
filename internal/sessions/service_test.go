package sessions

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
	sessions map[uuid.UUID]*models.Session
	created  []*models.Session
	updated  []*models.Session
	byEvent  []models.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[uuid.UUID]*models.Session{}}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, s *models.Session) error {
	s.ID = uuid.New()
	f.created = append(f.created, s)
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) Update(_ context.Context, s *models.Session) error {
	if _, ok := f.sessions[s.ID]; !ok {
		return models.ErrNotFound
	}
	f.updated = append(f.updated, s)
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.sessions[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) ListByEvent(context.Context, uuid.UUID) ([]models.Session, error) {
	return f.byEvent, nil
}

type fakeEvents struct {
	events map[uuid.UUID]*models.Event
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return e, nil
}

type fakeChecker struct {
	conflict *schedule.ConflictError
	calls    int

	lastSpace          uuid.UUID
	lastExcludeSession *uuid.UUID
}

func (f *fakeChecker) SpaceConflict(_ context.Context, spaceID uuid.UUID, _ schedule.TimeRange, _, excludeSessionID *uuid.UUID) (*schedule.ConflictError, error) {
	f.calls++
	f.lastSpace = spaceID
	f.lastExcludeSession = excludeSessionID
	return f.conflict, nil
}

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, events *fakeEvents, checker *fakeChecker) *Service {
	if events == nil {
		events = &fakeEvents{events: map[uuid.UUID]*models.Event{}}
	}
	return NewService(store, events, checker, fixedClock{now: testNow}, zap.NewNop())
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

func validRange(t *testing.T) schedule.TimeRange {
	t.Helper()
	r, err := schedule.NewTimeRange(
		time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

func TestCreateRequiresOrganizerRole(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, &fakeChecker{})

	_, err := svc.Create(context.Background(), customer(), CreateParams{
		Title: "Workshop", SpaceID: uuid.New(), TimeRange: validRange(t),
	})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCreateRequiresExistingParentEvent(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, &fakeChecker{})
	missing := uuid.New()

	_, err := svc.Create(context.Background(), organizer(), CreateParams{
		EventID: &missing, Title: "Workshop", SpaceID: uuid.New(), TimeRange: validRange(t),
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateUnderForeignEventForbidden(t *testing.T) {
	parent := &models.Event{ID: uuid.New(), OrganizerID: uuid.New()}
	events := &fakeEvents{events: map[uuid.UUID]*models.Event{parent.ID: parent}}
	svc := newTestService(newFakeStore(), events, &fakeChecker{})

	_, err := svc.Create(context.Background(), organizer(), CreateParams{
		EventID: &parent.ID, Title: "Workshop", SpaceID: uuid.New(), TimeRange: validRange(t),
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Create(context.Background(), admin(), CreateParams{
		EventID: &parent.ID, Title: "Workshop", SpaceID: uuid.New(), TimeRange: validRange(t),
	})
	assert.NoError(t, err, "admin may schedule under any event")
}

func TestCreateValidatesTiming(t *testing.T) {
	checker := &fakeChecker{}
	store := newFakeStore()
	svc := newTestService(store, nil, checker)

	sameDay, err := schedule.NewTimeRange(testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), organizer(), CreateParams{
		Title: "Workshop", SpaceID: uuid.New(), TimeRange: sameDay,
	})
	var vErr *schedule.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, checker.calls)
	assert.Empty(t, store.created)
}

func TestCreateAbortsOnSpaceConflict(t *testing.T) {
	store := newFakeStore()
	checker := &fakeChecker{conflict: &schedule.ConflictError{Kind: "session", Title: "Rehearsal"}}
	svc := newTestService(store, nil, checker)

	_, err := svc.Create(context.Background(), organizer(), CreateParams{
		Title: "Workshop", SpaceID: uuid.New(), TimeRange: validRange(t),
	})
	var cErr *schedule.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Empty(t, store.created)
}

func TestCreateStandaloneSession(t *testing.T) {
	store := newFakeStore()
	checker := &fakeChecker{}
	svc := newTestService(store, nil, checker)
	caller := organizer()
	spaceID := uuid.New()

	sess, err := svc.Create(context.Background(), caller, CreateParams{
		Title: "Workshop", SpaceID: spaceID, TimeRange: validRange(t),
	})
	require.NoError(t, err)
	assert.Nil(t, sess.EventID)
	assert.Equal(t, caller.UserID, sess.OrganizerID)
	assert.Equal(t, models.StatusDraft, sess.Status)
	assert.Equal(t, spaceID, checker.lastSpace)
	assert.Nil(t, checker.lastExcludeSession)
}

func TestUpdateRescheduleExcludesSelf(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	sess := &models.Session{
		ID: uuid.New(), OrganizerID: owner.UserID, Title: "Workshop",
		Status: models.StatusPublished, SpaceID: uuid.New(), TimeRange: validRange(t),
	}
	store.sessions[sess.ID] = sess
	checker := &fakeChecker{}
	svc := newTestService(store, nil, checker)

	next, err := schedule.NewTimeRange(
		time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 12, 16, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), owner, sess.ID, UpdateParams{TimeRange: &next})
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)
	require.NotNil(t, checker.lastExcludeSession)
	assert.Equal(t, sess.ID, *checker.lastExcludeSession)
	assert.Equal(t, next, got.TimeRange)
}

func TestUpdateSpaceMoveRunsOverlapScan(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	sess := &models.Session{
		ID: uuid.New(), OrganizerID: owner.UserID, Title: "Workshop",
		Status: models.StatusPublished, SpaceID: uuid.New(), TimeRange: validRange(t),
	}
	store.sessions[sess.ID] = sess
	checker := &fakeChecker{}
	svc := newTestService(store, nil, checker)
	newSpace := uuid.New()

	// Moving spaces without touching the range still reruns the scan with the
	// existing range; timing is not re-validated.
	got, err := svc.Update(context.Background(), owner, sess.ID, UpdateParams{SpaceID: &newSpace})
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, newSpace, checker.lastSpace)
	assert.Equal(t, newSpace, got.SpaceID)
}

func TestUpdateTitleOnlySkipsOverlapScan(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	sess := &models.Session{
		ID: uuid.New(), OrganizerID: owner.UserID, Title: "Workshop",
		Status: models.StatusDraft, SpaceID: uuid.New(), TimeRange: validRange(t),
	}
	store.sessions[sess.ID] = sess
	checker := &fakeChecker{}
	svc := newTestService(store, nil, checker)

	title := "Renamed"
	got, err := svc.Update(context.Background(), owner, sess.ID, UpdateParams{Title: &title})
	require.NoError(t, err)
	assert.Zero(t, checker.calls)
	assert.Equal(t, "Renamed", got.Title)
}

func TestUpdateForbiddenForOtherOrganizer(t *testing.T) {
	store := newFakeStore()
	sess := &models.Session{
		ID: uuid.New(), OrganizerID: uuid.New(), Title: "Workshop",
		Status: models.StatusDraft, SpaceID: uuid.New(), TimeRange: validRange(t),
	}
	store.sessions[sess.ID] = sess
	svc := newTestService(store, nil, &fakeChecker{})

	title := "Renamed"
	_, err := svc.Update(context.Background(), organizer(), sess.ID, UpdateParams{Title: &title})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestDeleteReturnsRemovedSession(t *testing.T) {
	store := newFakeStore()
	owner := organizer()
	sess := &models.Session{
		ID: uuid.New(), OrganizerID: owner.UserID, Title: "Workshop",
		Status: models.StatusDraft, SpaceID: uuid.New(), TimeRange: validRange(t),
	}
	store.sessions[sess.ID] = sess
	svc := newTestService(store, nil, &fakeChecker{})

	got, err := svc.Delete(context.Background(), owner, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = svc.Delete(context.Background(), owner, sess.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListByEventRequiresEvent(t *testing.T) {
	store := newFakeStore()
	store.byEvent = []models.Session{{Title: "Workshop"}}
	parent := &models.Event{ID: uuid.New(), OrganizerID: uuid.New()}
	events := &fakeEvents{events: map[uuid.UUID]*models.Event{parent.ID: parent}}
	svc := newTestService(store, events, &fakeChecker{})

	list, err := svc.ListByEvent(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListByEvent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

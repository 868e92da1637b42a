package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	database "jadwalku_backend/internals/databases"
	"jadwalku_backend/internals/helpers/dbtime"
)

func newBadgerStore(t *testing.T) *repo.BadgerStore {
	t.Helper()
	db, err := database.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repo.NewBadgerStore(db)
}

func newTestService(t *testing.T, store repo.Store) *ScheduleService {
	t.Helper()
	return NewScheduleService(store, NewTransactionLog(nil, nil, nil), Options{Policy: fastPolicy()})
}

func input(room, day, tr, instructor string) ScheduleInput {
	return ScheduleInput{
		Course:         "BSIT",
		YearLevel:      "1",
		Section:        "A",
		Subject:        "Programming 1",
		InstructorName: instructor,
		Day:            day,
		TimeRange:      tr,
		Room:           room,
	}
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

// racingStore: CAS berikutnya didahului writer lain (versi maju sebelum CAS kita).
type racingStore struct {
	repo.Store
	mu    sync.Mutex
	races int
}

func (s *racingStore) CompareAndSwapUpdate(ctx context.Context, id uuid.UUID, expected int64, mutate repo.Mutator) (*m.ClassScheduleModel, error) {
	s.mu.Lock()
	race := s.races > 0
	if race {
		s.races--
	}
	s.mu.Unlock()
	if race {
		if _, err := s.Store.CompareAndSwapUpdate(ctx, id, expected, func(r *m.ClassScheduleModel) error {
			r.ClassScheduleSubject += "*"
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return s.Store.CompareAndSwapUpdate(ctx, id, expected, mutate)
}

// shiftingStore menjalankan hook sekali setelah FindMany pertama (scan basi).
type shiftingStore struct {
	repo.Store
	once sync.Once
	hook func()
}

func (s *shiftingStore) FindMany(ctx context.Context, f repo.Filter) ([]m.ClassScheduleModel, error) {
	out, err := s.Store.FindMany(ctx, f)
	s.once.Do(s.hook)
	return out, err
}

// lossyStore: CAS berikutnya tersimpan, tapi pemanggil menerima store unavailable (koneksi putus setelah commit).
type lossyStore struct {
	repo.Store
	mu    sync.Mutex
	drops int
}

func (s *lossyStore) CompareAndSwapUpdate(ctx context.Context, id uuid.UUID, expected int64, mutate repo.Mutator) (*m.ClassScheduleModel, error) {
	rec, err := s.Store.CompareAndSwapUpdate(ctx, id, expected, mutate)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drops > 0 {
		s.drops--
		return nil, repo.Unavailable(context.DeadlineExceeded)
	}
	return rec, nil
}

func TestCreateRecordsAuditAndEvents(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	res, err := svc.Create(ctx, "admin-1", input("R101", "mon/wed", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Record.ClassScheduleVersion)
	assert.Equal(t, "Monday/Wednesday", res.Record.ClassScheduleDay)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, m.OperationCreate, res.Transaction.ClassScheduleTransactionKind)
	assert.Equal(t, "admin-1", res.Transaction.ClassScheduleTransactionActorID)

	require.Len(t, res.Events, 3)
	kinds := []EventKind{res.Events[0].Kind, res.Events[1].Kind, res.Events[2].Kind}
	assert.ElementsMatch(t, []EventKind{EventBroadcast, EventCalendarSync, EventActivityLog}, kinds)

	got, err := svc.Get(ctx, res.Record.ClassScheduleID)
	require.NoError(t, err)
	assert.Equal(t, "R101", got.ClassScheduleRoom)
}

func TestCreateRejectsRoomConflictButAllowsTouching(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	_, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	pending := svc.TransactionLog().Pending()

	_, err = svc.Create(ctx, "admin", input("R101", "Monday", "8:00 AM - 10:00 AM", "Ben Reyes"))
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, RoomConflict, ce.Kind)
	assert.Equal(t, pending, svc.TransactionLog().Pending())

	_, err = svc.Create(ctx, "admin", input("R101", "Monday", "9:00 AM - 10:00 AM", "Ben Reyes"))
	require.NoError(t, err)

	// instruktur yang sama di ruangan lain
	_, err = svc.Create(ctx, "admin", input("R202", "Monday", "9:30 AM - 10:30 AM", "ben reyes"))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, InstructorConflict, ce.Kind)
}

func TestCreateValidationError(t *testing.T) {
	svc := newTestService(t, newBadgerStore(t))
	_, err := svc.Create(context.Background(), "admin", input("R101", "Someday", "9:00 AM", "Ana Cruz"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "class_schedule_day")
	assert.Contains(t, ve.Fields, "class_schedule_time_range")
	assert.Equal(t, 0, svc.TransactionLog().Pending())
}

func TestUpdateVersionAdvancesOncePerAcceptedMutation(t *testing.T) {
	ctx := context.Background()
	racing := &racingStore{Store: newBadgerStore(t)}
	svc := newTestService(t, racing)

	created, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := created.Record.ClassScheduleID

	rooms := []string{"R102", "R103", "R104"}
	for _, room := range rooms {
		racing.races = 1
		res, err := svc.Update(ctx, "admin", id, SchedulePatch{Room: strPtr(room)})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Attempts)
		require.Len(t, res.Changes, 1)
		assert.Equal(t, "room", res.Changes[0].Field)
	}

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	// 3 update kita + 3 writer lain
	assert.Equal(t, int64(6), got.ClassScheduleVersion)
	assert.Equal(t, "R104", got.ClassScheduleRoom)
	// perubahan writer lain tidak tertimpa
	assert.Equal(t, "Programming 1***", got.ClassScheduleSubject)
}

func TestUpdateRetryExhausted(t *testing.T) {
	ctx := context.Background()
	racing := &racingStore{Store: newBadgerStore(t)}
	svc := newTestService(t, racing)

	created, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	pending := svc.TransactionLog().Pending()

	racing.races = 10
	_, err = svc.Update(ctx, "admin", created.Record.ClassScheduleID, SchedulePatch{Room: strPtr("R999")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVersionConflict)
	var ex *RetryExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 3, ex.Attempts)
	assert.Equal(t, pending, svc.TransactionLog().Pending())
}

func TestUpdateStaleExplicitVersion(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	created, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := created.Record.ClassScheduleID
	for _, subj := range []string{"S1", "S2", "S3", "S4"} {
		_, err := svc.Update(ctx, "admin", id, SchedulePatch{Subject: strPtr(subj)})
		require.NoError(t, err)
	}
	before, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(4), before.ClassScheduleVersion)
	history, err := svc.Transactions(ctx, id)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "admin", id, SchedulePatch{Room: strPtr("R202"), ExpectedVersion: i64Ptr(3)})
	var vce *VersionConflictError
	require.ErrorAs(t, err, &vce)
	assert.Equal(t, int64(3), vce.Expected)
	assert.Equal(t, int64(4), vce.Current)
	assert.ErrorIs(t, err, ErrVersionConflict)

	after, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	historyAfter, err := svc.Transactions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, history, historyAfter)

	res, err := svc.Update(ctx, "admin", id, SchedulePatch{Room: strPtr("R202"), ExpectedVersion: i64Ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Record.ClassScheduleVersion)
}

func TestConcurrentExplicitUpdatesOneWins(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	created, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := created.Record.ClassScheduleID

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)
	for i, room := range []string{"R201", "R202"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Update(ctx, "admin", id, SchedulePatch{Room: strPtr(room), ExpectedVersion: i64Ptr(0)})
		}()
	}
	close(start)
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClassScheduleVersion)
}

func TestConflictThatVanishesIsRetried(t *testing.T) {
	ctx := context.Background()
	base := newBadgerStore(t)
	blocker := &m.ClassScheduleModel{
		ClassScheduleCourse: "BSCS", ClassScheduleYearLevel: "2", ClassScheduleSection: "B",
		ClassScheduleSubject: "Networks", ClassScheduleInstructorName: "Ben Reyes",
		ClassScheduleDay: "Monday", ClassScheduleTimeRange: "7:00 AM - 9:00 AM", ClassScheduleRoom: "R101",
	}
	require.NoError(t, base.Insert(ctx, blocker))

	shifting := &shiftingStore{Store: base, hook: func() {
		// writer lain meng-archive blocker tepat setelah scan kita
		_, err := base.CompareAndSwapUpdate(ctx, blocker.ClassScheduleID, 0, func(r *m.ClassScheduleModel) error {
			r.ClassScheduleIsArchived = true
			return nil
		})
		require.NoError(t, err)
	}}
	svc := newTestService(t, shifting)

	res, err := svc.Create(ctx, "admin", input("R101", "Monday", "8:00 AM - 10:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
}

func TestUpdateCommittedDespiteUnavailableIsNotReapplied(t *testing.T) {
	ctx := context.Background()
	lossy := &lossyStore{Store: newBadgerStore(t)}
	svc := newTestService(t, lossy)

	created, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := created.Record.ClassScheduleID

	lossy.drops = 1
	res, err := svc.Update(ctx, "admin", id, SchedulePatch{Subject: strPtr("New")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, int64(1), res.Record.ClassScheduleVersion)
	assert.Equal(t, int64(1), res.Transaction.ClassScheduleTransactionResultingVersion)
	assert.Equal(t, []m.FieldChange{{Field: "subject", OldValue: "Programming 1", NewValue: "New"}}, res.Changes)

	// versi eksplisit: write yang sudah mendarat bukan version conflict
	lossy.drops = 1
	res, err = svc.Update(ctx, "admin", id, SchedulePatch{Room: strPtr("R202"), ExpectedVersion: i64Ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Record.ClassScheduleVersion)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "room", res.Changes[0].Field)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClassScheduleVersion)
	history, err := svc.Transactions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestArchiveAndAttachCommittedDespiteUnavailable(t *testing.T) {
	ctx := context.Background()
	lossy := &lossyStore{Store: newBadgerStore(t)}
	svc := newTestService(t, lossy)

	created, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := created.Record.ClassScheduleID

	lossy.drops = 1
	arch, err := svc.Archive(ctx, "admin", id, i64Ptr(0))
	require.NoError(t, err)
	assert.True(t, arch.Record.ClassScheduleIsArchived)
	assert.Equal(t, int64(1), arch.Record.ClassScheduleVersion)

	lossy.drops = 1
	require.NoError(t, svc.AttachExternalRef(ctx, id, "evt-9"))

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClassScheduleVersion)
	history, err := svc.Transactions(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, SystemCalendarActor, history[2].ClassScheduleTransactionActorID)
}

func TestArchiveRestore(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	a, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := a.Record.ClassScheduleID

	arch, err := svc.Archive(ctx, "admin", id, nil)
	require.NoError(t, err)
	assert.True(t, arch.Record.ClassScheduleIsArchived)
	assert.Equal(t, m.ActionArchived, arch.Transaction.ClassScheduleTransactionAction)
	assert.Equal(t, m.OperationUpdate, arch.Transaction.ClassScheduleTransactionKind)

	_, err = svc.Archive(ctx, "admin", id, nil)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// slot kosong lagi
	_, err = svc.Create(ctx, "admin", input("R101", "Monday", "8:00 AM - 9:00 AM", "Ben Reyes"))
	require.NoError(t, err)

	_, err = svc.Restore(ctx, "admin", id, nil)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, RoomConflict, ce.Kind)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.ClassScheduleIsArchived)
	assert.Equal(t, int64(1), got.ClassScheduleVersion)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	a, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := a.Record.ClassScheduleID

	_, err = svc.Delete(ctx, "admin", id, i64Ptr(5))
	var vce *VersionConflictError
	require.ErrorAs(t, err, &vce)
	assert.Equal(t, int64(0), vce.Current)

	res, err := svc.Delete(ctx, "admin", id, i64Ptr(0))
	require.NoError(t, err)
	assert.Equal(t, m.OperationDelete, res.Transaction.ClassScheduleTransactionKind)
	assert.Equal(t, int64(1), res.Transaction.ClassScheduleTransactionResultingVersion)

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Delete(ctx, "admin", id, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := svc.Transactions(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, m.OperationCreate, history[0].ClassScheduleTransactionKind)
	assert.Equal(t, m.OperationDelete, history[1].ClassScheduleTransactionKind)
}

func TestBulkCreatePartial(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	res, err := svc.BulkCreate(ctx, "admin", []ScheduleInput{
		input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"),
		input("R101", "Monday", "8:00 AM - 9:00 AM", "Ben Reyes"), // bentrok dengan item pertama
		input("", "Monday", "8:00 AM - 9:00 AM", "Ben Reyes"),
		input("R202", "Tuesday", "8:00 AM - 9:00 AM", "Ben Reyes"),
	})
	require.NoError(t, err)
	assert.Equal(t, m.TransactionPartial, res.Status)
	require.Len(t, res.Items, 4)
	assert.NoError(t, res.Items[0].Err)
	var ce *ConflictError
	assert.ErrorAs(t, res.Items[1].Err, &ce)
	var ve *ValidationError
	assert.ErrorAs(t, res.Items[2].Err, &ve)
	assert.NoError(t, res.Items[3].Err)
	assert.Len(t, res.Events, 6)

	assert.Equal(t, m.OperationBulk, res.Transaction.ClassScheduleTransactionKind)
	assert.Equal(t, uuid.Nil, res.Transaction.ClassScheduleTransactionEntityID)
	assert.Equal(t, m.TransactionPartial, res.Transaction.ClassScheduleTransactionStatus)

	all, err := svc.BulkCreate(ctx, "admin", []ScheduleInput{input("R101", "Monday", "7:00 AM - 8:00 AM", "Zed")})
	require.NoError(t, err)
	assert.Equal(t, m.TransactionFailed, all.Status)

	_, err = svc.BulkCreate(ctx, "admin", nil)
	require.ErrorAs(t, err, &ve)
}

func TestAttachExternalRef(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	a, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)
	id := a.Record.ClassScheduleID

	require.NoError(t, svc.AttachExternalRef(ctx, id, "evt-123"))
	require.NoError(t, svc.AttachExternalRef(ctx, id, "evt-123"))

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.ClassScheduleExternalEventRef)
	assert.Equal(t, "evt-123", *got.ClassScheduleExternalEventRef)
	assert.Equal(t, int64(1), got.ClassScheduleVersion)

	history, err := svc.Transactions(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, SystemCalendarActor, history[1].ClassScheduleTransactionActorID)

	assert.ErrorIs(t, svc.AttachExternalRef(ctx, uuid.New(), "evt-x"), ErrNotFound)
}

func TestCheckConflictDryRun(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	a, err := svc.Create(ctx, "admin", input("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz"))
	require.NoError(t, err)

	conflicts, err := svc.CheckConflict(ctx, input("R101", "Monday", "8:00 AM - 10:00 AM", "Ben Reyes"), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, a.Record.ClassScheduleID, conflicts[0].Existing.ClassScheduleID)

	// mengedit dirinya sendiri tidak bentrok
	conflicts, err = svc.CheckConflict(ctx, input("R101", "Monday", "8:00 AM - 10:00 AM", "Ana Cruz"), a.Record.ClassScheduleID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestServiceAvailabilityAndSuggestions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newBadgerStore(t))

	for _, in := range []ScheduleInput{
		input("R101", "Monday/Wednesday", "7:00 AM - 9:00 AM", "Ana Cruz"),
		input("R101", "Monday", "10:00 AM - 11:00 AM", "Ben Reyes"),
	} {
		_, err := svc.Create(ctx, "admin", in)
		require.NoError(t, err)
	}

	a, err := svc.Availability(ctx, dbtime.Monday, repo.Filter{Room: "R101"})
	require.NoError(t, err)
	assert.Equal(t, []dbtime.Interval{{Start: 540, End: 600}, {Start: 660, End: 1260}}, a.Free)

	slots, err := svc.SuggestSlots(ctx, dbtime.Monday, repo.Filter{Room: "R101"}, 90)
	require.NoError(t, err)
	assert.Equal(t, []dbtime.Interval{{Start: 660, End: 1260}}, slots)

	week, err := svc.WeeklyAvailability(ctx, repo.Filter{Room: "R101"})
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, []dbtime.Interval{{Start: 420, End: 540}}, week[dbtime.Wednesday].Busy)
	assert.Empty(t, week[dbtime.Tuesday].Busy)
}

func TestScanFindsBadDataAndOverlaps(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)
	svc := newTestService(t, store)

	// data lama yang masuk sebelum validasi ketat
	legacy := []*m.ClassScheduleModel{
		{ClassScheduleRoom: "R101", ClassScheduleDay: "Monday", ClassScheduleTimeRange: "7:00 AM - 9:00 AM", ClassScheduleInstructorName: "Ana Cruz"},
		{ClassScheduleRoom: "R101", ClassScheduleDay: "Monday", ClassScheduleTimeRange: "8:00 AM - 9:30 AM", ClassScheduleInstructorName: "Ben Reyes"},
		{ClassScheduleRoom: "R303", ClassScheduleDay: "Monday", ClassScheduleTimeRange: "sometime", ClassScheduleInstructorName: "Carla Diaz"},
		{ClassScheduleRoom: "R404", ClassScheduleDay: "Moonday", ClassScheduleTimeRange: "1:00 PM - 2:00 PM", ClassScheduleInstructorName: "Dan Lee"},
	}
	for _, rec := range legacy {
		require.NoError(t, store.Insert(ctx, rec))
	}

	report, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 1, report.Count(IssueConflict))
	assert.Equal(t, 1, report.Count(IssueUnparsableTime))
	assert.Equal(t, 1, report.Count(IssueUnparsableDay))
}

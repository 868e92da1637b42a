// file: internals/features/school/class_schedules/service/schedule_service.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/helpers/dbtime"
)

const (
	tracerName = "jadwalku_backend/class_schedules"

	// actor untuk write-back hasil calendar sync
	SystemCalendarActor = "system:calendar-sync"
)

/* =========================
   Input
   ========================= */

type ScheduleInput struct {
	Course          string
	YearLevel       string
	Section         string
	Subject         string
	InstructorName  string
	InstructorEmail *string
	Day             string
	TimeRange       string
	Room            string
}

func (in ScheduleInput) toModel() *m.ClassScheduleModel {
	rec := &m.ClassScheduleModel{
		ClassScheduleCourse:         in.Course,
		ClassScheduleYearLevel:      in.YearLevel,
		ClassScheduleSection:        in.Section,
		ClassScheduleSubject:        in.Subject,
		ClassScheduleInstructorName: in.InstructorName,
		ClassScheduleDay:            in.Day,
		ClassScheduleTimeRange:      in.TimeRange,
		ClassScheduleRoom:           in.Room,
	}
	if in.InstructorEmail != nil {
		v := *in.InstructorEmail
		rec.ClassScheduleInstructorEmail = &v
	}
	return rec
}

// SchedulePatch: field nil = tidak diubah. ExpectedVersion != nil → versi eksplisit (tanpa auto-retry
// untuk version conflict).
type SchedulePatch struct {
	Course          *string
	YearLevel       *string
	Section         *string
	Subject         *string
	InstructorName  *string
	InstructorEmail *string
	Day             *string
	TimeRange       *string
	Room            *string

	ExpectedVersion *int64
}

func (p SchedulePatch) apply(rec *m.ClassScheduleModel) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&rec.ClassScheduleCourse, p.Course)
	set(&rec.ClassScheduleYearLevel, p.YearLevel)
	set(&rec.ClassScheduleSection, p.Section)
	set(&rec.ClassScheduleSubject, p.Subject)
	set(&rec.ClassScheduleInstructorName, p.InstructorName)
	set(&rec.ClassScheduleDay, p.Day)
	set(&rec.ClassScheduleTimeRange, p.TimeRange)
	set(&rec.ClassScheduleRoom, p.Room)
	if p.InstructorEmail != nil {
		v := *p.InstructorEmail
		rec.ClassScheduleInstructorEmail = &v
	}
}

// copyScheduleFields: semua field yang boleh diubah mutator (bukan id/version/created_at).
func copyScheduleFields(dst, src *m.ClassScheduleModel) {
	cp := src.Clone()
	dst.ClassScheduleCourse = cp.ClassScheduleCourse
	dst.ClassScheduleYearLevel = cp.ClassScheduleYearLevel
	dst.ClassScheduleSection = cp.ClassScheduleSection
	dst.ClassScheduleSubject = cp.ClassScheduleSubject
	dst.ClassScheduleInstructorName = cp.ClassScheduleInstructorName
	dst.ClassScheduleInstructorEmail = cp.ClassScheduleInstructorEmail
	dst.ClassScheduleDay = cp.ClassScheduleDay
	dst.ClassScheduleTimeRange = cp.ClassScheduleTimeRange
	dst.ClassScheduleRoom = cp.ClassScheduleRoom
	dst.ClassScheduleIsArchived = cp.ClassScheduleIsArchived
	dst.ClassScheduleExternalEventRef = cp.ClassScheduleExternalEventRef
}

func sameScheduleFields(a, b *m.ClassScheduleModel) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Snapshot() == b.Snapshot() &&
		refEqual(a.ClassScheduleInstructorEmail, b.ClassScheduleInstructorEmail) &&
		a.ClassScheduleIsArchived == b.ClassScheduleIsArchived &&
		refEqual(a.ClassScheduleExternalEventRef, b.ClassScheduleExternalEventRef)
}

func refEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// pendingWrite: CAS yang gagal dengan store unavailable bisa saja sudah commit.
// Attempt berikutnya memakai row itu apa adanya, bukan menulis ulang.
type pendingWrite struct {
	base *m.ClassScheduleModel
	want *m.ClassScheduleModel
}

func (p *pendingWrite) remember(err error, base, want *m.ClassScheduleModel) {
	if errors.Is(err, ErrStoreUnavailable) {
		p.base, p.want = base, want
		return
	}
	p.base, p.want = nil, nil
}

func (p *pendingWrite) landed(cur *m.ClassScheduleModel) (mutationPair, bool) {
	if p.base == nil || cur == nil {
		return mutationPair{}, false
	}
	if cur.ClassScheduleVersion != p.base.ClassScheduleVersion+1 || !sameScheduleFields(cur, p.want) {
		return mutationPair{}, false
	}
	return mutationPair{prev: p.base, next: cur}, true
}

/* =========================
   Result
   ========================= */

type MutationResult struct {
	Record      *m.ClassScheduleModel
	Previous    *m.ClassScheduleModel
	Changes     []m.FieldChange
	Transaction m.ClassScheduleTransactionModel
	Attempts    int
	Events      []Event
}

type BulkItemResult struct {
	Index       int
	Record      *m.ClassScheduleModel
	Transaction *m.ClassScheduleTransactionModel
	Err         error
}

type BulkResult struct {
	Items       []BulkItemResult
	Status      m.TransactionStatus
	Transaction m.ClassScheduleTransactionModel
	Events      []Event
}

/* =========================
   Service
   ========================= */

type Options struct {
	Policy  RetryPolicy
	Window  dbtime.Window
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

type ScheduleService struct {
	store    repo.Store
	txlog    *TransactionLog
	detector *ConflictDetector
	policy   RetryPolicy
	window   dbtime.Window
	log      *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

func NewScheduleService(store repo.Store, txlog *TransactionLog, opts Options) *ScheduleService {
	if opts.Policy.MaxAttempts == 0 {
		onRetry := opts.Policy.OnRetry
		opts.Policy = DefaultRetryPolicy()
		opts.Policy.OnRetry = onRetry
	}
	if opts.Window == (dbtime.Window{}) {
		opts.Window = dbtime.DefaultWindow()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if txlog == nil {
		txlog = NewTransactionLog(nil, opts.Logger, opts.Metrics)
	}
	return &ScheduleService{
		store:    store,
		txlog:    txlog,
		detector: NewConflictDetector(opts.Logger, opts.Metrics),
		policy:   opts.Policy,
		window:   opts.Window,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
	}
}

func (s *ScheduleService) Window() dbtime.Window           { return s.window }
func (s *ScheduleService) TransactionLog() *TransactionLog { return s.txlog }
func (s *ScheduleService) Detector() *ConflictDetector     { return s.detector }

/* =========================
   Validation (parse, don't validate)
   ========================= */

// prepare menormalkan record (trim, hari & jam kanonik) dan menghasilkan Proposal.
func prepare(rec *m.ClassScheduleModel) (Proposal, error) {
	var v ValidationError

	trim := func(field string, dst *string, required bool) {
		*dst = strings.TrimSpace(*dst)
		if required && *dst == "" {
			v.Add(field, "wajib diisi")
		}
	}
	trim("class_schedule_course", &rec.ClassScheduleCourse, true)
	trim("class_schedule_year_level", &rec.ClassScheduleYearLevel, true)
	trim("class_schedule_section", &rec.ClassScheduleSection, true)
	trim("class_schedule_subject", &rec.ClassScheduleSubject, true)
	trim("class_schedule_instructor_name", &rec.ClassScheduleInstructorName, true)
	trim("class_schedule_room", &rec.ClassScheduleRoom, true)

	if rec.ClassScheduleInstructorEmail != nil {
		email := strings.TrimSpace(*rec.ClassScheduleInstructorEmail)
		switch {
		case email == "":
			rec.ClassScheduleInstructorEmail = nil
		case !strings.Contains(email, "@"):
			v.Add("class_schedule_instructor_email", "format email tidak valid")
		default:
			rec.ClassScheduleInstructorEmail = &email
		}
	}

	days, unknown := parseDayField(rec.ClassScheduleDay)
	switch {
	case len(unknown) > 0:
		v.Add("class_schedule_day", "hari tidak dikenal: "+strings.Join(unknown, ", "))
	case days.Empty():
		v.Add("class_schedule_day", "wajib diisi")
	default:
		rec.ClassScheduleDay = days.String()
	}

	r, ok := dbtime.ParseRange(rec.ClassScheduleTimeRange)
	if !ok {
		v.Add("class_schedule_time_range", `format harus "H:MM AM - H:MM PM" dan jam selesai setelah jam mulai`)
	} else {
		rec.ClassScheduleTimeRange = r.String()
	}

	if err := v.orNil(); err != nil {
		return Proposal{}, err
	}
	return Proposal{
		Room:            rec.ClassScheduleRoom,
		Days:            days,
		Range:           r,
		InstructorName:  rec.ClassScheduleInstructorName,
		InstructorEmail: rec.InstructorEmail(),
	}, nil
}

// parseDayField: untuk input baru token asing ditolak (data lama cukup di-drop oleh dbtime.ParseDays).
func parseDayField(field string) (dbtime.DaySet, []string) {
	var set dbtime.DaySet
	var unknown []string
	for _, tok := range strings.Split(field, dbtime.DaySeparator) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		d, ok := dbtime.ParseWeekday(tok)
		if !ok {
			unknown = append(unknown, tok)
			continue
		}
		set = set.With(d)
	}
	return set, unknown
}

/* =========================
   Conflict check (dalam unit kerja)
   ========================= */

// ensureNoConflict: scan kandidat lalu konfirmasi ulang record yang bentrok. Kalau record itu
// hilang / di-archive / berubah versi sejak scan → ErrTransientConflict (di-retry).
func (s *ScheduleService) ensureNoConflict(ctx context.Context, p Proposal, excludeID uuid.UUID) error {
	cands, err := s.store.FindMany(ctx, p.candidateFilter(excludeID))
	if err != nil {
		return err
	}
	c := s.detector.FindConflict(p, excludeID, cands)
	if c == nil {
		return nil
	}

	cur, err := s.store.FindByID(ctx, c.Existing.ClassScheduleID)
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrTransientConflict
	case err != nil:
		return err
	}
	if cur.ClassScheduleIsArchived || cur.ClassScheduleVersion != c.Existing.ClassScheduleVersion {
		return ErrTransientConflict
	}

	s.metrics.conflict(c.Kind)
	return c.asError()
}

func (s *ScheduleService) policyFor(op string, explicitVersion bool) RetryPolicy {
	p := s.policy
	userHook := p.OnRetry
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		reason := retryReason(err)
		s.metrics.retry(op, reason)
		s.log.Info("retrying class schedule mutation",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("reason", reason),
		)
		if userHook != nil {
			userHook(attempt, delay, err)
		}
	}
	if explicitVersion {
		p = p.NoVersionRetry()
	}
	return p
}

func retryReason(err error) string {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrTransientConflict):
		return "transient_conflict"
	default:
		return "version_conflict"
	}
}

func outcomeOf(err error) string {
	var (
		ve *ValidationError
		ce *ConflictError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	}
	return "error"
}

func (s *ScheduleService) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error, attempts int)) {
	ctx, span := s.tracer.Start(ctx, "class_schedule."+op, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error, attempts int) {
		span.SetAttributes(attribute.Int("retry.attempts", attempts), attribute.String("outcome", outcomeOf(err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.mutation(op, outcomeOf(err), time.Since(start).Seconds())
	}
}

// versionConflict membangun error dengan versi terkini (best effort).
func (s *ScheduleService) versionConflict(ctx context.Context, id uuid.UUID, expected int64) error {
	cur, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return &VersionConflictError{ID: id, Expected: expected, Current: -1}
	}
	return &VersionConflictError{ID: id, Expected: expected, Current: cur.ClassScheduleVersion}
}

/* =========================
   Create
   ========================= */

func (s *ScheduleService) Create(ctx context.Context, actorID string, in ScheduleInput) (res *MutationResult, err error) {
	ctx, done := s.begin(ctx, "create")
	defer func() {
		attempts := 0
		if res != nil {
			attempts = res.Attempts
		}
		done(err, attempts)
	}()
	return s.create(ctx, actorID, in)
}

func (s *ScheduleService) create(ctx context.Context, actorID string, in ScheduleInput) (*MutationResult, error) {
	rec := in.toModel()
	prop, err := prepare(rec)
	if err != nil {
		return nil, err
	}
	// id ditetapkan sekali: kalau insert sebelumnya ternyata tersimpan, retry tidak menggandakan
	rec.ClassScheduleID = uuid.New()

	attempts := 0
	created, err := RunWithRetry(ctx, s.policyFor("create", false), func(ctx context.Context, attempt int) (*m.ClassScheduleModel, error) {
		attempts = attempt
		if err := s.ensureNoConflict(ctx, prop, rec.ClassScheduleID); err != nil {
			return nil, err
		}
		fresh := rec.Clone()
		if err := s.store.Insert(ctx, fresh); err != nil {
			if attempt > 1 && errors.Is(err, repo.ErrAlreadyExists) {
				return s.store.FindByID(ctx, fresh.ClassScheduleID)
			}
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	changes := DetectChanges(m.ScheduleSnapshot{}, created.Snapshot())
	tx := s.txlog.Record(TransactionEntry{
		ActorID:          actorID,
		Kind:             m.OperationCreate,
		Action:           m.ActionCreated,
		EntityID:         created.ClassScheduleID,
		ResultingVersion: created.ClassScheduleVersion,
		Snapshot:         created,
		Changes:          changes,
	})
	return &MutationResult{
		Record:      created,
		Changes:     changes,
		Transaction: tx,
		Attempts:    attempts,
		Events:      postCommitEvents(actorID, m.ActionCreated, created, changes),
	}, nil
}

/* =========================
   Bulk create
   ========================= */

type bulkPayloadItem struct {
	Index int       `json:"index"`
	ID    uuid.UUID `json:"class_schedule_id,omitempty"`
	Error string    `json:"error,omitempty"`
}

// BulkCreate: item diproses berurutan (item berikutnya melihat item yang sudah diterima).
// Tiap item punya transaksi create sendiri + satu transaksi "bulk" untuk keseluruhan.
func (s *ScheduleService) BulkCreate(ctx context.Context, actorID string, inputs []ScheduleInput) (res *BulkResult, err error) {
	ctx, done := s.begin(ctx, "bulk_create", attribute.Int("bulk.items", len(inputs)))
	defer func() { done(err, 1) }()

	if len(inputs) == 0 {
		v := &ValidationError{}
		v.Add("items", "minimal 1 jadwal")
		return nil, v
	}

	res = &BulkResult{Items: make([]BulkItemResult, len(inputs))}
	payload := make([]bulkPayloadItem, len(inputs))
	ok := 0
	for i, in := range inputs {
		item := BulkItemResult{Index: i}
		if cerr := ctx.Err(); cerr != nil {
			item.Err = cerr
		} else if r, ierr := s.create(ctx, actorID, in); ierr != nil {
			item.Err = ierr
		} else {
			item.Record = r.Record
			tx := r.Transaction
			item.Transaction = &tx
			res.Events = append(res.Events, r.Events...)
			ok++
		}

		payload[i] = bulkPayloadItem{Index: i}
		if item.Record != nil {
			payload[i].ID = item.Record.ClassScheduleID
		}
		if item.Err != nil {
			payload[i].Error = item.Err.Error()
		}
		res.Items[i] = item
	}

	switch {
	case ok == len(inputs):
		res.Status = m.TransactionSuccess
	case ok == 0:
		res.Status = m.TransactionFailed
	default:
		res.Status = m.TransactionPartial
	}

	res.Transaction = s.txlog.Record(TransactionEntry{
		ActorID:  actorID,
		Kind:     m.OperationBulk,
		EntityID: uuid.Nil,
		Snapshot: payload,
		Status:   res.Status,
	})
	return res, nil
}

/* =========================
   Update
   ========================= */

type mutationPair struct {
	prev *m.ClassScheduleModel
	next *m.ClassScheduleModel
}

func (s *ScheduleService) Update(ctx context.Context, actorID string, id uuid.UUID, patch SchedulePatch) (res *MutationResult, err error) {
	ctx, done := s.begin(ctx, "update", attribute.String("class_schedule.id", id.String()))
	attempts := 0
	defer func() { done(err, attempts) }()

	explicit := patch.ExpectedVersion != nil
	var pending pendingWrite
	pair, err := RunWithRetry(ctx, s.policyFor("update", explicit), func(ctx context.Context, attempt int) (mutationPair, error) {
		attempts = attempt
		cur, err := s.store.FindByID(ctx, id)
		if err != nil {
			return mutationPair{}, err
		}
		if p, ok := pending.landed(cur); ok {
			return p, nil
		}
		expected := cur.ClassScheduleVersion
		if explicit {
			if *patch.ExpectedVersion != cur.ClassScheduleVersion {
				return mutationPair{}, &VersionConflictError{ID: id, Expected: *patch.ExpectedVersion, Current: cur.ClassScheduleVersion}
			}
			expected = *patch.ExpectedVersion
		}

		next := cur.Clone()
		patch.apply(next)
		prop, err := prepare(next)
		if err != nil {
			return mutationPair{}, err
		}
		if !next.ClassScheduleIsArchived {
			if err := s.ensureNoConflict(ctx, prop, id); err != nil {
				return mutationPair{}, err
			}
		}

		updated, err := s.store.CompareAndSwapUpdate(ctx, id, expected, func(r *m.ClassScheduleModel) error {
			copyScheduleFields(r, next)
			return nil
		})
		if err != nil {
			pending.remember(err, cur, next)
			if explicit && errors.Is(err, ErrVersionConflict) {
				return mutationPair{}, s.versionConflict(ctx, id, expected)
			}
			return mutationPair{}, err
		}
		return mutationPair{prev: cur, next: updated}, nil
	})
	if err != nil {
		return nil, err
	}

	return s.recordMutation(actorID, m.OperationUpdate, m.ActionUpdated, pair, attempts), nil
}

func (s *ScheduleService) recordMutation(actorID string, kind m.OperationKind, action m.Action, pair mutationPair, attempts int) *MutationResult {
	changes := DetectChanges(pair.prev.Snapshot(), pair.next.Snapshot())
	tx := s.txlog.Record(TransactionEntry{
		ActorID:          actorID,
		Kind:             kind,
		Action:           action,
		EntityID:         pair.next.ClassScheduleID,
		ResultingVersion: pair.next.ClassScheduleVersion,
		Snapshot:         pair.next,
		Changes:          changes,
	})
	return &MutationResult{
		Record:      pair.next,
		Previous:    pair.prev,
		Changes:     changes,
		Transaction: tx,
		Attempts:    attempts,
		Events:      postCommitEvents(actorID, action, pair.next, changes),
	}
}

/* =========================
   Archive / Restore
   ========================= */

func (s *ScheduleService) Archive(ctx context.Context, actorID string, id uuid.UUID, expectedVersion *int64) (*MutationResult, error) {
	return s.setArchived(ctx, actorID, id, expectedVersion, true)
}

// Restore mengaktifkan kembali record; harus lolos cek bentrok karena ikut dihitung lagi.
func (s *ScheduleService) Restore(ctx context.Context, actorID string, id uuid.UUID, expectedVersion *int64) (*MutationResult, error) {
	return s.setArchived(ctx, actorID, id, expectedVersion, false)
}

func (s *ScheduleService) setArchived(ctx context.Context, actorID string, id uuid.UUID, expectedVersion *int64, archived bool) (res *MutationResult, err error) {
	op, action := "archive", m.ActionArchived
	if !archived {
		op, action = "restore", m.ActionRestored
	}
	ctx, done := s.begin(ctx, op, attribute.String("class_schedule.id", id.String()))
	attempts := 0
	defer func() { done(err, attempts) }()

	explicit := expectedVersion != nil
	var pending pendingWrite
	pair, err := RunWithRetry(ctx, s.policyFor(op, explicit), func(ctx context.Context, attempt int) (mutationPair, error) {
		attempts = attempt
		cur, err := s.store.FindByID(ctx, id)
		if err != nil {
			return mutationPair{}, err
		}
		if p, ok := pending.landed(cur); ok {
			return p, nil
		}
		expected := cur.ClassScheduleVersion
		if explicit {
			if *expectedVersion != cur.ClassScheduleVersion {
				return mutationPair{}, &VersionConflictError{ID: id, Expected: *expectedVersion, Current: cur.ClassScheduleVersion}
			}
			expected = *expectedVersion
		}
		if cur.ClassScheduleIsArchived == archived {
			v := &ValidationError{}
			if archived {
				v.Add("class_schedule_is_archived", "jadwal sudah di-archive")
			} else {
				v.Add("class_schedule_is_archived", "jadwal tidak dalam status archive")
			}
			return mutationPair{}, v
		}
		if !archived {
			prop, err := prepare(cur.Clone())
			if err != nil {
				return mutationPair{}, err
			}
			if err := s.ensureNoConflict(ctx, prop, id); err != nil {
				return mutationPair{}, err
			}
		}

		updated, err := s.store.CompareAndSwapUpdate(ctx, id, expected, func(r *m.ClassScheduleModel) error {
			r.ClassScheduleIsArchived = archived
			return nil
		})
		if err != nil {
			want := cur.Clone()
			want.ClassScheduleIsArchived = archived
			pending.remember(err, cur, want)
			if explicit && errors.Is(err, ErrVersionConflict) {
				return mutationPair{}, s.versionConflict(ctx, id, expected)
			}
			return mutationPair{}, err
		}
		return mutationPair{prev: cur, next: updated}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.recordMutation(actorID, m.OperationUpdate, action, pair, attempts), nil
}

/* =========================
   Delete (permanen)
   ========================= */

func (s *ScheduleService) Delete(ctx context.Context, actorID string, id uuid.UUID, expectedVersion *int64) (res *MutationResult, err error) {
	ctx, done := s.begin(ctx, "delete", attribute.String("class_schedule.id", id.String()))
	attempts := 0
	defer func() { done(err, attempts) }()

	explicit := expectedVersion != nil
	deleted, err := RunWithRetry(ctx, s.policyFor("delete", explicit), func(ctx context.Context, attempt int) (*m.ClassScheduleModel, error) {
		attempts = attempt
		expected := int64(0)
		if explicit {
			expected = *expectedVersion
		} else {
			cur, err := s.store.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			expected = cur.ClassScheduleVersion
		}
		rec, err := s.store.CompareAndSwapDelete(ctx, id, expected)
		if err != nil {
			if explicit && errors.Is(err, ErrVersionConflict) {
				return nil, s.versionConflict(ctx, id, expected)
			}
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	changes := DetectChanges(deleted.Snapshot(), m.ScheduleSnapshot{})
	tx := s.txlog.Record(TransactionEntry{
		ActorID:          actorID,
		Kind:             m.OperationDelete,
		Action:           m.ActionDeleted,
		EntityID:         deleted.ClassScheduleID,
		ResultingVersion: deleted.ClassScheduleVersion + 1,
		Snapshot:         deleted,
		Changes:          changes,
	})
	return &MutationResult{
		Record:      deleted,
		Previous:    deleted,
		Changes:     changes,
		Transaction: tx,
		Attempts:    attempts,
		Events:      postCommitEvents(actorID, m.ActionDeleted, deleted, changes),
	}, nil
}

/* =========================
   Calendar write-back
   ========================= */

// AttachExternalRef menyimpan referensi event kalender (CAS + retry sendiri).
// Dipanggil oleh notifier setelah sync sukses; gagal cukup di-log oleh pemanggil.
func (s *ScheduleService) AttachExternalRef(ctx context.Context, id uuid.UUID, ref string) (err error) {
	ctx, done := s.begin(ctx, "attach_external_ref", attribute.String("class_schedule.id", id.String()))
	attempts := 0
	defer func() { done(err, attempts) }()

	ref = strings.TrimSpace(ref)
	var pending pendingWrite
	pair, err := RunWithRetry(ctx, s.policyFor("attach_external_ref", false), func(ctx context.Context, attempt int) (mutationPair, error) {
		attempts = attempt
		cur, err := s.store.FindByID(ctx, id)
		if err != nil {
			return mutationPair{}, err
		}
		if p, ok := pending.landed(cur); ok {
			return p, nil
		}
		if cur.ClassScheduleExternalEventRef != nil && *cur.ClassScheduleExternalEventRef == ref {
			return mutationPair{prev: cur, next: nil}, nil
		}
		updated, err := s.store.CompareAndSwapUpdate(ctx, id, cur.ClassScheduleVersion, func(r *m.ClassScheduleModel) error {
			if ref == "" {
				r.ClassScheduleExternalEventRef = nil
			} else {
				r.ClassScheduleExternalEventRef = &ref
			}
			return nil
		})
		if err != nil {
			want := cur.Clone()
			want.ClassScheduleExternalEventRef = nil
			if ref != "" {
				want.ClassScheduleExternalEventRef = &ref
			}
			pending.remember(err, cur, want)
			return mutationPair{}, err
		}
		return mutationPair{prev: cur, next: updated}, nil
	})
	if err != nil {
		return err
	}
	if pair.next == nil {
		return nil
	}
	s.txlog.Record(TransactionEntry{
		ActorID:          SystemCalendarActor,
		Kind:             m.OperationUpdate,
		Action:           m.ActionUpdated,
		EntityID:         id,
		ResultingVersion: pair.next.ClassScheduleVersion,
		Snapshot:         pair.next,
		Changes:          DetectChanges(pair.prev.Snapshot(), pair.next.Snapshot()),
	})
	return nil
}

/* =========================
   Reads
   ========================= */

func (s *ScheduleService) Get(ctx context.Context, id uuid.UUID) (*m.ClassScheduleModel, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ScheduleService) List(ctx context.Context, f repo.Filter) ([]m.ClassScheduleModel, error) {
	return s.store.FindMany(ctx, f)
}

func (s *ScheduleService) Transactions(ctx context.Context, id uuid.UUID) ([]m.ClassScheduleTransactionModel, error) {
	return s.txlog.List(ctx, id)
}

// CheckConflict: dry run, semua bentrok untuk penempatan yang diusulkan.
func (s *ScheduleService) CheckConflict(ctx context.Context, in ScheduleInput, excludeID uuid.UUID) ([]Conflict, error) {
	prop, err := prepare(in.toModel())
	if err != nil {
		return nil, err
	}
	cands, err := s.store.FindMany(ctx, prop.candidateFilter(excludeID))
	if err != nil {
		return nil, err
	}
	return s.detector.FindAllConflicts(prop, excludeID, cands), nil
}

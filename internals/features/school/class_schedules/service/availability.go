// file: internals/features/school/class_schedules/service/availability.go
package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/helpers/dbtime"
)

type Availability struct {
	Day  dbtime.Weekday    `json:"day"`
	Busy []dbtime.Interval `json:"busy"`
	Free []dbtime.Interval `json:"free"`
}

// ComputeAvailability: busy = gabungan jam record aktif di hari tsb yang cocok filter (OR),
// di-clip ke jendela; free = komplemennya. Busy ∪ Free selalu menutup jendela tanpa celah.
func ComputeAvailability(day dbtime.Weekday, f repo.Filter, records []m.ClassScheduleModel, w dbtime.Window) Availability {
	f.ActiveOnly = true
	f.Days = dbtime.NewDaySet(day)

	busy := make([]dbtime.Interval, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !f.Match(rec) {
			continue
		}
		r, ok := rec.Range()
		if !ok {
			continue
		}
		iv := w.Clip(r.Interval())
		if iv.Empty() {
			continue
		}
		busy = append(busy, iv)
	}

	merged := dbtime.MergeIntervals(busy)
	return Availability{Day: day, Busy: merged, Free: dbtime.FreeGaps(merged, w)}
}

// Availability membaca record aktif hari itu dari store lalu menghitung busy/free.
func (s *ScheduleService) Availability(ctx context.Context, day dbtime.Weekday, f repo.Filter) (Availability, error) {
	f.ActiveOnly = true
	f.Days = dbtime.NewDaySet(day)
	recs, err := s.store.FindMany(ctx, f)
	if err != nil {
		return Availability{}, err
	}
	s.logUnparsable(recs)
	return ComputeAvailability(day, f, recs, s.window), nil
}

// WeeklyAvailability: tujuh hari, query per hari jalan paralel.
func (s *ScheduleService) WeeklyAvailability(ctx context.Context, f repo.Filter) ([]Availability, error) {
	days := dbtime.AllWeekdays()
	out := make([]Availability, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, day := range days {
		g.Go(func() error {
			a, err := s.Availability(gctx, day, f)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SuggestSlots: celah kosong yang cukup panjang untuk kelas berdurasi `duration` menit.
func (s *ScheduleService) SuggestSlots(ctx context.Context, day dbtime.Weekday, f repo.Filter, duration dbtime.Minutes) ([]dbtime.Interval, error) {
	a, err := s.Availability(ctx, day, f)
	if err != nil {
		return nil, err
	}
	out := make([]dbtime.Interval, 0, len(a.Free))
	for _, iv := range a.Free {
		if iv.Duration() >= duration {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (s *ScheduleService) logUnparsable(recs []m.ClassScheduleModel) {
	for i := range recs {
		if _, ok := recs[i].Range(); !ok {
			s.log.Warn("skip unparsable schedule in availability",
				slog.String("schedule_id", recs[i].ClassScheduleID.String()),
				slog.String("time_range", recs[i].ClassScheduleTimeRange),
			)
			s.metrics.skippedRecord()
		}
	}
}

package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/helpers/dbtime"
)

func TestComputeAvailabilityFreeGaps(t *testing.T) {
	recs := []m.ClassScheduleModel{
		existing("R101", "Monday", "7:00 AM - 8:00 AM", "Ana Cruz"),
		existing("R101", "Monday", "8:00 AM - 9:00 AM", "Ana Cruz"),
		existing("R101", "Monday", "10:00 AM - 11:00 AM", "Ben Reyes"),
		existing("R101", "Tuesday", "1:00 PM - 2:00 PM", "Ben Reyes"),
		existing("R202", "Monday", "1:00 PM - 2:00 PM", "Carla Diaz"),
	}
	a := ComputeAvailability(dbtime.Monday, repo.Filter{Room: "R101"}, recs, dbtime.DefaultWindow())

	assert.Equal(t, []dbtime.Interval{{Start: 420, End: 540}, {Start: 600, End: 660}}, a.Busy)
	assert.Equal(t, []dbtime.Interval{{Start: 540, End: 600}, {Start: 660, End: 1260}}, a.Free)
}

func TestComputeAvailabilityMultiDayAndArchived(t *testing.T) {
	archived := existing("R101", "Wednesday", "1:00 PM - 2:00 PM", "Ana Cruz")
	archived.ClassScheduleIsArchived = true
	recs := []m.ClassScheduleModel{
		existing("R101", "Monday/Wednesday", "8:00 AM - 10:00 AM", "Ana Cruz"),
		archived,
		existing("R101", "Wednesday", "broken", "Ana Cruz"),
	}
	w := dbtime.DefaultWindow()

	wed := ComputeAvailability(dbtime.Wednesday, repo.Filter{Room: "R101"}, recs, w)
	assert.Equal(t, []dbtime.Interval{{Start: 480, End: 600}}, wed.Busy)

	tue := ComputeAvailability(dbtime.Tuesday, repo.Filter{Room: "R101"}, recs, w)
	assert.Empty(t, tue.Busy)
	assert.Equal(t, []dbtime.Interval{{Start: 420, End: 1260}}, tue.Free)
}

func TestComputeAvailabilityClipsToWindow(t *testing.T) {
	recs := []m.ClassScheduleModel{
		existing("R101", "Friday", "6:00 AM - 7:30 AM", "Ana Cruz"),
		existing("R101", "Friday", "8:00 PM - 11:00 PM", "Ana Cruz"),
		existing("R101", "Friday", "5:00 AM - 6:30 AM", "Ana Cruz"),
	}
	a := ComputeAvailability(dbtime.Friday, repo.Filter{Room: "R101"}, recs, dbtime.DefaultWindow())
	assert.Equal(t, []dbtime.Interval{{Start: 420, End: 450}, {Start: 1200, End: 1260}}, a.Busy)
	assert.Equal(t, []dbtime.Interval{{Start: 450, End: 1200}}, a.Free)
}

// busy ∪ free harus menutup jendela persis, tanpa celah & tanpa tumpang tindih.
func TestComputeAvailabilityPartitionsWindow(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	w := dbtime.DefaultWindow()

	for round := 0; round < 200; round++ {
		n := rnd.Intn(8)
		recs := make([]m.ClassScheduleModel, 0, n)
		for i := 0; i < n; i++ {
			start := dbtime.Minutes(300 + rnd.Intn(1000))
			end := start + dbtime.Minutes(1+rnd.Intn(240))
			if end >= 1440 {
				end = 1439
			}
			r, ok := dbtime.NewRange(start, end)
			if !ok {
				continue
			}
			recs = append(recs, existing("R101", "Monday", r.String(), "Ana Cruz"))
		}

		a := ComputeAvailability(dbtime.Monday, repo.Filter{Room: "R101"}, recs, w)
		all := append(append([]dbtime.Interval{}, a.Busy...), a.Free...)
		merged := dbtime.MergeIntervals(all)
		require.Equal(t, []dbtime.Interval{{Start: 420, End: 1260}}, merged, "round %d", round)

		var total dbtime.Minutes
		for _, iv := range all {
			total += iv.Duration()
		}
		require.Equal(t, dbtime.Minutes(840), total, "round %d: overlap between busy and free", round)
	}
}

package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/helpers/dbtime"
)

func existing(room, day, tr, instructor string) m.ClassScheduleModel {
	return m.ClassScheduleModel{
		ClassScheduleID:             uuid.New(),
		ClassScheduleCourse:         "BSIT",
		ClassScheduleYearLevel:      "1",
		ClassScheduleSection:        "A",
		ClassScheduleSubject:        "Programming 1",
		ClassScheduleInstructorName: instructor,
		ClassScheduleDay:            day,
		ClassScheduleTimeRange:      tr,
		ClassScheduleRoom:           room,
	}
}

func proposal(t *testing.T, room, day, tr, instructor string) Proposal {
	t.Helper()
	rec := existing(room, day, tr, instructor)
	p, err := prepare(&rec)
	require.NoError(t, err)
	return p
}

func TestConflictRoomOverlap(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	active := []m.ClassScheduleModel{existing("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz")}

	c := d.FindConflict(proposal(t, "R101", "Monday", "8:00 AM - 10:00 AM", "Ben Reyes"), uuid.Nil, active)
	require.NotNil(t, c)
	assert.Equal(t, RoomConflict, c.Kind)
	assert.Equal(t, dbtime.NewDaySet(dbtime.Monday), c.SharedDays)
	assert.Equal(t, "7:00 AM - 9:00 AM", c.ExistingRange.String())
	assert.Equal(t, active[0].ClassScheduleID, c.Existing.ClassScheduleID)
}

func TestConflictTouchingBoundariesAllowed(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	active := []m.ClassScheduleModel{existing("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz")}

	assert.Nil(t, d.FindConflict(proposal(t, "R101", "Monday", "9:00 AM - 10:00 AM", "Ana Cruz"), uuid.Nil, active))
	assert.Nil(t, d.FindConflict(proposal(t, "R101", "Monday", "6:00 AM - 7:00 AM", "Ana Cruz"), uuid.Nil, active))
}

func TestConflictInstructor(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	email := "ana@school.test"
	ex := existing("R101", "Tuesday", "1:00 PM - 3:00 PM", "Ana Cruz")
	ex.ClassScheduleInstructorEmail = &email
	active := []m.ClassScheduleModel{ex}

	c := d.FindConflict(proposal(t, "R202", "Tue", "2:00 PM - 4:00 PM", "  ana cruz "), uuid.Nil, active)
	require.NotNil(t, c)
	assert.Equal(t, InstructorConflict, c.Kind)

	// nama beda, email sama
	p := proposal(t, "R303", "Tuesday", "2:30 PM - 3:30 PM", "A. Cruz")
	p.InstructorEmail = "ANA@school.test"
	c = d.FindConflict(p, uuid.Nil, active)
	require.NotNil(t, c)
	assert.Equal(t, InstructorConflict, c.Kind)

	// ruangan & instruktur beda
	assert.Nil(t, d.FindConflict(proposal(t, "R303", "Tuesday", "2:00 PM - 4:00 PM", "Ben Reyes"), uuid.Nil, active))
}

func TestConflictRoomCheckedBeforeInstructor(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	active := []m.ClassScheduleModel{existing("R101", "Friday", "7:00 AM - 9:00 AM", "Ana Cruz")}

	c := d.FindConflict(proposal(t, "r101", "Friday", "8:00 AM - 9:00 AM", "Ana Cruz"), uuid.Nil, active)
	require.NotNil(t, c)
	assert.Equal(t, RoomConflict, c.Kind)
}

func TestConflictMultiDayRecord(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	active := []m.ClassScheduleModel{existing("R101", "Monday/Wednesday", "8:00 AM - 10:00 AM", "Ana Cruz")}

	c := d.FindConflict(proposal(t, "R101", "Wednesday", "9:00 AM - 11:00 AM", "Ben Reyes"), uuid.Nil, active)
	require.NotNil(t, c)
	assert.Equal(t, dbtime.NewDaySet(dbtime.Wednesday), c.SharedDays)

	assert.Nil(t, d.FindConflict(proposal(t, "R101", "Tuesday", "9:00 AM - 11:00 AM", "Ben Reyes"), uuid.Nil, active))
}

func TestConflictIgnoresSelfAndArchived(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	self := existing("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz")
	archived := existing("R101", "Monday", "7:00 AM - 9:00 AM", "Ben Reyes")
	archived.ClassScheduleIsArchived = true
	active := []m.ClassScheduleModel{self, archived}

	p := proposal(t, "R101", "Monday", "7:30 AM - 8:30 AM", "Ana Cruz")
	assert.Nil(t, d.FindConflict(p, self.ClassScheduleID, active))
	assert.NotNil(t, d.FindConflict(p, uuid.Nil, active))
}

func TestConflictSkipsUnparsableRecords(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	active := []m.ClassScheduleModel{
		existing("R101", "Monday", "around noon", "Ana Cruz"),
		existing("R101", "Funday", "7:00 AM - 9:00 AM", "Ana Cruz"),
	}
	assert.Nil(t, d.FindConflict(proposal(t, "R101", "Monday", "7:00 AM - 1:00 PM", "Ana Cruz"), uuid.Nil, active))
}

func TestFindAllConflicts(t *testing.T) {
	d := NewConflictDetector(nil, nil)
	active := []m.ClassScheduleModel{
		existing("R101", "Monday", "7:00 AM - 9:00 AM", "Ben Reyes"),
		existing("R202", "Monday", "8:00 AM - 9:00 AM", "Ana Cruz"),
		existing("R303", "Monday", "8:00 AM - 9:00 AM", "Carla Diaz"),
	}
	all := d.FindAllConflicts(proposal(t, "R101", "Monday", "8:00 AM - 10:00 AM", "Ana Cruz"), uuid.Nil, active)
	require.Len(t, all, 2)
	assert.Equal(t, RoomConflict, all[0].Kind)
	assert.Equal(t, InstructorConflict, all[1].Kind)
}

func TestPrepareCanonicalizesAndRejects(t *testing.T) {
	rec := existing(" R101 ", " mon / wed ", "7:00am - 9:30 am", " Ana Cruz ")
	blank := "  "
	rec.ClassScheduleInstructorEmail = &blank
	p, err := prepare(&rec)
	require.NoError(t, err)
	assert.Equal(t, "Monday/Wednesday", rec.ClassScheduleDay)
	assert.Equal(t, "7:00 AM - 9:30 AM", rec.ClassScheduleTimeRange)
	assert.Equal(t, "R101", rec.ClassScheduleRoom)
	assert.Nil(t, rec.ClassScheduleInstructorEmail)
	assert.Equal(t, dbtime.NewDaySet(dbtime.Monday, dbtime.Wednesday), p.Days)

	bad := existing("", "Monday/Funday", "9:00 AM - 7:00 AM", "Ana Cruz")
	_, err = prepare(&bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "class_schedule_room")
	assert.Contains(t, ve.Fields, "class_schedule_day")
	assert.Contains(t, ve.Fields, "class_schedule_time_range")
}

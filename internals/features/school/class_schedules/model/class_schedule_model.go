// file: internals/features/school/class_schedules/model/class_schedule_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"jadwalku_backend/internals/helpers/dbtime"
)

// ClassScheduleModel = entitas ber-versi (OCC). Version mulai 0, +1 per mutasi yang diterima.
type ClassScheduleModel struct {
	ClassScheduleID              uuid.UUID `gorm:"type:uuid;primaryKey;column:class_schedule_id" json:"class_schedule_id"`
	ClassScheduleCourse          string    `gorm:"type:varchar(120);not null;column:class_schedule_course" json:"class_schedule_course"`
	ClassScheduleYearLevel       string    `gorm:"type:varchar(40);not null;column:class_schedule_year_level" json:"class_schedule_year_level"`
	ClassScheduleSection         string    `gorm:"type:varchar(60);not null;column:class_schedule_section" json:"class_schedule_section"`
	ClassScheduleSubject         string    `gorm:"type:varchar(160);not null;column:class_schedule_subject" json:"class_schedule_subject"`
	ClassScheduleInstructorName  string    `gorm:"type:varchar(160);not null;column:class_schedule_instructor_name" json:"class_schedule_instructor_name"`
	ClassScheduleInstructorEmail *string   `gorm:"type:varchar(200);column:class_schedule_instructor_email" json:"class_schedule_instructor_email,omitempty"`

	// "Monday/Wednesday" & "7:30 AM - 9:00 AM" disimpan apa adanya (data lama bisa saja rusak)
	ClassScheduleDay       string `gorm:"type:varchar(80);not null;column:class_schedule_day" json:"class_schedule_day"`
	ClassScheduleTimeRange string `gorm:"type:varchar(40);not null;column:class_schedule_time_range" json:"class_schedule_time_range"`
	ClassScheduleRoom      string `gorm:"type:varchar(80);not null;index;column:class_schedule_room" json:"class_schedule_room"`

	ClassScheduleIsArchived       bool    `gorm:"not null;default:false;index;column:class_schedule_is_archived" json:"class_schedule_is_archived"`
	ClassScheduleExternalEventRef *string `gorm:"type:varchar(255);column:class_schedule_external_event_ref" json:"class_schedule_external_event_ref,omitempty"`
	ClassScheduleVersion          int64   `gorm:"not null;default:0;column:class_schedule_version" json:"class_schedule_version"`

	ClassScheduleCreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:class_schedule_created_at" json:"class_schedule_created_at"`
	ClassScheduleUpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();column:class_schedule_updated_at" json:"class_schedule_updated_at"`
}

func (ClassScheduleModel) TableName() string { return "class_schedules" }

func (m *ClassScheduleModel) Days() dbtime.DaySet {
	return dbtime.ParseDays(m.ClassScheduleDay)
}

func (m *ClassScheduleModel) Range() (dbtime.Range, bool) {
	return dbtime.ParseRange(m.ClassScheduleTimeRange)
}

func (m *ClassScheduleModel) InstructorEmail() string {
	if m.ClassScheduleInstructorEmail == nil {
		return ""
	}
	return strings.TrimSpace(*m.ClassScheduleInstructorEmail)
}

// Clone: salinan dalam (pointer field ikut disalin) supaya mutator tidak bocor ke caller.
func (m *ClassScheduleModel) Clone() *ClassScheduleModel {
	if m == nil {
		return nil
	}
	cp := *m
	if m.ClassScheduleInstructorEmail != nil {
		v := *m.ClassScheduleInstructorEmail
		cp.ClassScheduleInstructorEmail = &v
	}
	if m.ClassScheduleExternalEventRef != nil {
		v := *m.ClassScheduleExternalEventRef
		cp.ClassScheduleExternalEventRef = &v
	}
	return &cp
}

/* =========================
   Snapshot (field penjadwalan)
   ========================= */

// ScheduleSnapshot hanya berisi field yang relevan untuk diff/audit.
type ScheduleSnapshot struct {
	Course     string `json:"course"`
	Day        string `json:"day"`
	Time       string `json:"time"`
	Room       string `json:"room"`
	Instructor string `json:"instructor"`
	Subject    string `json:"subject"`
	Section    string `json:"section"`
	Year       string `json:"year"`
}

func (m *ClassScheduleModel) Snapshot() ScheduleSnapshot {
	if m == nil {
		return ScheduleSnapshot{}
	}
	return ScheduleSnapshot{
		Course:     m.ClassScheduleCourse,
		Day:        m.ClassScheduleDay,
		Time:       m.ClassScheduleTimeRange,
		Room:       m.ClassScheduleRoom,
		Instructor: m.ClassScheduleInstructorName,
		Subject:    m.ClassScheduleSubject,
		Section:    m.ClassScheduleSection,
		Year:       m.ClassScheduleYearLevel,
	}
}

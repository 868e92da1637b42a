package service

import (
	"context"
	"strings"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
)

type ScanIssueKind string

const (
	IssueUnparsableDay  ScanIssueKind = "unparsable_day"
	IssueUnparsableTime ScanIssueKind = "unparsable_time"
	IssueConflict       ScanIssueKind = "conflict"
)

type ScanIssue struct {
	Kind     ScanIssueKind        `json:"kind"`
	Schedule m.ClassScheduleModel `json:"schedule"`
	// hanya untuk IssueConflict
	Other        *m.ClassScheduleModel `json:"other,omitempty"`
	ConflictKind ConflictKind          `json:"conflict_kind,omitempty"`
	SharedDays   string                `json:"shared_days,omitempty"`
	Detail       string                `json:"detail"`
}

type ScanReport struct {
	Scanned int         `json:"scanned"`
	Issues  []ScanIssue `json:"issues"`
}

// Scan memeriksa seluruh jadwal aktif: hari/jam yang tidak bisa di-parse (yang diam-diam
// dilewati saat cek bentrok) dan pasangan jadwal yang sudah terlanjur bentrok.
func (s *ScheduleService) Scan(ctx context.Context) (*ScanReport, error) {
	recs, err := s.store.FindMany(ctx, repo.Filter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	report := &ScanReport{Scanned: len(recs), Issues: make([]ScanIssue, 0)}
	parsed := make([]m.ClassScheduleModel, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		days, unknown := parseDayField(rec.ClassScheduleDay)
		if len(unknown) > 0 || days.Empty() {
			detail := "hari kosong"
			if len(unknown) > 0 {
				detail = "token hari tidak dikenal: " + strings.Join(unknown, ", ")
			}
			report.Issues = append(report.Issues, ScanIssue{Kind: IssueUnparsableDay, Schedule: rec, Detail: detail})
		}
		if _, ok := rec.Range(); !ok {
			report.Issues = append(report.Issues, ScanIssue{
				Kind:     IssueUnparsableTime,
				Schedule: rec,
				Detail:   "jam tidak valid: " + rec.ClassScheduleTimeRange,
			})
			continue
		}
		if !days.Empty() {
			parsed = append(parsed, rec)
		}
	}

	for i := range parsed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := proposalOf(&parsed[i])
		if !ok {
			continue
		}
		for j := i + 1; j < len(parsed); j++ {
			c, hit := s.detector.check(p, parsed[i].ClassScheduleID, &parsed[j])
			if !hit {
				continue
			}
			other := c.Existing
			report.Issues = append(report.Issues, ScanIssue{
				Kind:         IssueConflict,
				Schedule:     parsed[i],
				Other:        &other,
				ConflictKind: c.Kind,
				SharedDays:   c.SharedDays.String(),
				Detail:       c.asError().Error(),
			})
		}
	}
	return report, nil
}

// Count dipakai jadwalctl untuk ringkasan.
func (r *ScanReport) Count(kind ScanIssueKind) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// file: internals/features/school/class_schedules/notifier/broadcaster.go
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/features/school/class_schedules/service"
	helper "jadwalku_backend/internals/helpers"
)

const (
	ChannelAll              = "class_schedules:all"
	instructorChannelPrefix = "class_schedules:instructor:"
)

// Publisher: transport pub/sub. Produksi pakai Redis, test pakai fake.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// InstructorChannel: "class_schedules:instructor:ana-cruz". Nama tanpa huruf/angka → "".
func InstructorChannel(name string) string {
	slug, ok := helper.TrySlugify(name, 80)
	if !ok {
		return ""
	}
	return instructorChannelPrefix + slug
}

type BroadcastMessage struct {
	Action     m.Action        `json:"action"`
	ScheduleID uuid.UUID       `json:"class_schedule_id"`
	Version    int64           `json:"class_schedule_version"`
	ActorID    string          `json:"actor_id"`
	Summary    string          `json:"summary"`
	Course     string          `json:"course"`
	YearLevel  string          `json:"year_level"`
	Section    string          `json:"section"`
	Subject    string          `json:"subject"`
	Instructor string          `json:"instructor"`
	Day        string          `json:"day"`
	TimeRange  string          `json:"time_range"`
	Room       string          `json:"room"`
	Changes    []m.FieldChange `json:"changes"`
	SentAt     time.Time       `json:"sent_at"`
}

type Broadcaster struct {
	pub Publisher
	log *slog.Logger
	now func() time.Time
}

func NewBroadcaster(pub Publisher, log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{pub: pub, log: log, now: time.Now}
}

// Send mempublikasikan ke channel global + channel instruktur. Kalau instruktur diganti,
// instruktur lama juga diberi tahu.
func (b *Broadcaster) Send(ctx context.Context, e service.Event) error {
	rec := e.Record
	msg := BroadcastMessage{
		Action:     e.Action,
		ScheduleID: e.EntityID,
		Version:    rec.ClassScheduleVersion,
		ActorID:    e.ActorID,
		Summary:    e.Summary,
		Course:     rec.ClassScheduleCourse,
		YearLevel:  rec.ClassScheduleYearLevel,
		Section:    rec.ClassScheduleSection,
		Subject:    rec.ClassScheduleSubject,
		Instructor: rec.ClassScheduleInstructorName,
		Day:        rec.ClassScheduleDay,
		TimeRange:  rec.ClassScheduleTimeRange,
		Room:       rec.ClassScheduleRoom,
		Changes:    e.Changes,
		SentAt:     b.now().UTC(),
	}
	if msg.Changes == nil {
		msg.Changes = []m.FieldChange{}
	}
	raw, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	channels := []string{ChannelAll}
	if ch := InstructorChannel(rec.ClassScheduleInstructorName); ch != "" {
		channels = append(channels, ch)
	}
	for _, c := range e.Changes {
		if c.Field != "instructor" {
			continue
		}
		if ch := InstructorChannel(c.OldValue); ch != "" && ch != InstructorChannel(rec.ClassScheduleInstructorName) {
			channels = append(channels, ch)
		}
	}

	var errs []error
	for _, ch := range channels {
		if err := b.pub.Publish(ctx, ch, raw); err != nil {
			errs = append(errs, err)
			continue
		}
		b.log.Debug("class schedule broadcast", slog.String("channel", ch), slog.String("schedule_id", e.EntityID.String()))
	}
	return errors.Join(errs...)
}

// jadwalctl: utilitas operator untuk data jadwal (scan data rusak/bentrok, cek slot kosong, migrate).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"jadwalku_backend/internals/bootstrap"
	"jadwalku_backend/internals/configs"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/features/school/class_schedules/service"
	"jadwalku_backend/internals/helpers/dbtime"
)

type globalFlags struct {
	driver  string
	asJSON  bool
	timeout time.Duration
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "jadwalctl",
		Short:         "Operator tools untuk jadwal kelas",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.driver, "driver", "", "override STORE_DRIVER (postgres|badger)")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "output JSON")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "batas waktu perintah")

	root.AddCommand(newScanCmd(g), newAvailabilityCmd(g), newMigrateCmd(g))
	return root
}

// openService: config dari env/yaml yang sama dengan server.
func openService(g *globalFlags) (*service.ScheduleService, *bootstrap.Backend, error) {
	configs.LoadEnv()
	log := configs.NewLogger()

	cfg, err := configs.LoadSchedulingConfig()
	if err != nil {
		return nil, nil, err
	}
	if g.driver != "" {
		cfg.Store.Driver = strings.ToLower(g.driver)
	}
	backend, err := bootstrap.OpenBackend(cfg, nil, log)
	if err != nil {
		return nil, nil, err
	}
	svc, err := backend.NewService(cfg, log, nil)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return svc, backend, nil
}

func writeJSON(w io.Writer, v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

/* =========================
   scan
   ========================= */

func newScanCmd(g *globalFlags) *cobra.Command {
	var failOnIssues bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Cari jadwal aktif yang rusak (hari/jam) atau sudah terlanjur bentrok",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, backend, err := openService(g)
			if err != nil {
				return err
			}
			defer backend.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()
			report, err := svc.Scan(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.asJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				printScan(out, report)
			}
			if failOnIssues && len(report.Issues) > 0 {
				return fmt.Errorf("%d issue ditemukan", len(report.Issues))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnIssues, "fail", false, "exit code 1 kalau ada issue (untuk CI)")
	return cmd
}

func printScan(w io.Writer, r *service.ScanReport) {
	fmt.Fprintf(w, "scanned %d active schedules: %d unparsable day, %d unparsable time, %d conflict\n",
		r.Scanned,
		r.Count(service.IssueUnparsableDay),
		r.Count(service.IssueUnparsableTime),
		r.Count(service.IssueConflict),
	)
	if len(r.Issues) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tROOM\tDAY\tTIME\tDETAIL")
	for _, is := range r.Issues {
		s := is.Schedule
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			is.Kind, s.ClassScheduleID, s.ClassScheduleRoom, s.ClassScheduleDay, s.ClassScheduleTimeRange, is.Detail)
	}
	_ = tw.Flush()
}

/* =========================
   availability
   ========================= */

func newAvailabilityCmd(g *globalFlags) *cobra.Command {
	var (
		day        string
		f          repo.Filter
		minMinutes int
	)
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Tampilkan jam sibuk/kosong per hari (semua hari kalau --day kosong)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			days := dbtime.AllWeekdays()
			if strings.TrimSpace(day) != "" {
				wd, ok := dbtime.ParseWeekday(day)
				if !ok {
					return fmt.Errorf("day tidak dikenal: %s", day)
				}
				days = []dbtime.Weekday{wd}
			}

			svc, backend, err := openService(g)
			if err != nil {
				return err
			}
			defer backend.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			list := make([]service.Availability, 0, len(days))
			for _, wd := range days {
				a, err := svc.Availability(ctx, wd, f)
				if err != nil {
					return err
				}
				if minMinutes > 0 {
					a.Free = keepAtLeast(a.Free, dbtime.Minutes(minMinutes))
				}
				list = append(list, a)
			}

			out := cmd.OutOrStdout()
			if g.asJSON {
				return writeJSON(out, list)
			}
			for _, a := range list {
				printAvailability(out, a)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "hari (Monday, tue, ...)")
	cmd.Flags().StringVar(&f.Room, "room", "", "filter ruangan")
	cmd.Flags().StringVar(&f.Instructor, "instructor", "", "filter nama/email instruktur")
	cmd.Flags().StringVar(&f.Section, "section", "", "filter section")
	cmd.Flags().StringVar(&f.Course, "course", "", "filter course")
	cmd.Flags().StringVar(&f.YearLevel, "year-level", "", "filter year level")
	cmd.Flags().IntVar(&minMinutes, "min-minutes", 0, "hanya tampilkan slot kosong minimal N menit")
	return cmd
}

func keepAtLeast(list []dbtime.Interval, d dbtime.Minutes) []dbtime.Interval {
	out := list[:0:0]
	for _, iv := range list {
		if iv.Duration() >= d {
			out = append(out, iv)
		}
	}
	return out
}

func printAvailability(w io.Writer, a service.Availability) {
	fmt.Fprintf(w, "%s\n", a.Day.Title())
	fmt.Fprintf(w, "  busy: %s\n", joinIntervals(a.Busy))
	fmt.Fprintf(w, "  free: %s\n", joinIntervals(a.Free))
}

func joinIntervals(list []dbtime.Interval) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, iv := range list {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ", ")
}

/* =========================
   migrate
   ========================= */

func newMigrateCmd(_ *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "AutoMigrate tabel jadwal, audit, dan activity log (postgres)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configs.LoadEnv()
			db, err := configs.InitMigrateDB()
			if err != nil {
				return err
			}
			if err := repo.AutoMigrate(db); err != nil {
				return err
			}
			slog.Info("migrate selesai")
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

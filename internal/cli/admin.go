package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/dashboard"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/patients"
)

func (a *app) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin pages",
	}
	cmd.AddCommand(
		a.adminDashboardCommand(),
		a.adminDoctorsCommand(),
		a.adminPatientsCommand(),
		a.adminSetActiveCommand("activate", true),
		a.adminSetActiveCommand("deactivate", false),
		a.adminAppointmentsCommand(),
	)
	return cmd
}

func (a *app) adminDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Hospital totals and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			// The three lists load side by side, like the dashboard's hooks.
			var (
				docs  doctors.ListResponse
				pats  patients.ListResponse
				appts appointments.ListResponse
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				docs, err = client.Doctors.GetAll(ctx).Unwrap()
				return failure(err, "Failed to load doctors")
			})
			g.Go(func() error {
				var err error
				pats, err = client.Patients.GetAll(ctx).Unwrap()
				return failure(err, "Failed to load patients")
			})
			g.Go(func() error {
				var err error
				appts, err = client.Appointments.GetAll(ctx).Unwrap()
				return failure(err, "Failed to load appointments")
			})
			if err := g.Wait(); err != nil {
				return err
			}

			stats := dashboard.AdminStats(docs.Data.Doctors, pats.Data.Patients, appts.Data.Appointments, a.opts.Now())
			return a.render(stats, func(w io.Writer) {
				fmt.Fprintf(w, "Doctors\t%d (%d active)\n", stats.TotalDoctors, stats.ActiveDoctors)
				fmt.Fprintf(w, "Patients\t%d (%d new this week)\n", stats.TotalPatients, stats.NewPatientsThisWeek)
				fmt.Fprintf(w, "Appointments\t%d (%d today)\n", stats.TotalAppointments, stats.TodayAppointments)
				fmt.Fprintf(w, "Completion rate\t%d%%\n", stats.CompletionRate)
				statusLine(w, stats.Statuses)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Recent activity")
				if len(stats.RecentActivities) == 0 {
					fmt.Fprintln(w, "No recent activity")
					return
				}
				for _, act := range stats.RecentActivities {
					fmt.Fprintf(w, "%s\t%s with %s\t%s\n", act.Action, act.Patient, act.Doctor, act.Time)
				}
			})
		},
	}
}

func (a *app) adminDoctorsCommand() *cobra.Command {
	var search, state string
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Manage doctors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			list, err := client.Doctors.GetAll(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load doctors")
			}
			docs := dashboard.FilterDoctors(list.Data.Doctors, search, state)
			return a.render(docs, func(w io.Writer) { doctorsTable(w, docs) })
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match name or specialization")
	cmd.Flags().StringVar(&state, "state", dashboard.All, "all, active, inactive or available")
	return cmd
}

func (a *app) adminPatientsCommand() *cobra.Command {
	var search, state string
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Manage patients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			list, err := client.Patients.GetAll(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load patients")
			}
			pats := dashboard.FilterPatients(list.Data.Patients, search, state)
			return a.render(pats, func(w io.Writer) { patientsTable(w, pats) })
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match name or email")
	cmd.Flags().StringVar(&state, "state", dashboard.All, "all, active or inactive")
	return cmd
}

func (a *app) adminSetActiveCommand(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <patient-id>",
		Short: fmt.Sprintf("Mark a patient account %s", map[bool]string{true: "active", false: "inactive"}[active]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := client.Patients.SetActive(cmd.Context(), args[0], active).Unwrap()
			if err != nil {
				return failure(err, "Failed to update patient")
			}
			p := res.Data.Patient
			return a.render(p, func(w io.Writer) {
				state := "inactive"
				if p.Active() {
					state = "active"
				}
				fmt.Fprintf(w, "%s is now %s\n", p.Name(), state)
			})
		},
	}
}

func (a *app) adminAppointmentsCommand() *cobra.Command {
	var status, search, date string
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Every appointment in the hospital",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			list, err := client.Appointments.GetAll(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load appointments")
			}
			appts := dashboard.FilterAppointments(list.Data.Appointments, status, search, date)
			return a.render(appts, func(w io.Writer) { appointmentsTable(w, appts) })
		},
	}
	cmd.Flags().StringVar(&status, "status", dashboard.All, "all, scheduled, confirmed, completed or cancelled")
	cmd.Flags().StringVar(&search, "search", "", "Match patient or doctor name")
	cmd.Flags().StringVar(&date, "date", "", "Only this date, YYYY-MM-DD")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/dashboard"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/portal"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

func (a *app) doctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Doctor pages",
	}
	cmd.AddCommand(
		a.doctorDashboardCommand(),
		a.doctorAppointmentsCommand(),
		a.doctorStatusCommand(),
		a.doctorCompleteCommand(),
		a.doctorRecordsCommand(),
		a.doctorAvailabilityCommand(),
		a.doctorProfileCommand(),
	)
	return cmd
}

func (a *app) doctorDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Today's schedule and pending appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			list, err := client.Appointments.ForDoctor(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load appointments")
			}
			stats := dashboard.DoctorStats(list.Data.Appointments, a.opts.Now())
			return a.render(stats, func(w io.Writer) {
				fmt.Fprintf(w, "Today\t%d\n", stats.TodayAppointments)
				fmt.Fprintf(w, "Completed today\t%d\n", stats.CompletedToday)
				fmt.Fprintf(w, "Pending\t%d\n", stats.Pending)
				fmt.Fprintf(w, "Patients\t%d\n", stats.TotalPatients)
				statusLine(w, stats.Statuses)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Today's schedule")
				appointmentsTable(w, stats.TodaySchedule)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Upcoming")
				appointmentsTable(w, stats.Upcoming)
			})
		},
	}
}

func (a *app) doctorAppointmentsCommand() *cobra.Command {
	var status, search, date string
	var watch watchFlags
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Your patients' appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if watch.enabled {
				sub := client.Appointments.WatchForDoctor(cmd.Context())
				return watchQuery(cmd.Context(), a, sub, watch.interval, "Failed to load appointments", func(list appointments.ListResponse) error {
					appts := dashboard.FilterAppointments(list.Data.Appointments, status, search, date)
					return a.render(appts, func(w io.Writer) { appointmentsTable(w, appts) })
				})
			}
			list, err := client.Appointments.ForDoctor(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load appointments")
			}
			appts := dashboard.FilterAppointments(list.Data.Appointments, status, search, date)
			return a.render(appts, func(w io.Writer) { appointmentsTable(w, appts) })
		},
	}
	cmd.Flags().StringVar(&status, "status", dashboard.All, "all, scheduled, confirmed, completed or cancelled")
	cmd.Flags().StringVar(&search, "search", "", "Match patient name")
	cmd.Flags().StringVar(&date, "date", "", "Only this date, YYYY-MM-DD")
	watch.register(cmd)
	return cmd
}

func (a *app) doctorStatusCommand() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "status <appointment-id> <status>",
		Short: "Confirm, complete or cancel an appointment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := client.Appointments.SetStatus(cmd.Context(), args[0], appointments.Status(args[1]), notes).Unwrap()
			if err != nil {
				return failure(err, "Failed to update appointment status")
			}
			appt := res.Data.Appointment
			return a.render(appt, func(w io.Writer) {
				fmt.Fprintf(w, "Appointment %s is now %s\n", appt.ID, appt.Status)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the appointment")
	return cmd
}

func (a *app) doctorCompleteCommand() *cobra.Command {
	var req records.CreateRequest
	var rx []string
	cmd := &cobra.Command{
		Use:   "complete <appointment-id>",
		Short: "Write the visit's medical record and complete the appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			prescriptions, err := parsePrescriptions(rx)
			if err != nil {
				return err
			}
			req.Prescription = prescriptions

			res, err := client.Appointments.Get(cmd.Context(), args[0]).Unwrap()
			if err != nil {
				return failure(err, "Appointment not found")
			}
			rec, err := client.CompleteAppointment(cmd.Context(), res.Data.Appointment, req)
			if err != nil {
				if rec.ID != "" {
					return fmt.Errorf("medical record %s saved but the appointment was not completed: %w",
						rec.ID, failure(err, "Failed to update appointment status"))
				}
				return failure(err, portal.RecordFallback)
			}
			return a.render(rec, func(w io.Writer) {
				fmt.Fprintln(w, "Medical record created and appointment completed")
				fmt.Fprintf(w, "Record\t%s\n", rec.ID)
				fmt.Fprintf(w, "Diagnosis\t%s\n", rec.Diagnosis)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Diagnosis, "diagnosis", "", "Diagnosis")
	f.StringSliceVar(&req.Symptoms, "symptom", nil, "Symptom, repeatable")
	f.StringArrayVar(&rx, "rx", nil, "Prescription as medicine:dosage[:frequency[:duration]], repeatable")
	f.StringSliceVar(&req.TestsRecommended, "test", nil, "Recommended test, repeatable")
	f.StringVar(&req.Notes, "notes", "", "Notes")
	return cmd
}

func parsePrescriptions(values []string) ([]records.Prescription, error) {
	out := make([]records.Prescription, 0, len(values))
	for _, v := range values {
		parts := strings.SplitN(v, ":", 4)
		if len(parts) < 2 {
			return nil, fmt.Errorf("prescription %q needs at least medicine:dosage", v)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		p := records.Prescription{Medicine: parts[0], Dosage: parts[1]}
		if len(parts) > 2 {
			p.Frequency = parts[2]
		}
		if len(parts) > 3 {
			p.Duration = parts[3]
		}
		out = append(out, p)
	}
	return out, nil
}

func (a *app) doctorRecordsCommand() *cobra.Command {
	var search, window string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Medical records you wrote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			list, err := client.Records.ForDoctor(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load medical records")
			}
			recs := dashboard.FilterRecords(list.Data.Records, search, window, a.opts.Now())
			return a.render(recs, func(w io.Writer) { recordsTable(w, recs) })
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match patient name or diagnosis")
	cmd.Flags().StringVar(&window, "window", dashboard.All, "all, today, week or month")
	return cmd
}

func (a *app) doctorAvailabilityCommand() *cobra.Command {
	var days, off []string
	var accepting bool
	var reset bool
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show or change your weekly schedule",
		Long: `Without flags the schedule is shown. --day "Monday=09:00 AM-05:00 PM" opens a day,
--off Saturday closes one, and --reset starts from the default template.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			current, err := client.Doctors.GetAvailability(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load availability")
			}
			data := current.Data
			if anyChanged(cmd, "day", "off", "accepting", "reset") {
				req := doctors.UpdateAvailabilityRequest{AvailableSlots: slices.Clone(data.AvailableSlots), IsAvailable: data.IsAvailable}
				if reset || len(req.AvailableSlots) == 0 {
					req.AvailableSlots = doctors.DefaultWeeklyTemplate()
				}
				if cmd.Flags().Changed("accepting") {
					req.IsAvailable = accepting
				}
				if err := applyDays(&req, days, off); err != nil {
					return err
				}
				saved, err := client.Doctors.SaveAvailability(cmd.Context(), req).Unwrap()
				if err != nil {
					return failure(err, "Failed to update availability")
				}
				a.println("Availability updated successfully")
				data = saved.Data
			}
			return a.render(data, func(w io.Writer) {
				fmt.Fprintf(w, "Accepting patients\t%t\n", data.IsAvailable)
				for _, s := range data.AvailableSlots {
					if !s.IsAvailable {
						fmt.Fprintf(w, "%s\toff\n", s.Day)
						continue
					}
					fmt.Fprintf(w, "%s\t%s - %s\n", s.Day, s.StartTime, s.EndTime)
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&days, "day", nil, `Open a day, "Monday=09:00 AM-05:00 PM", repeatable`)
	f.StringSliceVar(&off, "off", nil, "Close a day, repeatable")
	f.BoolVar(&accepting, "accepting", true, "Whether you accept new appointments")
	f.BoolVar(&reset, "reset", false, "Start from the default template")
	return cmd
}

// applyDays edits req's template in place. Days not in the template are
// appended; validation is left to the request.
func applyDays(req *doctors.UpdateAvailabilityRequest, open, closed []string) error {
	set := func(slot doctors.AvailabilitySlot) {
		for i := range req.AvailableSlots {
			if req.AvailableSlots[i].Day == slot.Day {
				req.AvailableSlots[i] = slot
				return
			}
		}
		req.AvailableSlots = append(req.AvailableSlots, slot)
	}
	for _, v := range open {
		day, window, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("day %q must look like Monday=09:00 AM-05:00 PM", v)
		}
		start, end, ok := strings.Cut(window, "-")
		if !ok {
			return fmt.Errorf("day %q must look like Monday=09:00 AM-05:00 PM", v)
		}
		set(doctors.AvailabilitySlot{
			Day:         strings.TrimSpace(day),
			StartTime:   strings.TrimSpace(start),
			EndTime:     strings.TrimSpace(end),
			IsAvailable: true,
		})
	}
	for _, day := range closed {
		set(doctors.AvailabilitySlot{Day: strings.TrimSpace(day), IsAvailable: false})
	}
	return nil
}

func (a *app) doctorProfileCommand() *cobra.Command {
	var req doctors.UpdateProfileRequest
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		Long:  "Without flags the profile is shown. Any flag saves that field.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			var res doctors.DoctorResponse
			if anyChanged(cmd, "name", "phone", "address", "specialization", "qualification", "experience", "fee", "room", "max-patients") {
				res, err = client.Doctors.SaveProfile(cmd.Context(), req).Unwrap()
				if err != nil {
					return failure(err, "Failed to update profile")
				}
				a.println("Profile updated successfully")
			} else {
				res, err = client.Doctors.GetProfile(cmd.Context()).Unwrap()
				if err != nil {
					return failure(err, "Failed to load profile")
				}
			}
			d := res.Data.Doctor
			return a.render(d, func(w io.Writer) {
				fmt.Fprintf(w, "Name\t%s\n", d.Name())
				fmt.Fprintf(w, "Email\t%s\n", orDash(d.User.Email))
				fmt.Fprintf(w, "Specialization\t%s\n", d.DisplaySpecialization())
				fmt.Fprintf(w, "Qualification\t%s\n", orDash(d.Qualification))
				fmt.Fprintf(w, "Experience\t%d years\n", d.Experience)
				fmt.Fprintf(w, "Consultation fee\t%.0f\n", d.ConsultationFee)
				fmt.Fprintf(w, "Room\t%s\n", orDash(d.RoomNumber))
				fmt.Fprintf(w, "Max patients per day\t%d\n", d.MaxPatientsPerDay)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Full name")
	f.StringVar(&req.Phone, "phone", "", "Phone number")
	f.StringVar(&req.Address, "address", "", "Address")
	f.StringVar(&req.Specialization, "specialization", "", "Specialization")
	f.StringVar(&req.Qualification, "qualification", "", "Qualification")
	f.IntVar(&req.Experience, "experience", 0, "Years of experience")
	f.Float64Var(&req.ConsultationFee, "fee", 0, "Consultation fee")
	f.StringVar(&req.RoomNumber, "room", "", "Room number")
	f.IntVar(&req.MaxPatientsPerDay, "max-patients", 0, "Max patients per day")
	return cmd
}

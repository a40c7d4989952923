package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/booking"
	"github.com/Raheemullah8/hms-portal/internal/dashboard"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/patients"
)

func (a *app) patientCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Patient pages",
	}
	cmd.AddCommand(
		a.patientDashboardCommand(),
		a.patientDoctorsCommand(),
		a.patientSlotsCommand(),
		a.patientBookCommand(),
		a.patientAppointmentsCommand(),
		a.patientCancelCommand(),
		a.patientRecordsCommand(),
		a.patientProfileCommand(),
	)
	return cmd
}

func (a *app) patientDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Upcoming appointments and record count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			appts, err := client.Appointments.Mine(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load appointments")
			}
			recs, err := client.Records.ForPatient(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load medical records")
			}
			stats := dashboard.PatientStats(appts.Data.Appointments, recs.Data.Records, a.opts.Now())
			return a.render(stats, func(w io.Writer) {
				statusLine(w, stats.Statuses)
				fmt.Fprintf(w, "Medical records\t%d\n", stats.RecordCount)
				fmt.Fprintf(w, "Doctors visited\t%d\n", stats.Doctors)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Upcoming")
				appointmentsTable(w, stats.Upcoming)
			})
		},
	}
}

func (a *app) patientDoctorsCommand() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Doctors open for booking",
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
			docs := dashboard.FilterDoctors(list.Data.Doctors, search, "available")
			return a.render(docs, func(w io.Writer) { doctorsTable(w, docs) })
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match name or specialization")
	return cmd
}

func (a *app) patientSlotsCommand() *cobra.Command {
	var doctorID, date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Open time slots of a doctor on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := client.Doctors.Get(cmd.Context(), doctorID).Unwrap()
			if err != nil {
				return failure(err, "Doctor not found")
			}
			if !booking.IsDateBookable(doc.Data.Doctor.AvailableSlots, date) {
				days := booking.AvailableDays(doc.Data.Doctor.AvailableSlots)
				return fmt.Errorf("%s does not see patients on %s; available days: %s",
					doc.Data.Doctor.Name(), date, strings.Join(days, ", "))
			}
			slots, err := client.Appointments.GetAvailableSlots(cmd.Context(), doctorID, date).Unwrap()
			if err != nil {
				return failure(err, "Failed to load time slots")
			}
			return a.render(slots.Data, func(w io.Writer) {
				if len(slots.Data.AvailableSlots) == 0 {
					fmt.Fprintln(w, "No slots available")
					return
				}
				for _, s := range slots.Data.AvailableSlots {
					fmt.Fprintln(w, s)
				}
			})
		},
	}
	cmd.Flags().StringVar(&doctorID, "doctor", "", "Doctor id")
	cmd.Flags().StringVar(&date, "date", "", "Date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func (a *app) patientBookCommand() *cobra.Command {
	var form booking.Form
	var doctorID string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := client.Doctors.Get(cmd.Context(), doctorID).Unwrap()
			if err != nil {
				return failure(err, "Doctor not found")
			}
			form.Doctor = doc.Data.Doctor
			appt, err := client.Booker.Submit(cmd.Context(), form)
			if err != nil {
				return fmt.Errorf("%s", booking.FailureMessage(err))
			}
			return a.render(appt, func(w io.Writer) {
				fmt.Fprintln(w, "Appointment booked successfully")
				fmt.Fprintf(w, "ID\t%s\n", appt.ID)
				fmt.Fprintf(w, "Doctor\t%s\n", doctorName(appt.Doctor.DisplayName(), form.Doctor))
				fmt.Fprintf(w, "When\t%s %s\n", dateOf(appt.AppointmentDate), appt.TimeSlot)
				fmt.Fprintf(w, "Status\t%s\n", appt.Status)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&doctorID, "doctor", "", "Doctor id")
	f.StringVar(&form.Date, "date", "", "Date, YYYY-MM-DD")
	f.StringVar(&form.TimeSlot, "slot", "", "Time slot, e.g. 10:00 AM")
	f.StringVar(&form.Reason, "reason", "", "Reason for the visit")
	_ = cmd.MarkFlagRequired("doctor")
	return cmd
}

func doctorName(populated string, d doctors.Doctor) string {
	if populated != "" && populated != d.ID {
		return populated
	}
	return d.Name()
}

func (a *app) patientAppointmentsCommand() *cobra.Command {
	var status string
	var watch watchFlags
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Your appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if watch.enabled {
				sub := client.Appointments.WatchMine(cmd.Context())
				return watchQuery(cmd.Context(), a, sub, watch.interval, "Failed to load appointments", func(list appointments.ListResponse) error {
					appts := dashboard.FilterAppointments(list.Data.Appointments, status, "", "")
					return a.render(appts, func(w io.Writer) { appointmentsTable(w, appts) })
				})
			}
			list, err := client.Appointments.Mine(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load appointments")
			}
			appts := dashboard.FilterAppointments(list.Data.Appointments, status, "", "")
			return a.render(appts, func(w io.Writer) { appointmentsTable(w, appts) })
		},
	}
	cmd.Flags().StringVar(&status, "status", dashboard.All, "all, scheduled, confirmed, completed or cancelled")
	watch.register(cmd)
	return cmd
}

func (a *app) patientCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := client.Appointments.CancelAppointment(cmd.Context(), args[0]).Unwrap()
			if err != nil {
				return failure(err, "Failed to cancel appointment")
			}
			a.println("Appointment cancelled")
			return a.render(res.Data.Appointment, func(io.Writer) {})
		},
	}
}

func (a *app) patientRecordsCommand() *cobra.Command {
	var search, window string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Your medical records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			list, err := client.Records.ForPatient(cmd.Context()).Unwrap()
			if err != nil {
				return failure(err, "Failed to load medical records")
			}
			recs := dashboard.FilterRecords(list.Data.Records, search, window, a.opts.Now())
			return a.render(recs, func(w io.Writer) { recordsTable(w, recs) })
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Match diagnosis")
	cmd.Flags().StringVar(&window, "window", dashboard.All, "all, today, week or month")
	return cmd
}

func (a *app) patientProfileCommand() *cobra.Command {
	var req patients.UpdateProfileRequest
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
			var p patients.Patient
			if anyChanged(cmd, "name", "phone", "address", "gender", "blood-group", "allergy") {
				res, err := client.Patients.SaveProfile(cmd.Context(), req).Unwrap()
				if err != nil {
					return failure(err, "Failed to update profile")
				}
				a.println("Profile updated successfully")
				p = res.Data
			} else {
				res, err := client.Patients.GetProfile(cmd.Context()).Unwrap()
				if err != nil {
					return failure(err, "Failed to load profile")
				}
				p = res.Data
			}
			return a.render(p, func(w io.Writer) {
				fmt.Fprintf(w, "Name\t%s\n", p.Name())
				fmt.Fprintf(w, "Email\t%s\n", orDash(p.Email()))
				fmt.Fprintf(w, "Phone\t%s\n", orDash(p.User.Phone))
				fmt.Fprintf(w, "Address\t%s\n", orDash(p.User.Address))
				fmt.Fprintf(w, "Blood group\t%s\n", orDash(p.BloodGroup))
				fmt.Fprintf(w, "Allergies\t%s\n", orDash(strings.Join(p.Allergies, ", ")))
				if ec := p.EmergencyContact; ec != nil {
					fmt.Fprintf(w, "Emergency contact\t%s %s (%s)\n", ec.Name, ec.Phone, orDash(ec.Relation))
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Full name")
	f.StringVar(&req.Phone, "phone", "", "10 digit phone number")
	f.StringVar(&req.Address, "address", "", "Address")
	f.StringVar(&req.Gender, "gender", "", "male, female or other")
	f.StringVar(&req.BloodGroup, "blood-group", "", "Blood group, e.g. O+")
	f.StringSliceVar(&req.Allergies, "allergy", nil, "Allergy, repeatable")
	return cmd
}

// anyChanged reports whether any of the named flags was set.
func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

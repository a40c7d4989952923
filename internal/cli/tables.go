package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Raheemullah8/hms-portal/internal/appointments"
	"github.com/Raheemullah8/hms-portal/internal/dashboard"
	"github.com/Raheemullah8/hms-portal/internal/doctors"
	"github.com/Raheemullah8/hms-portal/internal/patients"
	"github.com/Raheemullah8/hms-portal/internal/records"
)

func appointmentsTable(w io.Writer, appts []appointments.Appointment) {
	if len(appts) == 0 {
		fmt.Fprintln(w, "No appointments found")
		return
	}
	fmt.Fprintln(w, "ID\tDATE\tSLOT\tPATIENT\tDOCTOR\tSTATUS\tREASON")
	for _, a := range appts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, dateOf(a.AppointmentDate), a.TimeSlot,
			orDash(a.Patient.DisplayName()), orDash(a.Doctor.DisplayName()), a.Status, orDash(a.Reason))
	}
}

func doctorsTable(w io.Writer, docs []doctors.Doctor) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No doctors found")
		return
	}
	fmt.Fprintln(w, "ID\tNAME\tSPECIALIZATION\tFEE\tROOM\tAVAILABLE\tACTIVE")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\t%t\t%t\n",
			d.ID, d.Name(), d.DisplaySpecialization(), d.ConsultationFee, orDash(d.RoomNumber), d.IsAvailable, d.Active())
	}
}

func patientsTable(w io.Writer, pats []patients.Patient) {
	if len(pats) == 0 {
		fmt.Fprintln(w, "No patients found")
		return
	}
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tBLOOD\tACTIVE\tJOINED")
	for _, p := range pats {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			p.ID, p.Name(), orDash(p.Email()), orDash(p.User.Phone), orDash(p.BloodGroup), p.Active(), dateOf(p.CreatedAt))
	}
}

func recordsTable(w io.Writer, recs []records.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No medical records found")
		return
	}
	fmt.Fprintln(w, "ID\tVISIT\tPATIENT\tDOCTOR\tDIAGNOSIS\tPRESCRIPTION")
	for _, r := range recs {
		rx := make([]string, 0, len(r.Prescription))
		for _, p := range r.Prescription {
			rx = append(rx, p.Medicine+" "+p.Dosage)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, dateOf(r.VisitDate()), orDash(r.PatientName()), orDash(r.DoctorDisplayName()), r.Diagnosis, orDash(strings.Join(rx, ", ")))
	}
}

func statusLine(w io.Writer, c dashboard.StatusCounts) {
	fmt.Fprintf(w, "Scheduled\t%d\n", c.Scheduled)
	fmt.Fprintf(w, "Confirmed\t%d\n", c.Confirmed)
	fmt.Fprintf(w, "Completed\t%d\n", c.Completed)
	fmt.Fprintf(w, "Cancelled\t%d\n", c.Cancelled)
}

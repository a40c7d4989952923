package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Raheemullah8/hms-portal/internal/models"
)

// Route maps a page of the web client to the command that runs it. Role is
// informational; nothing is enforced client-side.
type Route struct {
	Path    string      `json:"path"`
	Role    models.Role `json:"role,omitempty"`
	Command string      `json:"command"`
	Page    string      `json:"page"`
}

// Routes is the page table.
var Routes = []Route{
	{Path: "/", Command: "hms routes", Page: "Home"},
	{Path: "/login", Command: "hms login", Page: "Login"},
	{Path: "/register", Command: "hms register", Page: "Register"},

	{Path: "/patient/dashboard", Role: models.RolePatient, Command: "hms patient dashboard", Page: "PatientDashboard"},
	{Path: "/patient/appointments", Role: models.RolePatient, Command: "hms patient appointments", Page: "PatientAppointments"},
	{Path: "/patient/medical-records", Role: models.RolePatient, Command: "hms patient records", Page: "PatientMedicalRecords"},
	{Path: "/patient/book-appointment", Role: models.RolePatient, Command: "hms patient book", Page: "BookAppointment"},
	{Path: "/patient/profile", Role: models.RolePatient, Command: "hms patient profile", Page: "PatientProfile"},

	{Path: "/doctor/dashboard", Role: models.RoleDoctor, Command: "hms doctor dashboard", Page: "DoctorDashboard"},
	{Path: "/doctor/appointments", Role: models.RoleDoctor, Command: "hms doctor appointments", Page: "DoctorAppointments"},
	{Path: "/doctor/profile", Role: models.RoleDoctor, Command: "hms doctor profile", Page: "DoctorProfile"},
	{Path: "/doctor/availability", Role: models.RoleDoctor, Command: "hms doctor availability", Page: "DoctorAvailability"},
	{Path: "/doctor/medical-records", Role: models.RoleDoctor, Command: "hms doctor records", Page: "DoctorMedicalRecords"},

	{Path: "/admin/dashboard", Role: models.RoleAdmin, Command: "hms admin dashboard", Page: "AdminDashboard"},
	{Path: "/admin/doctors", Role: models.RoleAdmin, Command: "hms admin doctors", Page: "ManageDoctors"},
	{Path: "/admin/patients", Role: models.RoleAdmin, Command: "hms admin patients", Page: "ManagePatients"},
	{Path: "/admin/appointments", Role: models.RoleAdmin, Command: "hms admin appointments", Page: "ManageAppointments"},
}

// Lookup finds the route for path.
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

func (a *app) routesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes [path]",
		Short: "List the pages and the commands that run them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			routes := Routes
			if len(args) == 1 {
				r, ok := Lookup(args[0])
				if !ok {
					return fmt.Errorf("no page at %s", args[0])
				}
				routes = []Route{r}
			}
			return a.render(routes, func(w io.Writer) {
				fmt.Fprintln(w, "PATH\tROLE\tCOMMAND")
				for _, r := range routes {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, orDash(string(r.Role)), r.Command)
				}
			})
		},
	}
}

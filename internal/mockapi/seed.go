package mockapi

import (
	"fmt"
	"math/rand"

	"github.com/jaswdr/faker"

	"github.com/Raheemullah8/hms-portal/internal/models"
)

// Demo accounts created by Seed.
const (
	AdminEmail      = "admin@hms.test"
	AdminPassword   = "admin123"
	DoctorEmail     = "sara@hms.test"
	SecondDoctor    = "omar@hms.test"
	DoctorPassword  = "doctor123"
	PatientEmail    = "amna@hms.test"
	PatientPassword = "patient123"
)

// Seed creates the demo accounts plus fake extra doctors and patients. The
// same seed value always produces the same people.
func Seed(s *Store, extra int, seed int64) error {
	fixed := []struct {
		profile  models.UserProfile
		password string
		doctor   *DoctorProfile
	}{
		{models.UserProfile{Name: "Hospital Admin", Email: AdminEmail, Role: models.RoleAdmin, Phone: "0300000000"}, AdminPassword, nil},
		{
			models.UserProfile{Name: "Dr. Sara Ahmed", Email: DoctorEmail, Role: models.RoleDoctor, Phone: "0301000001", Gender: "female"},
			DoctorPassword,
			&DoctorProfile{Specialization: "Cardiology", Qualification: "MBBS, FCPS", Experience: 12, ConsultationFee: 2500, RoomNumber: "C-101"},
		},
		{
			models.UserProfile{Name: "Dr. Omar Farooq", Email: SecondDoctor, Role: models.RoleDoctor, Phone: "0301000002", Gender: "male"},
			DoctorPassword,
			&DoctorProfile{Specialization: "Dermatology", Qualification: "MBBS", Experience: 6, ConsultationFee: 1800, RoomNumber: "D-204"},
		},
		{
			models.UserProfile{Name: "Amna Khan", Email: PatientEmail, Role: models.RolePatient, Phone: "0302000001",
				Gender: "female", Address: "12 Mall Road, Lahore", DateOfBirth: "1994-05-17"},
			PatientPassword,
			nil,
		},
	}
	for _, f := range fixed {
		if _, err := s.CreateUser(f.profile, f.password, f.doctor); err != nil {
			return fmt.Errorf("mockapi: seed %s: %w", f.profile.Email, err)
		}
	}

	fake := faker.NewWithSeed(rand.NewSource(seed))
	specializations := []string{"Cardiology", "Dermatology", "Neurology", "Pediatrics", "Orthopedics", "General Medicine"}
	for i := 0; i < extra; i++ {
		profile := models.UserProfile{
			Name:        fake.Person().Name(),
			Email:       fmt.Sprintf("user%d.%s", i, fake.Internet().Email()),
			Phone:       fake.Numerify("03########"),
			Address:     fake.Address().Address(),
			Gender:      fake.RandomStringElement([]string{"male", "female", "other"}),
			DateOfBirth: fake.Time().ISO8601(s.now())[:10],
			Role:        models.RolePatient,
		}
		var doc *DoctorProfile
		if i%2 == 0 {
			profile.Role = models.RoleDoctor
			profile.Name = "Dr. " + profile.Name
			doc = &DoctorProfile{
				Specialization:  fake.RandomStringElement(specializations),
				Qualification:   "MBBS",
				Experience:      fake.IntBetween(1, 30),
				ConsultationFee: float64(fake.IntBetween(10, 50) * 100),
				RoomNumber:      fmt.Sprintf("R-%03d", fake.IntBetween(1, 400)),
			}
		}
		if _, err := s.CreateUser(profile, "password123", doc); err != nil {
			return fmt.Errorf("mockapi: seed fake user %d: %w", i, err)
		}
	}
	return nil
}

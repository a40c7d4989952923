package logging

import "testing"

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"login by amna@hms.test failed", "login by [EMAIL] failed"},
		{"call 0302 000 0001 now", "call [PHONE] now"},
		{"+92-300-1234567", "[PHONE]"},
		{"slot 10:00 AM on 2030-01-07", "slot 10:00 AM on 2030-01-07"},
		{"appointment 665f00a1234567890bcdef01", "appointment 665f00a1234567890bcdef01"},
	}
	for _, tt := range tests {
		if got := Redact(tt.in); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskEmail(t *testing.T) {
	if got := MaskEmail("amna@hms.test"); got != "a***@hms.test" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskEmail("not-an-email"); got != "[EMAIL]" {
		t.Fatalf("unexpected mask %q", got)
	}
}

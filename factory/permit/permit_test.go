package permit

import (
	"context"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Galaxy Granites Pvt.", "GALAXYGRANITESPVT"},
		{"galaxy-granites_pvt", "GALAXYGRANITESPVT"},
		{"A1 Stones & Co", "A1STONESCO"},
		{"  ", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanWrite(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		company  string
		want     bool
	}{
		{"prefix is not a match", "Galaxy Granites", "Galaxy Granites Pvt.", false},
		{"exact normalized match", "Galaxy Granites Pvt", "Galaxy Granites Pvt.", true},
		{"case and punctuation ignored", "galaxy-granites-pvt.", "GALAXY GRANITES PVT", true},
		{"other company", "Stone World", "Galaxy Granites", false},
		{"admin writes anything", "Admin", "Galaxy Granites", true},
		{"admin normalized", "a.d.m.i.n", "Stone World", true},
		{"guest never writes", "GUEST", "GUEST", false},
		{"guest lowercase", "guest", "Galaxy Granites", false},
		{"empty operator", "", "Galaxy Granites", false},
		{"empty company only matches nothing", "Galaxy", "", false},
	}
	for _, tc := range tests {
		if got := CanWrite(tc.operator, tc.company); got != tc.want {
			t.Errorf("%s: CanWrite(%q, %q) = %v, want %v", tc.name, tc.operator, tc.company, got, tc.want)
		}
	}
}

func TestReserved(t *testing.T) {
	for _, name := range []string{"guest", "GUEST", "Guest!", "admin", "ADMIN", "a-d-m-i-n"} {
		if !Reserved(name) {
			t.Errorf("Reserved(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"Ravi", "administrator", "guest2"} {
		if Reserved(name) {
			t.Errorf("Reserved(%q) = true, want false", name)
		}
	}
}

func TestOperatorContext(t *testing.T) {
	ctx := context.Background()
	if got := OperatorFromContext(ctx); got != Guest {
		t.Fatalf("bare context: got %q, want %q", got, Guest)
	}
	ctx = NewContextWithOperator(ctx, "RAVI")
	if got := OperatorFromContext(ctx); got != "RAVI" {
		t.Fatalf("got %q, want RAVI", got)
	}
}

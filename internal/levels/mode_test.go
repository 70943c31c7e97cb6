package levels

import "testing"

func TestChmodForms(t *testing.T) {
	cases := []struct {
		start string
		spec  string
		want  string
	}{
		{"r--------", "+x", "r-x------"},
		{"r--------", "u+x", "r-x------"},
		{"----------", "+r", "----r-----"},
		{"----------", "g+r", "----r-----"},
		{"----------", "u+r", "-r--------"},
		{"rw-r--r--", "755", "rwxr-xr-x"},
		{"rw-r--r--", "a=r", "r--r--r--"},
		{"rwxrwxrwx", "go-wx", "rwxr--r--"},
		{"rw-r--r--", "u+x,o-r", "rwxr-----"},
		{"----------", "rwx------", "-rwx------"},
		{"rw-r--r--", "-rw-------", "-rw-------"},
	}
	for _, tc := range cases {
		m, err := parseMode(tc.start)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.start, err)
		}
		got, err := chmod(m, tc.spec)
		if err != nil {
			t.Fatalf("chmod %q %q: %v", tc.spec, tc.start, err)
		}
		if got.String() != tc.want {
			t.Fatalf("chmod %q on %q = %q, want %q", tc.spec, tc.start, got.String(), tc.want)
		}
	}
}

func TestChmodRejectsGarbage(t *testing.T) {
	m, _ := parseMode("rw-r--r--")
	for _, spec := range []string{"999", "u*x", "z+r", "+q", "rwxrwxrw"} {
		if _, err := chmod(m, spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}

func TestParseModeRejectsBadLength(t *testing.T) {
	if _, err := parseMode("rwx"); err == nil {
		t.Fatalf("expected length error")
	}
	if _, err := parseMode("xrwxrwxrwx"); err == nil {
		t.Fatalf("expected type error")
	}
}

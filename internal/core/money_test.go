package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1250.50", 1250.50, true},
		{"1250,50", 1250.50, true},
		{" 99.9 ", 99.9, true},
		{"0.01", 0.01, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1234.5); got != "1234.50" {
		t.Errorf("FormatAmount(1234.5) = %q", got)
	}
	if got := FormatAmount(100); got != "100.00" {
		t.Errorf("FormatAmount(100) = %q", got)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2025-09-01"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	for _, bad := range []string{"2025/09/01", "01-09-2025", "2025-13-01", "yesterday", ""} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("%q expected error", bad)
		}
	}
}

func TestStudentValidate(t *testing.T) {
	valid := Student{Name: "Omar Khaled", Grade: "Grade 4", AcademicYear: "2025-2026"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid student rejected: %v", err)
	}
	cases := []struct {
		name    string
		student Student
		want    error
	}{
		{"missing name", Student{Grade: "Grade 4", AcademicYear: "2025-2026"}, ErrEmptyName},
		{"missing grade", Student{Name: "Omar", AcademicYear: "2025-2026"}, ErrEmptyGrade},
		{"missing year", Student{Name: "Omar", Grade: "Grade 4"}, ErrEmptyAcademicYear},
		{"blank name", Student{Name: "   ", Grade: "Grade 4", AcademicYear: "2025-2026"}, ErrEmptyName},
	}
	for _, tc := range cases {
		if err := tc.student.Validate(); err != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

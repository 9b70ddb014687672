package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"40.5", 4050, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٣", 0, false},
		{"1.５", 0, false},
		{"٣", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseMoneyIsValidationError(t *testing.T) {
	if _, err := ParseMoney("nope"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, in := range []string{"1.٣", "1.５", "１0"} {
		if _, err := ParseMoney(in); !IsValidation(err) {
			t.Errorf("ParseMoney(%q): expected validation error, got %v", in, err)
		}
	}
	m, err := ParseMoney("12,345")
	if err != nil || m.Cents != 1235 {
		t.Fatalf("unexpected parse: %v %v", m, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		4050:   "40.50",
		1:      "0.01",
		0:      "0.00",
		100000: "1000.00",
		-250:   "-2.50",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	b, err := Money{Cents: 1999}.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "19.99" {
		t.Fatalf("got %s", b)
	}
}

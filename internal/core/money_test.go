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
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
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

func TestParseSignedMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"0", 0, true},
		{"0.00", 0, true},
		{"", 0, true}, // omitted balance means zero
		{"1.23", 123, true},
		{"-1.23", -123, true},
		{"+2.50", 250, true},
		{"-0,50", -50, true},
		{" -10 ", -1000, true},
		{"-", 0, false},
		{"+", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"--1", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseSignedMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{123456, "1234.56"},
		{100, "1.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-1999, "-19.99"},
	}
	for _, tc := range cases {
		if got := NewMoney(tc.cents).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(1050)
	b := NewMoney(275)
	if got := a.Add(b).Cents; got != 1325 {
		t.Errorf("Add = %d, want 1325", got)
	}
	if got := b.Sub(a).Cents; got != -775 {
		t.Errorf("Sub = %d, want -775", got)
	}
	if got := a.Units(); got != 10.5 {
		t.Errorf("Units = %v, want 10.5", got)
	}
}

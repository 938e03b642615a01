package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	apperrors "finjournal/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "5000", want: "5000.00"},
		{name: "two_decimals", input: "12.50", want: "12.50"},
		{name: "thousands_separator", input: "50,000", want: "50000.00"},
		{name: "negative_balance", input: "-250.75", want: "-250.75"},
		{name: "surrounding_spaces", input: "  42 ", want: "42.00"},
		{name: "empty", input: "", wantErr: true},
		{name: "not_a_number", input: "abc", wantErr: true},
		{name: "nan", input: "NaN", wantErr: true},
		{name: "infinity", input: "Inf", wantErr: true},
		{name: "too_many_decimals", input: "1.005", wantErr: true},
		{name: "overflow", input: "999999999999999999999", wantErr: true},
		{name: "largest", input: "10000000000000.00", want: "10000000000000.00"},
		{name: "above_largest", input: "10000000000000.01", wantErr: true},
		{name: "below_smallest", input: "-10000000000000.01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidAmount) {
					t.Fatalf("expected INVALID_AMOUNT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePositive(t *testing.T) {
	for _, input := range []string{"0", "0.00", "-1"} {
		if _, err := ParsePositive(input); apperrors.Code(err) != "INVALID_AMOUNT" {
			t.Errorf("ParsePositive(%q) expected INVALID_AMOUNT, got %v", input, err)
		}
	}

	m, err := ParsePositive("0.01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Minor() != 1 {
		t.Errorf("expected 1 minor unit, got %d", m.Minor())
	}
}

func TestFromFloat(t *testing.T) {
	if _, err := FromFloat(math.NaN()); err == nil {
		t.Error("expected error for NaN")
	}
	if _, err := FromFloat(math.Inf(1)); err == nil {
		t.Error("expected error for +Inf")
	}
	m, err := FromFloat(4500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Equal(New(4500)) {
		t.Errorf("expected 4500.00, got %s", m)
	}
}

func TestArithmeticDoesNotDrift(t *testing.T) {
	// 0.1 added ten thousand times drifts with float64 but must be exact here.
	step := MustParse("0.10")
	total := Zero
	for i := 0; i < 10000; i++ {
		total = total.Add(step)
	}
	if !total.Equal(New(1000)) {
		t.Errorf("expected 1000.00, got %s", total)
	}

	back := total
	for i := 0; i < 10000; i++ {
		back = back.Sub(step)
	}
	if !back.IsZero() {
		t.Errorf("expected zero, got %s", back)
	}
}

func TestMinorRoundTrip(t *testing.T) {
	m := MustParse("-2200.35")
	if m.Minor() != -220035 {
		t.Fatalf("expected -220035, got %d", m.Minor())
	}
	if !FromMinor(m.Minor()).Equal(m) {
		t.Errorf("FromMinor(Minor()) changed the value: %s", FromMinor(m.Minor()))
	}
}

func TestScan(t *testing.T) {
	var m Money
	if err := m.Scan(int64(1250050)); err != nil {
		t.Fatalf("scan int64: %v", err)
	}
	if m.String() != "12500.50" {
		t.Errorf("expected 12500.50, got %s", m)
	}

	if err := m.Scan([]byte("-300")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if m.String() != "-3.00" {
		t.Errorf("expected -3.00, got %s", m)
	}

	if err := m.Scan(true); err == nil {
		t.Error("expected error scanning bool")
	}

	// An integer expression that overflowed into a REAL must not wrap.
	if err := m.Scan(float64(9.223372036854776e18)); err == nil {
		t.Error("expected error scanning a float beyond int64")
	}
	if err := m.Scan(math.Inf(-1)); err == nil {
		t.Error("expected error scanning -Inf")
	}
	if err := m.Scan(float64(250)); err != nil || m.String() != "2.50" {
		t.Errorf("expected 2.50 from float 250, got %s (%v)", m, err)
	}
}

func TestInRange(t *testing.T) {
	if !FromMinor(MaxMinor).InRange() || !FromMinor(-MaxMinor).InRange() {
		t.Error("expected the bounds themselves to be in range")
	}
	if FromMinor(MaxMinor).Add(MustParse("0.01")).InRange() {
		t.Error("expected MaxMinor+1 to be out of range")
	}
}

func TestJSON(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	data, err := json.Marshal(payload{Amount: MustParse("12500")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"amount":12500.00}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"amount":"4,500.25"}`), &p); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if p.Amount.String() != "4500.25" {
		t.Errorf("expected 4500.25, got %s", p.Amount)
	}

	if err := json.Unmarshal([]byte(`{"amount":1.234}`), &p); err == nil {
		t.Error("expected error for three decimal places")
	}
}

func TestFormat(t *testing.T) {
	got := MustParse("12500").Format("NGN")
	if got != "₦12,500.00" {
		t.Errorf("expected ₦12,500.00, got %s", got)
	}
}

package loan

import (
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2020-01-15", "2020-01-15"},
		{"2020-01-15T00:00:00Z", "2020-01-15"},
		{"2020-01-15 13:45:00", "2020-01-15"},
		{"15/01/2020", "2020-01-15"},
	}
	for _, c := range cases {
		d, err := ParseDate(c.in, nil)
		if err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if got := d.Format("2006-01-02"); got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.in, c.want, got)
		}
	}
	if _, err := ParseDate("not-a-date", nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAddMonthsClamps(t *testing.T) {
	d := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := AddMonths(d, 1); !got.Equal(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("leap year Jan 31 + 1 month: got %v", got)
	}
	d = time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := AddMonths(d, 1); !got.Equal(time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Jan 31 + 1 month: got %v", got)
	}
	d = time.Date(2020, 11, 15, 0, 0, 0, 0, time.UTC)
	if got := AddMonths(d, 3); !got.Equal(time.Date(2021, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("year rollover: got %v", got)
	}
	if got := AddMonths(d, 0); !got.Equal(d) {
		t.Fatalf("zero offset should be identity, got %v", got)
	}
}

func TestPaymentMonth(t *testing.T) {
	// open 2020-01-15, original term 24, remaining 20: 4 months elapsed.
	open := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := PaymentMonth(open, 24, 20); got != "2020-05" {
		t.Fatalf("expected 2020-05, got %s", got)
	}
	if got := PaymentMonth(open, 24, 24); got != "2020-01" {
		t.Fatalf("expected 2020-01, got %s", got)
	}
}

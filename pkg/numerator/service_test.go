package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenum "corseg/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // simulates DB sequence value
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenum.DefaultConfig("MOV")

	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "MOV-2026-00001" {
		t.Errorf("expected MOV-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "MOV-2026-00002" {
		t.Errorf("expected MOV-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenum.DefaultConfig("LIQC")

	opts := &corenum.Options{
		Strategy:  corenum.StrategyCached,
		RangeSize: 10,
	}

	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// First call allocates 1..10 from DB; the next nine come from memory.
	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(ctx, cfg, opts, period)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := fmt.Sprintf("LIQC-2026-%05d", i)
		if num != want {
			t.Errorf("expected %s, got %s", want, num)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected 1 DB call for first range, got %d", q.calls)
	}

	// Eleventh call refills.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "LIQC-2026-00011" {
		t.Errorf("expected LIQC-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected 2 DB calls after refill, got %d", q.calls)
	}
}

func TestFormatNumber_NoYear(t *testing.T) {
	cfg := corenum.Config{Prefix: "PAG", PadWidth: 4, ResetPeriod: "never"}
	got := formatNumber(cfg, time.Now(), 42)
	if got != "PAG-0042" {
		t.Errorf("expected PAG-0042, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	if n := ParseNumber("MOV-2026-00017"); n != 17 {
		t.Errorf("expected 17, got %d", n)
	}
	if n := ParseNumber("PAG-0042"); n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
	if n := ParseNumber("garbage"); n != -1 {
		t.Errorf("expected -1, got %d", n)
	}
	if n := ParseNumber("MOV-"); n != -1 {
		t.Errorf("expected -1, got %d", n)
	}
	if n := ParseNumber("MOV-2026-abc"); n != -1 {
		t.Errorf("expected -1, got %d", n)
	}
}

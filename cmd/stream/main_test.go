package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"StockStream/internal/recorder"
)

func noConfig(t *testing.T) string {
	t.Setenv("DATA_PROVIDER", "static")
	return filepath.Join(t.TempDir(), "none.yaml")
}

func TestRun_OneShotOrdered(t *testing.T) {
	cfg := noConfig(t)
	var out bytes.Buffer

	code := run(context.Background(), []string{
		"-config", cfg, "-symbols", "MSFT, AAPL,MSFT,GOOG",
		"-from", "2024-01-01", "-to", "2024-03-01", "-window", "5", "-ordered",
	}, &out)
	require.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "period start,period end,symbol,price,change %,min,max,5d avg", lines[0])
	for i, sym := range []string{"MSFT", "AAPL", "GOOG"} {
		fields := strings.Split(lines[i+1], ",")
		require.Len(t, fields, 8)
		require.Equal(t, "2024-01-01T00:00:00Z", fields[0])
		require.Equal(t, sym, fields[2])
		require.True(t, strings.HasPrefix(fields[3], "$"))
		require.True(t, strings.HasSuffix(fields[4], "%"))
	}
}

func TestRun_RecordsToSQLite(t *testing.T) {
	cfg := noConfig(t)
	dsn := filepath.Join(t.TempDir(), "rows.db")
	t.Setenv("DATABASE_DSN", dsn)

	var out bytes.Buffer
	code := run(context.Background(), []string{"-config", cfg, "-symbols", "UBER", "-from", "2024-01-01", "-to", "2024-02-01"}, &out)
	require.Equal(t, exitOK, code)

	r, err := recorder.NewSQLRecorder("sqlite", dsn)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.Latest(context.Background(), "UBER")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got.PeriodEnd)
}

func TestRun_ArgumentErrors(t *testing.T) {
	cfg := noConfig(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing from", []string{}},
		{"malformed from", []string{"-from", "last week"}},
		{"reversed range", []string{"-from", "2024-03-01", "-to", "2024-01-01"}},
		{"bad window", []string{"-from", "2024-01-01", "-window", "-3"}},
		{"blank symbols", []string{"-from", "2024-01-01", "-symbols", " , "}},
		{"end in interval mode", []string{"-from", "2024-01-01", "-to", "2024-02-01", "-interval", "1s"}},
		{"unknown flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := run(context.Background(), append([]string{"-config", cfg}, tt.args...), &out)
			require.Equal(t, exitArgument, code)
		})
	}
}

func TestRun_IntervalStopsOnCancel(t *testing.T) {
	cfg := noConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	code := run(ctx, []string{"-config", cfg, "-symbols", "AAPL", "-from", "2024-01-01", "-interval", "30ms"}, &out)
	require.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 3, "header plus at least two cycles")
}

package batch_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parlorgames/byline/pkg/batch"
)

func double(_ context.Context, items []int) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, strconv.Itoa(n*2))
	}
	return out, nil
}

func TestRunPartitions(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		cfg   batch.Config
		want  []string
	}{
		{
			name:  "empty input",
			items: []int{},
			cfg:   batch.Config{Size: 4, Concurrency: 2},
			want:  []string{},
		},
		{
			name:  "single partial batch",
			items: []int{1, 2, 3},
			cfg:   batch.Config{Size: 8, Concurrency: 2},
			want:  []string{"2", "4", "6"},
		},
		{
			name:  "multiple full batches",
			items: []int{1, 2, 3, 4, 5, 6},
			cfg:   batch.Config{Size: 2, Concurrency: 2},
			want:  []string{"2", "4", "6", "8", "10", "12"},
		},
		{
			name:  "trailing partial batch",
			items: []int{1, 2, 3, 4, 5},
			cfg:   batch.Config{Size: 2, Concurrency: 4},
			want:  []string{"2", "4", "6", "8", "10"},
		},
		{
			name:  "zero config falls back to serial",
			items: []int{7, 8},
			cfg:   batch.Config{},
			want:  []string{"14", "16"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := batch.Run(context.Background(), tt.items, tt.cfg, double)

			if result.Failed() {
				t.Fatalf("unexpected failures: %v", result.Failures)
			}

			if len(result.Results) != len(tt.want) {
				t.Fatalf("got %d results, want %d", len(result.Results), len(tt.want))
			}

			for i, got := range result.Results {
				if got != tt.want[i] {
					t.Errorf("result %d = %q, want %q", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestRunOrderPreserved(t *testing.T) {
	items := make([]int, 40)
	for i := range items {
		items[i] = i
	}

	// Later batches finish before earlier ones; aggregation must still
	// follow input order.
	fn := func(_ context.Context, chunk []int) ([]int, error) {
		time.Sleep(time.Duration(40-chunk[0]) * time.Millisecond)
		return chunk, nil
	}

	result := batch.Run(context.Background(), items, batch.Config{Size: 5, Concurrency: 8}, fn)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}

	for i, got := range result.Results {
		if got != i {
			t.Fatalf("result %d = %d, want %d", i, got, i)
		}
	}
}

func TestRunWaves(t *testing.T) {
	var mu sync.Mutex
	var active, peak int

	fn := func(_ context.Context, items []int) ([]int, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()

		return items, nil
	}

	items := make([]int, 19)
	result := batch.Run(context.Background(), items, batch.Config{Size: 1, Concurrency: 4}, fn)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}

	if peak > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", peak)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	errBoom := errors.New("boom")

	fn := func(_ context.Context, items []int) ([]int, error) {
		if items[0] == 4 {
			return nil, errBoom
		}
		return items, nil
	}

	result := batch.Run(context.Background(), []int{0, 1, 2, 3, 4, 5, 6, 7}, batch.Config{Size: 2, Concurrency: 4}, fn)

	if !result.Failed() {
		t.Fatal("expected failure report")
	}

	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}

	failure := result.Failures[0]
	if failure.Batch != 2 {
		t.Errorf("failure batch = %d, want 2", failure.Batch)
	}
	if !errors.Is(failure.Err, errBoom) {
		t.Errorf("failure err = %v, want %v", failure.Err, errBoom)
	}
	if len(failure.Items) != 2 || failure.Items[0] != 4 || failure.Items[1] != 5 {
		t.Errorf("failure items = %v, want [4 5]", failure.Items)
	}

	want := []int{0, 1, 2, 3, 6, 7}
	if len(result.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(result.Results), len(want))
	}
	for i, got := range result.Results {
		if got != want[i] {
			t.Errorf("result %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestRunRetriesOnce(t *testing.T) {
	var calls atomic.Int32

	// Fails on first attempt, succeeds on retry.
	fn := func(_ context.Context, items []int) ([]int, error) {
		if calls.Add(1) == 1 {
			return nil, fmt.Errorf("transient")
		}
		return items, nil
	}

	result := batch.Run(context.Background(), []int{1, 2}, batch.Config{Size: 2, Concurrency: 1}, fn)

	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("runner called %d times, want 2", got)
	}
}

func TestRunRetryExhausted(t *testing.T) {
	var calls atomic.Int32

	fn := func(_ context.Context, _ []int) ([]int, error) {
		calls.Add(1)
		return nil, errors.New("persistent")
	}

	result := batch.Run(context.Background(), []int{1, 2}, batch.Config{Size: 2, Concurrency: 1}, fn)

	if !result.Failed() {
		t.Fatal("expected failure report")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("runner called %d times, want 2", got)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := batch.Run(ctx, []int{1, 2, 3}, batch.Config{Size: 1, Concurrency: 2}, double)

	if !result.Failed() {
		t.Fatal("expected failure report")
	}
	for _, failure := range result.Failures {
		if !errors.Is(failure.Err, context.Canceled) {
			t.Errorf("failure err = %v, want context.Canceled", failure.Err)
		}
	}
}

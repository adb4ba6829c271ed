package balance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories/repotest"
	"cleanbage/internal/services/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	balance int
	err     error
	calls   int
}

func (f *fakeSource) Balance(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.balance, nil
}

func (f *fakeSource) set(balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = balance
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPoller_BackoffShape(t *testing.T) {
	src := &fakeSource{balance: 10}
	p := NewPoller(src, "user_1", 10, DefaultConfig())

	assert.Equal(t, 30*time.Second, p.Interval())

	// A stable balance backs the cadence off geometrically up to the cap.
	want := []time.Duration{
		45 * time.Second,
		67500 * time.Millisecond,
		101250 * time.Millisecond,
		120 * time.Second,
		120 * time.Second,
	}
	for _, expected := range want {
		p.reconcile(10)
		assert.Equal(t, expected, p.Interval())
	}

	// Any observed change snaps back to the fast interval.
	p.reconcile(13)
	assert.Equal(t, 30*time.Second, p.Interval())
}

func TestPoller_Reconcile(t *testing.T) {
	t.Run("increase emits an event", func(t *testing.T) {
		p := NewPoller(&fakeSource{}, "user_1", 10, DefaultConfig())

		p.reconcile(13)

		assert.Equal(t, 13, p.Balance())
		select {
		case ev := <-p.Events():
			assert.Equal(t, "user_1", ev.UserID)
			assert.Equal(t, 10, ev.Previous)
			assert.Equal(t, 13, ev.Current)
		default:
			t.Fatal("expected a balance event")
		}
	})

	t.Run("server value wins even when lower", func(t *testing.T) {
		p := NewPoller(&fakeSource{}, "user_1", 10, DefaultConfig())

		p.reconcile(4)

		assert.Equal(t, 4, p.Balance())
		select {
		case <-p.Events():
			t.Fatal("decrease must not emit an event")
		default:
		}
		assert.Equal(t, 30*time.Second, p.Interval(), "a change still resets the cadence")
	})

	t.Run("no-op keeps the balance", func(t *testing.T) {
		p := NewPoller(&fakeSource{}, "user_1", 10, DefaultConfig())
		p.reconcile(10)
		assert.Equal(t, 10, p.Balance())
		select {
		case <-p.Events():
			t.Fatal("unchanged balance must not emit an event")
		default:
		}
	})
}

func TestPoller_PollErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("server unreachable")}
	p := NewPoller(src, "user_1", 10, DefaultConfig())
	p.reconcile(10) // back off once
	before := p.Interval()

	p.poll(context.Background())

	assert.Equal(t, 10, p.Balance(), "failed poll keeps the local value")
	assert.Equal(t, before, p.Interval(), "failed poll keeps the cadence")
}

func TestPoller_PauseResume(t *testing.T) {
	src := &fakeSource{balance: 10}
	p := NewPoller(src, "user_1", 10, DefaultConfig())

	p.Pause()
	p.poll(context.Background())
	assert.Equal(t, 0, src.callCount(), "paused poller must not hit the source")

	// Back off the interval, then resume: cadence resets and an immediate
	// poll is requested.
	p.reconcile(10)
	require.NotEqual(t, 30*time.Second, p.Interval())
	p.Resume()
	assert.Equal(t, 30*time.Second, p.Interval())
	select {
	case <-p.kick:
	default:
		t.Fatal("resume must request an immediate poll")
	}
}

// The ledger service is the server-side Source in production wiring.
func TestPoller_LedgerSource(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	store.Seed(models.User{ID: "user_1", Email: "a@b.com", Points: 5})
	ledgerSvc := ledger.NewService(store)

	p := NewPoller(ledgerSvc, "user_1", 0, DefaultConfig())

	p.poll(ctx)
	assert.Equal(t, 5, p.Balance())

	_, err := ledgerSvc.Award(ctx, "user_1", 3, models.SourceWasteCollection)
	require.NoError(t, err)

	p.poll(ctx)
	assert.Equal(t, 8, p.Balance())
	assert.Equal(t, 8, store.User("user_1").Points, "poller must never write balances")
}

func TestPoller_Run(t *testing.T) {
	src := &fakeSource{balance: 10}
	cfg := Config{
		FastInterval: 5 * time.Millisecond,
		MaxInterval:  20 * time.Millisecond,
		Growth:       1.5,
	}
	p := NewPoller(src, "user_1", 0, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// The startup poll adopts the server value and emits an increase event.
	select {
	case ev := <-p.Events():
		assert.Equal(t, 0, ev.Previous)
		assert.Equal(t, 10, ev.Current)
	case <-time.After(time.Second):
		t.Fatal("expected startup poll event")
	}

	src.set(25)
	select {
	case ev := <-p.Events():
		assert.Equal(t, 10, ev.Previous)
		assert.Equal(t, 25, ev.Current)
	case <-time.After(time.Second):
		t.Fatal("expected event after server-side increase")
	}
	assert.Equal(t, 25, p.Balance())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	// The events channel closes with Run.
	_, open := <-p.Events()
	assert.False(t, open)
}

package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"bookngo-backend/internal/payment/domain"
)

// fakePaymentRepo is an in-memory PaymentRepository with the same CAS
// semantics as the postgres implementation.
type fakePaymentRepo struct {
	mu      sync.Mutex
	records map[string]*domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{records: make(map[string]*domain.Payment)}
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakePaymentRepo) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[payment.ID]; ok {
		return false, nil
	}
	copied := *payment
	f.records[payment.ID] = &copied
	return true, nil
}

func (f *fakePaymentRepo) TransitionStatus(ctx context.Context, id string, status domain.PaymentStatus, updatedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return false, nil
	}
	if record.Status != domain.PaymentStatusPending {
		return false, nil
	}
	if record.LastUpdatedAt.After(updatedAt) {
		return false, nil
	}
	record.Status = status
	record.LastUpdatedAt = updatedAt
	return true, nil
}

func (f *fakePaymentRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, *record)
		}
	}
	return out, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.PaymentSettled
}

func (p *capturingPublisher) PublishSettled(ctx context.Context, event domain.PaymentSettled) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func seedPending(t *testing.T, repo *fakePaymentRepo, id, userID string, lastUpdated time.Time) {
	t.Helper()
	inserted, err := repo.CreateIfAbsent(context.Background(), &domain.Payment{
		ID:            id,
		Status:        domain.PaymentStatusPending,
		UserID:        userID,
		Amount:        50,
		LastUpdatedAt: lastUpdated,
	})
	if err != nil || !inserted {
		t.Fatalf("seed failed: inserted=%v err=%v", inserted, err)
	}
}

func TestReconcile_AppliesTerminalUpdateOnce(t *testing.T) {
	repo := newFakePaymentRepo()
	publisher := &capturingPublisher{}
	reconciler := NewReconciler(repo, publisher, zap.NewNop())

	t0 := time.Unix(0, 0)
	t100 := time.Unix(100, 0)
	seedPending(t, repo, "pay-1", "user-1", t0)

	update := domain.StatusUpdate{
		ID:            "pay-1",
		Status:        domain.PaymentStatusApproved,
		LastUpdatedAt: t100,
		Source:        domain.SourcePush,
	}

	applied, err := reconciler.Reconcile(context.Background(), update)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if !applied {
		t.Fatal("expected first update to apply")
	}

	// At-least-once delivery: the identical update again must be a no-op.
	applied, err = reconciler.Reconcile(context.Background(), update)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if applied {
		t.Error("duplicate update must not apply")
	}

	record, _ := repo.FindByID(context.Background(), "pay-1")
	if record.Status != domain.PaymentStatusApproved {
		t.Errorf("stored status = %s, want approved", record.Status)
	}
	if got := publisher.count(); got != 1 {
		t.Errorf("settlement events = %d, want exactly 1", got)
	}
	if publisher.events[0].UserID != "user-1" {
		t.Errorf("event user = %q, want user-1", publisher.events[0].UserID)
	}
}

func TestReconcile_TerminalIsMonotone(t *testing.T) {
	repo := newFakePaymentRepo()
	publisher := &capturingPublisher{}
	reconciler := NewReconciler(repo, publisher, zap.NewNop())

	seedPending(t, repo, "pay-1", "user-1", time.Unix(0, 0))

	if _, err := reconciler.Reconcile(context.Background(), domain.StatusUpdate{
		ID: "pay-1", Status: domain.PaymentStatusApproved, LastUpdatedAt: time.Unix(100, 0), Source: domain.SourcePush,
	}); err != nil {
		t.Fatal(err)
	}

	// No later update, from any source with any status, may change it.
	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusCancelled,
		domain.PaymentStatusRejected,
		domain.PaymentStatusPending,
	} {
		applied, err := reconciler.Reconcile(context.Background(), domain.StatusUpdate{
			ID: "pay-1", Status: status, LastUpdatedAt: time.Unix(200, 0), Source: domain.SourcePoll,
		})
		if err != nil {
			t.Fatal(err)
		}
		if applied {
			t.Errorf("update to %s after terminal must not apply", status)
		}
	}

	record, _ := repo.FindByID(context.Background(), "pay-1")
	if record.Status != domain.PaymentStatusApproved {
		t.Errorf("stored status = %s, want approved", record.Status)
	}
	if got := publisher.count(); got != 1 {
		t.Errorf("settlement events = %d, want 1", got)
	}
}

func TestReconcile_StaleUpdateIgnored(t *testing.T) {
	repo := newFakePaymentRepo()
	reconciler := NewReconciler(repo, &capturingPublisher{}, zap.NewNop())

	seedPending(t, repo, "pay-1", "user-1", time.Unix(95, 0))

	// An update older than the stored record loses, even while pending.
	applied, err := reconciler.Reconcile(context.Background(), domain.StatusUpdate{
		ID: "pay-1", Status: domain.PaymentStatusPending, LastUpdatedAt: time.Unix(90, 0), Source: domain.SourcePoll,
	})
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("stale pending update must not apply")
	}
}

func TestReconcile_RaceConvergesToApproved(t *testing.T) {
	// Webhook reports approved at t=100, poll reports pending at t=90.
	// Whatever the interleaving, the record converges to approved and the
	// settlement fires exactly once.
	for run := 0; run < 50; run++ {
		repo := newFakePaymentRepo()
		publisher := &capturingPublisher{}
		reconciler := NewReconciler(repo, publisher, zap.NewNop())
		seedPending(t, repo, "pay-1", "user-1", time.Unix(0, 0))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reconciler.Reconcile(context.Background(), domain.StatusUpdate{
				ID: "pay-1", Status: domain.PaymentStatusApproved, LastUpdatedAt: time.Unix(100, 0), Source: domain.SourcePush,
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = reconciler.Reconcile(context.Background(), domain.StatusUpdate{
				ID: "pay-1", Status: domain.PaymentStatusPending, LastUpdatedAt: time.Unix(90, 0), Source: domain.SourcePoll,
			})
		}()
		wg.Wait()

		record, _ := repo.FindByID(context.Background(), "pay-1")
		if record.Status != domain.PaymentStatusApproved {
			t.Fatalf("run %d: converged to %s, want approved", run, record.Status)
		}
		if got := publisher.count(); got != 1 {
			t.Fatalf("run %d: settlement events = %d, want 1", run, got)
		}
	}
}

func TestReconcile_ConcurrentDuplicatesEmitOnce(t *testing.T) {
	repo := newFakePaymentRepo()
	publisher := &capturingPublisher{}
	reconciler := NewReconciler(repo, publisher, zap.NewNop())
	seedPending(t, repo, "pay-1", "user-1", time.Unix(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reconciler.Reconcile(context.Background(), domain.StatusUpdate{
				ID: "pay-1", Status: domain.PaymentStatusApproved, LastUpdatedAt: time.Unix(100, 0), Source: domain.SourcePush,
			})
		}()
	}
	wg.Wait()

	if got := publisher.count(); got != 1 {
		t.Errorf("settlement events = %d, want exactly 1", got)
	}
}

func TestReconcile_FirstObservationOfTerminalStatus(t *testing.T) {
	repo := newFakePaymentRepo()
	publisher := &capturingPublisher{}
	reconciler := NewReconciler(repo, publisher, zap.NewNop())

	// A payment this backend never saw as pending.
	applied, err := reconciler.Reconcile(context.Background(), domain.StatusUpdate{
		ID: "pay-external", Status: domain.PaymentStatusApproved, LastUpdatedAt: time.Unix(100, 0), Source: domain.SourcePush,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("first terminal observation must create the record")
	}

	record, _ := repo.FindByID(context.Background(), "pay-external")
	if record == nil || record.Status != domain.PaymentStatusApproved {
		t.Fatalf("record = %+v, want approved", record)
	}
	if got := publisher.count(); got != 1 {
		t.Errorf("settlement events = %d, want 1", got)
	}
}

func TestReconcile_PendingUpdateEmitsNoEvent(t *testing.T) {
	repo := newFakePaymentRepo()
	publisher := &capturingPublisher{}
	reconciler := NewReconciler(repo, publisher, zap.NewNop())
	seedPending(t, repo, "pay-1", "user-1", time.Unix(0, 0))

	applied, err := reconciler.Reconcile(context.Background(), domain.StatusUpdate{
		ID: "pay-1", Status: domain.PaymentStatusPending, LastUpdatedAt: time.Unix(50, 0), Source: domain.SourcePoll,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Error("newer pending update should refresh the ordering key")
	}
	if got := publisher.count(); got != 0 {
		t.Errorf("settlement events = %d, want 0", got)
	}

	record, _ := repo.FindByID(context.Background(), "pay-1")
	if !record.LastUpdatedAt.Equal(time.Unix(50, 0)) {
		t.Errorf("last_updated_at = %v, want t=50", record.LastUpdatedAt)
	}
}

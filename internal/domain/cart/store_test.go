package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/domain/identity"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/logger"
)

// recordingRepository wraps a MemoryRepository and counts calls
type recordingRepository struct {
	*MemoryRepository

	mu        sync.Mutex
	saves     int
	loads     int
	loadErr   error
	saveErr   error
	lastSave  []LineItem
	loadGate  chan struct{}
	saveDelay time.Duration
}

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{MemoryRepository: NewMemoryRepository()}
}

func (r *recordingRepository) Load(ctx context.Context, userID uint) ([]LineItem, error) {
	r.mu.Lock()
	r.loads++
	err := r.loadErr
	gate := r.loadGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return r.MemoryRepository.Load(ctx, userID)
}

func (r *recordingRepository) Save(ctx context.Context, userID uint, items []LineItem) error {
	r.mu.Lock()
	r.saves++
	r.lastSave = items
	err := r.saveErr
	delay := r.saveDelay
	r.mu.Unlock()
	time.Sleep(delay)
	if err != nil {
		return err
	}
	return r.MemoryRepository.Save(ctx, userID, items)
}

func (r *recordingRepository) counts() (loads, saves int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads, r.saves
}

type recordingObserver struct {
	mu         sync.Mutex
	writes     []error
	hydrations []error
}

func (o *recordingObserver) ObserveCartWrite(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = append(o.writes, err)
}

func (o *recordingObserver) ObserveCartHydration(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hydrations = append(o.hydrations, err)
}

func signedIn(id uint) identity.Event {
	return identity.Event{Identity: &identity.Identity{UserID: id}, Resolved: true}
}

var signedOut = identity.Event{Resolved: true}

func newTestStore(repo Repository, debounce time.Duration) *Store {
	return NewStore(repo, Options{WriteDebounce: debounce, WriteTimeout: time.Second}, logger.Discard(), nil)
}

func TestStore_NoDurableAccessBeforeResolution(t *testing.T) {
	repo := newRecordingRepository()
	s := newTestStore(repo, 0)

	s.OnIdentity(context.Background(), identity.Event{Identity: &identity.Identity{UserID: 1}})
	view, err := s.Add(10, "M", 1)

	assert.ErrorIs(t, err, ErrNotHydrated)
	assert.Equal(t, StateUninitialized, view.State)
	assert.Empty(t, view.Items)
	require.NoError(t, s.Flush(context.Background()))
	loads, saves := repo.counts()
	assert.Zero(t, loads)
	assert.Zero(t, saves)
}

func TestStore_AnonymousHydratesEmptyWithoutRead(t *testing.T) {
	repo := newRecordingRepository()
	s := newTestStore(repo, 0)

	s.OnIdentity(context.Background(), signedOut)
	view, err := s.Add(10, "", 2)
	require.NoError(t, err)

	assert.Equal(t, StateHydrated, view.State)
	assert.Equal(t, 2, view.TotalQuantity)
	require.NoError(t, s.Flush(context.Background()))
	loads, saves := repo.counts()
	assert.Zero(t, loads)
	assert.Zero(t, saves, "anonymous carts stay in memory")
}

func TestStore_HydrationIsolation(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	require.NoError(t, repo.MemoryRepository.Save(ctx, 1, []LineItem{{ProductID: 7, Size: "M", Quantity: 1}}))

	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(1))
	assert.Equal(t, []LineItem{{ProductID: 7, Size: "M", Quantity: 1}}, s.Snapshot().Items)

	s.OnIdentity(ctx, signedIn(2))
	assert.Empty(t, s.Snapshot().Items, "another identity never sees the previous cart")

	s.OnIdentity(ctx, signedIn(1))
	assert.Equal(t, []LineItem{{ProductID: 7, Size: "M", Quantity: 1}}, s.Snapshot().Items)
}

func TestStore_RepeatedIdentityDoesNotReread(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(1))
	s.Add(3, "S", 1)
	s.OnIdentity(ctx, signedIn(1))

	loads, _ := repo.counts()
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, s.Snapshot().TotalQuantity)
}

func TestStore_DebouncedWriteCarriesLatestState(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	s := newTestStore(repo, 20*time.Millisecond)

	s.OnIdentity(ctx, signedIn(1))
	s.Add(1, "M", 1)
	s.Add(1, "M", 1)
	s.SetQuantity(1, "M", 5)
	s.Add(2, "", 1)

	assert.Eventually(t, func() bool {
		_, saves := repo.counts()
		return saves >= 1
	}, time.Second, 5*time.Millisecond)

	stored, err := repo.MemoryRepository.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{1, "M", 5}, {2, "", 1}}, stored)

	_, saves := repo.counts()
	assert.Equal(t, 1, saves, "bursts coalesce into one write")
}

func TestStore_FlushWritesImmediately(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(4))
	s.Add(9, "L", 3)
	require.NoError(t, s.Flush(ctx))

	stored, err := repo.MemoryRepository.Load(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{9, "L", 3}}, stored)
}

func TestStore_WriteFailureKeepsLocalCart(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	repo.saveErr = storeerr.ErrPermission
	obs := &recordingObserver{}
	s := NewStore(repo, Options{WriteDebounce: time.Hour, WriteTimeout: time.Second}, logger.Discard(), obs)

	s.OnIdentity(ctx, signedIn(1))
	s.Add(1, "M", 2)
	err := s.Flush(ctx)

	assert.ErrorIs(t, err, storeerr.ErrPermission)
	view := s.Snapshot()
	assert.Equal(t, 2, view.TotalQuantity)
	assert.Equal(t, storeerr.UserMessage(storeerr.ErrPermission), view.SyncError)
	require.Len(t, obs.writes, 1)
	assert.Error(t, obs.writes[0])

	repo.mu.Lock()
	repo.saveErr = nil
	repo.mu.Unlock()
	s.Add(1, "M", 1)
	require.NoError(t, s.Flush(ctx))
	assert.Empty(t, s.Snapshot().SyncError)
}

func TestStore_HydrationFailureSuppressesWrites(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	require.NoError(t, repo.MemoryRepository.Save(ctx, 1, []LineItem{{ProductID: 5, Quantity: 1}}))
	repo.loadErr = errors.New("dial tcp: connection refused")

	s := newTestStore(repo, time.Hour)
	s.OnIdentity(ctx, signedIn(1))

	view, err := s.Add(8, "", 1)
	assert.ErrorIs(t, err, ErrNotHydrated)
	assert.Equal(t, StateUninitialized, view.State)
	assert.Empty(t, view.Items)
	assert.NotEmpty(t, view.SyncError)
	require.NoError(t, s.Flush(ctx))
	_, saves := repo.counts()
	assert.Zero(t, saves)

	repo.mu.Lock()
	repo.loadErr = nil
	repo.mu.Unlock()
	s.OnIdentity(ctx, signedIn(1))
	assert.Equal(t, StateHydrated, s.State())
	assert.Equal(t, []LineItem{{ProductID: 5, Quantity: 1}}, s.Snapshot().Items)
}

func TestStore_SignOutResetsLocalStateOnly(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(1))
	s.Add(1, "M", 1)
	s.OnIdentity(ctx, signedOut)

	assert.Empty(t, s.Snapshot().Items)
	stored, err := repo.MemoryRepository.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "pending write for the outgoing identity lands before sign-out returns")

	s.OnIdentity(ctx, signedIn(1))
	assert.Equal(t, []LineItem{{1, "M", 1}}, s.Snapshot().Items)
}

func TestStore_ClearAfterOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(3))
	s.Add(1, "", 2)
	require.NoError(t, s.Flush(ctx))

	view, err := s.Clear()
	require.NoError(t, err)
	assert.Zero(t, view.TotalQuantity)
	require.NoError(t, s.Flush(ctx))

	stored, err := repo.MemoryRepository.Load(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestStore_BindFollowsSession(t *testing.T) {
	repo := newRecordingRepository()
	require.NoError(t, repo.MemoryRepository.Save(context.Background(), 6, []LineItem{{ProductID: 2, Size: "S", Quantity: 4}}))
	s := newTestStore(repo, time.Hour)

	sess := identity.NewSession()
	unbind := s.Bind(sess)
	defer unbind()

	sess.Resolve(&identity.Identity{UserID: 6})
	assert.Equal(t, 4, s.Snapshot().TotalQuantity)

	sess.SignOut()
	assert.Zero(t, s.Snapshot().TotalQuantity)
}

func TestStore_ReturningOwnerSeesHandOffWrite(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	repo.saveDelay = 30 * time.Millisecond
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(1))
	_, err := s.Add(7, "M", 1)
	require.NoError(t, err)

	s.OnIdentity(ctx, signedOut)
	s.OnIdentity(ctx, signedIn(1))
	assert.Equal(t, []LineItem{{7, "M", 1}}, s.Snapshot().Items)

	_, err = s.Add(9, "L", 1)
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx))

	stored, err := repo.MemoryRepository.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{7, "M", 1}, {9, "L", 1}}, stored)
}

func TestStore_ConcurrentIdentityFlipsKeepTheCart(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	repo.saveDelay = 10 * time.Millisecond
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(1))
	_, err := s.Add(7, "M", 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.OnIdentity(ctx, signedOut)
		}()
		go func() {
			defer wg.Done()
			s.OnIdentity(ctx, signedIn(1))
		}()
	}
	wg.Wait()

	s.OnIdentity(ctx, signedIn(1))
	assert.Equal(t, []LineItem{{7, "M", 1}}, s.Snapshot().Items)
}

func TestStore_SlowWriteIsNotOverwrittenByStaleState(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	repo.saveDelay = 30 * time.Millisecond
	s := newTestStore(repo, time.Millisecond)

	s.OnIdentity(ctx, signedIn(1))
	_, err := s.Add(7, "M", 1)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, saves := repo.counts()
		return saves >= 1
	}, time.Second, time.Millisecond, "debounced write started")

	_, err = s.Add(9, "L", 1)
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx))
	time.Sleep(50 * time.Millisecond)

	stored, err := repo.MemoryRepository.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{7, "M", 1}, {9, "L", 1}}, stored)
}

func TestStore_MutationsWaitForHydration(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	require.NoError(t, repo.MemoryRepository.Save(ctx, 1, []LineItem{{ProductID: 3, Size: "S", Quantity: 1}}))
	gate := make(chan struct{})
	repo.loadGate = gate
	s := newTestStore(repo, time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.OnIdentity(ctx, signedIn(1))
	}()
	assert.Eventually(t, func() bool { return s.State() == StateHydrating }, time.Second, time.Millisecond)

	view, err := s.Add(5, "M", 2)
	assert.ErrorIs(t, err, ErrNotHydrated)
	assert.Empty(t, view.Items, "a refused mutation is never shown")

	close(gate)
	<-done

	view, err = s.Add(5, "M", 2)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{3, "S", 1}, {5, "M", 2}}, view.Items)
}

func TestStore_ClosedRejectsMutations(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepository()
	s := newTestStore(repo, time.Hour)

	s.OnIdentity(ctx, signedIn(2))
	_, err := s.Add(4, "", 1)
	require.NoError(t, err)
	s.Close()

	stored, err := repo.MemoryRepository.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{{4, "", 1}}, stored)

	_, err = s.Add(4, "", 1)
	assert.ErrorIs(t, err, ErrClosed)
}

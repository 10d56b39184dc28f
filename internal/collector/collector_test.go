package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher serves canned bodies or errors per profile name and tracks
// how many fetches run simultaneously.
type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
	delay  time.Duration

	inFlight    int32
	maxInFlight int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, name string) (string, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, current) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err, ok := f.errs[name]; ok {
		return "", err
	}
	return f.bodies[name], nil
}

// fakeExtractor returns canned data keyed by page body.
type fakeExtractor struct {
	data map[string]*models.ProfileData
}

func (e *fakeExtractor) Extract(body string) (*models.ProfileData, error) {
	data, ok := e.data[body]
	if !ok {
		return nil, errors.New("malformed profile page")
	}
	return data, nil
}

// fakeLedger is an in-memory run ledger.
type fakeLedger struct {
	mu       sync.Mutex
	nextID   int64
	runs     map[int64]*models.CollectionRun
	startErr map[int64]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{runs: make(map[int64]*models.CollectionRun)}
}

func (l *fakeLedger) Start(ctx context.Context, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err, ok := l.startErr[userID]; ok {
		return 0, err
	}

	l.nextID++
	l.runs[l.nextID] = &models.CollectionRun{
		ID:        l.nextID,
		UserID:    userID,
		StartedAt: time.Now().UTC().Unix(),
	}
	return l.nextID, nil
}

func (l *fakeLedger) MarkSucceeded(ctx context.Context, runID int64) error {
	return l.finish(runID, true, "")
}

func (l *fakeLedger) MarkFailed(ctx context.Context, runID int64, detail string) error {
	return l.finish(runID, false, detail)
}

func (l *fakeLedger) finish(runID int64, success bool, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	run, ok := l.runs[runID]
	if !ok {
		return fmt.Errorf("run %d not found", runID)
	}
	run.FinishedAt = time.Now().UTC().Unix()
	run.Success = &success
	run.ErrorDetails = detail
	return nil
}

func (l *fakeLedger) RecentRuns(ctx context.Context, userID int64, limit int) ([]models.CollectionRun, error) {
	return nil, errors.New("not implemented")
}

func (l *fakeLedger) runFor(userID int64) *models.CollectionRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, run := range l.runs {
		if run.UserID == userID {
			return run
		}
	}
	return nil
}

// fakeStats is an in-memory snapshot store.
type fakeStats struct {
	mu       sync.Mutex
	accounts map[int64]models.AccountStats
	posts    map[int64][]models.PostStats
	saveErr  error
}

func newFakeStats() *fakeStats {
	return &fakeStats{
		accounts: make(map[int64]models.AccountStats),
		posts:    make(map[int64][]models.PostStats),
	}
}

func (s *fakeStats) SaveAccountStats(ctx context.Context, runID int64, stats models.AccountStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.accounts[runID] = stats
	return nil
}

func (s *fakeStats) SavePostStats(ctx context.Context, runID int64, post models.PostStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.posts[runID] = append(s.posts[runID], post)
	return nil
}

func profileFor(name string, postCount int) *models.ProfileData {
	data := &models.ProfileData{
		User:  models.ProfileIdentity{UserName: name},
		Stats: models.AccountStats{Posts: postCount, Followers: 100, Following: 50},
	}
	for i := 0; i < postCount; i++ {
		data.Posts = append(data.Posts, models.PostStats{
			PostID:   fmt.Sprintf("%s-post-%d", name, i),
			PostType: models.PostTypeImage,
		})
	}
	return data
}

func buildFixture(userCount int) ([]models.User, *fakeFetcher, *fakeExtractor) {
	users := make([]models.User, 0, userCount)
	fetcher := &fakeFetcher{bodies: map[string]string{}, errs: map[string]error{}}
	extractor := &fakeExtractor{data: map[string]*models.ProfileData{}}

	for i := 1; i <= userCount; i++ {
		name := fmt.Sprintf("user%d", i)
		body := "page-" + name
		users = append(users, models.User{ID: int64(i), Name: name})
		fetcher.bodies[name] = body
		extractor.data[body] = profileFor(name, 3)
	}

	return users, fetcher, extractor
}

func TestRunBatchCompleteness(t *testing.T) {
	users, fetcher, extractor := buildFixture(10)
	// Sprinkle failures; accounting must stay exactly-once.
	fetcher.errs["user3"] = errors.New("connection reset")
	fetcher.errs["user7"] = errors.New("http error code: 429")

	ledger := newFakeLedger()
	stats := newFakeStats()

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 3})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, len(users))

	seen := make(map[int64]AttemptResult)
	for _, result := range results {
		_, dup := seen[result.UserID]
		require.False(t, dup, "user %d reported twice", result.UserID)
		seen[result.UserID] = result
	}

	for _, user := range users {
		result, ok := seen[user.ID]
		require.True(t, ok, "user %d missing from results", user.ID)
		if user.Name == "user3" || user.Name == "user7" {
			assert.False(t, result.OK)
			assert.NotEmpty(t, result.Err)
		} else {
			assert.True(t, result.OK)
			assert.Empty(t, result.Err)
		}
	}
}

func TestRunBatchBoundsConcurrency(t *testing.T) {
	users, fetcher, extractor := buildFixture(9)
	fetcher.delay = 30 * time.Millisecond

	c := New(fetcher, extractor, newFakeLedger(), newFakeStats(), testLogger(), nil, Config{Concurrency: 3})

	start := time.Now()
	results := c.RunBatch(context.Background(), users)
	elapsed := time.Since(start)

	require.Len(t, results, 9)
	assert.LessOrEqual(t, fetcher.maxInFlight, int32(3), "worker pool exceeded its bound")

	// 9 users at 30ms each through 3 workers is 3 waves, far below the
	// serial 270ms.
	assert.Less(t, elapsed, 9*30*time.Millisecond, "batch ran serially")
}

func TestRunBatchSuccessPersistsSnapshots(t *testing.T) {
	users, fetcher, extractor := buildFixture(1)
	ledger := newFakeLedger()
	stats := newFakeStats()

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 5})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, 1)
	require.True(t, results[0].OK)

	run := ledger.runFor(1)
	require.NotNil(t, run)
	require.NotNil(t, run.Success)
	assert.True(t, *run.Success)
	assert.GreaterOrEqual(t, run.FinishedAt, run.StartedAt)

	account, ok := stats.accounts[run.ID]
	require.True(t, ok, "expected exactly one account snapshot")
	assert.Equal(t, 3, account.Posts)
	assert.Len(t, stats.posts[run.ID], 3)
}

func TestRunBatchFetchFailureLeavesNoSnapshots(t *testing.T) {
	users, fetcher, extractor := buildFixture(1)
	fetcher.errs["user1"] = errors.New("http error code: 500")

	ledger := newFakeLedger()
	stats := newFakeStats()

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 5})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)

	run := ledger.runFor(1)
	require.NotNil(t, run)
	require.NotNil(t, run.Success)
	assert.False(t, *run.Success)
	assert.NotEmpty(t, run.ErrorDetails)

	assert.Empty(t, stats.accounts)
	assert.Empty(t, stats.posts)
}

func TestRunBatchExtractFailureMarksRunFailed(t *testing.T) {
	users, fetcher, extractor := buildFixture(1)
	// The canned extractor data no longer matches this body.
	fetcher.bodies["user1"] = "<html>format changed</html>"

	ledger := newFakeLedger()
	stats := newFakeStats()

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 5})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Contains(t, results[0].Err, "malformed")

	run := ledger.runFor(1)
	require.NotNil(t, run)
	require.NotNil(t, run.Success)
	assert.False(t, *run.Success)
	assert.Empty(t, stats.accounts)
}

func TestRunBatchPersistFailureMarksRunFailed(t *testing.T) {
	users, fetcher, extractor := buildFixture(1)
	ledger := newFakeLedger()
	stats := newFakeStats()
	stats.saveErr = errors.New("connection closed")

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 5})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)

	run := ledger.runFor(1)
	require.NotNil(t, run)
	require.NotNil(t, run.Success)
	assert.False(t, *run.Success)
}

func TestRunBatchStartFailureIsolatedToUser(t *testing.T) {
	users, fetcher, extractor := buildFixture(3)
	ledger := newFakeLedger()
	ledger.startErr = map[int64]error{2: errors.New("database unavailable")}
	stats := newFakeStats()

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 2})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, 3)
	outcomes := make(map[int64]bool)
	for _, result := range results {
		outcomes[result.UserID] = result.OK
	}

	assert.True(t, outcomes[1])
	assert.False(t, outcomes[2])
	assert.True(t, outcomes[3])

	// The untracked attempt left no run behind.
	assert.Nil(t, ledger.runFor(2))
}

func TestRunBatchThreeUsersOne404(t *testing.T) {
	users, fetcher, extractor := buildFixture(3)
	fetcher.errs["user2"] = errors.New("http error code: 404")

	ledger := newFakeLedger()
	stats := newFakeStats()

	c := New(fetcher, extractor, ledger, stats, testLogger(), nil, Config{Concurrency: 5})
	results := c.RunBatch(context.Background(), users)

	require.Len(t, results, 3)

	byUser := make(map[int64]AttemptResult)
	for _, result := range results {
		byUser[result.UserID] = result
	}

	assert.True(t, byUser[1].OK)
	assert.False(t, byUser[2].OK)
	assert.Contains(t, byUser[2].Err, "404")
	assert.True(t, byUser[3].OK)

	// Two successful runs with snapshots, one failed run with none.
	assert.Len(t, stats.accounts, 2)
	failedRun := ledger.runFor(2)
	require.NotNil(t, failedRun)
	require.NotNil(t, failedRun.Success)
	assert.False(t, *failedRun.Success)
	assert.Empty(t, stats.posts[failedRun.ID])
}

func TestRunBatchEmptyUserList(t *testing.T) {
	c := New(&fakeFetcher{}, &fakeExtractor{}, newFakeLedger(), newFakeStats(), testLogger(), nil, Config{Concurrency: 5})

	results := c.RunBatch(context.Background(), nil)
	assert.Empty(t, results)
}

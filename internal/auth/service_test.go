package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shop-admin/internal/auth"
	"shop-admin/internal/memstore"
)

type countingRecorder struct {
	mu            sync.Mutex
	logins        []string
	registrations []string
}

func (r *countingRecorder) RecordLogin(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = append(r.logins, result)
}

func (r *countingRecorder) RecordRegistration(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, result)
}

func newTestService(t *testing.T, store auth.CredentialStore) (*auth.Service, *auth.TokenService, *countingRecorder) {
	t.Helper()

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "shop-admin-api",
		Audience:   "shop-admin-web",
		TTL:        time.Hour,
	})
	require.NoError(t, err)

	recorder := &countingRecorder{}
	service := auth.NewService(store, tokens).
		WithPasswordHasher(auth.NewPasswordHasher(bcrypt.MinCost)).
		WithRecorder(recorder)
	return service, tokens, recorder
}

func TestRegisterIssuesUserToken(t *testing.T) {
	service, tokens, recorder := newTestService(t, memstore.NewUsers())

	payload, err := service.Register(context.Background(), "  Alice ", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, payload.ExpiresAt, payload.ExpiresAt.Truncate(time.Second))
	assert.WithinDuration(t, time.Now().Add(time.Hour), payload.ExpiresAt, time.Minute)

	identity, err := tokens.Validate(payload.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{ID: 1, Username: "alice", Role: auth.RoleUser}, identity)
	assert.Equal(t, []string{"success"}, recorder.registrations)
}

func TestLoginSucceedsWithRegisteredCredentials(t *testing.T) {
	service, tokens, recorder := newTestService(t, memstore.NewUsers())
	_, err := service.Register(context.Background(), "alice", "Secret123")
	require.NoError(t, err)

	payload, err := service.Login(context.Background(), "ALICE", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Username)

	identity, err := tokens.Validate(payload.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, []string{"success"}, recorder.logins)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	service, _, recorder := newTestService(t, memstore.NewUsers())
	_, err := service.Register(context.Background(), "alice", "Secret123")
	require.NoError(t, err)

	_, wrongPassword := service.Login(context.Background(), "alice", "wrongpass")
	_, unknownUser := service.Login(context.Background(), "bob", "wrongpass")
	_, emptyPassword := service.Login(context.Background(), "alice", "")

	for _, err := range []error{wrongPassword, unknownUser, emptyPassword} {
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		assert.Equal(t, auth.ErrInvalidCredentials.Error(), err.Error())
	}
	assert.Equal(t, []string{"invalid", "invalid", "invalid"}, recorder.logins)
}

func TestPasswordsAreNotTrimmed(t *testing.T) {
	service, _, _ := newTestService(t, memstore.NewUsers())
	_, err := service.Register(context.Background(), "alice", " Secret123 ")
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "alice", "Secret123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = service.Login(context.Background(), "alice", " Secret123 ")
	assert.NoError(t, err)
}

func TestLongPasswordsRoundTrip(t *testing.T) {
	service, _, _ := newTestService(t, memstore.NewUsers())
	long := strings.Repeat("x", 80)

	_, err := service.Register(context.Background(), "alice", long)
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "alice", long)
	assert.NoError(t, err)
	_, err = service.Login(context.Background(), "alice", long[:72])
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, service.BootstrapAdmin(context.Background(), "root", strings.Repeat("r", 100)))
	_, err = service.Login(context.Background(), "root", strings.Repeat("r", 100))
	assert.NoError(t, err)
}

func TestUsernamesAreCaseInsensitive(t *testing.T) {
	service, _, _ := newTestService(t, memstore.NewUsers())

	payload, err := service.Register(context.Background(), "Alice", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Username)

	_, err = service.Register(context.Background(), "ALICE", "Other456")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	payload, err = service.Login(context.Background(), "aLiCe", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Username)
}

func TestRegisterTwiceReportsAlreadyExists(t *testing.T) {
	service, tokens, recorder := newTestService(t, memstore.NewUsers())

	first, err := service.Register(context.Background(), "alice", "Secret123")
	require.NoError(t, err)

	_, err = service.Register(context.Background(), "alice", "Other456")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	assert.Equal(t, "username already exists", err.Error())

	_, err = tokens.Validate(first.Token)
	assert.NoError(t, err)

	_, err = service.Login(context.Background(), "alice", "Other456")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "the first password must still be the only one")
	assert.Equal(t, []string{"success", "duplicate"}, recorder.registrations)
}

// racingStore answers the existence pre-check as if a concurrent
// registration had not committed yet.
type racingStore struct {
	*memstore.Users
}

func (racingStore) ExistsByUsername(context.Context, string) (bool, error) {
	return false, nil
}

func TestRegisterTreatsStoreUniqueViolationAsAlreadyExists(t *testing.T) {
	store := racingStore{Users: memstore.NewUsers()}
	service, _, _ := newTestService(t, store)

	_, err := service.Register(context.Background(), "alice", "Secret123")
	require.NoError(t, err)

	_, err = service.Register(context.Background(), "alice", "Secret123")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestConcurrentRegistrationsCreateOneAccount(t *testing.T) {
	service, _, _ := newTestService(t, memstore.NewUsers())

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Register(context.Background(), "alice", "Secret123")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	}
	assert.Equal(t, 1, succeeded)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	service, _, recorder := newTestService(t, memstore.NewUsers())

	_, err := service.Register(context.Background(), "   ", "Secret123")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)

	_, err = service.Register(context.Background(), "alice", "")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
	assert.Equal(t, []string{"invalid", "invalid"}, recorder.registrations)
}

func TestLoginStopsWhenContextIsCancelled(t *testing.T) {
	service, _, recorder := newTestService(t, memstore.NewUsers())
	_, err := service.Register(context.Background(), "alice", "Secret123")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = service.Login(ctx, "alice", "Secret123")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"error"}, recorder.logins)
}

type failingStore struct {
	*memstore.Users
}

var errStoreDown = errors.New("connection refused")

func (failingStore) FindByUsername(context.Context, string) (auth.Account, error) {
	return auth.Account{}, errStoreDown
}

func TestLoginSurfacesStoreFailures(t *testing.T) {
	service, _, recorder := newTestService(t, failingStore{Users: memstore.NewUsers()})

	_, err := service.Login(context.Background(), "alice", "Secret123")
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, []string{"error"}, recorder.logins)
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	store := memstore.NewUsers()
	service, _, _ := newTestService(t, store)

	require.NoError(t, service.BootstrapAdmin(context.Background(), "Admin", "ChangeMe123"))
	require.NoError(t, service.BootstrapAdmin(context.Background(), "admin", "Different456"))

	account, err := store.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, account.Role)

	_, err = service.Login(context.Background(), "admin", "ChangeMe123")
	assert.NoError(t, err)

	assert.NoError(t, service.BootstrapAdmin(context.Background(), "", ""))
	assert.Error(t, service.BootstrapAdmin(context.Background(), "admin", ""))
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	service, _, _ := newTestService(t, memstore.NewUsers())

	_, err := service.CreateUser(context.Background(), "carol", "Secret123", auth.Role("Root"))
	assert.Error(t, err)

	identity, err := service.CreateUser(context.Background(), "carol", "Secret123", auth.RoleAdmin)
	require.NoError(t, err)

	reloaded, err := service.Identity(context.Background(), identity.ID)
	require.NoError(t, err)
	assert.Equal(t, identity, reloaded)
}

package session

import (
	"context"
	stdErrors "errors"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/internal/snapshot"
	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
	"github.com/mesaboardhq/mesaboard-backend/pkg/metrics"
)

const defaultFetchTimeout = 4 * time.Second

// Reconciler owns the one reconciled session for a console process. All
// transitions are serialized through an epoch counter: every operation
// bumps the epoch when it starts, and a result whose epoch has been
// superseded is discarded instead of committed.
type Reconciler struct {
	store    identity.Store
	profiles profiles.Service
	snaps    *snapshot.Store
	metrics  *metrics.SessionMetrics
	logg     *logger.Logger
	cfg      config.SessionConfig

	mu      sync.Mutex
	epoch   uint64
	token   string
	state   State
	subs    map[int]chan State
	nextSub int
	closed  bool

	stop      chan struct{}
	watchOnce sync.Once
}

// NewReconciler wires a reconciler. Callers construct one per process and
// pass it down; there is no package-level instance.
func NewReconciler(
	store identity.Store,
	profileSvc profiles.Service,
	snaps *snapshot.Store,
	m *metrics.SessionMetrics,
	logg *logger.Logger,
	cfg config.SessionConfig,
) *Reconciler {
	return &Reconciler{
		store:    store,
		profiles: profileSvc,
		snaps:    snaps,
		metrics:  m,
		logg:     logg,
		cfg:      cfg,
		state:    State{Status: StatusUninitialized},
		subs:     make(map[int]chan State),
		stop:     make(chan struct{}),
	}
}

// Current returns the latest published state.
func (r *Reconciler) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe returns a channel carrying state updates and a cancel func.
// The channel holds one slot and coalesces: a slow reader sees the latest
// state, never a backlog, and publishing never blocks the reconciler.
func (r *Reconciler) Subscribe() (<-chan State, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++
	ch := make(chan State, 1)
	ch <- r.state
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
	return ch, cancel
}

// Start replays the cached snapshot (if any) and reconciles it against the
// live session. With no snapshot the reconciler settles unauthenticated
// without touching the network.
func (r *Reconciler) Start(ctx context.Context) State {
	r.watchOnce.Do(func() { go r.watchExpiry() })

	cached, ok := r.readSnapshot()
	if !ok {
		epoch := r.begin(State{Status: StatusInitializing, Loading: true})
		r.commit(epoch, unauthenticated(false), "")
		return r.Current()
	}

	// optimistic paint: show the cached pair while the live check runs
	epoch := r.begin(State{
		Status:   StatusInitializing,
		Loading:  true,
		Identity: &cached.Identity,
		Profile:  &cached.Profile,
	})

	started := time.Now()
	ident, profile, err := r.fetchLive(ctx, cached.Token)
	r.observeFetch("live", started)
	if err != nil {
		if transient(err) {
			// keep the snapshot for the next launch, settle signed out
			r.commit(epoch, unauthenticated(false), "")
			r.logg.Warn(ctx, "session replay hit a transient failure")
			return r.Current()
		}
		// the live result is authoritative: the cached pair is gone
		r.clearSnapshot(ctx)
		r.commit(epoch, unauthenticated(false), "")
		return r.Current()
	}

	if r.commit(epoch, authenticated(ident, profile), cached.Token) {
		r.writeSnapshot(ctx, cached.Token, ident, profile)
	}
	return r.Current()
}

// SignIn trades credentials for a session, loads the matching profile and
// applies the account policy. Any failure after the remote session was
// minted revokes it again so no half-signed-in session leaks.
func (r *Reconciler) SignIn(ctx context.Context, email, password string) (State, error) {
	epoch, prior, priorToken := r.beginLoading()

	fetchCtx, cancel := r.fetchBound(ctx)
	defer cancel()

	started := time.Now()
	token, ident, err := r.store.SignInWithPassword(fetchCtx, email, password)
	if err != nil {
		err = mapFetchErr(err)
		r.metrics.IncSignIn(outcome(err))
		// a rejected credential says nothing about the session already
		// held; put the prior state back
		r.commit(epoch, prior, priorToken)
		return r.Current(), err
	}

	profile, err := r.fetchProfile(ctx, ident)
	r.observeFetch("live", started)
	if err == nil {
		err = validate(ident, profile)
	}
	if err != nil {
		r.revokeQuietly(token)
		r.metrics.IncSignIn(outcome(err))
		if r.commit(epoch, unauthenticated(false), "") {
			r.clearSnapshot(ctx)
		}
		return r.Current(), err
	}

	r.metrics.IncSignIn("success")
	if r.commit(epoch, authenticated(ident, profile), token) {
		r.writeSnapshot(ctx, token, ident, profile)
		ctx = r.logg.WithProfileID(ctx, profile.ID.String())
		r.logg.Info(r.logg.WithActorRole(ctx, string(profile.Role)), "operator signed in")
	} else {
		// a newer operation won the race; this session must not survive
		r.revokeQuietly(token)
	}
	return r.Current(), nil
}

// SignOut clears local state and the snapshot unconditionally, then
// revokes the remote session. Remote failure does not keep the operator
// signed in; it is reported after the local teardown already happened.
func (r *Reconciler) SignOut(ctx context.Context) error {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()

	epoch, _, _ := r.beginLoading()

	var errs error
	if r.snaps != nil {
		errs = multierr.Append(errs, r.snaps.Clear())
	}
	if err := r.store.SignOut(ctx, token); err != nil {
		errs = multierr.Append(errs, err)
	}

	r.commit(epoch, unauthenticated(false), "")
	if errs != nil {
		r.logg.Warn(ctx, "sign out finished with errors")
		return errors.Wrap(errors.CodeSignOutFailure, errs, "sign out incomplete")
	}
	r.logg.Info(ctx, "operator signed out")
	return nil
}

// Refresh re-reconciles the current token against the live session.
// Refreshing while signed out is a no-op. An expired session settles
// unauthenticated without an error; policy failures surface as errors.
// Nothing transitional is published: subscribers only ever see the
// settled result, so guarded requests keep flowing during a refresh.
func (r *Reconciler) Refresh(ctx context.Context) (State, error) {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	if token == "" {
		return r.Current(), nil
	}

	epoch := r.beginQuiet()

	started := time.Now()
	ident, profile, err := r.fetchLive(ctx, token)
	r.observeFetch("live", started)
	if err != nil {
		if transient(err) {
			// keep the session; surface the failure to the caller
			return r.Current(), err
		}
		if r.commit(epoch, unauthenticated(false), "") {
			r.clearSnapshot(ctx)
			r.revokeQuietly(token)
		}
		if errors.Is(err, errors.CodeUnauthorized) {
			return r.Current(), nil
		}
		return r.Current(), err
	}

	if r.commit(epoch, authenticated(ident, profile), token) {
		r.writeSnapshot(ctx, token, ident, profile)
	}
	return r.Current(), nil
}

// Close stops the expiry watchdog and drops all subscribers.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.stop)
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
}

// fetchLive resolves token -> identity -> profile and applies the policy.
func (r *Reconciler) fetchLive(ctx context.Context, token string) (*identity.Identity, *models.Profile, error) {
	fetchCtx, cancel := r.fetchBound(ctx)
	defer cancel()

	ident, err := r.store.SessionByToken(fetchCtx, token)
	if err != nil {
		return nil, nil, mapFetchErr(err)
	}
	profile, err := r.fetchProfile(ctx, ident)
	if err != nil {
		return nil, nil, err
	}
	if err := validate(ident, profile); err != nil {
		return nil, nil, err
	}
	return ident, profile, nil
}

func (r *Reconciler) fetchProfile(ctx context.Context, ident *identity.Identity) (*models.Profile, error) {
	fetchCtx, cancel := r.fetchBound(ctx)
	defer cancel()

	profile, err := r.profiles.GetByAuthID(fetchCtx, ident.SubjectID)
	if err != nil {
		return nil, mapFetchErr(err)
	}
	return profile, nil
}

func (r *Reconciler) fetchBound(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// watchExpiry refreshes the session once its remote expiry passes, so an
// expired session flips to unauthenticated without a user action.
func (r *Reconciler) watchExpiry() {
	interval := r.cfg.ExpiryPollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			st := r.Current()
			if !st.Authenticated() || st.Identity.SessionExpiresAt == nil {
				continue
			}
			if time.Now().Before(*st.Identity.SessionExpiresAt) {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			_, _ = r.Refresh(ctx)
			cancel()
		}
	}
}

// begin bumps the epoch and publishes the transitional state.
func (r *Reconciler) begin(st State) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.setStateLocked(st)
	return r.epoch
}

// beginLoading re-publishes the current pair flagged as loading and
// hands back the prior settled state so a failed operation can restore
// it.
func (r *Reconciler) beginLoading() (uint64, State, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	prior := r.state
	prior.Loading = false
	st := r.state
	st.Loading = true
	r.setStateLocked(st)
	return r.epoch, prior, r.token
}

// beginQuiet bumps the epoch without publishing anything. Refresh uses
// it so subscribers never observe a transitional state.
func (r *Reconciler) beginQuiet() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	return r.epoch
}

// commit installs the result unless a newer operation superseded it.
func (r *Reconciler) commit(epoch uint64, st State, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch != r.epoch || r.closed {
		return false
	}
	r.token = token
	r.setStateLocked(st)
	return true
}

func (r *Reconciler) setStateLocked(st State) {
	if st.Status != r.state.Status {
		r.metrics.IncTransition(string(st.Status))
	}
	r.state = st
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (r *Reconciler) readSnapshot() (*snapshot.Snapshot, bool) {
	if r.snaps == nil {
		return nil, false
	}
	return r.snaps.Read()
}

func (r *Reconciler) writeSnapshot(ctx context.Context, token string, ident *identity.Identity, profile *models.Profile) {
	if r.snaps == nil {
		return
	}
	err := r.snaps.Write(snapshot.Snapshot{
		Token:    token,
		Identity: *ident,
		Profile:  *profile,
	})
	if err != nil {
		r.logg.Warn(ctx, "persisting session snapshot failed")
	}
}

func (r *Reconciler) clearSnapshot(ctx context.Context) {
	if r.snaps == nil {
		return
	}
	if err := r.snaps.Clear(); err != nil {
		r.logg.Warn(ctx, "clearing session snapshot failed")
	}
}

// revokeQuietly tears down a remote session on a best-effort basis.
func (r *Reconciler) revokeQuietly(token string) {
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
	defer cancel()
	_ = r.store.SignOut(ctx, token)
}

func (r *Reconciler) observeFetch(source string, started time.Time) {
	r.metrics.ObserveFetch(source, time.Since(started))
}

// transient reports whether the failure says nothing definitive about the
// session (timeouts, dependency outages).
func transient(err error) bool {
	return errors.Is(err, errors.CodeSessionFetchTimeout) || errors.Is(err, errors.CodeDependency)
}

func mapFetchErr(err error) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errors.CodeSessionFetchTimeout) {
		return errors.Wrap(errors.CodeSessionFetchTimeout, err, "session fetch timed out")
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, errors.CodeInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, errors.CodeEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, errors.CodeAccountPendingApproval):
		return "account_pending_approval"
	case errors.Is(err, errors.CodeProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, errors.CodeSessionFetchTimeout):
		return "timeout"
	default:
		return "error"
	}
}

package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/devmarked/feedbackiq/models"
)

// Redirect targets of the gate, in evaluation order.
const (
	RedirectSignIn        = "/auth"
	RedirectProfileSetup  = "/profile/setup"
	RedirectUnauthorized  = "/unauthorized"
	RedirectBusinessSetup = "/business/setup"
)

// GateStore loads the profile and business rows the gate decides over.
type GateStore interface {
	GetProfileByUser(ctx context.Context, userID string) (*models.Profile, error)
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
}

type GateOptions struct {
	RequireProfile  bool
	RequireBusiness bool
	AllowedRoles    []string
	RedirectTo      string // sign-in target override
}

type GateDecision struct {
	Allow    bool
	Redirect string
	Profile  *models.Profile
	Business *models.Business
}

// Gate composes the three gating sources (user, profile, business) into one
// decision. Profile and business rows are cached for a freshness window, and
// a decision is evaluated at most once per (user, profile, business) tuple;
// Refresh bypasses both.
type Gate struct {
	store GateStore
	ttl   time.Duration

	mu         sync.Mutex
	profiles   map[string]cachedRow[*models.Profile]
	businesses map[string]cachedRow[*models.Business]
	decisions  map[string]memoDecision
}

type cachedRow[T any] struct {
	value     T
	fetchedAt time.Time
}

type memoDecision struct {
	decision  GateDecision
	decidedAt time.Time
}

const GateCacheTTL = 5 * time.Minute

func NewGate(store GateStore, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = GateCacheTTL
	}
	g := &Gate{
		store:      store,
		ttl:        ttl,
		profiles:   make(map[string]cachedRow[*models.Profile]),
		businesses: make(map[string]cachedRow[*models.Business]),
		decisions:  make(map[string]memoDecision),
	}
	go g.sweepDecisions()
	return g
}

// Evaluate runs the gate with cached rows.
func (g *Gate) Evaluate(ctx context.Context, userID string, opts GateOptions) (GateDecision, error) {
	return g.evaluate(ctx, userID, opts, false)
}

// Refresh bypasses the caches and the decision memo.
func (g *Gate) Refresh(ctx context.Context, userID string, opts GateOptions) (GateDecision, error) {
	return g.evaluate(ctx, userID, opts, true)
}

// Invalidate drops cached rows and decisions for a user, e.g. after profile
// or business setup writes.
func (g *Gate) Invalidate(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.profiles, userID)
	for key := range g.decisions {
		if strings.HasPrefix(key, userID+"|") {
			delete(g.decisions, key)
		}
	}
}

func (g *Gate) evaluate(ctx context.Context, userID string, opts GateOptions, force bool) (GateDecision, error) {
	// (1) not authenticated
	if userID == "" {
		redirect := opts.RedirectTo
		if redirect == "" {
			redirect = RedirectSignIn
		}
		return GateDecision{Redirect: redirect}, nil
	}

	profile, err := g.profile(ctx, userID, force)
	if err != nil {
		return GateDecision{}, err
	}

	var business *models.Business
	if opts.RequireBusiness && profile != nil && profile.BusinessID != nil {
		business, err = g.business(ctx, *profile.BusinessID, force)
		if err != nil {
			return GateDecision{}, err
		}
	}

	key := decisionKey(userID, profile, business, opts)
	if !force {
		g.mu.Lock()
		memo, ok := g.decisions[key]
		g.mu.Unlock()
		if ok && time.Since(memo.decidedAt) < g.ttl {
			return memo.decision, nil
		}
	}

	decision := decide(profile, business, opts)
	g.mu.Lock()
	g.decisions[key] = memoDecision{decision: decision, decidedAt: time.Now()}
	g.mu.Unlock()
	return decision, nil
}

// sweepDecisions drops memo entries past the freshness window so the map
// does not grow with every (user, opts) tuple ever seen.
func (g *Gate) sweepDecisions() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		g.removeStaleDecisions()
	}
}

func (g *Gate) removeStaleDecisions() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, memo := range g.decisions {
		if time.Since(memo.decidedAt) >= g.ttl {
			delete(g.decisions, key)
		}
	}
}

// decide applies the fixed-order redirect rules once all sources are loaded.
func decide(profile *models.Profile, business *models.Business, opts GateOptions) GateDecision {
	d := GateDecision{Profile: profile, Business: business}

	// (2) profile required but missing or incomplete
	if opts.RequireProfile {
		if profile == nil || !profile.Complete() {
			d.Redirect = RedirectProfileSetup
			return d
		}

		// (3) role not in the allowed set
		if len(opts.AllowedRoles) > 0 && !containsRole(opts.AllowedRoles, profile.Role) {
			d.Redirect = RedirectUnauthorized
			return d
		}

		// (4) business role without a linked business
		if opts.RequireBusiness && profile.Role == models.RoleBusiness && profile.BusinessID == nil {
			d.Redirect = RedirectBusinessSetup
			return d
		}
	}

	d.Allow = true
	return d
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (g *Gate) profile(ctx context.Context, userID string, force bool) (*models.Profile, error) {
	g.mu.Lock()
	row, ok := g.profiles[userID]
	g.mu.Unlock()
	if ok && !force && time.Since(row.fetchedAt) < g.ttl {
		return row.value, nil
	}

	profile, err := g.store.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.profiles[userID] = cachedRow[*models.Profile]{value: profile, fetchedAt: time.Now()}
	g.mu.Unlock()
	return profile, nil
}

func (g *Gate) business(ctx context.Context, id string, force bool) (*models.Business, error) {
	g.mu.Lock()
	row, ok := g.businesses[id]
	g.mu.Unlock()
	if ok && !force && time.Since(row.fetchedAt) < g.ttl {
		return row.value, nil
	}

	business, err := g.store.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.businesses[id] = cachedRow[*models.Business]{value: business, fetchedAt: time.Now()}
	g.mu.Unlock()
	return business, nil
}

func decisionKey(userID string, profile *models.Profile, business *models.Business, opts GateOptions) string {
	profileID, businessID := "", ""
	if profile != nil {
		profileID = profile.ID
	}
	if business != nil {
		businessID = business.ID
	}
	return strings.Join([]string{userID, profileID, businessID, optsKey(opts)}, "|")
}

func optsKey(opts GateOptions) string {
	parts := []string{}
	if opts.RequireProfile {
		parts = append(parts, "p")
	}
	if opts.RequireBusiness {
		parts = append(parts, "b")
	}
	parts = append(parts, opts.AllowedRoles...)
	return strings.Join(parts, ",")
}

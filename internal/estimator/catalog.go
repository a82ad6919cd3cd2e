package estimator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/packlane/epr-estimator/internal/feecore"
)

// GroupSource fetches the raw phase-2 group payload for a jurisdiction.
type GroupSource interface {
	Phase2Groups(ctx context.Context, jurisdiction string) (any, error)
}

// RateStatus distinguishes "still fetching" from "confirmed invalid".
// Conflating the two shows a transient false negative as a hard error, so
// validity checks must report loading while a fetch is in flight.
type RateStatus string

const (
	RateOK          RateStatus = "ok"
	RateLoading     RateStatus = "loading"
	RateUnavailable RateStatus = "unavailable"
)

// Catalog holds the most-recent material-group list for the selected
// jurisdiction. Switching jurisdiction bumps a generation counter and
// cancels the previous fetch; a completing fetch commits only if its
// generation is still current, so a slow stale response can never clobber a
// newer selection.
type Catalog struct {
	source GroupSource
	log    *zap.SugaredLogger

	mu           sync.Mutex
	generation   int
	jurisdiction string
	groups       []feecore.MaterialGroup
	loading      bool
	loadErr      error
	cancel       context.CancelFunc
}

func NewCatalog(source GroupSource, log *zap.SugaredLogger) *Catalog {
	return &Catalog{source: source, log: log}
}

// Switch selects a jurisdiction and starts fetching its group list. The
// previous fetch, if any, is cancelled and its eventual result discarded.
func (c *Catalog) Switch(jurisdiction string) error {
	code, err := feecore.NormalizeStateCode(jurisdiction)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.jurisdiction = code
	c.groups = nil
	c.loading = true
	c.loadErr = nil
	c.mu.Unlock()

	go c.fetch(ctx, gen, code)
	return nil
}

func (c *Catalog) fetch(ctx context.Context, gen int, code string) {
	raw, err := c.source.Phase2Groups(ctx, code)

	var groups []feecore.MaterialGroup
	if err == nil {
		var drops []feecore.Drop
		groups, drops = feecore.NormalizeGroups(raw)
		for _, d := range drops {
			c.log.Warnw("dropped malformed material group", "jurisdiction", code, "drop", d.String())
		}
		if len(groups) == 0 {
			c.log.Warnw("group payload yielded no usable groups", "jurisdiction", code)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer selection won; this response is stale.
		return
	}
	c.loading = false
	if err != nil {
		c.loadErr = err
		return
	}
	c.groups = groups
}

// State returns the current jurisdiction, group list, and loading flag.
func (c *Catalog) State() (jurisdiction string, groups []feecore.MaterialGroup, loading bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jurisdiction, c.groups, c.loading, c.loadErr
}

// Rate resolves a group key against the current list, reporting loading
// instead of unavailable while a fetch is in flight.
func (c *Catalog) Rate(key string) (float64, RateStatus) {
	c.mu.Lock()
	groups, loading := c.groups, c.loading
	c.mu.Unlock()

	if loading {
		return 0, RateLoading
	}
	rate, ok := feecore.ResolveRateSafe(groups, key)
	if !ok {
		return 0, RateUnavailable
	}
	return rate, RateOK
}

// ErrGroupsLoading reports that a group fetch is in flight, so no rate
// verdict is possible yet.
var ErrGroupsLoading = errors.New("material groups are still loading")

// JurisdictionMismatchError reports that the loaded group list belongs to a
// different jurisdiction than the one a calculation asked for. Resolving
// against it would price one state's material with another state's rate.
type JurisdictionMismatchError struct {
	Requested string
	Loaded    string
}

func (e *JurisdictionMismatchError) Error() string {
	return fmt.Sprintf("material groups loaded for %q, not %q", e.Loaded, e.Requested)
}

// ResolveRateFor is the erroring form for the calculate path, where an
// unresolvable rate is a real failure rather than a pending state. The
// loading check, the jurisdiction check, and the lookup read one snapshot of
// the catalog, so a concurrent Switch cannot slip a different state's list
// in between them.
func (c *Catalog) ResolveRateFor(jurisdiction, key string) (float64, error) {
	c.mu.Lock()
	loaded, groups, loading := c.jurisdiction, c.groups, c.loading
	c.mu.Unlock()

	if loaded != jurisdiction {
		return 0, &JurisdictionMismatchError{Requested: jurisdiction, Loaded: loaded}
	}
	if loading {
		return 0, ErrGroupsLoading
	}
	return feecore.ResolveRate(groups, key)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"itravel/application/ports"
	"itravel/domain/cachekey"
)

// Target names a family of client-tier keys dropped together
type Target string

const (
	TargetTravels       Target = "travels"
	TargetUserTravels   Target = "userTravels"
	TargetAllTravels    Target = "allTravels"
	TargetTravel        Target = "travel"
	TargetPages         Target = "pages"
	TargetPage          Target = "page"
	TargetImages        Target = "images"
	TargetProfile       Target = "profile"
	TargetSearchResults Target = "searchResults"
	TargetAll           Target = "all"
)

// Scope identifies the entities a target applies to. Fields a target does
// not use are ignored.
type Scope struct {
	UserID   string
	TravelID int64
	PageID   int64
}

type invalidateFunc func(ctx context.Context, store ports.KeyValueStore, scope Scope) error

// targets is the dispatch table from a target to the keys it drops
var targets = map[Target]invalidateFunc{
	TargetTravels: func(ctx context.Context, store ports.KeyValueStore, _ Scope) error {
		return store.Delete(ctx, cachekey.AllTravels())
	},
	TargetUserTravels: func(ctx context.Context, store ports.KeyValueStore, s Scope) error {
		return store.Delete(ctx, cachekey.UserTravels(s.UserID))
	},
	TargetAllTravels: func(ctx context.Context, store ports.KeyValueStore, _ Scope) error {
		return store.Clear(ctx, cachekey.PrefixTravelsList+"*")
	},
	TargetTravel: func(ctx context.Context, store ports.KeyValueStore, s Scope) error {
		return store.Delete(ctx, cachekey.Travel(s.TravelID))
	},
	TargetPages: func(ctx context.Context, store ports.KeyValueStore, s Scope) error {
		if err := store.Delete(ctx, cachekey.Pages(s.TravelID)); err != nil {
			return err
		}
		_, err := store.DeleteFunc(ctx, cachekey.NavigationOfTravel(s.TravelID))
		return err
	},
	TargetPage: func(ctx context.Context, store ports.KeyValueStore, s Scope) error {
		if err := store.Delete(ctx, cachekey.Page(s.PageID)); err != nil {
			return err
		}
		if s.TravelID != 0 {
			return store.Delete(ctx, cachekey.Navigation(s.PageID, s.TravelID))
		}
		return nil
	},
	TargetImages: func(ctx context.Context, store ports.KeyValueStore, s Scope) error {
		return store.Delete(ctx, cachekey.Images(s.PageID))
	},
	TargetProfile: func(ctx context.Context, store ports.KeyValueStore, s Scope) error {
		return store.Delete(ctx, cachekey.Profile(s.UserID))
	},
	TargetSearchResults: func(ctx context.Context, store ports.KeyValueStore, _ Scope) error {
		return store.Clear(ctx, cachekey.PrefixSearch+"*")
	},
	TargetAll: func(ctx context.Context, store ports.KeyValueStore, _ Scope) error {
		return store.Clear(ctx, "*")
	},
}

// writeFanout maps a write to an entity kind onto every target it makes stale
var writeFanout = map[cachekey.Kind][]Target{
	cachekey.KindTravel:  {TargetTravel, TargetAllTravels, TargetSearchResults},
	cachekey.KindPage:    {TargetPage, TargetPages},
	cachekey.KindImages:  {TargetImages},
	cachekey.KindProfile: {TargetProfile, TargetAllTravels, TargetSearchResults},
}

// remoteTargets maps a target onto the server-tier families holding copies
// of the same data. Targets absent here have no server-tier counterpart.
var remoteTargets = map[Target][]cachekey.InvalidationType{
	TargetTravels:       {cachekey.InvalidateAll},
	TargetUserTravels:   {cachekey.InvalidateUsers},
	TargetAllTravels:    {cachekey.InvalidateAll, cachekey.InvalidateUsers},
	TargetSearchResults: {cachekey.InvalidateSearch},
	TargetAll:           {cachekey.InvalidateAll, cachekey.InvalidateSearch, cachekey.InvalidateUsers},
}

// Invalidator drops cached keys after domain writes. With a secondary tier
// attached, the matching server-tier families are dropped too.
type Invalidator struct {
	store     ports.KeyValueStore
	secondary ports.SecondaryTier
	logger    *zap.Logger
}

// NewInvalidator creates an Invalidator over store. secondary may be nil.
func NewInvalidator(store ports.KeyValueStore, secondary ports.SecondaryTier, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{store: store, secondary: secondary, logger: logger}
}

// Invalidate drops the keys of one target on both tiers
func (i *Invalidator) Invalidate(ctx context.Context, target Target, scope Scope) error {
	if err := i.invalidateLocal(ctx, target, scope); err != nil {
		return err
	}
	return i.invalidateRemote(ctx, remoteTargets[target])
}

// AfterWrite drops every key made stale by a create, update or delete of an
// entity of the given kind. Each server-tier family is dropped at most once.
func (i *Invalidator) AfterWrite(ctx context.Context, kind cachekey.Kind, scope Scope) error {
	fanout, ok := writeFanout[kind]
	if !ok {
		return fmt.Errorf("no invalidation rule for writes to %q", kind)
	}

	var remote []cachekey.InvalidationType
	seen := make(map[cachekey.InvalidationType]bool)
	for _, target := range fanout {
		if err := i.invalidateLocal(ctx, target, scope); err != nil {
			return err
		}
		for _, typ := range remoteTargets[target] {
			if !seen[typ] {
				seen[typ] = true
				remote = append(remote, typ)
			}
		}
	}
	return i.invalidateRemote(ctx, remote)
}

func (i *Invalidator) invalidateLocal(ctx context.Context, target Target, scope Scope) error {
	fn, ok := targets[target]
	if !ok {
		return fmt.Errorf("unknown invalidation target %q", target)
	}

	if err := fn(ctx, i.store, scope); err != nil {
		return fmt.Errorf("invalidate %s: %w", target, err)
	}

	i.logger.Debug("Invalidated cache",
		zap.String("target", string(target)),
		zap.String("user_id", scope.UserID),
		zap.Int64("travel_id", scope.TravelID),
		zap.Int64("page_id", scope.PageID),
	)
	return nil
}

// invalidateRemote drops each server-tier family. Every family is attempted
// even when an earlier one fails.
func (i *Invalidator) invalidateRemote(ctx context.Context, types []cachekey.InvalidationType) error {
	if i.secondary == nil || len(types) == 0 {
		return nil
	}

	var errs []error
	for _, typ := range types {
		if err := i.secondary.Invalidate(ctx, typ); err != nil {
			errs = append(errs, fmt.Errorf("invalidate server cache %s: %w", typ, err))
			continue
		}
		i.logger.Debug("Invalidated server cache", zap.String("type", string(typ)))
	}
	return errors.Join(errs...)
}

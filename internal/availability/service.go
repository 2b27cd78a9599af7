package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/artists"
	"gigbook/internal/equipment"
	"gigbook/internal/shared/constants"
	"gigbook/internal/units"
	"gigbook/internal/window"
	"gigbook/pkg/cache"
)

// ArtistChecker is the slice of the artist service the checker needs.
type ArtistChecker interface {
	CheckWindow(ctx context.Context, artistID uuid.UUID, w window.Window) (*artists.CheckResult, error)
	AvailableArtists(ctx context.Context, w window.Window) ([]uuid.UUID, error)
}

// EquipmentChecker is the slice of the equipment service the checker needs.
type EquipmentChecker interface {
	Check(ctx context.Context, equipmentID uuid.UUID, quantity int, w window.Window) (*equipment.CheckResult, error)
}

// UnitChecker is the slice of the unit service the checker needs.
type UnitChecker interface {
	Check(ctx context.Context, unitIDs []uuid.UUID) (*units.CheckResult, error)
}

type Service interface {
	// Check answers whether one resource can be taken for the window.
	// "Not available" is a result; only malformed input and policy breaches
	// come back as errors.
	Check(ctx context.Context, ref ResourceRef, w window.Window) (*Result, error)

	// SearchArtists lists the active artists free for the whole window.
	SearchArtists(ctx context.Context, w window.Window) ([]uuid.UUID, error)

	// Invalidate drops cached results for the resource. The reservation
	// transaction calls this after every capacity change.
	Invalidate(ctx context.Context, ref ResourceRef)
}

type service struct {
	artists   ArtistChecker
	equipment EquipmentChecker
	units     UnitChecker
	cache     cache.Service
	cacheTTL  time.Duration
}

// NewService wires the per-resource checkers behind one facade. The cache
// may be nil, in which case every check goes to the database.
func NewService(a ArtistChecker, e EquipmentChecker, u UnitChecker, c cache.Service, cacheTTL time.Duration) Service {
	return &service{
		artists:   a,
		equipment: e,
		units:     u,
		cache:     c,
		cacheTTL:  cacheTTL,
	}
}

func (s *service) Check(ctx context.Context, ref ResourceRef, w window.Window) (*Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch ref.Type {
	case ResourceArtist:
		var result Result
		err := s.cached(ctx, checkKey(ref, w), &result, func() (interface{}, error) {
			res, err := s.artists.CheckWindow(ctx, ref.ID, w)
			if err != nil {
				return nil, err
			}
			return &Result{Available: res.Available, Conflicts: res.Conflicts}, nil
		})
		if err != nil {
			return nil, err
		}
		return &result, nil

	case ResourceEquipment:
		var result Result
		err := s.cached(ctx, checkKey(ref, w), &result, func() (interface{}, error) {
			res, err := s.equipment.Check(ctx, ref.ID, ref.Quantity, w)
			if err != nil {
				return nil, err
			}
			return &Result{Available: res.Available, Remaining: res.Remaining, Conflicts: res.Conflicts}, nil
		})
		if err != nil {
			return nil, err
		}
		return &result, nil

	case ResourceUnit:
		// Lock state changes on every acquire and expires on its own, so
		// unit checks are always served fresh.
		if err := w.Validate(); err != nil {
			return nil, err
		}
		res, err := s.units.Check(ctx, []uuid.UUID{ref.ID})
		if err != nil {
			return nil, err
		}
		return &Result{Available: res.Available}, nil
	}

	// Unreachable after Validate.
	return nil, fmt.Errorf("unknown resource type %q", ref.Type)
}

func (s *service) SearchArtists(ctx context.Context, w window.Window) ([]uuid.UUID, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err := s.cached(ctx, constants.BuildArtistSearchKey(w.String()), &ids, func() (interface{}, error) {
		return s.artists.AvailableArtists(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *service) Invalidate(ctx context.Context, ref ResourceRef) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeletePattern(ctx, constants.BuildAvailabilityPattern(ref.Type, ref.ID.String()))
	if ref.Type == ResourceArtist {
		_ = s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_ARTIST_SEARCH)
	}
}

// cached runs the fetcher through the cache when one is configured.
func (s *service) cached(ctx context.Context, key string, dest interface{}, fetcher func() (interface{}, error)) error {
	if s.cache == nil {
		data, err := fetcher()
		if err != nil {
			return err
		}
		return assign(data, dest)
	}
	return s.cache.GetOrSet(ctx, key, s.cacheTTL, fetcher, dest)
}

// assign copies the fetched value into dest through the same JSON round
// trip the cache path uses, so both paths decode identically.
func assign(src, dest interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return json.Unmarshal(data, dest)
}

func checkKey(ref ResourceRef, w window.Window) string {
	return constants.BuildAvailabilityKey(ref.Type, ref.ID.String(), ref.Quantity, w.String())
}

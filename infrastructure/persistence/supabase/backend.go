// Package supabase implements the travel backend on Supabase's PostgREST API.
package supabase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"itravel/domain/travel"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

const (
	tableTravels  = "travels"
	tablePages    = "pages"
	tableImages   = "images"
	tableProfiles = "profiles"

	travelListColumns   = "*, profiles(username, avatar_url)"
	searchResultColumns = "*, profiles(username, avatar_url, first_name, last_name)"
)

// QueryClient starts PostgREST queries. Both *supabase.Client and
// *postgrest.Client satisfy it.
type QueryClient interface {
	From(table string) *postgrest.QueryBuilder
}

// Backend reads travels, pages, images and profiles
type Backend struct {
	client  QueryClient
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewBackend creates a backend over an existing query client
func NewBackend(client QueryClient, logger *zap.Logger, metrics *observability.Collector) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{client: client, logger: logger, metrics: metrics}
}

// NewFromConfig connects to a Supabase project
func NewFromConfig(url, key string, logger *zap.Logger, metrics *observability.Collector) (*Backend, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create Supabase client: %w", err)
	}
	return NewBackend(client, logger, metrics), nil
}

// FetchAllTravels returns every travel with its author, newest first
func (b *Backend) FetchAllTravels(ctx context.Context) ([]travel.Travel, error) {
	var travels []travel.Travel
	err := b.run(ctx, "fetch_all_travels", func() error {
		_, err := b.client.From(tableTravels).
			Select(travelListColumns, "", false).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			ExecuteTo(&travels)
		return err
	})
	return nonNil(travels), err
}

// FetchTravelsByUser returns one author's travels, newest first
func (b *Backend) FetchTravelsByUser(ctx context.Context, userID string) ([]travel.Travel, error) {
	var travels []travel.Travel
	err := b.run(ctx, "fetch_travels_by_user", func() error {
		_, err := b.client.From(tableTravels).
			Select(travelListColumns, "", false).
			Eq("profile_id", userID).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			ExecuteTo(&travels)
		return err
	}, attribute.String("user.id", userID))
	return nonNil(travels), err
}

// FetchTravelByID returns a single travel or a not-found error
func (b *Backend) FetchTravelByID(ctx context.Context, travelID int64) (*travel.Travel, error) {
	var rows []travel.Travel
	err := b.run(ctx, "fetch_travel", func() error {
		_, err := b.client.From(tableTravels).
			Select("*", "", false).
			Eq("id", formatID(travelID)).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	}, attribute.Int64("travel.id", travelID))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("travel %d", travelID))
	}
	return &rows[0], nil
}

// FetchPagesByTravel returns a travel's pages, oldest first
func (b *Backend) FetchPagesByTravel(ctx context.Context, travelID int64) ([]travel.Page, error) {
	var pages []travel.Page
	err := b.run(ctx, "fetch_pages", func() error {
		_, err := b.client.From(tablePages).
			Select("*", "", false).
			Eq("travel_id", formatID(travelID)).
			Order("created_at", &postgrest.OrderOpts{Ascending: true}).
			ExecuteTo(&pages)
		return err
	}, attribute.Int64("travel.id", travelID))
	if pages == nil {
		pages = []travel.Page{}
	}
	return pages, err
}

// FetchPageByID returns a single page or a not-found error
func (b *Backend) FetchPageByID(ctx context.Context, pageID int64) (*travel.Page, error) {
	var rows []travel.Page
	err := b.run(ctx, "fetch_page", func() error {
		_, err := b.client.From(tablePages).
			Select("*", "", false).
			Eq("id", formatID(pageID)).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	}, attribute.Int64("page.id", pageID))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("page %d", pageID))
	}
	return &rows[0], nil
}

// FetchImagesByPage returns a page's images, oldest first
func (b *Backend) FetchImagesByPage(ctx context.Context, pageID int64) ([]travel.Image, error) {
	var images []travel.Image
	err := b.run(ctx, "fetch_images", func() error {
		_, err := b.client.From(tableImages).
			Select("*", "", false).
			Eq("page_id", formatID(pageID)).
			Order("created_at", &postgrest.OrderOpts{Ascending: true}).
			ExecuteTo(&images)
		return err
	}, attribute.Int64("page.id", pageID))
	if images == nil {
		images = []travel.Image{}
	}
	return images, err
}

// FetchProfile returns a user's profile or a not-found error
func (b *Backend) FetchProfile(ctx context.Context, userID string) (*travel.Profile, error) {
	var rows []travel.Profile
	err := b.run(ctx, "fetch_profile", func() error {
		_, err := b.client.From(tableProfiles).
			Select("*", "", false).
			Eq("id", userID).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	}, attribute.String("user.id", userID))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError("profile " + userID)
	}
	return &rows[0], nil
}

// FetchSearchResults matches query against title, description and place
func (b *Backend) FetchSearchResults(ctx context.Context, query string, limit int) ([]travel.Travel, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	filter := fmt.Sprintf("title.ilike.%s,description.ilike.%s,place.ilike.%s", pattern, pattern, pattern)

	var travels []travel.Travel
	err := b.run(ctx, "fetch_search_results", func() error {
		_, err := b.client.From(tableTravels).
			Select(searchResultColumns, "", false).
			Or(filter, "").
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(limit, "").
			ExecuteTo(&travels)
		return err
	}, attribute.Int("search.limit", limit))
	return nonNil(travels), err
}

// FetchPageNavigation places pageID among its travel's pages
func (b *Backend) FetchPageNavigation(ctx context.Context, pageID, travelID int64) (*travel.PageNavigation, error) {
	var rows []struct {
		ID int64 `json:"id"`
	}
	err := b.run(ctx, "fetch_page_navigation", func() error {
		_, err := b.client.From(tablePages).
			Select("id", "", false).
			Eq("travel_id", formatID(travelID)).
			Order("created_at", &postgrest.OrderOpts{Ascending: true}).
			ExecuteTo(&rows)
		return err
	}, attribute.Int64("page.id", pageID), attribute.Int64("travel.id", travelID))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	nav := travel.ComputeNavigation(ids, pageID)
	return &nav, nil
}

// run executes one query with tracing, metrics and error wrapping
func (b *Backend) run(ctx context.Context, op string, query func() error, attrs ...attribute.KeyValue) error {
	_, span := observability.StartSpan(ctx, "supabase."+op, attrs...)
	start := time.Now()

	err := query()
	if err == nil {
		err = ctx.Err()
	}

	b.metrics.RecordBackendFetch(op, err, time.Since(start))
	observability.EndSpan(span, err)
	if err != nil {
		b.logger.Warn("Backend query failed", zap.String("operation", op), zap.Error(err))
		return pkgerrors.NewBackendFetchError(op, err)
	}
	return nil
}

// escapeLike escapes ilike wildcards so they match literally
func escapeLike(s string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(s)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func nonNil(travels []travel.Travel) []travel.Travel {
	if travels == nil {
		return []travel.Travel{}
	}
	return travels
}

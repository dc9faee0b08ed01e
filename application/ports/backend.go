package ports

import (
	"context"

	"itravel/domain/travel"
)

// TravelBackend is the data backend the cache layer reads through.
// Implementations return pkg/errors not-found errors for missing rows.
type TravelBackend interface {
	FetchAllTravels(ctx context.Context) ([]travel.Travel, error)
	FetchTravelsByUser(ctx context.Context, userID string) ([]travel.Travel, error)
	FetchTravelByID(ctx context.Context, travelID int64) (*travel.Travel, error)
	FetchPagesByTravel(ctx context.Context, travelID int64) ([]travel.Page, error)
	FetchPageByID(ctx context.Context, pageID int64) (*travel.Page, error)
	FetchImagesByPage(ctx context.Context, pageID int64) ([]travel.Image, error)
	FetchProfile(ctx context.Context, userID string) (*travel.Profile, error)

	// FetchSearchResults returns at most limit travels matching query in
	// title, description or place, newest first.
	FetchSearchResults(ctx context.Context, query string, limit int) ([]travel.Travel, error)

	FetchPageNavigation(ctx context.Context, pageID, travelID int64) (*travel.PageNavigation, error)
}

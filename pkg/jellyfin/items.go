package jellyfin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// itemFields is the metadata field set requested for item lookups,
// matching what other Jellyfin clients ask for.
const itemFields = "Path,Genres,SortName,Studios,Writer,Taglines,OfficialRating," +
	"CumulativeRunTimeTicks,DateCreated,People,Overview,CriticRating,Etag," +
	"ProductionLocations,Tags,ProviderIds,ParentId,RemoteTrailers," +
	"SpecialEpisodeNumbers,MediaSources,RecursiveItemCount,PrimaryImageAspectRatio"

// ItemService provides library item operations: search, metadata lookup
// and per-user playback state.
type ItemService struct {
	client *Client
}

func (s *ItemService) userItemsPath(suffix string) (string, error) {
	userID := s.client.UserID()
	if userID == "" {
		return "", ErrNoActiveServer
	}
	return "Users/" + userID + "/Items" + suffix, nil
}

// SearchOptions narrow a library search. Zero values preserve the
// server defaults, so adding fields here never changes the behavior of
// existing callers.
type SearchOptions struct {
	Term       string // Free-text search term
	MediaTypes string // Comma-separated item types, e.g. "Movie,Episode"
	Years      []int  // Production years
	ParentID   string // Restrict to a library folder
	Limit      int    // Maximum number of results, 0 for server default
	StartIndex int    // Pagination offset
}

// Search queries the library recursively and returns the paged result
// envelope unmodified aside from type parsing.
func (s *ItemService) Search(ctx context.Context, opts SearchOptions) (*QueryResult, error) {
	handler, err := s.userItemsPath("")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Recursive", "true")
	if opts.Term != "" {
		params.Set("searchTerm", opts.Term)
	}
	if opts.MediaTypes != "" {
		params.Set("IncludeItemTypes", opts.MediaTypes)
	}
	if len(opts.Years) > 0 {
		years := make([]string, len(opts.Years))
		for i, y := range opts.Years {
			years[i] = strconv.Itoa(y)
		}
		params.Set("years", strings.Join(years, ","))
	}
	if opts.ParentID != "" {
		params.Set("parentId", opts.ParentID)
	}
	if opts.Limit > 0 {
		params.Set("Limit", strconv.Itoa(opts.Limit))
	}
	if opts.StartIndex > 0 {
		params.Set("StartIndex", strconv.Itoa(opts.StartIndex))
	}

	var result QueryResult
	if err := s.client.get(ctx, handler, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches full metadata for one item.
func (s *ItemService) Get(ctx context.Context, itemID string) (*Item, error) {
	handler, err := s.userItemsPath("/" + itemID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Fields", itemFields)

	var item Item
	if err := s.client.get(ctx, handler, params, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetMany fetches metadata for multiple items in one call.
func (s *ItemService) GetMany(ctx context.Context, itemIDs []string) (*QueryResult, error) {
	handler, err := s.userItemsPath("")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Ids", strings.Join(itemIDs, ","))
	params.Set("Fields", itemFields)

	var result QueryResult
	if err := s.client.get(ctx, handler, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Latest fetches the most recently added items, optionally filtered by
// type and parent folder.
func (s *ItemService) Latest(ctx context.Context, mediaTypes, parentID string, limit int) ([]Item, error) {
	handler, err := s.userItemsPath("/Latest")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("Limit", strconv.Itoa(limit))
	params.Set("Fields", itemFields)
	if mediaTypes != "" {
		params.Set("IncludeItemTypes", mediaTypes)
	}
	if parentID != "" {
		params.Set("ParentId", parentID)
	}

	var items []Item
	if err := s.client.get(ctx, handler, params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Seasons fetches the seasons of a series.
func (s *ItemService) Seasons(ctx context.Context, seriesID string) (*QueryResult, error) {
	params := url.Values{}
	params.Set("UserId", s.client.UserID())
	params.Set("EnableImages", "true")
	params.Set("Fields", itemFields)

	var result QueryResult
	if err := s.client.get(ctx, "Shows/"+seriesID+"/Seasons", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Episodes fetches the episodes of one season of a series.
func (s *ItemService) Episodes(ctx context.Context, seriesID, seasonID string) (*QueryResult, error) {
	params := url.Values{}
	params.Set("UserId", s.client.UserID())
	params.Set("SeasonId", seasonID)

	var result QueryResult
	if err := s.client.get(ctx, "Shows/"+seriesID+"/Episodes", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AdjacentEpisodes fetches the episodes around a given episode, used to
// offer previous/next navigation.
func (s *ItemService) AdjacentEpisodes(ctx context.Context, seriesID, episodeID string) (*QueryResult, error) {
	params := url.Values{}
	params.Set("UserId", s.client.UserID())
	params.Set("AdjacentTo", episodeID)
	params.Set("Fields", "Overview")

	var result QueryResult
	if err := s.client.get(ctx, "Shows/"+seriesID+"/Episodes", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NextUp fetches the next unwatched episodes across series.
func (s *ItemService) NextUp(ctx context.Context, startIndex, limit int) (*QueryResult, error) {
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("UserId", s.client.UserID())
	params.Set("Limit", strconv.Itoa(limit))
	if startIndex > 0 {
		params.Set("StartIndex", strconv.Itoa(startIndex))
	}

	var result QueryResult
	if err := s.client.get(ctx, "Shows/NextUp", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Suggestions fetches playback suggestions for the signed-in user.
func (s *ItemService) Suggestions(ctx context.Context, mediaTypes string, limit int) (*QueryResult, error) {
	handler, err := s.userItemsPath("")
	if err != nil {
		return nil, err
	}
	handler = strings.TrimSuffix(handler, "/Items") + "/Suggestions"
	if mediaTypes == "" {
		mediaTypes = "Movie,Episode"
	}
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("Type", mediaTypes)
	params.Set("Limit", strconv.Itoa(limit))

	var result QueryResult
	if err := s.client.get(ctx, handler, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ByLetter fetches items whose sort name starts with the given letter.
func (s *ItemService) ByLetter(ctx context.Context, parentID, mediaTypes, letter string) (*QueryResult, error) {
	handler, err := s.userItemsPath("")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Recursive", "true")
	params.Set("NameStartsWith", letter)
	params.Set("Fields", itemFields)
	if parentID != "" {
		params.Set("ParentId", parentID)
	}
	if mediaTypes != "" {
		params.Set("IncludeItemTypes", mediaTypes)
	}

	var result QueryResult
	if err := s.client.get(ctx, handler, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Genres fetches the genres present under a library folder.
func (s *ItemService) Genres(ctx context.Context, parentID string) (*QueryResult, error) {
	params := url.Values{}
	params.Set("UserId", s.client.UserID())
	params.Set("Fields", itemFields)
	if parentID != "" {
		params.Set("ParentId", parentID)
	}

	var result QueryResult
	if err := s.client.get(ctx, "Genres", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ancestors fetches the folder chain above an item.
func (s *ItemService) Ancestors(ctx context.Context, itemID string) ([]Item, error) {
	params := url.Values{}
	params.Set("UserId", s.client.UserID())

	var items []Item
	if err := s.client.get(ctx, "Items/"+itemID+"/Ancestors", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Intros fetches the intro videos to play before an item.
func (s *ItemService) Intros(ctx context.Context, itemID string) (*QueryResult, error) {
	handler, err := s.userItemsPath("/" + itemID + "/Intros")
	if err != nil {
		return nil, err
	}

	var result QueryResult
	if err := s.client.get(ctx, handler, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes an item from the server. Requires elevated permissions.
func (s *ItemService) Delete(ctx context.Context, itemID string) error {
	return s.client.delete(ctx, "Items/"+itemID, nil)
}

// RefreshOptions control a metadata refresh.
type RefreshOptions struct {
	Recursive       bool
	ReplaceImages   bool
	ReplaceMetadata bool
}

// Refresh triggers a metadata refresh for an item.
func (s *ItemService) Refresh(ctx context.Context, itemID string, opts RefreshOptions) error {
	params := url.Values{}
	params.Set("Recursive", strconv.FormatBool(opts.Recursive))
	params.Set("ImageRefreshMode", "FullRefresh")
	params.Set("MetadataRefreshMode", "FullRefresh")
	params.Set("ReplaceAllImages", strconv.FormatBool(opts.ReplaceImages))
	params.Set("ReplaceAllMetadata", strconv.FormatBool(opts.ReplaceMetadata))

	return s.client.post(ctx, "Items/"+itemID+"/Refresh", params, nil, nil)
}

// UserData fetches the signed-in user's playback state for an item.
func (s *ItemService) UserData(ctx context.Context, itemID string) (*UserData, error) {
	userID := s.client.UserID()
	if userID == "" {
		return nil, ErrNoActiveServer
	}

	params := url.Values{}
	params.Set("UserId", userID)

	var data UserData
	if err := s.client.get(ctx, "UserItems/"+itemID+"/UserData", params, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UpdateUserData applies a partial user-data change to an item. Fields
// left nil on the update keep their server-side values.
func (s *ItemService) UpdateUserData(ctx context.Context, itemID string, update UserDataUpdate) (*UserData, error) {
	userID := s.client.UserID()
	if userID == "" {
		return nil, ErrNoActiveServer
	}

	params := url.Values{}
	params.Set("UserId", userID)

	var data UserData
	if err := s.client.post(ctx, "UserItems/"+itemID+"/UserData", params, update, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MarkPlayed marks an item as watched. A non-zero datePlayed records
// when it was watched; the zero value leaves the date to the server.
func (s *ItemService) MarkPlayed(ctx context.Context, itemID string, datePlayed time.Time) (*UserData, error) {
	handler, err := s.playedItemsPath(itemID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if !datePlayed.IsZero() {
		params.Set("datePlayed", datePlayed.UTC().Format(time.RFC3339))
	}

	var data UserData
	if err := s.client.post(ctx, handler, params, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MarkUnplayed clears the watched flag of an item.
func (s *ItemService) MarkUnplayed(ctx context.Context, itemID string) error {
	handler, err := s.playedItemsPath(itemID)
	if err != nil {
		return err
	}
	return s.client.delete(ctx, handler, nil)
}

func (s *ItemService) playedItemsPath(itemID string) (string, error) {
	userID := s.client.UserID()
	if userID == "" {
		return "", ErrNoActiveServer
	}
	return fmt.Sprintf("Users/%s/PlayedItems/%s", userID, itemID), nil
}

// SetFavorite adds or removes an item from the user's favorites.
func (s *ItemService) SetFavorite(ctx context.Context, itemID string, favorite bool) error {
	userID := s.client.UserID()
	if userID == "" {
		return ErrNoActiveServer
	}
	handler := fmt.Sprintf("Users/%s/FavoriteItems/%s", userID, itemID)
	if favorite {
		return s.client.post(ctx, handler, nil, nil, nil)
	}
	return s.client.delete(ctx, handler, nil)
}

package jellyfin

import (
	"context"
	"net/url"
	"time"
)

// SyncPlayService manages synchronized playback groups. Commands that
// carry a "When" timestamp expect it in the server's reference frame;
// use TimeSync.LocalTimeToServer to convert.
type SyncPlayService struct {
	client *Client
}

// List fetches the SyncPlay groups joinable by this user. A non-empty
// itemID restricts the list to groups playing that item.
func (s *SyncPlayService) List(ctx context.Context, itemID string) ([]SyncPlayGroup, error) {
	params := url.Values{}
	if itemID != "" {
		params.Set("FilterItemId", itemID)
	}

	var groups []SyncPlayGroup
	if err := s.client.get(ctx, "SyncPlay/List", params, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// New creates a SyncPlay group with the given name and joins it.
func (s *SyncPlayService) New(ctx context.Context, groupName string) error {
	body := map[string]string{"GroupName": groupName}
	return s.client.post(ctx, "SyncPlay/New", nil, body, nil)
}

// Join joins an existing SyncPlay group.
func (s *SyncPlayService) Join(ctx context.Context, groupID string) error {
	body := map[string]string{"GroupId": groupID}
	return s.client.post(ctx, "SyncPlay/Join", nil, body, nil)
}

// Leave leaves the current SyncPlay group.
func (s *SyncPlayService) Leave(ctx context.Context) error {
	return s.client.post(ctx, "SyncPlay/Leave", nil, nil, nil)
}

// Pause requests a group-wide pause.
func (s *SyncPlayService) Pause(ctx context.Context) error {
	return s.client.post(ctx, "SyncPlay/Pause", nil, nil, nil)
}

// Unpause requests a group-wide resume.
func (s *SyncPlayService) Unpause(ctx context.Context) error {
	return s.client.post(ctx, "SyncPlay/Unpause", nil, nil, nil)
}

// Seek requests a group-wide seek to the given tick position.
func (s *SyncPlayService) Seek(ctx context.Context, positionTicks int64) error {
	body := map[string]int64{"PositionTicks": positionTicks}
	return s.client.post(ctx, "SyncPlay/Seek", nil, body, nil)
}

// playbackState is the body shape shared by Buffering and Ready.
type playbackState struct {
	When           string `json:"When"`
	PositionTicks  int64  `json:"PositionTicks"`
	IsPlaying      bool   `json:"IsPlaying"`
	PlaylistItemID string `json:"PlaylistItemId"`
}

func newPlaybackState(when time.Time, positionTicks int64, isPlaying bool, playlistItemID string) playbackState {
	return playbackState{
		When:           when.UTC().Format("2006-01-02T15:04:05.9999999Z"),
		PositionTicks:  positionTicks,
		IsPlaying:      isPlaying,
		PlaylistItemID: playlistItemID,
	}
}

// Buffering tells the group this client stalled and is buffering.
func (s *SyncPlayService) Buffering(ctx context.Context, when time.Time, positionTicks int64, isPlaying bool, playlistItemID string) error {
	body := newPlaybackState(when, positionTicks, isPlaying, playlistItemID)
	return s.client.post(ctx, "SyncPlay/Buffering", nil, body, nil)
}

// Ready tells the group this client finished buffering and can resume.
func (s *SyncPlayService) Ready(ctx context.Context, when time.Time, positionTicks int64, isPlaying bool, playlistItemID string) error {
	body := newPlaybackState(when, positionTicks, isPlaying, playlistItemID)
	return s.client.post(ctx, "SyncPlay/Ready", nil, body, nil)
}

// SetNewQueue replaces the group's play queue.
func (s *SyncPlayService) SetNewQueue(ctx context.Context, itemIDs []string, startingIndex int, startPositionTicks int64) error {
	body := map[string]any{
		"PlayingQueue":        itemIDs,
		"PlayingItemPosition": startingIndex,
		"StartPositionTicks":  startPositionTicks,
	}
	return s.client.post(ctx, "SyncPlay/SetNewQueue", nil, body, nil)
}

// NextItem advances the group to the next queue item.
func (s *SyncPlayService) NextItem(ctx context.Context, playlistItemID string) error {
	body := map[string]string{"PlaylistItemId": playlistItemID}
	return s.client.post(ctx, "SyncPlay/NextItem", nil, body, nil)
}

// PreviousItem moves the group to the previous queue item.
func (s *SyncPlayService) PreviousItem(ctx context.Context, playlistItemID string) error {
	body := map[string]string{"PlaylistItemId": playlistItemID}
	return s.client.post(ctx, "SyncPlay/PreviousItem", nil, body, nil)
}

// SetPlaylistItem jumps the group to a specific queue item.
func (s *SyncPlayService) SetPlaylistItem(ctx context.Context, playlistItemID string) error {
	body := map[string]string{"PlaylistItemId": playlistItemID}
	return s.client.post(ctx, "SyncPlay/SetPlaylistItem", nil, body, nil)
}

// SetIgnoreWait tells the group not to wait for this client when
// buffering.
func (s *SyncPlayService) SetIgnoreWait(ctx context.Context, ignore bool) error {
	body := map[string]bool{"IgnoreWait": ignore}
	return s.client.post(ctx, "SyncPlay/SetIgnoreWait", nil, body, nil)
}

// Ping reports this client's measured ping to the group coordinator.
func (s *SyncPlayService) Ping(ctx context.Context, ping time.Duration) error {
	body := map[string]int64{"Ping": ping.Milliseconds()}
	return s.client.post(ctx, "SyncPlay/Ping", nil, body, nil)
}

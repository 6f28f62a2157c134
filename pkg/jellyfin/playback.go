package jellyfin

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// PlaybackService resolves how to play an item and builds stream URLs
// for external players.
type PlaybackService struct {
	client *Client
}

// PlaybackInfoOptions select streams and starting position for a
// playback-info request. Zero values preserve the server defaults;
// IsPlayback defaults to true (see Info).
type PlaybackInfoOptions struct {
	AudioStreamIndex    *int  // aid: audio stream to select
	SubtitleStreamIndex *int  // sid: subtitle stream to select
	StartTimeTicks      int64 // resume position in ticks
	MediaSourceID       string
	IsPlayback          *bool // false for a dry-run capability check
	DeviceProfile       any   // device capability document, sent as-is
}

// Info asks the server how this device should play an item: direct
// play, direct stream, or transcode.
func (s *PlaybackService) Info(ctx context.Context, itemID string, opts PlaybackInfoOptions) (*PlaybackInfoResponse, error) {
	userID := s.client.UserID()

	isPlayback := true
	if opts.IsPlayback != nil {
		isPlayback = *opts.IsPlayback
	}

	body := map[string]any{
		"UserId":             userID,
		"AutoOpenLiveStream": isPlayback,
		"IsPlayback":         isPlayback,
	}
	if opts.AudioStreamIndex != nil {
		body["AudioStreamIndex"] = *opts.AudioStreamIndex
	}
	if opts.SubtitleStreamIndex != nil {
		body["SubtitleStreamIndex"] = *opts.SubtitleStreamIndex
	}
	if opts.StartTimeTicks > 0 {
		body["StartTimeTicks"] = opts.StartTimeTicks
	}
	if opts.MediaSourceID != "" {
		body["MediaSourceId"] = opts.MediaSourceID
	}
	if opts.DeviceProfile != nil {
		body["DeviceProfile"] = opts.DeviceProfile
	}

	var resp PlaybackInfoResponse
	if err := s.client.post(ctx, "Items/"+itemID+"/PlaybackInfo", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OpenLiveStream opens a live stream for an item using the open token
// from a previous playback-info response.
func (s *PlaybackService) OpenLiveStream(ctx context.Context, itemID, playSessionID, openToken string, profile any) (*LiveStreamResponse, error) {
	body := map[string]any{
		"UserId":        s.client.UserID(),
		"ItemId":        itemID,
		"PlaySessionId": playSessionID,
		"OpenToken":     openToken,
	}
	if profile != nil {
		body["DeviceProfile"] = profile
	}

	var resp LiveStreamResponse
	if err := s.client.post(ctx, "LiveStreams/Open", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CloseLiveStream closes a previously opened live stream.
func (s *PlaybackService) CloseLiveStream(ctx context.Context, liveStreamID string) error {
	body := map[string]string{"LiveStreamId": liveStreamID}
	return s.client.post(ctx, "LiveStreams/Close", nil, body, nil)
}

// StopTranscoding stops any server-side transcode running for this
// device.
func (s *PlaybackService) StopTranscoding(ctx context.Context) error {
	params := url.Values{}
	params.Set("DeviceId", s.client.DeviceID())
	return s.client.delete(ctx, "Videos/ActiveEncodings", params)
}

// AudioStreamOptions shape the universal audio endpoint request.
type AudioStreamOptions struct {
	Container           string
	AudioCodec          string
	MaxStreamingBitrate int
	PlaySessionID       string
}

func (o AudioStreamOptions) values(c *Client) url.Values {
	bitrate := o.MaxStreamingBitrate
	if bitrate <= 0 {
		bitrate = 140000000
	}

	params := url.Values{}
	params.Set("UserId", c.UserID())
	params.Set("DeviceId", c.DeviceID())
	params.Set("MaxStreamingBitrate", strconv.Itoa(bitrate))
	if o.Container != "" {
		params.Set("Container", o.Container)
	}
	if o.AudioCodec != "" {
		params.Set("AudioCodec", o.AudioCodec)
	}
	if o.PlaySessionID != "" {
		params.Set("PlaySessionId", o.PlaySessionID)
	}
	return params
}

// AudioStreamURL builds a URL for streaming an audio item through the
// universal endpoint. No request is issued.
func (s *PlaybackService) AudioStreamURL(itemID string, opts AudioStreamOptions) (string, error) {
	return s.client.requestURL("Audio/"+itemID+"/universal", opts.values(s.client))
}

// AudioStream fetches an audio item through the universal endpoint and
// writes the raw stream to w.
func (s *PlaybackService) AudioStream(ctx context.Context, w io.Writer, itemID string, opts AudioStreamOptions) error {
	return s.client.stream(ctx, "Audio/"+itemID+"/universal", opts.values(s.client), w)
}

// VideoStreamURL builds a static video stream URL for an item.
func (s *PlaybackService) VideoStreamURL(itemID, mediaSourceID string) (string, error) {
	params := url.Values{}
	params.Set("static", "true")
	params.Set("DeviceId", s.client.DeviceID())
	if mediaSourceID != "" {
		params.Set("MediaSourceId", mediaSourceID)
	}
	return s.client.requestURL("Videos/"+itemID+"/stream", params)
}

// DownloadURL builds a URL for downloading the original file of an item.
func (s *PlaybackService) DownloadURL(itemID string) (string, error) {
	return s.client.requestURL("Items/"+itemID+"/Download", nil)
}

// ArtworkURL builds a URL for an item's artwork. A negative index
// selects the unindexed image; maxWidth of 0 leaves sizing to the
// server.
func (s *PlaybackService) ArtworkURL(itemID string, art ImageType, maxWidth, index int) (string, error) {
	handler := fmt.Sprintf("Items/%s/Images/%s", itemID, art)
	if index >= 0 {
		handler = fmt.Sprintf("%s/%d", handler, index)
	}

	params := url.Values{}
	params.Set("format", "jpg")
	if maxWidth > 0 {
		params.Set("MaxWidth", strconv.Itoa(maxWidth))
	}
	return s.client.requestURL(handler, params)
}

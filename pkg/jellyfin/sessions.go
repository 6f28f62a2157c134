package jellyfin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SessionService reports this client's playback to the server and
// remote-controls other sessions.
type SessionService struct {
	client *Client
}

// List fetches the sessions the signed-in user may control.
func (s *SessionService) List(ctx context.Context) ([]SessionInfo, error) {
	params := url.Values{}
	if userID := s.client.UserID(); userID != "" {
		params.Set("ControllableByUserId", userID)
	}

	var sessions []SessionInfo
	if err := s.client.get(ctx, "Sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Get fetches a single session by id, including its play state.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return &sessions[i], nil
		}
	}
	return nil, fmt.Errorf("jellyfin: no session %q: %w", sessionID, ErrServerNotFound)
}

// ReportCapabilities advertises this client's capabilities, making it
// visible for remote control.
func (s *SessionService) ReportCapabilities(ctx context.Context, caps ClientCapabilities) error {
	return s.client.post(ctx, "Sessions/Capabilities/Full", nil, caps, nil)
}

// ReportPlaying tells the server playback started on this client.
func (s *SessionService) ReportPlaying(ctx context.Context, info PlaybackStartInfo) error {
	return s.client.post(ctx, "Sessions/Playing", nil, info, nil)
}

// ReportProgress updates the server with the current playback position.
func (s *SessionService) ReportProgress(ctx context.Context, info PlaybackProgressInfo) error {
	return s.client.post(ctx, "Sessions/Playing/Progress", nil, info, nil)
}

// ReportStopped tells the server playback ended on this client.
func (s *SessionService) ReportStopped(ctx context.Context, info PlaybackStopInfo) error {
	return s.client.post(ctx, "Sessions/Playing/Stopped", nil, info, nil)
}

// playstate sends a play-state command to a session. An empty command
// posts to the bare Playing handler, which is how media is queued.
func (s *SessionService) playstate(ctx context.Context, sessionID, command string, params url.Values) error {
	handler := "Sessions/" + sessionID + "/Playing"
	if command != "" {
		handler += "/" + command
	}
	return s.client.post(ctx, handler, params, nil, nil)
}

// Pause pauses playback on a session.
func (s *SessionService) Pause(ctx context.Context, sessionID string) error {
	return s.playstate(ctx, sessionID, "Pause", nil)
}

// Unpause resumes playback on a session.
func (s *SessionService) Unpause(ctx context.Context, sessionID string) error {
	return s.playstate(ctx, sessionID, "Unpause", nil)
}

// PlayPause toggles between playing and paused on a session.
func (s *SessionService) PlayPause(ctx context.Context, sessionID string) error {
	return s.playstate(ctx, sessionID, "PlayPause", nil)
}

// Stop stops playback on a session.
func (s *SessionService) Stop(ctx context.Context, sessionID string) error {
	return s.playstate(ctx, sessionID, "Stop", nil)
}

// Seek moves a session's playback position to the given tick offset
// (one tick is 100 nanoseconds).
func (s *SessionService) Seek(ctx context.Context, sessionID string, positionTicks int64) error {
	params := url.Values{}
	params.Set("seekPositionTicks", strconv.FormatInt(positionTicks, 10))
	return s.playstate(ctx, sessionID, "Seek", params)
}

// PlayMedia instructs a session to play the given items. The command
// selects queue placement; the zero value means PlayNow.
func (s *SessionService) PlayMedia(ctx context.Context, sessionID string, itemIDs []string, command PlayCommand) error {
	if command == "" {
		command = PlayNow
	}
	params := url.Values{}
	params.Set("playCommand", string(command))
	params.Set("itemIds", strings.Join(itemIDs, ","))
	return s.playstate(ctx, sessionID, "", params)
}

// Command sends a general command with arguments to a session.
func (s *SessionService) Command(ctx context.Context, sessionID string, cmd GeneralCommand) error {
	return s.client.post(ctx, "Sessions/"+sessionID+"/Command", nil, cmd, nil)
}

// SetVolume sets a session's volume, normalized 0-100.
func (s *SessionService) SetVolume(ctx context.Context, sessionID string, volume int) error {
	return s.Command(ctx, sessionID, GeneralCommand{
		Name:      "SetVolume",
		Arguments: map[string]string{"Volume": strconv.Itoa(volume)},
	})
}

// Mute mutes a session.
func (s *SessionService) Mute(ctx context.Context, sessionID string) error {
	return s.Command(ctx, sessionID, GeneralCommand{Name: "Mute"})
}

// Unmute unmutes a session.
func (s *SessionService) Unmute(ctx context.Context, sessionID string) error {
	return s.Command(ctx, sessionID, GeneralCommand{Name: "Unmute"})
}

// DisplayMessage shows a text message on a session's screen.
func (s *SessionService) DisplayMessage(ctx context.Context, sessionID, header, text string) error {
	return s.Command(ctx, sessionID, GeneralCommand{
		Name:      "DisplayMessage",
		Arguments: map[string]string{"Header": header, "Text": text},
	})
}

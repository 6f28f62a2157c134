package jellyfin

import "time"

// QueryResult is the paged envelope returned by search-style endpoints.
// Field names match the server's JSON exactly; pagination is driven by
// the caller through StartIndex and TotalRecordCount.
type QueryResult struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
	StartIndex       int    `json:"StartIndex"`
}

// Item is a library item: movie, episode, audio track, season, and so on.
type Item struct {
	Name              string            `json:"Name"`
	ID                string            `json:"Id"`
	ServerID          string            `json:"ServerId,omitempty"`
	Type              ItemType          `json:"Type,omitempty"`
	MediaType         string            `json:"MediaType,omitempty"`
	Overview          string            `json:"Overview,omitempty"`
	Path              string            `json:"Path,omitempty"`
	ProductionYear    int               `json:"ProductionYear,omitempty"`
	RunTimeTicks      int64             `json:"RunTimeTicks,omitempty"`
	IndexNumber       *int              `json:"IndexNumber,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"`
	ParentID          string            `json:"ParentId,omitempty"`
	SeriesName        string            `json:"SeriesName,omitempty"`
	SeriesID          string            `json:"SeriesId,omitempty"`
	SeasonName        string            `json:"SeasonName,omitempty"`
	SeasonID          string            `json:"SeasonId,omitempty"`
	Album             string            `json:"Album,omitempty"`
	AlbumArtist       string            `json:"AlbumArtist,omitempty"`
	Artists           []string          `json:"Artists,omitempty"`
	Genres            []string          `json:"Genres,omitempty"`
	CommunityRating   float64           `json:"CommunityRating,omitempty"`
	OfficialRating    string            `json:"OfficialRating,omitempty"`
	ProviderIDs       map[string]string `json:"ProviderIds,omitempty"`
	DateCreated       time.Time         `json:"DateCreated,omitzero"`
	PremiereDate      time.Time         `json:"PremiereDate,omitzero"`
	UserData          *UserData         `json:"UserData,omitempty"`
	MediaSources      []MediaSource     `json:"MediaSources,omitempty"`
	ImageTags         map[string]string `json:"ImageTags,omitempty"`
	IsFolder          bool              `json:"IsFolder,omitempty"`
	CollectionType    string            `json:"CollectionType,omitempty"`
}

// UserData is the per-user playback state attached to an item.
type UserData struct {
	PlaybackPositionTicks int64     `json:"PlaybackPositionTicks"`
	PlayCount             int       `json:"PlayCount"`
	PlayedPercentage      float64   `json:"PlayedPercentage,omitempty"`
	IsFavorite            bool      `json:"IsFavorite"`
	Played                bool      `json:"Played"`
	LastPlayedDate        time.Time `json:"LastPlayedDate,omitzero"`
	Key                   string    `json:"Key,omitempty"`
	ItemID                string    `json:"ItemId,omitempty"`
}

// UserDataUpdate carries a partial user-data change. Pointer fields are
// only sent when set, leaving the other server-side fields untouched.
type UserDataUpdate struct {
	PlaybackPositionTicks *int64     `json:"PlaybackPositionTicks,omitempty"`
	PlayCount             *int       `json:"PlayCount,omitempty"`
	IsFavorite            *bool      `json:"IsFavorite,omitempty"`
	Played                *bool      `json:"Played,omitempty"`
	LastPlayedDate        *time.Time `json:"LastPlayedDate,omitempty"`
	Rating                *float64   `json:"Rating,omitempty"`
}

// User is a server-side user account.
type User struct {
	Name                      string    `json:"Name"`
	ID                        string    `json:"Id"`
	ServerID                  string    `json:"ServerId,omitempty"`
	HasPassword               bool      `json:"HasPassword,omitempty"`
	HasConfiguredPassword     bool      `json:"HasConfiguredPassword,omitempty"`
	LastLoginDate             time.Time `json:"LastLoginDate,omitzero"`
	LastActivityDate          time.Time `json:"LastActivityDate,omitzero"`
	EnableAutoLogin           bool      `json:"EnableAutoLogin,omitempty"`
	PrimaryImageTag           string    `json:"PrimaryImageTag,omitempty"`
}

// AuthenticationResult is the server response to a successful login.
type AuthenticationResult struct {
	User        User         `json:"User"`
	SessionInfo *SessionInfo `json:"SessionInfo,omitempty"`
	AccessToken string       `json:"AccessToken"`
	ServerID    string       `json:"ServerId"`
}

// PublicSystemInfo is the unauthenticated server capability probe.
type PublicSystemInfo struct {
	ID                     string `json:"Id"`
	ServerName             string `json:"ServerName"`
	Version                string `json:"Version"`
	ProductName            string `json:"ProductName,omitempty"`
	OperatingSystem        string `json:"OperatingSystem,omitempty"`
	LocalAddress           string `json:"LocalAddress,omitempty"`
	StartupWizardCompleted bool   `json:"StartupWizardCompleted,omitempty"`
}

// SystemInfo is the authenticated system information response.
type SystemInfo struct {
	PublicSystemInfo
	ServerVersion       string `json:"ServerVersion,omitempty"`
	HasPendingRestart   bool   `json:"HasPendingRestart,omitempty"`
	WebSocketPortNumber int    `json:"WebSocketPortNumber,omitempty"`
	TranscodingTempPath string `json:"TranscodingTempPath,omitempty"`
}

// UTCTimeResponse is the GetUTCTime reply used for clock-offset
// estimation. Timestamps are server-formatted ISO strings with
// sub-second precision.
type UTCTimeResponse struct {
	RequestReceptionTime     string `json:"RequestReceptionTime"`
	ResponseTransmissionTime string `json:"ResponseTransmissionTime"`
}

// SessionInfo describes a session known to the server, typically another
// client that can be remote controlled.
type SessionInfo struct {
	ID                    string     `json:"Id"`
	UserID                string     `json:"UserId,omitempty"`
	UserName              string     `json:"UserName,omitempty"`
	Client                string     `json:"Client,omitempty"`
	DeviceName            string     `json:"DeviceName,omitempty"`
	DeviceID              string     `json:"DeviceId,omitempty"`
	ApplicationVersion    string     `json:"ApplicationVersion,omitempty"`
	RemoteEndPoint        string     `json:"RemoteEndPoint,omitempty"`
	LastActivityDate      time.Time  `json:"LastActivityDate,omitzero"`
	NowPlayingItem        *Item      `json:"NowPlayingItem,omitempty"`
	PlayState             *PlayState `json:"PlayState,omitempty"`
	SupportsRemoteControl bool       `json:"SupportsRemoteControl,omitempty"`
	SupportsMediaControl  bool       `json:"SupportsMediaControl,omitempty"`
}

// PlayState is the playback position and mode of a session.
type PlayState struct {
	PositionTicks int64  `json:"PositionTicks,omitempty"`
	CanSeek       bool   `json:"CanSeek,omitempty"`
	IsPaused      bool   `json:"IsPaused,omitempty"`
	IsMuted       bool   `json:"IsMuted,omitempty"`
	VolumeLevel   int    `json:"VolumeLevel,omitempty"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PlayMethod    string `json:"PlayMethod,omitempty"`
}

// MediaSource describes one playable source of an item.
type MediaSource struct {
	ID                         string        `json:"Id"`
	Path                       string        `json:"Path,omitempty"`
	Protocol                   string        `json:"Protocol,omitempty"`
	Container                  string        `json:"Container,omitempty"`
	Size                       int64         `json:"Size,omitempty"`
	Bitrate                    int           `json:"Bitrate,omitempty"`
	RunTimeTicks               int64         `json:"RunTimeTicks,omitempty"`
	SupportsDirectPlay         bool          `json:"SupportsDirectPlay,omitempty"`
	SupportsDirectStream       bool          `json:"SupportsDirectStream,omitempty"`
	SupportsTranscoding        bool          `json:"SupportsTranscoding,omitempty"`
	TranscodingURL             string        `json:"TranscodingUrl,omitempty"`
	TranscodingContainer       string        `json:"TranscodingContainer,omitempty"`
	LiveStreamID               string        `json:"LiveStreamId,omitempty"`
	OpenToken                  string        `json:"OpenToken,omitempty"`
	MediaStreams               []MediaStream `json:"MediaStreams,omitempty"`
	DefaultAudioStreamIndex    *int          `json:"DefaultAudioStreamIndex,omitempty"`
	DefaultSubtitleStreamIndex *int          `json:"DefaultSubtitleStreamIndex,omitempty"`
}

// MediaStream is a single audio, video or subtitle stream within a
// media source.
type MediaStream struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type,omitempty"`
	Codec        string `json:"Codec,omitempty"`
	Language     string `json:"Language,omitempty"`
	DisplayTitle string `json:"DisplayTitle,omitempty"`
	IsDefault    bool   `json:"IsDefault,omitempty"`
	IsForced     bool   `json:"IsForced,omitempty"`
	Channels     int    `json:"Channels,omitempty"`
	BitRate      int    `json:"BitRate,omitempty"`
}

// PlaybackInfoResponse is the reply to a PlaybackInfo request.
type PlaybackInfoResponse struct {
	MediaSources  []MediaSource `json:"MediaSources"`
	PlaySessionID string        `json:"PlaySessionId,omitempty"`
	ErrorCode     string        `json:"ErrorCode,omitempty"`
}

// LiveStreamResponse is the reply to opening a live stream.
type LiveStreamResponse struct {
	MediaSource MediaSource `json:"MediaSource"`
}

// PlaybackStartInfo reports that playback began on this client.
type PlaybackStartInfo struct {
	ItemID        string `json:"ItemId"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PlaySessionID string `json:"PlaySessionId,omitempty"`
	PositionTicks int64  `json:"PositionTicks,omitempty"`
	AudioStreamIndex    *int `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int `json:"SubtitleStreamIndex,omitempty"`
	CanSeek       bool   `json:"CanSeek,omitempty"`
	IsPaused      bool   `json:"IsPaused,omitempty"`
	IsMuted       bool   `json:"IsMuted,omitempty"`
	VolumeLevel   int    `json:"VolumeLevel,omitempty"`
	PlayMethod    string `json:"PlayMethod,omitempty"`
}

// PlaybackProgressInfo reports an in-flight playback position.
type PlaybackProgressInfo = PlaybackStartInfo

// PlaybackStopInfo reports that playback stopped.
type PlaybackStopInfo struct {
	ItemID        string `json:"ItemId"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PlaySessionID string `json:"PlaySessionId,omitempty"`
	PositionTicks int64  `json:"PositionTicks,omitempty"`
	Failed        bool   `json:"Failed,omitempty"`
}

// ClientCapabilities advertises what this client supports, making it
// visible for remote control in other clients.
type ClientCapabilities struct {
	PlayableMediaTypes           []string `json:"PlayableMediaTypes,omitempty"`
	SupportedCommands            []string `json:"SupportedCommands,omitempty"`
	SupportsMediaControl         bool     `json:"SupportsMediaControl"`
	SupportsPersistentIdentifier bool     `json:"SupportsPersistentIdentifier"`
}

// GeneralCommand is a named command with string arguments sent to a
// session.
type GeneralCommand struct {
	Name      string            `json:"Name"`
	Arguments map[string]string `json:"Arguments,omitempty"`
}

// SyncPlayGroup describes a SyncPlay group on the server.
type SyncPlayGroup struct {
	GroupID      string    `json:"GroupId"`
	GroupName    string    `json:"GroupName,omitempty"`
	State        string    `json:"State,omitempty"`
	Participants []string  `json:"Participants,omitempty"`
	LastUpdatedAt time.Time `json:"LastUpdatedAt,omitzero"`
}

// ActivityLogEntry is one row of the server activity log.
type ActivityLogEntry struct {
	ID       int64     `json:"Id"`
	Name     string    `json:"Name"`
	Overview string    `json:"Overview,omitempty"`
	Type     string    `json:"Type,omitempty"`
	UserID   string    `json:"UserId,omitempty"`
	Date     time.Time `json:"Date,omitzero"`
	Severity string    `json:"Severity,omitempty"`
}

// ActivityLogResult is the paged activity log envelope.
type ActivityLogResult struct {
	Items            []ActivityLogEntry `json:"Items"`
	TotalRecordCount int                `json:"TotalRecordCount"`
	StartIndex       int                `json:"StartIndex"`
}

// LogFile describes one server log file.
type LogFile struct {
	Name         string    `json:"Name"`
	Size         int64     `json:"Size"`
	DateCreated  time.Time `json:"DateCreated,omitzero"`
	DateModified time.Time `json:"DateModified,omitzero"`
}

// DisplayPreferences are per-user, per-client UI settings.
type DisplayPreferences struct {
	ID                 string            `json:"Id"`
	SortBy             string            `json:"SortBy,omitempty"`
	SortOrder          string            `json:"SortOrder,omitempty"`
	RememberIndexing   bool              `json:"RememberIndexing,omitempty"`
	CustomPrefs        map[string]string `json:"CustomPrefs,omitempty"`
	Client             string            `json:"Client,omitempty"`
}

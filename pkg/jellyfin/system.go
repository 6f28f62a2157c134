package jellyfin

import (
	"context"
	"net/url"
	"strconv"
)

// SystemService provides server-level operations.
type SystemService struct {
	client *Client
}

// PublicInfo fetches the unauthenticated server capability info from the
// active server.
func (s *SystemService) PublicInfo(ctx context.Context) (*PublicSystemInfo, error) {
	var info PublicSystemInfo
	if err := s.client.get(ctx, "System/Info/Public", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Info fetches the full system information. Requires authentication, so
// it doubles as a cheap token-validity check.
func (s *SystemService) Info(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := s.client.get(ctx, "System/Info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ping checks that the server answers at all.
func (s *SystemService) Ping(ctx context.Context) error {
	return s.client.post(ctx, "System/Ping", nil, nil, nil)
}

// UTCTime fetches the server clock timestamps used for clock-offset
// estimation. See TimeSync for the measurement logic.
func (s *SystemService) UTCTime(ctx context.Context) (*UTCTimeResponse, error) {
	var resp UTCTimeResponse
	if err := s.client.get(ctx, "GetUTCTime", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs lists the server's log files.
func (s *SystemService) Logs(ctx context.Context) ([]LogFile, error) {
	var logs []LogFile
	if err := s.client.get(ctx, "System/Logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ActivityLogOptions filter the activity log listing. Zero values are
// omitted from the request.
type ActivityLogOptions struct {
	StartIndex int
	Limit      int
	MinDate    string // ISO date; entries older than this are excluded
}

// ActivityLog lists recent server activity log entries.
func (s *SystemService) ActivityLog(ctx context.Context, opts ActivityLogOptions) (*ActivityLogResult, error) {
	params := url.Values{}
	if opts.StartIndex > 0 {
		params.Set("startIndex", strconv.Itoa(opts.StartIndex))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.MinDate != "" {
		params.Set("minDate", opts.MinDate)
	}

	var result ActivityLogResult
	if err := s.client.get(ctx, "System/ActivityLog/Entries", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

package shared

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	videoURLPattern = regexp.MustCompile(
		`^(https?://)?(www\.|m\.|music\.)?(youtube\.com/watch\?v=([a-zA-Z0-9_\-]{11})|youtu\.?be/([a-zA-Z0-9_\-]{11}))$`,
	)
	playlistURLPattern = regexp.MustCompile(
		`^(https?://)?(www\.|m\.|music\.)?youtube\.com/((playlist\?list=.+)|(watch\?list=.+&v=.+)|(watch\?v=[a-zA-Z0-9_\-]{11}&list=.+))$`,
	)
	videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{11}$`)
)

// ValidateURL reports whether raw is a single-video link or, when playlist is set, a playlist link.
// Malformed input is simply not a match.
func ValidateURL(raw string, playlist bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if playlist {
		return playlistURLPattern.MatchString(raw)
	}
	return videoURLPattern.MatchString(raw)
}

// VideoID extracts the 11 character video id from a video or playlist-watch link.
func VideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if m := videoURLPattern.FindStringSubmatch(raw); m != nil {
		if m[4] != "" {
			return m[4], true
		}
		return m[5], true
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if id := u.Query().Get("v"); videoIDPattern.MatchString(id) {
		return id, true
	}
	return "", false
}

// VideoLink turns a bare 11 character video id into its watch link. Anything else is returned trimmed.
func VideoLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if videoIDPattern.MatchString(raw) {
		return WatchURL(raw)
	}
	return raw
}

// WatchURL builds the canonical watch link for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ThumbnailURL returns the platform's max resolution thumbnail for a video link, or "" if no id can be found.
func ThumbnailURL(raw string) string {
	id, ok := VideoID(raw)
	if !ok {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
}

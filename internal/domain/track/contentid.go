package track

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	contentIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	filenameIDPattern = regexp.MustCompile(`\[([A-Za-z0-9_-]{11})\]$`)
)

// pathPrefixes are URL path segments that are followed by a content identifier.
var pathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}

// ContentID extracts the content identifier from a locator.
// Supported forms:
//   - https://www.youtube.com/watch?v=ID (other query parameters are ignored)
//   - https://music.youtube.com/watch?v=ID
//   - https://youtu.be/ID
//   - https://www.youtube.com/shorts/ID, /embed/ID, /live/ID
//   - a local path whose file name ends with "[ID].ext"
//   - a bare ID
//
// Returns "" when no identifier can be found.
func ContentID(locator string) string {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return ""
	}

	if contentIDPattern.MatchString(locator) {
		return locator
	}

	u, err := url.Parse(locator)
	if err != nil || u.Host == "" {
		return idFromFilename(filepath.Base(locator))
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "youtu.be":
		return validID(strings.Trim(u.Path, "/"))
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return validID(v)
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.TrimPrefix(u.Path, prefix)
				id = strings.SplitN(id, "/", 2)[0]
				return validID(id)
			}
		}
	}
	return ""
}

// IsCollection returns true if the locator addresses a collection (playlist)
// rather than a single item.
func IsCollection(locator string) bool {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Query().Get("list") == "" {
		return false
	}
	// watch?v=ID&list=... plays the single item
	return u.Query().Get("v") == ""
}

// idFromFilename returns the identifier embedded as "Title [ID].ext".
func idFromFilename(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	m := filenameIDPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

func validID(id string) string {
	if contentIDPattern.MatchString(id) {
		return id
	}
	return ""
}

// Package launch resolves incoming tracking-link requests: it recovers the
// (content, tracking link) identifier pair from the three legacy request
// shapes and classifies the content's role within its scenario.
package launch

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for identifier resolution. Both map to 400 at the API
// boundary; neither reveals which half of the pair was wrong.
var (
	ErrMissingIdentifier = errors.New("no launch identifier present")
	ErrInvalidIdentifier = errors.New("malformed launch identifier")
)

// Identifiers is a resolved (content, tracking link) pair, dashed UUID form.
type Identifiers struct {
	ContentID      string
	TrackingLinkID string
}

// Resolve extracts identifiers from a launch request. Three shapes are
// accepted, oldest link format last:
//
//  1. ?path=.../<content-no-dashes>/<tracking-no-dashes>
//  2. the same two segments at the end of the URL path itself
//  3. legacy explicit ?content=...&trackingId=... query parameters
//
// For the path shapes only the last two segments matter; anything before
// them is generator noise and ignored. Resolution is pure: no lookups, no
// side effects.
func Resolve(r *http.Request) (Identifiers, error) {
	q := r.URL.Query()

	if p := q.Get("path"); p != "" {
		return fromPath(p)
	}

	if c, tl := q.Get("content"), q.Get("trackingId"); c != "" || tl != "" {
		if c == "" || tl == "" {
			return Identifiers{}, ErrInvalidIdentifier
		}
		contentID, err := normalizeUUID(c)
		if err != nil {
			return Identifiers{}, ErrInvalidIdentifier
		}
		trackingID, err := normalizeUUID(tl)
		if err != nil {
			return Identifiers{}, ErrInvalidIdentifier
		}
		return Identifiers{ContentID: contentID, TrackingLinkID: trackingID}, nil
	}

	// Trailing path segments (chi wildcard). An empty suffix means the
	// request carried no identifier at all.
	if suffix := strings.Trim(r.URL.Path, "/"); suffix != "" {
		return fromPath(suffix)
	}

	return Identifiers{}, ErrMissingIdentifier
}

func fromPath(p string) (Identifiers, error) {
	segs := splitSegments(p)
	if len(segs) < 2 {
		return Identifiers{}, ErrInvalidIdentifier
	}

	contentID, err := RestoreUUID(segs[len(segs)-2])
	if err != nil {
		return Identifiers{}, ErrInvalidIdentifier
	}
	trackingID, err := RestoreUUID(segs[len(segs)-1])
	if err != nil {
		return Identifiers{}, ErrInvalidIdentifier
	}
	return Identifiers{ContentID: contentID, TrackingLinkID: trackingID}, nil
}

func splitSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// normalizeUUID accepts either dashed or dash-stripped UUID text.
func normalizeUUID(s string) (string, error) {
	if len(s) == 32 {
		return RestoreUUID(s)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// StripUUID removes the dashes from a UUID for use in generated link paths.
func StripUUID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// RestoreUUID reinserts dashes into a 32-char stripped UUID at the fixed
// 8-4-4-4-12 positions and validates the result. StripUUID followed by
// RestoreUUID round-trips to the original dashed form.
func RestoreUUID(s string) (string, error) {
	if len(s) != 32 {
		return "", ErrInvalidIdentifier
	}
	dashed := s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
	id, err := uuid.Parse(dashed)
	if err != nil {
		return "", ErrInvalidIdentifier
	}
	return id.String(), nil
}

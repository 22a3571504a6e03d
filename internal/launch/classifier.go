package launch

import (
	"errors"
	"strings"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// ErrScenarioNotFound means the session points at a training that has no
// scenario row. That is a data inconsistency, fatal for the request and
// worth an operator's attention; it is never retried.
var ErrScenarioNotFound = errors.New("scenario not found")

// Classification is the resolved role of a launch plus, for landing pages,
// the URL of the next artifact in the flow.
type Classification struct {
	Role domain.ContentRole

	// NextStepURL is set only for landing pages with a training page
	// configured; it satisfies the {{{trainingURL}}} token in landing HTML
	// and the post-form redirect.
	NextStepURL string
}

// Classify determines the role of contentID within the scenario and, for a
// landing page, builds the tracked link to the scenario's training content.
// The generated link reuses the same tracking link id so the whole flow
// stays correlated to one recipient.
func Classify(scenario *domain.TrainingScenario, contentID, trackingLinkID, publicBaseURL string) (Classification, bool) {
	role, ok := scenario.RoleOf(contentID)
	if !ok {
		return Classification{}, false
	}

	c := Classification{Role: role}
	if role == domain.RoleLanding && scenario.TrainingPageID != nil {
		c.NextStepURL = TrackedURL(publicBaseURL, *scenario.TrainingPageID, trackingLinkID)
	}
	return c, true
}

// TrackedURL builds a launch link in the dash-stripped path form, the same
// shape the external link generator emits.
func TrackedURL(publicBaseURL, contentID, trackingLinkID string) string {
	base := strings.TrimRight(publicBaseURL, "/")
	return base + "/t/" + StripUUID(contentID) + "/" + StripUUID(trackingLinkID)
}

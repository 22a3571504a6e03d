// Package render turns a stored content body into the document served to
// a recipient: personalization placeholders, tracking instrumentation,
// and the landing-flow wiring the client bridge needs.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/LMSJTK/training-delivery/internal/content"
	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/osteele/liquid"
)

const trainingURLToken = "{{{trainingURL}}}"

// Marker names recognized inside data-placeholder attributes. A marker
// whose value is unavailable is left exactly as authored.
const (
	markerCurrentYear      = "CURRENT_YEAR"
	markerScenarioStart    = "SCENARIO_START_DATETIME"
	markerRecipientEmail   = "RECIPIENT_EMAIL_ADDRESS"
	markerRecipientDomain  = "RECIPIENT_EMAIL_DOMAIN"
	markerFromEmail        = "FROM_EMAIL_ADDRESS"
	markerFromFriendlyName = "FROM_FRIENDLY_NAME"
	markerContactDetails   = "PROGRAM_CONTACT_DETAILS"
)

var (
	placeholderRe = regexp.MustCompile(`(?is)(<(\w+)\b[^>]*\bdata-placeholder="([A-Z_]+)"[^>]*>)(.*?)(</\w+>)`)
	logoImgRe     = regexp.MustCompile(`(?is)<img\b[^>]*\bclass="[^"]*\blogo\b[^"]*"[^>]*>`)
	imgSrcRe      = regexp.MustCompile(`(?i)\bsrc="[^"]*"`)
	liquidVarRe   = regexp.MustCompile(`\{\{[^{]`)
)

// Input is everything the engine needs to render one launch.
type Input struct {
	Body        string
	Source      content.Source
	ContentID   string
	Session     *domain.TrackingSession
	Scenario    *domain.TrainingScenario
	Role        domain.ContentRole
	NextStepURL string
}

// Engine applies the ordered substitution steps. Safe for concurrent use.
type Engine struct {
	liquid         *liquid.Engine
	trackerPath    string
	apiBase        string
	defaultLogoURL string
}

// NewEngine creates a render engine. trackerPath is the route serving the
// client bridge script; apiBase is what the bridge calls back to.
func NewEngine(trackerPath, apiBase, defaultLogoURL string) *Engine {
	return &Engine{
		liquid:         liquid.NewEngine(),
		trackerPath:    trackerPath,
		apiBase:        apiBase,
		defaultLogoURL: defaultLogoURL,
	}
}

// Render runs the substitution steps in order. Every step is a no-op when
// its marker is absent; the output is served verbatim.
func (e *Engine) Render(in Input) string {
	body := in.Body

	// Locally extracted packages already carry their identity meta tags
	// and tracker wiring; everything else gets them here.
	if in.Source != content.SourceLocal {
		body = e.injectIdentityMeta(body, in)
	}

	if in.Role == domain.RoleLanding && in.NextStepURL != "" {
		body = strings.ReplaceAll(body, trainingURLToken, in.NextStepURL)
	}

	body = e.renderLiquid(body, in)
	body = e.substitutePlaceholders(body, in)
	body = e.swapLogo(body, in)

	if in.Source != content.SourceLocal {
		body = e.injectTracker(body)
	}

	if in.Role == domain.RoleLanding && strings.Contains(strings.ToLower(body), "<form") {
		body = injectHeadMeta(body, "next-url", in.NextStepURL)
	}

	return body
}

func (e *Engine) injectIdentityMeta(body string, in Input) string {
	body = injectHeadMeta(body, "content-id", in.ContentID)
	body = injectHeadMeta(body, "tracking-id", in.Session.TrackingLinkID)
	return body
}

// renderLiquid gives authored liquid variables a pass with the session and
// scenario bound. Lax: a template error serves the raw body.
func (e *Engine) renderLiquid(body string, in Input) string {
	if !liquidVarRe.MatchString(body) {
		return body
	}
	out, err := e.liquid.ParseAndRenderString(body, e.liquidBindings(in))
	if err != nil {
		logger.Warn("liquid render failed, serving raw body",
			"content_id", in.ContentID, "error", err)
		return body
	}
	return out
}

func (e *Engine) liquidBindings(in Input) map[string]interface{} {
	b := map[string]interface{}{
		"recipient_email":  in.Session.RecipientEmail,
		"recipient_domain": emailDomain(in.Session.RecipientEmail),
		"current_year":     time.Now().Year(),
	}
	if in.Scenario != nil {
		b["scenario_name"] = in.Scenario.Name
		b["from_email"] = in.Scenario.FromEmail
		b["from_name"] = in.Scenario.FromName
		b["contact_details"] = in.Scenario.ContactDetails
		if in.Scenario.StartAt != nil {
			b["scenario_start"] = *in.Scenario.StartAt
		}
	}
	return b
}

func (e *Engine) substitutePlaceholders(body string, in Input) string {
	values := e.placeholderValues(in)
	return placeholderRe.ReplaceAllStringFunc(body, func(m string) string {
		parts := placeholderRe.FindStringSubmatch(m)
		val, ok := values[parts[3]]
		if !ok || val == "" {
			return m
		}
		return parts[1] + val + parts[5]
	})
}

func (e *Engine) placeholderValues(in Input) map[string]string {
	v := map[string]string{
		markerCurrentYear:     fmt.Sprintf("%d", time.Now().Year()),
		markerRecipientEmail:  in.Session.RecipientEmail,
		markerRecipientDomain: emailDomain(in.Session.RecipientEmail),
	}
	if in.Scenario != nil {
		v[markerFromEmail] = in.Scenario.FromEmail
		v[markerFromFriendlyName] = in.Scenario.FromName
		v[markerContactDetails] = in.Scenario.ContactDetails
		if in.Scenario.StartAt != nil {
			v[markerScenarioStart] = in.Scenario.StartAt.Format("January 2, 2006 at 3:04 PM")
		}
	}
	return v
}

func (e *Engine) swapLogo(body string, in Input) string {
	logoURL := e.defaultLogoURL
	if in.Scenario != nil && in.Scenario.LogoURL != "" {
		logoURL = in.Scenario.LogoURL
	}
	if logoURL == "" {
		return body
	}
	return logoImgRe.ReplaceAllStringFunc(body, func(img string) string {
		if imgSrcRe.MatchString(img) {
			return imgSrcRe.ReplaceAllString(img, `src="`+logoURL+`"`)
		}
		return strings.Replace(img, "<img", `<img src="`+logoURL+`"`, 1)
	})
}

func (e *Engine) injectTracker(body string) string {
	if !strings.Contains(body, e.trackerPath) {
		tag := `<script src="` + e.trackerPath + `" defer></script>`
		if idx := lastIndexFold(body, "</body>"); idx >= 0 {
			body = body[:idx] + tag + "\n" + body[idx:]
		} else {
			body += tag
		}
	}
	body = injectHeadMeta(body, "api-base", e.apiBase)
	return body
}

// injectHeadMeta adds <meta name=... content=...> into <head>, appending to
// the document start when no head tag exists. Existing tags win.
func injectHeadMeta(body, name, value string) string {
	if value == "" || strings.Contains(body, `name="`+name+`"`) {
		return body
	}
	tag := `<meta name="` + name + `" content="` + value + `">`
	if idx := indexFold(body, "<head>"); idx >= 0 {
		at := idx + len("<head>")
		return body[:at] + "\n" + tag + body[at:]
	}
	return tag + "\n" + body
}

func emailDomain(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[at+1:]
	}
	return ""
}

func indexFold(s, sub string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(sub))
}

func lastIndexFold(s, sub string) int {
	return strings.LastIndex(strings.ToLower(s), strings.ToLower(sub))
}

package classify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vodarc/vodarc/internal/domain"
	"github.com/vodarc/vodarc/internal/retry"
)

// Category is the failure bucket a terminal acquisition error lands in.
// Each carries its own retryability and attempt ceiling.
type Category string

const (
	CategoryCookieExpired      Category = "cookie_expired"
	CategoryLivestreamUpcoming Category = "livestream_upcoming"
	CategoryScheduled          Category = "scheduled"
	CategoryTransient          Category = "transient"
	CategoryPermanent          Category = "permanent"
)

// Attempt ceilings per category.
const (
	maxRetriesLivestream = 10
	maxRetriesScheduled  = 3
	maxRetriesTransient  = 5
)

// releaseBuffer pads a known release time so we do not knock on the door
// the exact second the content goes live.
const releaseBuffer = 300 * time.Second

// excerptLimit bounds how much of the original error text ends up in job
// records and logs.
const excerptLimit = 160

// Classification is the policy verdict for one terminal failure. The caller
// persists it into the job record; nothing here is stateful.
type Classification struct {
	Category   Category
	Retryable  bool
	RetryAfter time.Time // zero when the category is not retryable
	MaxRetries int
	Reason     string
}

// overridable in tests
var timeNow = time.Now

// Classify assigns a terminal acquisition error to a category. Rules are
// evaluated in strict priority order, first match wins; anything
// unrecognized gets the benefit of the doubt as transient.
func Classify(err error, hint *domain.SchedulingHint, attempt int) Classification {
	now := timeNow()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	lower := strings.ToLower(msg)

	// 1. Expired credentials / bot detection: manual remediation only.
	if errors.Is(err, domain.ErrCookieExpired) {
		return Classification{
			Category:   CategoryCookieExpired,
			Retryable:  false,
			MaxRetries: 0,
			Reason:     "cookies expired or bot check triggered: " + excerpt(msg),
		}
	}

	// 2. Upcoming livestream: not an error, the stream has not started.
	if hint != nil && !hint.IsLive && hint.LiveStatus == "is_upcoming" {
		after := retry.NextAttempt(now, attempt)
		if hint.ReleaseTimestamp > 0 {
			after = time.Unix(hint.ReleaseTimestamp, 0).Add(releaseBuffer)
		}
		return Classification{
			Category:   CategoryLivestreamUpcoming,
			Retryable:  true,
			RetryAfter: after,
			MaxRetries: maxRetriesLivestream,
			Reason:     "livestream has not started yet",
		}
	}

	// 3. Known future release time.
	if hint != nil && hint.ReleaseTimestamp > 0 {
		release := time.Unix(hint.ReleaseTimestamp, 0)
		if release.After(now) {
			return Classification{
				Category:   CategoryScheduled,
				Retryable:  true,
				RetryAfter: release.Add(releaseBuffer),
				MaxRetries: maxRetriesScheduled,
				Reason:     fmt.Sprintf("scheduled release at %s", release.UTC().Format(time.RFC3339)),
			}
		}
	}

	// 4. "Not yet released" phrasing without a structured hint.
	if phrase, ok := matchPhrase(lower, notReleasedPhrases); ok {
		return Classification{
			Category:   CategoryScheduled,
			Retryable:  true,
			RetryAfter: retry.NextAttempt(now, attempt),
			MaxRetries: maxRetriesScheduled,
			Reason:     fmt.Sprintf("matched %q (phrases %s): %s", phrase, phraseListVersion, excerpt(msg)),
		}
	}

	// 5. Network / rate-limit conditions.
	if phrase, ok := matchPhrase(lower, transientPhrases); ok {
		return Classification{
			Category:   CategoryTransient,
			Retryable:  true,
			RetryAfter: retry.NextAttempt(now, attempt),
			MaxRetries: maxRetriesTransient,
			Reason:     fmt.Sprintf("matched %q (phrases %s): %s", phrase, phraseListVersion, excerpt(msg)),
		}
	}

	// 6. Irrecoverable content states.
	if phrase, ok := matchPhrase(lower, permanentPhrases); ok {
		return Classification{
			Category:   CategoryPermanent,
			Retryable:  false,
			MaxRetries: 0,
			Reason:     fmt.Sprintf("matched %q (phrases %s): %s", phrase, phraseListVersion, excerpt(msg)),
		}
	}

	// 7. Unrecognized errors are retried rather than buried.
	return Classification{
		Category:   CategoryTransient,
		Retryable:  true,
		RetryAfter: retry.NextAttempt(now, attempt),
		MaxRetries: maxRetriesTransient,
		Reason:     "unrecognized error, treated as transient: " + excerpt(msg),
	}
}

func matchPhrase(lowerMsg string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if strings.Contains(lowerMsg, p) {
			return p, true
		}
	}
	return "", false
}

func excerpt(msg string) string {
	if len(msg) <= excerptLimit {
		return msg
	}
	return msg[:excerptLimit] + "..."
}

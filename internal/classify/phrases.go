package classify

// Phrase tables for category matching. These track the error text emitted by
// the upstream acquisition tool and must be reviewed whenever it is bumped;
// matching is case-insensitive substring, nothing smarter.
const phraseListVersion = "2025-08-26"

// notReleasedPhrases indicate content with a future availability time that
// the source did not expose as structured metadata.
var notReleasedPhrases = []string{
	"premieres in",
	"premiere will begin",
	"not yet released",
	"this live event will begin",
	"upcoming",
}

// transientPhrases indicate network or rate-limit conditions that clear on
// their own.
var transientPhrases = []string{
	"http error 429",
	"too many requests",
	"rate limit",
	"rate-limited",
	"http error 502",
	"http error 503",
	"http error 504",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"temporary failure",
	"incomplete read",
	"unable to download",
}

// permanentPhrases indicate the content is gone or will never be accessible
// from this account/region. No retry will help.
var permanentPhrases = []string{
	"video unavailable",
	"has been removed",
	"no longer available",
	"this video is private",
	"private video",
	"account associated with this video has been terminated",
	"copyright",
	"members-only",
	"members only",
	"blocked it in your country",
	"not available in your country",
	"who has blocked it",
	"age-restricted",
}

package screening

import "regexp"

var (
	// broadcast pings plus user, role and channel mention syntax
	mentionPattern = regexp.MustCompile(`@(?:everyone|here|&|!|#)|<@[!&]?\d+>|<#\d+>`)
	urlPattern     = regexp.MustCompile(`(?i)https?://`)
	emailPattern   = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phonePattern   = regexp.MustCompile(`\b(?:\+\d{1,3}\s?)?(?:\(\d{2,4}\)\s?)?\d{3,4}[-\s]?\d{3,4}\b`)
)

// crisisKeywords is matched case-insensitively as plain substrings.
var crisisKeywords = []string{
	"ich halte es nicht mehr aus",
	"ich will nicht mehr leben",
	"notfall",
	"selbstmord",
	"suicide",
	"suizid",
}

// CrisisKeywords returns a copy of the crisis lexicon.
func CrisisKeywords() []string {
	return append([]string{}, crisisKeywords...)
}

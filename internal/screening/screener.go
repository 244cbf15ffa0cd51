// Package screening holds the rule based checks applied to every submission:
// word lists first, then advisory detectors that never block publication.
package screening

import (
	"fmt"
	"sort"
	"strings"

	"github.com/negurvulkan/BeichtBot/internal/store"
)

type RejectionKind int

const (
	Blacklisted RejectionKind = iota + 1
	WhitelistUnsatisfied
)

func (k RejectionKind) String() string {
	switch k {
	case Blacklisted:
		return "blacklisted"
	case WhitelistUnsatisfied:
		return "whitelist_unsatisfied"
	default:
		return "unknown"
	}
}

// Rejection explains why a text failed the word lists.
type Rejection struct {
	Kind RejectionKind
	Term string
}

func (r *Rejection) Message() string {
	if r.Kind == Blacklisted {
		return fmt.Sprintf("Der Begriff `%s` ist in diesem Server blockiert.", r.Term)
	}
	return "Dein Text enthält keines der notwendigen Schlüsselwörter."
}

// Advisory flags are informational only.
type Advisory struct {
	Mentions bool
	Links    bool
	PII      bool
	Crisis   bool
}

func (a Advisory) Sensitive() bool {
	return a.PII || a.Crisis
}

// Hints returns the user-facing notes for every flag that fired.
func (a Advisory) Hints() []string {
	var hints []string
	if a.Mentions {
		hints = append(hints, "Mentions wurden neutralisiert.")
	}
	if a.Links {
		hints = append(hints, "Hinweis: Links bitte verantwortungsvoll teilen.")
	}
	if a.PII {
		hints = append(hints, "Warnung: Der Text enthält möglicherweise persönliche Daten.")
	}
	if a.Crisis {
		hints = append(hints, "Wenn du in Gefahr bist, suche bitte professionelle Hilfe.")
	}
	return hints
}

// Policy is the slice of guild configuration the screener needs.
type Policy struct {
	Blacklist []string
	Whitelist []string
	// DetectCrisis enables the crisis lexicon.
	DetectCrisis bool
}

type Result struct {
	Rejection *Rejection
	Advisory  Advisory
}

func (r Result) Rejected() bool {
	return r.Rejection != nil
}

// Screen runs the word lists and, if they pass, the advisory detectors. All
// checks look at the text exactly as the author wrote it.
func Screen(text string, p Policy) Result {
	if rej := CheckWordLists(text, p.Blacklist, p.Whitelist); rej != nil {
		return Result{Rejection: rej}
	}
	return Result{Advisory: Detect(text, p.DetectCrisis)}
}

// CheckWordLists applies the blacklist, then the whitelist. Blacklist terms
// are tried in sorted order so the reported term is stable.
func CheckWordLists(text string, blacklist, whitelist []string) *Rejection {
	lowered := store.FoldCase(text)

	blocked := append([]string{}, blacklist...)
	sort.Strings(blocked)
	for _, term := range blocked {
		term = store.FoldCase(term)
		if term != "" && strings.Contains(lowered, term) {
			return &Rejection{Kind: Blacklisted, Term: term}
		}
	}

	if len(whitelist) == 0 {
		return nil
	}
	for _, word := range whitelist {
		word = store.FoldCase(word)
		if word != "" && strings.Contains(lowered, word) {
			return nil
		}
	}
	return &Rejection{Kind: WhitelistUnsatisfied}
}

// Detect runs the advisory detectors independently of each other.
func Detect(text string, crisis bool) Advisory {
	a := Advisory{
		Mentions: mentionPattern.MatchString(text),
		Links:    urlPattern.MatchString(text),
		PII:      ContainsPII(text),
	}
	if crisis {
		a.Crisis = ContainsCrisis(text)
	}
	return a
}

func ContainsPII(text string) bool {
	return emailPattern.MatchString(text) || phonePattern.MatchString(text)
}

func ContainsCrisis(text string) bool {
	lowered := store.FoldCase(text)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

package providers

import (
	"regexp"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

var (
	dateFactRe   = regexp.MustCompile(`\b\d{1,2}[\s/\-.]\d{1,2}[\s/\-.]\d{2,4}\b`)
	numberFactRe = regexp.MustCompile(`\b\d+(?:,\d{3})*(?:\.\d+)?%?`)
	quoteFactRe  = regexp.MustCompile(`"([^"]+)"`)
	orgFactRes   = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:[A-Z][a-z]+\s+)*[A-Z][a-z]*\s+(?:Inc|Corp|Ltd|LLC|Company|Association|Organization)\b`),
		regexp.MustCompile(`\b[A-Z][A-Z]+\b`),
	}
)

// ExtractFacts pulls dates, numbers, quotations and organisation names out of text.
// Each list keeps first-seen order without duplicates.
func ExtractFacts(text string) domain.Facts {
	if text == "" {
		return domain.Facts{}
	}

	var facts domain.Facts
	facts.Dates = unique(dateFactRe.FindAllString(text, -1))
	facts.Statistics = unique(numberFactRe.FindAllString(text, -1))
	for _, m := range quoteFactRe.FindAllStringSubmatch(text, -1) {
		facts.Quotes = append(facts.Quotes, m[1])
	}
	facts.Quotes = unique(facts.Quotes)

	var orgs []string
	for _, re := range orgFactRes {
		orgs = append(orgs, re.FindAllString(text, -1)...)
	}
	facts.Organizations = unique(orgs)
	return facts
}

func unique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

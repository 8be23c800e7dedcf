package imagery

import (
	"regexp"
	"strings"
)

type sceneGroup struct {
	pattern  *regexp.Regexp
	scene    string
	elements []string
}

// Scene groups are matched in order; the first hit wins.
var sceneGroups = []sceneGroup{
	{
		pattern:  regexp.MustCompile(`(?i)\b(capitol|congress|senate|house|parliament|government|politic|election|campaign|policy|diplomatic|global stage)\b`),
		scene:    "political press photography",
		elements: []string{"US Capitol Building in Washington DC", "American flags waving", "government officials in formal attire", "marble columns and architecture", "serious political atmosphere", "press conference podiums"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(global|international|world|foreign|diplomatic|summit|united nations|treaty)\b`),
		scene:    "international diplomacy photo",
		elements: []string{"United Nations headquarters", "world leaders meeting", "diplomatic handshakes", "international flags", "formal summit setting"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(technology|tech|ai|artificial intelligence|robot|digital|innovation|startup|cyber|software|computing)\b`),
		scene:    "technology news photography",
		elements: []string{"modern tech laboratory", "advanced robotics", "holographic displays", "scientists working", "cutting-edge equipment"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(economy|economic|finance|market|stock|trade|investment|business|corporate|industry)\b`),
		scene:    "financial news photography",
		elements: []string{"Wall Street stock exchange", "business district skyscrapers", "financial data displays", "business professionals", "modern corporate environment"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(health|medical|medicine|vaccine|hospital|doctor|patient|healthcare|pandemic|virus)\b`),
		scene:    "healthcare news photography",
		elements: []string{"modern hospital setting", "medical professionals at work", "advanced medical equipment", "laboratory research", "healthcare facility"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(environment|climate|green|renewable|energy|sustainability|carbon|nature|pollution)\b`),
		scene:    "environmental journalism photo",
		elements: []string{"renewable energy installation", "dramatic natural landscape", "environmental impact", "climate scientists", "weather phenomena"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(sport|game|team|player|league|tournament|championship|olympic|athlete)\b`),
		scene:    "sports photography",
		elements: []string{"stadium atmosphere", "athletes in action", "dramatic sports moment", "cheering crowds", "victory celebration"},
	},
	{
		pattern:  regexp.MustCompile(`(?i)\b(entertainment|movie|film|music|celebrity|culture|art|fashion|performance)\b`),
		scene:    "entertainment news photo",
		elements: []string{"red carpet event", "stage performance", "celebrity appearance", "cultural celebration", "artistic display"},
	},
}

var defaultScene = sceneGroup{
	scene:    "news photography",
	elements: []string{"professional news setting", "press conference room", "journalist interviews", "media coverage", "current events"},
}

var styleElements = []string{
	"professional photojournalism",
	"high quality editorial photo",
	"sharp focus",
	"16:9 aspect ratio",
	"dramatic lighting",
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields("the and for are but not you all any can had has her his was one our out who why how what when where which with would could should have this that these those from into after before during under over again") {
		stopWords[w] = struct{}{}
	}
}

const (
	maxElements      = 3
	maxStyles        = 3
	maxTitleKeywords = 2
	maxPromptLen     = 200
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	unsafeRe = regexp.MustCompile(`[^\w\s\-.,!?]`)
)

// ScenePrompt builds the image prompt from the first matching scene group, its leading elements,
// the photographic style qualifiers and up to two salient title words.
func ScenePrompt(title, topic string) string {
	haystack := strings.ToLower(title + " " + topic)

	group := defaultScene
	for _, g := range sceneGroups {
		if g.pattern.MatchString(haystack) {
			group = g
			break
		}
	}

	parts := []string{group.scene}
	parts = append(parts, group.elements[:min(maxElements, len(group.elements))]...)
	parts = append(parts, styleElements[:maxStyles]...)
	parts = append(parts, titleKeywords(title)...)
	return strings.Join(parts, ", ")
}

func titleKeywords(title string) []string {
	var out []string
	for _, w := range strings.Split(strings.ToLower(title), " ") {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
		if len(out) == maxTitleKeywords {
			break
		}
	}
	return out
}

// CleanPrompt collapses whitespace, keeps only URL-safe characters and caps the length.
func CleanPrompt(prompt string) string {
	cleaned := spaceRe.ReplaceAllString(strings.TrimSpace(prompt), " ")
	cleaned = unsafeRe.ReplaceAllString(cleaned, "")
	if len(cleaned) > maxPromptLen {
		cleaned = cleaned[:maxPromptLen]
	}
	return cleaned
}

// AltText is the title, followed by the topic when the title does not already mention it.
func AltText(title, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" || strings.Contains(strings.ToLower(title), strings.ToLower(topic)) {
		return title
	}
	return title + " - " + topic
}

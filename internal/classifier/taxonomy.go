package classifier

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one taxonomy entry with its two keyword tiers.
type Category struct {
	Name      string   `yaml:"name"`
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
}

// Taxonomy is the ordered category table used for scoring.
type Taxonomy []Category

// Names returns the category names in table order.
func (t Taxonomy) Names() []string {
	names := make([]string, 0, len(t))
	for _, c := range t {
		names = append(names, c.Name)
	}
	return names
}

// LoadTaxonomy reads a YAML list of categories.
func LoadTaxonomy(r io.Reader) (Taxonomy, error) {
	var doc struct {
		Categories Taxonomy `yaml:"categories"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := doc.Categories.validate(); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (t Taxonomy) validate() error {
	if len(t) == 0 {
		return fmt.Errorf("taxonomy has no categories")
	}
	seen := make(map[string]struct{}, len(t))
	for i, c := range t {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("taxonomy category %d has no name", i)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("taxonomy category %q is duplicated", name)
		}
		seen[key] = struct{}{}
		if len(c.Primary) == 0 {
			return fmt.Errorf("taxonomy category %q has no primary keywords", name)
		}
	}
	return nil
}

// DefaultTaxonomy is the built-in thirteen-category table.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{
			Name:      "Politics",
			Primary:   []string{"politics", "political", "government", "election", "policy", "legislation", "congress", "senate", "president", "minister", "parliament", "democracy", "republican", "democrat", "campaign", "vote", "administration", "law", "bill", "act"},
			Secondary: []string{"announces", "passed", "signed", "approved", "voted", "debate", "hearing", "committee", "representative", "senator", "governor", "mayor", "official"},
		},
		{
			Name:      "Technology",
			Primary:   []string{"technology", "tech", "ai", "artificial intelligence", "machine learning", "software", "digital", "innovation", "startup", "cybersecurity", "blockchain", "automation", "robotics", "virtual reality", "augmented reality", "algorithm", "app", "platform", "system"},
			Secondary: []string{"development", "launch", "release", "update", "version", "feature", "integration", "api", "database", "server", "cloud", "mobile", "web"},
		},
		{
			Name:      "Business",
			Primary:   []string{"business", "economy", "economic", "market", "stock", "finance", "financial", "investment", "trading", "corporate", "company", "enterprise", "startup", "entrepreneur", "commerce", "trade", "revenue", "profit", "earnings", "quarterly"},
			Secondary: []string{"merger", "acquisition", "ipo", "funding", "venture", "capital", "startup", "growth", "expansion", "strategy", "ceo", "executive"},
		},
		{
			Name:      "Health",
			Primary:   []string{"health", "medical", "medicine", "healthcare", "hospital", "doctor", "patient", "treatment", "disease", "vaccine", "pharmaceutical", "biotechnology", "clinical", "research", "wellness", "fitness", "therapy", "diagnosis", "surgery"},
			Secondary: []string{"study", "trial", "drug", "medication", "prescription", "insurance", "coverage", "premium", "deductible"},
		},
		{
			Name:      "Science",
			Primary:   []string{"science", "scientific", "research", "study", "discovery", "experiment", "laboratory", "scientist", "physics", "chemistry", "biology", "astronomy", "space", "climate", "environment", "genetics", "theory", "hypothesis", "data"},
			Secondary: []string{"published", "journal", "peer-reviewed", "findings", "conclusion", "methodology", "analysis"},
		},
		{
			Name:      "Sports",
			Primary:   []string{"sports", "football", "basketball", "baseball", "soccer", "tennis", "olympics", "athlete", "team", "championship", "tournament", "league", "coach", "player", "game", "match", "season", "playoff", "final"},
			Secondary: []string{"score", "win", "loss", "victory", "defeat", "record", "statistics", "performance", "training", "injury"},
		},
		{
			Name:      "Entertainment",
			Primary:   []string{"entertainment", "movie", "film", "music", "celebrity", "actor", "actress", "singer", "artist", "hollywood", "television", "tv", "show", "concert", "award", "festival", "album", "song", "performance"},
			Secondary: []string{"premiere", "release", "trailer", "review", "rating", "box office", "streaming", "platform", "series", "episode"},
		},
		{
			Name:      "Education",
			Primary:   []string{"education", "school", "university", "college", "student", "teacher", "academic", "learning", "curriculum", "degree", "scholarship", "research", "campus", "classroom", "study", "course", "program", "faculty"},
			Secondary: []string{"enrollment", "graduation", "tuition", "financial aid", "admission", "application", "semester", "grade", "test"},
		},
		{
			Name:      "Travel",
			Primary:   []string{"travel", "tourism", "vacation", "destination", "hotel", "airline", "flight", "trip", "journey", "adventure", "explore", "tourist", "resort", "beach", "mountain", "city", "booking", "reservation"},
			Secondary: []string{"airport", "passport", "visa", "luggage", "itinerary", "guide", "tour", "excursion", "cruise", "road trip"},
		},
		{
			Name:      "Food",
			Primary:   []string{"food", "restaurant", "cuisine", "cooking", "chef", "recipe", "dining", "meal", "kitchen", "culinary", "gastronomy", "nutrition", "diet", "ingredient", "flavor", "taste", "menu", "dish"},
			Secondary: []string{"review", "rating", "award", "michelin", "star", "organic", "local", "farm", "market", "delivery"},
		},
		{
			Name:      "Environment",
			Primary:   []string{"environment", "climate", "weather", "pollution", "conservation", "sustainability", "renewable", "energy", "green", "eco-friendly", "carbon", "emission", "wildlife", "nature", "forest", "ocean", "recycling"},
			Secondary: []string{"global warming", "climate change", "extinction", "endangered", "habitat", "preservation", "clean energy", "solar", "wind"},
		},
		{
			Name:      "Social Issues",
			Primary:   []string{"social", "society", "community", "human rights", "equality", "diversity", "inclusion", "justice", "activism", "protest", "movement", "advocacy", "charity", "volunteer", "nonprofit", "discrimination"},
			Secondary: []string{"awareness", "campaign", "support", "donation", "fundraising", "initiative", "program", "service", "help", "assistance"},
		},
		{
			Name:      "International",
			Primary:   []string{"international", "global", "world", "foreign", "diplomacy", "treaty", "alliance", "conflict", "peace", "war", "military", "defense", "security", "border", "immigration", "refugee", "embassy"},
			Secondary: []string{"summit", "meeting", "negotiation", "agreement", "sanction", "trade", "export", "import", "tariff", "embargo"},
		},
	}
}

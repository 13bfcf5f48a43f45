package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/headlines/internal/storage"
)

const minQueryLength = 2

// Engine scores saved articles in memory. It needs no index and is used
// when the bleve index cannot be opened.
type Engine struct {
	store *storage.Store
	now   func() time.Time
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < minQueryLength {
		return []*Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	saved, err := e.store.SavedArticles()
	if err != nil {
		return nil, err
	}

	results := []*Result{}
	for _, s := range saved {
		if r := e.scoreArticle(s, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) scoreArticle(saved *storage.SavedArticle, terms []string) *Result {
	a := saved.Article
	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", a.Title, 4.0},
		{"description", a.Description, 2.0},
		{"publisher", a.Publisher.Title, 1.0},
	}

	var matches []Match
	var total float64
	for _, f := range fields {
		if score := scoreField(f.text, terms, f.weight); score > 0 {
			matches = append(matches, Match{Field: f.name, Text: truncate(f.text, 150), Weight: score})
			total += score
		}
	}
	if total == 0 {
		return nil
	}
	total *= 1.0 + recencyBoost(a.PublishedAt, e.now())
	return &Result{Saved: saved, Score: total, Matches: matches}
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term):
				score += 1.0
				matchedTerms++
			}
		}
	}
	if matchedTerms == 0 {
		return 0
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}
	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// recencyBoost gives up to 10% to articles from the last week.
func recencyBoost(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	week := 7 * 24 * time.Hour
	if age < 0 {
		age = 0
	}
	if age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}

// tokenize breaks text into lower-case terms, skipping single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}
	if len([]rune(current.String())) > 1 {
		terms = append(terms, current.String())
	}
	return terms
}

func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}

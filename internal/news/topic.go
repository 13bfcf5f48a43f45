package news

import (
	"fmt"
	"strings"
)

// Topic is a news section understood by the article source. The empty
// topic means "all sections".
type Topic string

const (
	TopicAll           Topic = ""
	TopicWorld         Topic = "WORLD"
	TopicNation        Topic = "NATION"
	TopicBusiness      Topic = "BUSINESS"
	TopicTechnology    Topic = "TECHNOLOGY"
	TopicEntertainment Topic = "ENTERTAINMENT"
	TopicSports        Topic = "SPORTS"
	TopicScience       Topic = "SCIENCE"
	TopicHealth        Topic = "HEALTH"
)

var topics = []Topic{
	TopicAll,
	TopicWorld,
	TopicNation,
	TopicBusiness,
	TopicTechnology,
	TopicEntertainment,
	TopicSports,
	TopicScience,
	TopicHealth,
}

// Topics returns every topic in display order, starting with TopicAll.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

// ParseTopic accepts a topic name in any case. "" and "all" both map to TopicAll.
func ParseTopic(s string) (Topic, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "ALL" {
		return TopicAll, nil
	}
	for _, t := range topics {
		if string(t) == s {
			return t, nil
		}
	}
	return TopicAll, fmt.Errorf("unknown topic %q", s)
}

func (t Topic) String() string {
	if t == TopicAll {
		return "ALL"
	}
	return string(t)
}

// Label is the human readable name, e.g. "Technology".
func (t Topic) Label() string {
	if t == TopicAll {
		return "All"
	}
	s := strings.ToLower(string(t))
	return strings.ToUpper(s[:1]) + s[1:]
}

// Next cycles forward through Topics, wrapping around.
func (t Topic) Next() Topic {
	return t.shift(1)
}

// Prev cycles backward through Topics, wrapping around.
func (t Topic) Prev() Topic {
	return t.shift(-1)
}

func (t Topic) shift(delta int) Topic {
	idx := 0
	for i, candidate := range topics {
		if candidate == t {
			idx = i
			break
		}
	}
	n := len(topics)
	return topics[((idx+delta)%n+n)%n]
}

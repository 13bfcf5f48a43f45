package news

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		in      string
		want    Topic
		wantErr bool
	}{
		{"", TopicAll, false},
		{"all", TopicAll, false},
		{"technology", TopicTechnology, false},
		{" SPORTS ", TopicSports, false},
		{"weather", TopicAll, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTopic(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTopicCycle(t *testing.T) {
	assert.Equal(t, TopicWorld, TopicAll.Next())
	assert.Equal(t, TopicAll, TopicHealth.Next())
	assert.Equal(t, TopicHealth, TopicAll.Prev())
	assert.Equal(t, "Technology", TopicTechnology.Label())
	assert.Equal(t, "All", TopicAll.Label())
	assert.Len(t, Topics(), 9)
}

func TestFilterSet_Equal(t *testing.T) {
	base := FilterSet{
		Keyword:         "go",
		Topic:           TopicTechnology,
		StartDate:       date(t, "2024-01-01"),
		ExcludeWebsites: []string{"cnn.com", "bbc.com"},
	}

	same := base.Clone()
	assert.True(t, base.Equal(same))

	sameInstant := base.Clone()
	shifted := base.StartDate.In(time.FixedZone("X", 3600))
	sameInstant.StartDate = &shifted
	assert.True(t, base.Equal(sameInstant), "dates compare by instant")

	reordered := base.Clone()
	reordered.ExcludeWebsites = []string{"bbc.com", "cnn.com"}
	assert.False(t, base.Equal(reordered), "excluded sites are ordered")

	noDate := base.Clone()
	noDate.StartDate = nil
	assert.False(t, base.Equal(noDate))

	assert.True(t, FilterSet{}.Equal(FilterSet{ExcludeWebsites: []string{}}))
	assert.True(t, FilterSet{}.IsZero())
}

func TestFilterSet_CloneIsDeep(t *testing.T) {
	orig := FilterSet{StartDate: date(t, "2024-03-01"), ExcludeWebsites: []string{"a.com"}}
	c := orig.Clone()
	c.ExcludeWebsites[0] = "b.com"
	*c.StartDate = c.StartDate.Add(time.Hour)

	assert.Equal(t, "a.com", orig.ExcludeWebsites[0])
	assert.Equal(t, "2024-03-01", FormatDate(orig.StartDate))
}

func TestFilterSet_Query(t *testing.T) {
	f := FilterSet{
		Keyword:         "climate",
		Topic:           TopicScience,
		Location:        "Berlin",
		StartDate:       date(t, "2024-05-01"),
		ExcludeWebsites: []string{"cnn.com", "bbc.com"},
	}
	q := f.Query()

	assert.Equal(t, "climate", q.Get("keyword"))
	assert.Equal(t, "SCIENCE", q.Get("topic"))
	assert.Equal(t, "Berlin", q.Get("location"))
	assert.Equal(t, "2024-05-01T00:00:00.000Z", q.Get("startDate"))
	assert.Equal(t, "", q.Get("endDate"))
	assert.True(t, q.Has("endDate"), "unset filters are still sent")
	assert.Equal(t, "cnn.com,bbc.com", q.Get("excludeWebsites"))
	assert.False(t, q.Has("page"))
}

func TestFilterSet_Validate(t *testing.T) {
	ok := FilterSet{StartDate: date(t, "2024-01-01"), EndDate: date(t, "2024-01-01")}
	assert.NoError(t, ok.Validate())

	bad := FilterSet{StartDate: date(t, "2024-02-01"), EndDate: date(t, "2024-01-01")}
	assert.Error(t, bad.Validate())
}

func TestFilterSet_Normalize(t *testing.T) {
	f := FilterSet{Keyword: "  go  ", ExcludeWebsites: []string{" CNN.com ", "", "bbc.com"}}.Normalize()
	assert.Equal(t, "go", f.Keyword)
	assert.Equal(t, []string{"cnn.com", "bbc.com"}, f.ExcludeWebsites)
}

func TestFilterSet_Excludes(t *testing.T) {
	f := FilterSet{ExcludeWebsites: []string{"cnn.com"}}
	assert.True(t, f.Excludes("https://www.cnn.com/world/story"))
	assert.True(t, f.Excludes("https://edition.cnn.com/x"))
	assert.False(t, f.Excludes("https://notcnn.com/x"))
	assert.False(t, FilterSet{}.Excludes("https://cnn.com"))
}

func TestFilterSet_InRange(t *testing.T) {
	f := FilterSet{StartDate: date(t, "2024-01-10"), EndDate: date(t, "2024-01-12")}
	at := func(s string) time.Time {
		v, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return v
	}
	assert.False(t, f.InRange(at("2024-01-09T23:59:59Z")))
	assert.True(t, f.InRange(at("2024-01-10T00:00:00Z")))
	assert.True(t, f.InRange(at("2024-01-12T18:00:00Z")), "end date covers the whole day")
	assert.False(t, f.InRange(at("2024-01-13T00:00:00Z")))
	assert.True(t, f.InRange(time.Time{}), "undated articles are kept")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30", FormatDate(d))

	_, err = ParseDate("30/06/2024")
	assert.Error(t, err)
}

func TestParseExcludeWebsites(t *testing.T) {
	assert.Equal(t, []string{"cnn.com", "bbc.com"}, ParseExcludeWebsites(" cnn.com, ,bbc.com,"))
	assert.Nil(t, ParseExcludeWebsites(""))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "top stories", FilterSet{}.Describe())
	f := FilterSet{Topic: TopicSports, Keyword: "cup", ExcludeWebsites: []string{"a.com"}}
	assert.Equal(t, `topic:Sports "cup" -1 sites`, f.Describe())
}

func TestArticle_UnmarshalServicePayload(t *testing.T) {
	payload := `[{
		"title": "Chips get faster",
		"description": "A new chip",
		"published date": "Mon, 14 Oct 2024 13:00:00 GMT",
		"url": "https://example.org/chips",
		"publisher": {"href": "https://example.org", "title": "Example News"}
	}]`

	var articles []Article
	require.NoError(t, json.Unmarshal([]byte(payload), &articles))
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Chips get faster", a.Title)
	assert.Equal(t, "Example News", a.Publisher.Title)
	assert.Equal(t, 2024, a.PublishedAt.Year())
	assert.Equal(t, time.October, a.PublishedAt.Month())
	assert.Equal(t, "https://example.org/chips", a.Key())
}

func TestArticle_UnparsableDateIsZero(t *testing.T) {
	var a Article
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","published date":"yesterday"}`), &a))
	assert.True(t, a.PublishedAt.IsZero())
	assert.Equal(t, "title:x", a.Key())
}

func TestArticle_StoredFormRoundTrips(t *testing.T) {
	orig := Article{
		Title:       "Stored",
		URL:         "https://www.example.org/a",
		PublishedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Article
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, orig.PublishedAt.Equal(back.PublishedAt))
	assert.Equal(t, "example.org", back.Source())
}

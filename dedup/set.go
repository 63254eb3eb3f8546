package dedup

import (
	"strings"

	"newsbrief/models"
)

// UniqueArticleSet reduces the amount of duplicated or near-duplicated
// articles handed to the summarization step.
//
// Two articles are considered the same story when any of these match:
//   - a non-zero database ID
//   - a non-empty URL
//   - the normalized title (lowercased, trimmed) together with the calendar
//     date of publication (time of day is ignored)
//
// On a title+date collision the bodies decide: equal normalized bodies keep
// the retained article; if the new body extends the retained one (it starts
// with the first 90% of the retained body's characters), the new article
// replaces it in place. Anything else is dropped.
//
// The set is not safe for concurrent use; build one per batch, read it out,
// discard it.
type UniqueArticleSet struct {
	byID  map[uint]*entry
	byURL map[string]*entry
	byKey map[titleDateKey]*entry
	order []*entry
}

// titleDateKey identifies a story by its normalized title and calendar date.
type titleDateKey struct {
	title string
	date  string
}

// entry pins a story to its position in insertion order. Replacements swap
// the article inside the entry so the position never moves.
type entry struct {
	key     titleDateKey
	article *models.Article
}

// New builds a set from the given articles, inserted in argument order.
func New(articles ...*models.Article) *UniqueArticleSet {
	s := &UniqueArticleSet{
		byID:  make(map[uint]*entry),
		byURL: make(map[string]*entry),
		byKey: make(map[titleDateKey]*entry),
	}
	for _, a := range articles {
		s.Add(a)
	}
	return s
}

// Add inserts one article. Duplicates are dropped silently; a dropped or
// replaced article is normal control flow, not an error.
func (s *UniqueArticleSet) Add(a *models.Article) {
	// ID zero means the record was never persisted and carries no identity.
	if a.ID != 0 {
		if _, ok := s.byID[a.ID]; ok {
			return
		}
	}
	if a.URL != "" {
		if _, ok := s.byURL[a.URL]; ok {
			return
		}
	}

	key := keyOf(a)
	existing, ok := s.byKey[key]
	if !ok {
		e := &entry{key: key, article: a}
		s.index(e)
		s.order = append(s.order, e)
		return
	}

	newBody := normalize(a.Body)
	retainedBody := normalize(existing.article.Body)
	if newBody == retainedBody {
		return
	}
	if !strings.HasPrefix(newBody, truncatedPrefix(retainedBody)) {
		return
	}

	// The new body extends the retained one, e.g. the retained fetch lost a
	// trailing sentence. Swap the article; the story keeps its position.
	s.unindex(existing)
	existing.article = a
	s.index(existing)
}

// Len returns the number of retained articles.
func (s *UniqueArticleSet) Len() int {
	return len(s.order)
}

// Empty reports whether no article is retained.
func (s *UniqueArticleSet) Empty() bool {
	return len(s.order) == 0
}

// Articles returns the retained articles in the order their stories first
// entered the set.
func (s *UniqueArticleSet) Articles() []*models.Article {
	out := make([]*models.Article, len(s.order))
	for i, e := range s.order {
		out[i] = e.article
	}
	return out
}

// Limit returns a new independent set seeded with at most the first n
// retained articles. The bound applies to the seeding only; the returned set
// grows freely afterwards.
func (s *UniqueArticleSet) Limit(n int) *UniqueArticleSet {
	articles := s.Articles()
	if n < 0 {
		n = 0
	}
	if n < len(articles) {
		articles = articles[:n]
	}
	return New(articles...)
}

// index registers the entry under every key its article carries. All index
// writes go through here so the three indices cannot drift apart.
func (s *UniqueArticleSet) index(e *entry) {
	if e.article.ID != 0 {
		s.byID[e.article.ID] = e
	}
	if e.article.URL != "" {
		s.byURL[e.article.URL] = e
	}
	s.byKey[e.key] = e
}

// unindex removes the entry from every index it was registered under.
func (s *UniqueArticleSet) unindex(e *entry) {
	if e.article.ID != 0 {
		delete(s.byID, e.article.ID)
	}
	if e.article.URL != "" {
		delete(s.byURL, e.article.URL)
	}
	delete(s.byKey, e.key)
}

func keyOf(a *models.Article) titleDateKey {
	return titleDateKey{
		title: normalize(a.Title),
		date:  a.PublishedAt.Format("2006-01-02"),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// truncatedPrefix returns the first 90% of the body's characters, rounded
// down. The slack tolerates trailing differences like an extra period or a
// cut-off last sentence; only the new body is tested against it.
func truncatedPrefix(body string) string {
	r := []rune(body)
	return string(r[:len(r)*9/10])
}

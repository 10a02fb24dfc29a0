package database

import (
	"context"
	"regexp"
	"slices"
	"strings"
)

// searchTokenPattern splits text the way the unicode61 FTS5 tokenizer does:
// runs of letters and digits.
var searchTokenPattern = regexp.MustCompile(`[\p{L}\p{N}\p{Co}]+`)

func searchTokens(s string) []string {
	return searchTokenPattern.FindAllString(strings.ToLower(s), -1)
}

// matchesAllPrefixes reports whether every token is a prefix of some word in
// title.
func matchesAllPrefixes(title string, tokens []string) bool {
	words := searchTokens(title)
	for _, tok := range tokens {
		if !slices.ContainsFunc(words, func(w string) bool { return strings.HasPrefix(w, tok) }) {
			return false
		}
	}
	return true
}

// SearchTitles returns the ids of movies whose title contains a word
// starting with each token of query, in ascending id order. An empty query
// matches nothing.
func (d *Database) SearchTitles(ctx context.Context, query string) ([]int64, error) {
	tokens := searchTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	if d.fts {
		return d.searchFTS(ctx, tokens)
	}
	return d.searchLike(ctx, tokens)
}

func (d *Database) searchFTS(ctx context.Context, tokens []string) ([]int64, error) {
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		// Quoting keeps words like "not" or "or" from being read as operators.
		terms[i] = `"` + tok + `"*`
	}
	return d.queryIDs(ctx, "search_titles",
		"SELECT rowid FROM movie_fts WHERE movie_fts MATCH ? ORDER BY rowid", strings.Join(terms, " "))
}

// searchLike narrows candidates with LIKE on the ASCII tokens, then applies
// the same word-prefix rule as the FTS path.
func (d *Database) searchLike(ctx context.Context, tokens []string) ([]int64, error) {
	query := "SELECT id, canonical_title FROM movie"
	var (
		where []string
		args  []any
	)
	for _, tok := range tokens {
		if !isASCII(tok) {
			continue
		}
		where = append(where, "canonical_title LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(tok)+"%")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	var ids []int64
	err := d.read(ctx, "search_titles", func(ctx context.Context) error {
		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id    int64
				title string
			)
			if err := rows.Scan(&id, &title); err != nil {
				return err
			}
			if matchesAllPrefixes(title, tokens) {
				ids = append(ids, id)
			}
		}
		return rows.Err()
	})
	return ids, err
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// SearchMovies resolves SearchTitles to movies.
func (d *Database) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	ids, err := d.SearchTitles(ctx, query)
	if err != nil {
		return nil, err
	}
	return d.MoviesByIDs(ctx, ids)
}

package explorer

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/sourcemeta-go/registryindex/metapack"
)

// searchTriple is one `[url, title, description]` line of the flat search
// index, matching GENERATE_SEARCH_INDEX's array-of-three-strings shape
// rather than a named-field object — the explorer's client-side search
// widget indexes these positionally.
type searchTriple [3]string

// BuildSearchIndex reads every schema navigation document named in
// dependencies and writes the sorted JSONL search index. Entries with more
// metadata filled in (title, description) sort first; ties break by URL
// ascending. Capping to the top-N matches happens at query time, not here.
// Grounded on GENERATE_SEARCH_INDEX.
func BuildSearchIndex(destination string, dependencies []string, _ func(string), _ any) error {
	triples := make([]searchTriple, 0, len(dependencies))
	for _, navPath := range dependencies {
		var nav SchemaNav
		if _, err := metapack.ReadJSON(navPath, &nav); err != nil {
			return err
		}
		triples = append(triples, searchTriple{nav.URL, nav.Title, nav.Description})
	}

	sort.SliceStable(triples, func(i, j int) bool {
		left, right := triples[i], triples[j]
		leftScore := metaScore(left)
		rightScore := metaScore(right)
		if leftScore != rightScore {
			return leftScore > rightScore
		}
		return left[0] < right[0]
	})

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, triple := range triples {
		if err := encoder.Encode(triple); err != nil {
			return err
		}
	}

	_, err := metapack.Write(destination, buf.Bytes(), metapack.WriteOptions{
		MIME: "application/x-ndjson", Encoding: metapack.EncodingGzip,
	})
	return err
}

func metaScore(t searchTriple) int {
	score := 0
	if t[1] != "" {
		score++
	}
	if t[2] != "" {
		score++
	}
	return score
}

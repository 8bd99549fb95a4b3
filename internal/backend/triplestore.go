package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// Pattern is a subject/predicate/object query with an optional topic
// constraint. Empty fields act as wildcards.
type Pattern struct {
	Subject   string `json:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

// Translator turns natural-language text into a triple pattern. The second
// return value reports whether the text had recognizable relation phrasing.
type Translator interface {
	Translate(ctx context.Context, text string) (*Pattern, bool)
}

// TripleStoreAdapter queries an external triple store over HTTP. The store
// answers structured relationship questions the other backends cannot.
type TripleStoreAdapter struct {
	endpoint   string
	httpClient *http.Client
	translator Translator
}

// NewTripleStoreAdapter creates a triple-store adapter for the given endpoint.
// A nil translator falls back to rule-based translation.
func NewTripleStoreAdapter(endpoint string, translator Translator) *TripleStoreAdapter {
	if translator == nil {
		translator = NewRuleTranslator()
	}
	return &TripleStoreAdapter{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		translator: translator,
	}
}

func (t *TripleStoreAdapter) Name() types.Backend {
	return types.BackendTripleStore
}

// Query translates the text to a pattern and matches it against the store.
// A topic-constrained pattern that matches nothing is retried without the
// topic before giving up; structured queries over-constrain easily.
func (t *TripleStoreAdapter) Query(ctx context.Context, params QueryParams) ([]types.Hit, error) {
	pattern, ok := t.translator.Translate(ctx, params.Query)
	if !ok {
		return nil, fmt.Errorf("%w: no relation phrasing in query", types.ErrBackendQuery)
	}

	rows, err := t.match(ctx, pattern, params.Limit)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 && pattern.Topic != "" {
		broadened := *pattern
		broadened.Topic = ""
		rows, err = t.match(ctx, &broadened, params.Limit)
		if err != nil {
			return nil, err
		}
	}

	hits := make([]types.Hit, 0, len(rows))
	for i, row := range rows {
		hit := types.Hit{
			ID:          row.RID,
			Title:       fmt.Sprintf("%s %s %s", row.Subject, row.Predicate, row.Object),
			Source:      types.BackendTripleStore,
			BackendRank: i + 1,
			EntityType:  "triple",
		}
		if hit.ID == "" {
			hit.ID = row.Subject + "|" + row.Predicate + "|" + row.Object
		}
		if row.Score != nil {
			score := *row.Score
			hit.RawScore = &score
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

type tripleRow struct {
	RID       string   `json:"rid"`
	Subject   string   `json:"subject"`
	Predicate string   `json:"predicate"`
	Object    string   `json:"object"`
	Score     *float64 `json:"score,omitempty"`
}

func (t *TripleStoreAdapter) match(ctx context.Context, pattern *Pattern, limit int) ([]tripleRow, error) {
	reqBody := struct {
		Pattern *Pattern `json:"pattern"`
		Limit   int      `json:"limit,omitempty"`
	}{Pattern: pattern, Limit: limit}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal pattern: %v", types.ErrBackendQuery, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.endpoint+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBackendQuery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", types.ErrBackendQuery, resp.StatusCode, string(bodyBytes))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", types.ErrBackendUnavailable, resp.StatusCode)
	}

	var apiResp struct {
		Rows []tripleRow `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", types.ErrBackendUnavailable, err)
	}
	return apiResp.Rows, nil
}

// relationPhrase maps a surface phrasing to its canonical predicate.
// Phrases are tried in order, multi-word and plural forms first, so a
// query with several phrasings always resolves the same way.
type relationPhrase struct {
	phrase    string
	predicate string
}

// RuleTranslator extracts triple patterns from relation phrasings like
// "what calls ParseConfig" or "Orchestrator depends on Cache".
type RuleTranslator struct {
	phrases []relationPhrase
}

// NewRuleTranslator creates the default rule-based translator
func NewRuleTranslator() *RuleTranslator {
	return &RuleTranslator{
		phrases: []relationPhrase{
			{"depends on", "depends_on"},
			{"depend on", "depends_on"},
			{"related to", "related_to"},
			{"connected to", "related_to"},
			{"calls", "calls"},
			{"call", "calls"},
			{"uses", "uses"},
			{"use", "uses"},
			{"imports", "imports"},
			{"import", "imports"},
			{"references", "references"},
			{"reference", "references"},
			{"contains", "contains"},
			{"contain", "contains"},
			{"implements", "implements"},
			{"implement", "implements"},
			{"extends", "extends"},
			{"inherits", "inherits_from"},
		},
	}
}

// Translate scans for the first known relation phrase and splits the text
// around it. Question words on the subject side become wildcards.
func (r *RuleTranslator) Translate(_ context.Context, text string) (*Pattern, bool) {
	lower := strings.ToLower(strings.TrimRight(strings.TrimSpace(text), "?!."))

	for _, rp := range r.phrases {
		phrase, predicate := rp.phrase, rp.predicate
		idx := indexOfPhrase(lower, phrase)
		if idx < 0 {
			continue
		}
		subject := strings.TrimSpace(lower[:idx])
		object := strings.TrimSpace(lower[idx+len(phrase):])

		pattern := &Pattern{Predicate: predicate}
		pattern.Subject = subjectEntity(subject)
		if object != "" {
			pattern.Object, pattern.Topic = splitTopic(object)
		}
		if pattern.Subject == "" && pattern.Object == "" {
			continue
		}
		return pattern, true
	}
	return nil, false
}

// indexOfPhrase finds phrase as whole words within text
func indexOfPhrase(text, phrase string) int {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return -1
		}
		abs := idx + i
		beforeOK := abs == 0 || text[abs-1] == ' '
		after := abs + len(phrase)
		afterOK := after == len(text) || text[after] == ' '
		if beforeOK && afterOK {
			return abs
		}
		idx = abs + 1
	}
}

var questionWords = map[string]bool{
	"what": true, "which": true, "who": true, "where": true,
}

var fillerWords = map[string]bool{
	"does": true, "do": true, "did": true, "is": true, "are": true,
	"can": true, "the": true, "a": true, "an": true, "all": true,
}

var genericWords = map[string]bool{
	"things": true, "entities": true, "modules": true, "module": true,
	"functions": true, "function": true, "packages": true, "package": true,
	"components": true, "component": true, "files": true, "file": true,
}

// subjectEntity extracts the entity name from the text left of the relation
// phrase. Question words and fillers become wildcards, as do generic nouns
// like "modules".
func subjectEntity(subject string) string {
	fields := strings.Fields(subject)
	for len(fields) > 0 && (questionWords[fields[0]] || fillerWords[fields[0]]) {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if genericWords[last] || fillerWords[last] {
		return ""
	}
	return last
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// splitTopic separates "X in Y" into object X and topic Y
func splitTopic(object string) (string, string) {
	for _, sep := range []string{" in ", " within ", " under "} {
		if i := strings.Index(object, sep); i >= 0 {
			return strings.TrimSpace(object[:i]), strings.TrimSpace(object[i+len(sep):])
		}
	}
	return lastToken(object), ""
}

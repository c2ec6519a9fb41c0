package scenario

import (
	"encoding/json"
	"fmt"
	"io/fs"
)

// Loader reads scenario files off an fs.FS rooted at a configured scenarios
// directory, in the teacher's constructor-injected, side-effect-free style.
// Load never returns an error to the caller: a missing file or a parse
// failure degrades to an empty scenario set with a descriptive Description,
// so tests remain loadable at process start.
type Loader struct {
	fsys fs.FS
}

// New constructs a Loader rooted at fsys (typically an os.DirFS in
// production, an fstest.MapFS in tests).
func New(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Load reads "<provider>/<filename>.json" and returns its scenario set. On
// any failure it returns an empty, described File rather than an error.
func (l *Loader) Load(provider, filename string) File {
	path := fmt.Sprintf("%s/%s.json", provider, filename)

	data, err := fs.ReadFile(l.fsys, path)
	if err != nil {
		return File{
			Provider:    provider,
			Description: fmt.Sprintf("no scenarios loaded: %v", err),
		}
	}

	var raw struct {
		Provider    string            `json:"provider"`
		Description string            `json:"description"`
		Scenarios   []json.RawMessage `json:"scenarios"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return File{
			Provider:    provider,
			Description: fmt.Sprintf("no scenarios loaded: parse error: %v", err),
		}
	}

	scenarios := make([]Scenario, 0, len(raw.Scenarios))
	for _, entry := range raw.Scenarios {
		if err := ValidateLoad(entry); err != nil {
			continue
		}
		var s Scenario
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		scenarios = append(scenarios, s)
	}

	description := raw.Description
	if description == "" {
		description = fmt.Sprintf("%d scenario(s) loaded", len(scenarios))
	}

	return File{
		Provider:    raw.Provider,
		Description: description,
		Scenarios:   scenarios,
	}
}

// Selected pairs a scenario with its identifying fields, in source order.
type Selected struct {
	ID       string
	Name     string
	Scenario Scenario
}

// Filter returns scenarios matching at least one tag in tags, in source
// order. Disabled scenarios are excluded unless includeDisabled is set.
func Filter(file File, tags []string, includeDisabled bool) []Selected {
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	var out []Selected
	for _, s := range file.Scenarios {
		if !includeDisabled && !s.IsEnabled() {
			continue
		}
		if len(tagSet) > 0 && !anyTagMatches(s, tagSet) {
			continue
		}
		out = append(out, Selected{ID: s.ID, Name: s.Name, Scenario: s})
	}
	return out
}

func anyTagMatches(s Scenario, tagSet map[string]struct{}) bool {
	for _, t := range s.Tags {
		if _, ok := tagSet[t]; ok {
			return true
		}
	}
	return false
}

// AllEnabled returns every scenario whose enabled flag is not explicitly
// false, in source order.
func AllEnabled(file File) []Selected {
	var out []Selected
	for _, s := range file.Scenarios {
		if !s.IsEnabled() {
			continue
		}
		out = append(out, Selected{ID: s.ID, Name: s.Name, Scenario: s})
	}
	return out
}

// Package language is the registry of languages the editor can run, with the
// runtime versions the execution API expects for each.
package language

import "sort"

// Free is the one language that can be executed without a subscription.
const Free = "javascript"

// Runtime describes how one editor language is executed.
type Runtime struct {
	ID      string `json:"id"`      // editor language id, e.g. "python"
	Label   string `json:"label"`   // display name
	Runtime string `json:"runtime"` // execution API language name
	Version string `json:"version"` // execution API runtime version
}

var runtimes = map[string]Runtime{
	"javascript": {ID: "javascript", Label: "JavaScript", Runtime: "javascript", Version: "18.15.0"},
	"typescript": {ID: "typescript", Label: "TypeScript", Runtime: "typescript", Version: "5.0.3"},
	"python":     {ID: "python", Label: "Python", Runtime: "python", Version: "3.10.0"},
	"java":       {ID: "java", Label: "Java", Runtime: "java", Version: "15.0.2"},
	"go":         {ID: "go", Label: "Go", Runtime: "go", Version: "1.16.2"},
	"rust":       {ID: "rust", Label: "Rust", Runtime: "rust", Version: "1.68.2"},
	"cpp":        {ID: "cpp", Label: "C++", Runtime: "cpp", Version: "10.2.0"},
	"csharp":     {ID: "csharp", Label: "C#", Runtime: "csharp", Version: "6.12.0"},
	"ruby":       {ID: "ruby", Label: "Ruby", Runtime: "ruby", Version: "3.0.1"},
	"swift":      {ID: "swift", Label: "Swift", Runtime: "swift", Version: "5.3.3"},
}

// Lookup returns the runtime for an editor language id.
func Lookup(id string) (Runtime, bool) {
	rt, ok := runtimes[id]
	return rt, ok
}

// All returns every registered runtime sorted by id.
func All() []Runtime {
	out := make([]Runtime, 0, len(runtimes))
	for _, rt := range runtimes {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RequiresSubscription reports whether running id is gated behind the pro tier.
func RequiresSubscription(id string) bool {
	return id != Free
}

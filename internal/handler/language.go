package handler

import (
	"net/http"

	"github.com/sakif/codecraft/internal/language"
)

type languageResponse struct {
	language.Runtime
	RequiresSubscription bool `json:"requiresSubscription"`
}

// HandleLanguages lists the supported languages and which of them are gated.
//
// HTTP: GET /api/languages
func HandleLanguages(w http.ResponseWriter, r *http.Request) {
	all := language.All()
	out := make([]languageResponse, 0, len(all))
	for _, rt := range all {
		out = append(out, languageResponse{Runtime: rt, RequiresSubscription: language.RequiresSubscription(rt.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

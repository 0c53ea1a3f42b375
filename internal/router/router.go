// Package router decides which evidence sources to consult for a query.
package router

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"evidence-rag/internal/models"
)

// KeywordClass names a query classification category.
type KeywordClass string

const (
	ClassWeb      KeywordClass = "web"
	ClassInternal KeywordClass = "internal"
)

// keywordPatterns maps each classification category to its pattern set.
// Matching is case-insensitive substring/regex matching against the
// lowered query; any single match classifies the query.
var keywordPatterns = map[KeywordClass][]string{
	ClassWeb: {
		`latest`,
		`recent`,
		`202\d`,
		`research`,
		`report`,
		`news`,
		`trends`,
		`stat(e|istics)`,
	},
	ClassInternal: {
		`our`,
		`internal`,
		`company`,
		`client`,
		`confidential`,
	},
}

// Context carries the runtime flags the routing decision depends on.
type Context struct {
	HasDocuments bool
}

// Router is a pure decision function over a query and context. It holds
// only compiled keyword tables and is safe for concurrent use.
type Router struct {
	classes map[KeywordClass][]*regexp.Regexp
}

func New() *Router {
	classes := make(map[KeywordClass][]*regexp.Regexp, len(keywordPatterns))
	for class, patterns := range keywordPatterns {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			compiled = append(compiled, regexp.MustCompile(p))
		}
		classes[class] = compiled
	}
	return &Router{classes: classes}
}

func (r *Router) matches(class KeywordClass, query string) bool {
	q := strings.ToLower(query)
	for _, re := range r.classes[class] {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

// Decide picks the evidence sources for a query. Precedence: internal
// scope first, then the document/web combinations, defaulting to the web
// so that a decision without documents is never fully empty.
func (r *Router) Decide(query string, ctx Context) models.RoutingDecision {
	hasDocs := ctx.HasDocuments

	if hasDocs && r.matches(ClassInternal, query) {
		return r.decided(query, models.RoutingDecision{
			UseDocuments: true,
			Reason:       "Internal scope detected",
		})
	}

	webNeeded := r.matches(ClassWeb, query)

	switch {
	case hasDocs && webNeeded:
		return r.decided(query, models.RoutingDecision{
			UseDocuments: true,
			UseWeb:       true,
			Reason:       "Combined: internal + recent/external",
		})
	case hasDocs:
		return r.decided(query, models.RoutingDecision{
			UseDocuments: true,
			Reason:       "Documents sufficient",
		})
	case webNeeded:
		return r.decided(query, models.RoutingDecision{
			UseWeb: true,
			Reason: "No docs, web search required",
		})
	}

	return r.decided(query, models.RoutingDecision{
		UseDocuments: hasDocs,
		UseWeb:       true,
		Reason:       "Default to both when uncertain",
	})
}

func (r *Router) decided(query string, d models.RoutingDecision) models.RoutingDecision {
	log.Debug().
		Str("query", query).
		Bool("use_documents", d.UseDocuments).
		Bool("use_web", d.UseWeb).
		Str("reason", d.Reason).
		Msg("Routing decision")
	return d
}

package oplog

import "strings"

// ExcludeMatcher decides whether a request path is exempt.
//
// The context path is removed by its literal length, not on a segment
// boundary: with context path "/api", "/apix/health" is matched as "/health".
type ExcludeMatcher struct {
	contextPath string
	paths       map[string]struct{}
}

func NewExcludeMatcher(contextPath string, paths []string) *ExcludeMatcher {
	m := &ExcludeMatcher{
		contextPath: contextPath,
		paths:       make(map[string]struct{}, len(paths)),
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		m.paths[p] = struct{}{}
	}
	return m
}

// Match reports whether requestPath should skip logging entirely.
func (m *ExcludeMatcher) Match(requestPath string) bool {
	if m == nil || len(m.paths) == 0 || strings.TrimSpace(requestPath) == "" {
		return false
	}
	realPath := requestPath
	if strings.TrimSpace(m.contextPath) != "" && len(requestPath) >= len(m.contextPath) {
		realPath = requestPath[len(m.contextPath):]
	}
	_, ok := m.paths[realPath]
	return ok
}

// Package exclude decides which directories a scan skips.
//
// Rules are literal strings. A rule without a path separator is a name rule
// and matches a directory whose final segment equals it exactly. A rule with
// a separator (for example "var/lib/docker") is a fragment rule and matches
// any path that contains it as whole segments. There is no globbing and
// matching is case-sensitive.
package exclude

import (
	"path/filepath"
	"sort"
	"strings"
)

// Defaults are always excluded: pseudo filesystems, temporary and container
// storage, VCS metadata, and dependency caches.
var Defaults = []string{
	"proc",
	"sys",
	"dev",
	"run",
	"tmp",
	"lost+found",
	"var/lib/docker",
	"var/lib/containers",
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	".cache",
}

// RuleSet is an immutable set of exclusion rules.
type RuleSet struct {
	names     map[string]struct{}
	fragments []string
}

// New builds a RuleSet from the built-in defaults plus extra.
func New(extra ...string) *RuleSet {
	return build(append(append([]string{}, Defaults...), extra...))
}

// NewWithoutDefaults builds a RuleSet containing only rules.
func NewWithoutDefaults(rules ...string) *RuleSet {
	return build(rules)
}

func build(rules []string) *RuleSet {
	rs := &RuleSet{names: make(map[string]struct{})}
	seen := make(map[string]bool)
	for _, rule := range rules {
		rule = strings.Trim(strings.TrimSpace(filepath.ToSlash(rule)), "/")
		if rule == "" || seen[rule] {
			continue
		}
		seen[rule] = true
		if strings.Contains(rule, "/") {
			rs.fragments = append(rs.fragments, filepath.FromSlash(rule))
			continue
		}
		rs.names[rule] = struct{}{}
	}
	sort.Strings(rs.fragments)
	return rs
}

// Excluded reports whether the directory at path, whose final segment is
// name, is excluded from a scan of root. The root itself never is. A
// fragment rule may start above root but must end below it, so scanning
// inside an excluded tree (root "/var/lib/docker", say) still lists it.
func (rs *RuleSet) Excluded(root, path, name string) bool {
	if rs == nil || path == root {
		return false
	}
	if _, ok := rs.names[name]; ok {
		return true
	}
	if len(rs.fragments) == 0 {
		return false
	}
	sep := string(filepath.Separator)
	padded := path + sep
	for _, fragment := range rs.fragments {
		if endsBelow(padded, sep+fragment+sep, len(root)) {
			return true
		}
	}
	return false
}

// endsBelow reports whether needle occurs in s with its final byte past
// offset.
func endsBelow(s, needle string, offset int) bool {
	for start := 0; start < len(s); {
		i := strings.Index(s[start:], needle)
		if i < 0 {
			return false
		}
		if start+i+len(needle)-1 > offset {
			return true
		}
		start += i + 1
	}
	return false
}

// Names returns the name rules in sorted order.
func (rs *RuleSet) Names() []string {
	if rs == nil {
		return nil
	}
	names := make([]string, 0, len(rs.names))
	for name := range rs.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fragments returns the fragment rules in sorted order.
func (rs *RuleSet) Fragments() []string {
	if rs == nil {
		return nil
	}
	return append([]string{}, rs.fragments...)
}

// Len returns the number of distinct rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.names) + len(rs.fragments)
}

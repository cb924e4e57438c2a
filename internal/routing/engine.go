package routing

import (
	"regexp"
	"strings"

	"docflow/internal/model"
)

// Target folders for routed documents.
const (
	FolderSecure = "secure/restricted/"
	FolderOthers = "others/"

	departmentFolderPrefix = "departments/"
)

var whitespace = regexp.MustCompile(`\s+`)

// Decision is the outcome of routing a classification: where the object
// belongs in the store and who may see it.
type Decision struct {
	Folder string
	Scope  string
}

// Route maps a classification label and privacy flag onto a storage folder
// and sharing scope. It is a pure function: identical inputs always yield the
// identical decision, which is what makes manual reclassification
// deterministic.
//
// Rules, in order:
//  1. PII content always lands in the secure folder and stays private.
//  2. An absent label lands in the catch-all folder and stays private.
//  3. Otherwise the folder is derived from the normalized label and the
//     scope from the first catalog department whose allowed types match.
//  4. No catalog match means the document is shared organization-wide.
func Route(label string, hasPII bool, catalog []model.Department) Decision {
	if hasPII {
		return Decision{Folder: FolderSecure, Scope: model.ScopePrivate}
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return Decision{Folder: FolderOthers, Scope: model.ScopePrivate}
	}

	clean := whitespace.ReplaceAllString(strings.ToLower(label), "_")
	folder := departmentFolderPrefix + clean + "/"

	if dept := matchDepartment(label, catalog); dept != "" {
		return Decision{Folder: folder, Scope: dept}
	}
	return Decision{Folder: folder, Scope: model.ScopePublic}
}

// matchDepartment scans the catalog for a department whose allowed document
// types match the label by case-insensitive substring, in either direction.
// When several departments match, the one matched through the longest allowed
// type wins; catalog order breaks remaining ties. The longest-match rule keeps
// the outcome independent of incidental catalog row order when one allowed
// type is a prefix of another.
func matchDepartment(label string, catalog []model.Department) string {
	lowerLabel := strings.ToLower(strings.TrimSpace(label))

	best := ""
	bestLen := -1
	for _, dept := range catalog {
		for _, allowed := range dept.AllowedDocumentTypes {
			la := strings.ToLower(strings.TrimSpace(allowed))
			if la == "" {
				continue
			}
			if !strings.Contains(lowerLabel, la) && !strings.Contains(la, lowerLabel) {
				continue
			}
			if len(la) > bestLen {
				best = dept.Name
				bestLen = len(la)
			}
		}
	}
	return best
}

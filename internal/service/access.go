package service

import "docflow/internal/model"

// Access control guard. Existence is always decided before authorization, so
// callers must resolve the document first; these predicates only answer the
// authorization question.

// canView reports whether the actor may read the document: owner, member of
// the shared department, anyone for organization-public, or an administrator.
func canView(doc *model.Document, actor *model.User) bool {
	if actor.IsAdmin() {
		return true
	}
	if doc.OwnerEmail != "" && doc.OwnerEmail == actor.Email {
		return true
	}
	if doc.SharedScope == model.ScopePublic {
		return true
	}
	return doc.SharedScope != model.ScopePrivate && doc.SharedScope == actor.Department
}

// canShare reports whether the actor may override the sharing scope.
func canShare(doc *model.Document, actor *model.User) bool {
	return actor.IsAdmin() || (doc.OwnerEmail != "" && doc.OwnerEmail == actor.Email)
}

// canReclassify reports whether the actor may force a new classification.
func canReclassify(_ *model.Document, actor *model.User) bool {
	return actor.IsAdmin()
}

// canDelete reports whether the actor may delete the document.
func canDelete(doc *model.Document, actor *model.User) bool {
	return actor.IsAdmin() || (doc.OwnerEmail != "" && doc.OwnerEmail == actor.Email)
}

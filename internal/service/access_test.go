package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docflow/internal/model"
)

func TestAccessPredicates(t *testing.T) {
	owner := &model.User{Email: "owner@corp.vn", Department: "SALES", Role: model.RoleUser}
	peer := &model.User{Email: "peer@corp.vn", Department: "SALES", Role: model.RoleUser}
	outsider := &model.User{Email: "hr@corp.vn", Department: "HR", Role: model.RoleUser}
	admin := &model.User{Email: "admin@corp.vn", Department: "IT", Role: model.RoleAdmin}

	doc := func(scope string) *model.Document {
		return &model.Document{OwnerEmail: "owner@corp.vn", SharedScope: scope}
	}

	t.Run("view", func(t *testing.T) {
		cases := []struct {
			name  string
			doc   *model.Document
			actor *model.User
			want  bool
		}{
			{"owner on private", doc(model.ScopePrivate), owner, true},
			{"peer on department scope", doc("SALES"), peer, true},
			{"peer on private", doc(model.ScopePrivate), peer, false},
			{"outsider on department scope", doc("SALES"), outsider, false},
			{"outsider on public", doc(model.ScopePublic), outsider, true},
			{"admin on private", doc(model.ScopePrivate), admin, true},
			{"ownerless document with empty actor email", &model.Document{SharedScope: model.ScopePrivate}, &model.User{Role: model.RoleUser}, false},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.want, canView(tc.doc, tc.actor))
			})
		}
	})

	t.Run("share and delete are owner or admin", func(t *testing.T) {
		d := doc("SALES")

		assert.True(t, canShare(d, owner))
		assert.True(t, canShare(d, admin))
		assert.False(t, canShare(d, peer))

		assert.True(t, canDelete(d, owner))
		assert.True(t, canDelete(d, admin))
		assert.False(t, canDelete(d, peer))
	})

	t.Run("reclassify is admin only", func(t *testing.T) {
		d := doc("SALES")

		assert.True(t, canReclassify(d, admin))
		assert.False(t, canReclassify(d, owner))
	})
}

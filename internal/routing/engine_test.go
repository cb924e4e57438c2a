package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docflow/internal/model"
)

func testCatalog() []model.Department {
	return []model.Department{
		{Name: "SALES", AllowedDocumentTypes: []string{"hoa_don", "bill", "bao_cao_thu_chi"}},
		{Name: "HR", AllowedDocumentTypes: []string{"ho_so_nhan_su", "cv", "tuyen_dung"}},
		{Name: "LEGAL", AllowedDocumentTypes: []string{"hop_dong", "contract", "agreement"}},
		{Name: "IT", AllowedDocumentTypes: []string{"tai_lieu", "code", "manual"}},
	}
}

func TestRoute(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name   string
		label  string
		hasPII bool
		want   Decision
	}{
		{
			name:   "pii overrides any label",
			label:  "hoa_don",
			hasPII: true,
			want:   Decision{Folder: "secure/restricted/", Scope: model.ScopePrivate},
		},
		{
			name:  "absent label goes to catch-all",
			label: "",
			want:  Decision{Folder: "others/", Scope: model.ScopePrivate},
		},
		{
			name:  "whitespace-only label treated as absent",
			label: "   ",
			want:  Decision{Folder: "others/", Scope: model.ScopePrivate},
		},
		{
			name:  "invoice label routes to sales",
			label: "hoa_don",
			want:  Decision{Folder: "departments/hoa_don/", Scope: "SALES"},
		},
		{
			name:  "label is normalized into the folder name",
			label: "Hop Dong Mua Ban",
			want:  Decision{Folder: "departments/hop_dong_mua_ban/", Scope: "LEGAL"},
		},
		{
			name:  "catalog entry substring of label",
			label: "quarterly bill summary",
			want:  Decision{Folder: "departments/quarterly_bill_summary/", Scope: "SALES"},
		},
		{
			name:  "label substring of catalog entry",
			label: "nhan_su",
			want:  Decision{Folder: "departments/nhan_su/", Scope: "HR"},
		},
		{
			name:  "unmatched label is organization public",
			label: "random_note",
			want:  Decision{Folder: "departments/random_note/", Scope: model.ScopePublic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.label, tt.hasPII, catalog)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoute_Deterministic(t *testing.T) {
	catalog := testCatalog()
	first := Route("hop_dong", false, catalog)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Route("hop_dong", false, catalog))
	}
}

func TestRoute_LongestMatchWins(t *testing.T) {
	// "cv" is a substring of "cv_tuyen_dung"; the department owning the more
	// specific allowed type must win regardless of catalog order.
	catalog := []model.Department{
		{Name: "HR", AllowedDocumentTypes: []string{"cv"}},
		{Name: "RECRUITING", AllowedDocumentTypes: []string{"cv_tuyen_dung"}},
	}
	got := Route("cv_tuyen_dung", false, catalog)
	assert.Equal(t, "RECRUITING", got.Scope)

	// Catalog order breaks exact-length ties.
	catalog = []model.Department{
		{Name: "A", AllowedDocumentTypes: []string{"report"}},
		{Name: "B", AllowedDocumentTypes: []string{"report"}},
	}
	got = Route("report", false, catalog)
	assert.Equal(t, "A", got.Scope)
}

func TestRoute_EmptyCatalog(t *testing.T) {
	got := Route("anything", false, nil)
	assert.Equal(t, Decision{Folder: "departments/anything/", Scope: model.ScopePublic}, got)
}

package pkg

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/Kevin-Kurka/webstarter/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type paginationRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func newTestContext(queryParams url.Values) *gin.Context {
	req := httptest.NewRequest(http.MethodGet, "/?"+queryParams.Encode(), nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c
}

// newDryRunDB opens an in-memory SQLite session in DryRun mode so scopes can
// be inspected through the generated SQL without touching data.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestParsePageRequest_Defaults(t *testing.T) {
	c := newTestContext(url.Values{})
	pr := ParsePageRequest(c)

	if pr.Page != 1 {
		t.Errorf("expected Page=1, got %d", pr.Page)
	}
	if pr.PageSize != 20 {
		t.Errorf("expected PageSize=20, got %d", pr.PageSize)
	}
	if pr.Sort != "id:desc" {
		t.Errorf("expected Sort=id:desc, got %s", pr.Sort)
	}
	if len(pr.Filter) != 0 {
		t.Errorf("expected empty Filter, got %v", pr.Filter)
	}
}

func TestParsePageRequest_CustomValues(t *testing.T) {
	c := newTestContext(url.Values{
		"page":       {"3"},
		"page_size":  {"50"},
		"sort":       {"name:asc"},
		"status":     {"active"},
		"name__like": {"john"},
	})
	pr := ParsePageRequest(c)

	if pr.Page != 3 {
		t.Errorf("expected Page=3, got %d", pr.Page)
	}
	if pr.PageSize != 50 {
		t.Errorf("expected PageSize=50, got %d", pr.PageSize)
	}
	if pr.Sort != "name:asc" {
		t.Errorf("expected Sort=name:asc, got %s", pr.Sort)
	}
	if pr.Filter["status"] != "active" {
		t.Errorf("expected Filter[status]=active, got %s", pr.Filter["status"])
	}
	if pr.Filter["name__like"] != "john" {
		t.Errorf("expected Filter[name__like]=john, got %s", pr.Filter["name__like"])
	}
}

func TestParsePageRequest_Clamping(t *testing.T) {
	t.Run("page below minimum", func(t *testing.T) {
		c := newTestContext(url.Values{"page": {"0"}})
		if pr := ParsePageRequest(c); pr.Page != 1 {
			t.Errorf("expected Page=1, got %d", pr.Page)
		}
	})

	t.Run("negative page", func(t *testing.T) {
		c := newTestContext(url.Values{"page": {"-5"}})
		if pr := ParsePageRequest(c); pr.Page != 1 {
			t.Errorf("expected Page=1, got %d", pr.Page)
		}
	})

	t.Run("page_size below minimum", func(t *testing.T) {
		c := newTestContext(url.Values{"page_size": {"0"}})
		if pr := ParsePageRequest(c); pr.PageSize != 20 {
			t.Errorf("expected PageSize=20, got %d", pr.PageSize)
		}
	})

	t.Run("page_size above maximum", func(t *testing.T) {
		c := newTestContext(url.Values{"page_size": {"200"}})
		if pr := ParsePageRequest(c); pr.PageSize != 100 {
			t.Errorf("expected PageSize=100, got %d", pr.PageSize)
		}
	})

	t.Run("invalid page_size defaults", func(t *testing.T) {
		c := newTestContext(url.Values{"page_size": {"abc"}})
		if pr := ParsePageRequest(c); pr.PageSize != 20 {
			t.Errorf("expected PageSize=20, got %d", pr.PageSize)
		}
	})
}

func TestParsePageRequest_EmptyFilterValuesIgnored(t *testing.T) {
	c := newTestContext(url.Values{
		"status": {""},
		"name":   {"john"},
	})
	pr := ParsePageRequest(c)

	if _, ok := pr.Filter["status"]; ok {
		t.Error("empty filter value should be ignored")
	}
	if pr.Filter["name"] != "john" {
		t.Errorf("expected Filter[name]=john, got %s", pr.Filter["name"])
	}
}

func TestPaginate_SQL(t *testing.T) {
	db := newDryRunDB(t)
	req := domain.PageRequest{Page: 3, PageSize: 10}

	var rows []paginationRow
	stmt := db.Model(&paginationRow{}).Scopes(Paginate(req)).Find(&rows).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "LIMIT") {
		t.Errorf("expected LIMIT in SQL, got %q", sql)
	}
	if !strings.Contains(sql, "OFFSET") {
		t.Errorf("expected OFFSET in SQL, got %q", sql)
	}
}

func TestSort_SQL(t *testing.T) {
	allowed := []string{"id", "name"}

	tests := []struct {
		name      string
		sort      string
		wantOrder string
	}{
		{"allowed field asc", "name:asc", "name asc"},
		{"allowed field desc", "id:desc", "id desc"},
		{"disallowed field ignored", "email:asc", ""},
		{"bad direction ignored", "name:sideways", ""},
		{"missing direction ignored", "name", ""},
		{"injection attempt ignored", "name; DROP TABLE users:asc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newDryRunDB(t)
			req := domain.PageRequest{Sort: tt.sort}

			var rows []paginationRow
			stmt := db.Model(&paginationRow{}).Scopes(Sort(req, allowed)).Find(&rows).Statement
			sql := stmt.SQL.String()

			if tt.wantOrder == "" {
				if strings.Contains(sql, "ORDER BY") {
					t.Errorf("expected no ORDER BY, got %q", sql)
				}
				return
			}
			if !strings.Contains(sql, tt.wantOrder) {
				t.Errorf("expected %q in SQL, got %q", tt.wantOrder, sql)
			}
		})
	}
}

func TestFilter_SQL(t *testing.T) {
	allowed := []string{"name", "email"}

	t.Run("exact match", func(t *testing.T) {
		db := newDryRunDB(t)
		req := domain.PageRequest{Filter: map[string]string{"name": "alice"}}

		var rows []paginationRow
		stmt := db.Model(&paginationRow{}).Scopes(Filter(req, allowed)).Find(&rows).Statement
		if sql := stmt.SQL.String(); !strings.Contains(sql, "name = ") {
			t.Errorf("expected name equality condition, got %q", sql)
		}
	})

	t.Run("like match", func(t *testing.T) {
		db := newDryRunDB(t)
		req := domain.PageRequest{Filter: map[string]string{"name__like": "ali"}}

		var rows []paginationRow
		stmt := db.Model(&paginationRow{}).Scopes(Filter(req, allowed)).Find(&rows).Statement
		if sql := stmt.SQL.String(); !strings.Contains(sql, "name LIKE ") {
			t.Errorf("expected LIKE condition, got %q", sql)
		}
	})

	t.Run("disallowed field ignored", func(t *testing.T) {
		db := newDryRunDB(t)
		req := domain.PageRequest{Filter: map[string]string{"password_hash": "x"}}

		var rows []paginationRow
		stmt := db.Model(&paginationRow{}).Scopes(Filter(req, allowed)).Find(&rows).Statement
		if sql := stmt.SQL.String(); strings.Contains(sql, "password_hash") {
			t.Errorf("disallowed filter leaked into SQL: %q", sql)
		}
	})

	t.Run("invalid field name ignored", func(t *testing.T) {
		db := newDryRunDB(t)
		req := domain.PageRequest{Filter: map[string]string{"name; --": "x"}}

		var rows []paginationRow
		stmt := db.Model(&paginationRow{}).Scopes(Filter(req, allowed)).Find(&rows).Statement
		if sql := stmt.SQL.String(); strings.Contains(sql, "--") {
			t.Errorf("invalid filter leaked into SQL: %q", sql)
		}
	})
}

func TestPageOf(t *testing.T) {
	req := domain.PageRequest{Page: 2, PageSize: 10}

	result := PageOf([]string{"a", "b"}, 25, req)
	if result.TotalPages != 3 {
		t.Errorf("TotalPages = %d; want 3", result.TotalPages)
	}
	if result.Total != 25 {
		t.Errorf("Total = %d; want 25", result.Total)
	}
	if result.Page != 2 || result.PageSize != 10 {
		t.Errorf("Page/PageSize = %d/%d; want 2/10", result.Page, result.PageSize)
	}

	t.Run("nil items become empty slice", func(t *testing.T) {
		result := PageOf[string](nil, 0, req)
		if result.Items == nil {
			t.Error("Items should be an empty slice, not nil")
		}
		if len(result.Items) != 0 {
			t.Errorf("Items length = %d; want 0", len(result.Items))
		}
	})

	t.Run("zero page size avoids division by zero", func(t *testing.T) {
		result := PageOf([]string{}, 10, domain.PageRequest{Page: 1})
		if result.TotalPages != 0 {
			t.Errorf("TotalPages = %d; want 0", result.TotalPages)
		}
	})
}

package authz

import (
	"errors"
	"testing"
	"time"

	"taskdesk/internal/domain"
)

func TestCheckEditWindow(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	createdAt := created.Format(time.RFC3339)

	cases := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{"immediately", 0, false},
		{"four minutes", 4 * time.Minute, false},
		{"five minutes exactly", 5 * time.Minute, false},
		{"just under six", 5*time.Minute + 59*time.Second, false},
		{"six minutes", 6 * time.Minute, true},
		{"an hour", time.Hour, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckEditWindow(created.Add(tc.elapsed), createdAt)
			var we WindowExpiredError
			if got := errors.As(err, &we); got != tc.expired {
				t.Fatalf("expired = %v, want %v (err %v)", got, tc.expired, err)
			}
		})
	}

	if err := CheckEditWindow(created, "not-a-timestamp"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSameDepartment(t *testing.T) {
	dept := "d1"
	other := "d2"
	a := domain.User{ID: "a", DepartmentID: &dept}
	b := domain.User{ID: "b", DepartmentID: &dept}
	c := domain.User{ID: "c", DepartmentID: &other}
	none := domain.User{ID: "n"}

	if !SameDepartment(a, b) {
		t.Fatal("same department not recognized")
	}
	if SameDepartment(a, c) {
		t.Fatal("different departments matched")
	}
	// two department-less users never match
	if SameDepartment(none, domain.User{ID: "m"}) {
		t.Fatal("nil departments matched")
	}
	if SameDepartment(a, none) {
		t.Fatal("nil matched non-nil")
	}
}

func TestVisibleScope(t *testing.T) {
	dept := "d1"
	admin := domain.User{ID: "adm", Role: domain.RoleSuperAdmin}
	head := domain.User{ID: "hd", Role: domain.RoleDeptHead, DepartmentID: &dept}
	emp := domain.User{ID: "emp", Role: domain.RoleEmployee, DepartmentID: &dept}

	if s := VisibleScope(admin); !s.All {
		t.Fatalf("admin scope = %+v", s)
	}
	if s := VisibleScope(head); s.All || s.CreatorID != "hd" || s.AssigneeID != "hd" {
		t.Fatalf("head scope = %+v", s)
	}
	if s := VisibleScope(emp); s.All || s.CreatorID != "" || s.AssigneeID != "emp" {
		t.Fatalf("employee scope = %+v", s)
	}
}

package models

import "testing"

func strPtr(s string) *string { return &s }

func TestRoleValid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAdmin.Valid() {
		t.Fatal("expected built-in roles to be valid")
	}
	if Role("root").Valid() {
		t.Fatal("expected unknown role to be invalid")
	}
}

func TestFullName(t *testing.T) {
	cases := []struct {
		name string
		user User
		want string
	}{
		{"both", User{FirstName: strPtr("Ada"), LastName: strPtr("Lovelace")}, "Ada Lovelace"},
		{"first only", User{FirstName: strPtr("Ada"), Email: "ada@example.com"}, "Ada"},
		{"last only", User{LastName: strPtr("Lovelace")}, "Lovelace"},
		{"fallback", User{Email: "ada@example.com"}, "ada@example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.FullName(); got != tc.want {
				t.Fatalf("FullName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if (&User{Role: RoleUser}).IsAdmin() {
		t.Fatal("user role must not be admin")
	}
	if !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Fatal("admin role must be admin")
	}
}

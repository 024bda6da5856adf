package validate

import "testing"

func TestEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"user@test.com", true},
		{"first.last+tag@sub.example.co", true},
		{"a_b%c-d@host-name.io", true},
		{"a@b", false},
		{"foo", false},
		{"", false},
		{"user@test.c", false},
		{"user@test.c0m", false},
		{"us er@test.com", false},
		{"@test.com", false},
	}
	for _, tc := range cases {
		if got := Email(tc.in); got != tc.want {
			t.Fatalf("Email(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestUsername(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"bob", true},
		{"trader_01", true},
		{"ab", false},
		{"", false},
		{"bad-name", false},
		{"with space", false},
	}
	for _, tc := range cases {
		if got := Username(tc.in); got != tc.want {
			t.Fatalf("Username(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPassword(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"abc12345", true},
		{"1234567A", true},
		{"ABCDEFG1", true},
		{"abcdefgh", false},
		{"12345678", false},
		{"short1", false},
		{"secret1", false},
		{"abc1234!", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Password(tc.in); got != tc.want {
			t.Fatalf("Password(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPasswordsMatch(t *testing.T) {
	if !PasswordsMatch("abc12345", "abc12345") {
		t.Fatal("identical passwords should match")
	}
	if PasswordsMatch("abc12345", "abc12346") {
		t.Fatal("different passwords should not match")
	}
}

package credentials

import (
	"regexp"
	"strings"
	"testing"
)

var handlePattern = regexp.MustCompile(`^[a-z]+-[a-z]+-\d{2}$`)

func TestGenerateStudentHandle(t *testing.T) {
	for i := 0; i < 100; i++ {
		handle, err := GenerateStudentHandle()
		if err != nil {
			t.Fatalf("GenerateStudentHandle() error = %v", err)
		}
		if !handlePattern.MatchString(handle) {
			t.Errorf("handle %q does not match adjective-noun-digits", handle)
		}
	}
}

func TestGenerateStudentPassword(t *testing.T) {
	tests := []struct {
		name        string
		iterations  int
		checkUnique bool
	}{
		{name: "generates password of correct length", iterations: 100},
		{name: "generates unique passwords", iterations: 10, checkUnique: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passwords := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				password, err := GenerateStudentPassword()
				if err != nil {
					t.Fatalf("GenerateStudentPassword() error = %v", err)
				}

				if len(password) != PasswordLength {
					t.Errorf("password length %d, want %d", len(password), PasswordLength)
				}
				for _, c := range password {
					if !strings.ContainsRune(passwordAlphabet, c) {
						t.Errorf("password %q contains %q outside the alphabet", password, c)
					}
				}

				if tt.checkUnique {
					if passwords[password] {
						t.Errorf("duplicate password generated: %s", password)
					}
					passwords[password] = true
				}
			}
		})
	}
}

package security

import (
	"testing"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, session, err := issuer.Issue(42, models.RoleStudent, "Minji")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if session.SubjectID != 42 || session.Role != models.RoleStudent {
		t.Errorf("Issue() session = %+v", session)
	}

	parsed, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.SubjectID != 42 || parsed.Role != models.RoleStudent || parsed.Name != "Minji" {
		t.Errorf("Parse() = %+v", parsed)
	}
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(1, models.RoleAdmin, "Admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, _, err := expired.Issue(1, models.RoleAdmin, "Admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name   string
		issuer *TokenIssuer
		token  string
	}{
		{name: "wrong secret", issuer: NewTokenIssuer("other", time.Hour), token: token},
		{name: "garbage", issuer: issuer, token: "not.a.token"},
		{name: "empty", issuer: issuer, token: ""},
		{name: "expired", issuer: issuer, token: oldToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.issuer.Parse(tt.token); err != ErrInvalidToken {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

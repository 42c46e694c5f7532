package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/thejerf/abtime"
)

const testSecret = "test-secret-with-enough-entropy-0123456789"

var epoch = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestTokenManager(ttl time.Duration) (*TokenManager, *abtime.ManualTime) {
	clock := abtime.NewManualAtTime(epoch)
	return NewTokenManager(testSecret, ttl, clock), clock
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, _ := newTestTokenManager(10 * time.Hour)

	token, issued, err := tm.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not three dot-separated segments", token)
	}
	if !issued.IssuedAt.Equal(epoch) || !issued.ExpiresAt.Equal(epoch.Add(10*time.Hour)) {
		t.Fatalf("issued window = %v..%v", issued.IssuedAt, issued.ExpiresAt)
	}

	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Subject != issued.Subject ||
		!parsed.IssuedAt.Equal(issued.IssuedAt) ||
		!parsed.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Fatalf("Parse(Issue(x)) = %+v, want %+v", parsed, issued)
	}
}

func TestTokenManager_RoundTripTruncatesSubSecondClock(t *testing.T) {
	clock := abtime.NewManualAtTime(epoch.Add(750 * time.Millisecond))
	tm := NewTokenManager(testSecret, time.Hour, clock)

	token, issued, err := tm.Issue("bob")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !parsed.IssuedAt.Equal(issued.IssuedAt) || !parsed.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Fatalf("round trip drifted: %+v vs %+v", parsed, issued)
	}
}

func TestTokenManager_AnySignatureByteAlteredIsInvalid(t *testing.T) {
	tm, _ := newTestTokenManager(time.Hour)
	token, _, err := tm.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	sigStart := strings.LastIndex(token, ".") + 1
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := sigStart; i < len(token); i++ {
		for _, replacement := range []byte{alphabet[(strings.IndexByte(alphabet, token[i])+1)%64], '!', '='} {
			tampered := token[:i] + string(replacement) + token[i+1:]
			if _, err := tm.Parse(tampered); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("signature byte %d -> %q accepted (err=%v)", i-sigStart, replacement, err)
			}
		}
	}
}

func TestTokenManager_TamperedPayloadIsInvalid(t *testing.T) {
	tm, _ := newTestTokenManager(time.Hour)
	token, _, _ := tm.Issue("alice")
	parts := strings.Split(token, ".")

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"mallory","iat":1773480413,"exp":4102444800}`))
	if _, err := tm.Parse(parts[0] + "." + forged + "." + parts[2]); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("forged payload accepted: %v", err)
	}
}

func TestTokenManager_Expiry(t *testing.T) {
	tm, clock := newTestTokenManager(time.Hour)
	token, _, _ := tm.Issue("alice")

	clock.Advance(time.Hour - time.Second)
	if _, err := tm.Parse(token); err != nil {
		t.Fatalf("token rejected one second before expiry: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token accepted at exp: %v", err)
	}

	clock.Advance(24 * time.Hour)
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token accepted after exp: %v", err)
	}
}

func TestTokenManager_PastExpIsInvalidEvenWhenCorrectlySigned(t *testing.T) {
	tm, _ := newTestTokenManager(time.Hour)
	token := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), pastClaims("alice"))
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	tm, _ := newTestTokenManager(time.Hour)
	valid := jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(epoch),
		ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
	}

	cases := map[string]string{
		"other secret": signRaw(t, jwt.SigningMethodHS256, []byte("another-secret"), valid),
		"HS512":        signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), valid),
		"alg none":     signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
		"no exp": signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject: "alice", IssuedAt: jwt.NewNumericDate(epoch),
		}),
		"no subject": signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(epoch), ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		}),
		"no iat": signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
			Subject: "alice", ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("accepted: %v", err)
			}
		})
	}
}

func TestTokenManager_MalformedIsInvalid(t *testing.T) {
	tm, _ := newTestTokenManager(time.Hour)
	for _, token := range []string{"", "abc", "a.b", "a.b.c", "a.b.c.d", "...", "eyJhbGciOiJIUzI1NiJ9.%%%.sig"} {
		if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestTokenManager_SecretRotationInvalidatesTokens(t *testing.T) {
	clock := abtime.NewManualAtTime(epoch)
	old := NewTokenManager("old-secret", time.Hour, clock)
	rotated := NewTokenManager("new-secret", time.Hour, clock)

	token, _, _ := old.Issue("alice")
	if _, err := rotated.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token survived key rotation: %v", err)
	}
}

func TestNewTokenManager_DefaultsTTL(t *testing.T) {
	tm := NewTokenManager(testSecret, 0, nil)
	if tm.TTL() != DefaultTokenTTL {
		t.Fatalf("TTL = %v, want %v", tm.TTL(), DefaultTokenTTL)
	}
}

func TestTokenManager_ConcurrentUse(t *testing.T) {
	tm, _ := newTestTokenManager(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, _, err := tm.Issue("alice")
			if err != nil {
				t.Errorf("Issue: %v", err)
				return
			}
			if _, err := tm.Parse(token); err != nil {
				t.Errorf("Parse: %v", err)
			}
		}()
	}
	wg.Wait()
}

func pastClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(epoch.Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(epoch.Add(-time.Hour)),
	}
}

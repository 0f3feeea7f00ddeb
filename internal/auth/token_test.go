package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-service/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t, fixedClock(t0.Add(time.Minute)))
	claims := sampleClaims(t0)

	token, err := codec.Encode(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, claims, *decoded)
}

func TestTokenCodecDeterministic(t *testing.T) {
	codec := newTestCodec(t, fixedClock(t0))
	a, err := codec.Encode(sampleClaims(t0))
	require.NoError(t, err)
	b, err := codec.Encode(sampleClaims(t0))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestTokenCodecExpired(t *testing.T) {
	token, err := newTestCodec(t, fixedClock(t0)).Encode(sampleClaims(t0))
	require.NoError(t, err)

	t.Run("after expiry", func(t *testing.T) {
		_, err := newTestCodec(t, fixedClock(t0.Add(2*time.Hour))).Decode(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("exactly at expiry", func(t *testing.T) {
		_, err := newTestCodec(t, fixedClock(t0.Add(time.Hour))).Decode(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("just before expiry", func(t *testing.T) {
		_, err := newTestCodec(t, fixedClock(t0.Add(time.Hour-time.Second))).Decode(token)
		require.NoError(t, err)
	})
}

func TestTokenCodecTamperedPayload(t *testing.T) {
	codec := newTestCodec(t, fixedClock(t0))
	token, err := codec.Encode(sampleClaims(t0))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	for i := range payload {
		mutated := append([]byte(nil), payload...)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		tampered := parts[0] + "." + string(mutated) + "." + parts[2]
		_, err := codec.Decode(tampered)
		require.ErrorIs(t, err, ErrBadSignature, "byte %d", i)
	}
}

func TestTokenCodecRejects(t *testing.T) {
	codec := newTestCodec(t, fixedClock(t0))
	valid, err := codec.Encode(sampleClaims(t0))
	require.NoError(t, err)

	other, err := NewTokenCodec(Settings{Secret: []byte("other"), Now: fixedClock(t0)})
	require.NoError(t, err)
	foreign, err := other.Encode(sampleClaims(t0))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x"}).SignedString(testSecret)
	require.NoError(t, err)

	noActive, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"customerId": "cust-1",
		"operatorId": "op-1",
		"role":       "admin",
		"iat":        t0.Unix(),
		"exp":        t0.Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"customerId": "cust-1",
		"operatorId": "op-1",
		"role":       "root",
		"isActive":   true,
		"iat":        t0.Unix(),
		"exp":        t0.Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMalformed},
		{"one segment", "abc", ErrMalformed},
		{"two segments", "abc.def", ErrMalformed},
		{"bad signature encoding", valid + "!!", ErrMalformed},
		{"foreign secret", foreign, ErrBadSignature},
		{"alg none", none, ErrBadSignature},
		{"other hmac algorithm", hs512, ErrBadSignature},
		{"missing active flag", noActive, ErrMalformed},
		{"unknown role", badRole, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := codec.Decode(tc.token)
			require.Nil(t, claims)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTokenCodecEncodeValidates(t *testing.T) {
	codec := newTestCodec(t, fixedClock(t0))

	noTenant := sampleClaims(t0)
	noTenant.CustomerID = ""
	_, err := codec.Encode(noTenant)
	require.Error(t, err)

	badRole := sampleClaims(t0)
	badRole.Role = domain.Role("owner")
	_, err = codec.Encode(badRole)
	require.Error(t, err)

	backwards := sampleClaims(t0)
	backwards.ExpiresAt = t0
	_, err = codec.Encode(backwards)
	require.Error(t, err)
}

func TestTokenCodecRejectsSubSecondTimestamps(t *testing.T) {
	codec := newTestCodec(t, fixedClock(t0))

	claims := sampleClaims(t0.Add(250 * time.Millisecond))
	_, err := codec.Encode(claims)
	require.Error(t, err)

	short := sampleClaims(t0.Add(100 * time.Millisecond))
	short.ExpiresAt = t0.Add(600 * time.Millisecond)
	_, err = codec.Encode(short)
	require.Error(t, err)

	whole := sampleClaims(t0.Add(time.Second))
	token, err := codec.Encode(whole)
	require.NoError(t, err)
	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, whole, *decoded)
}

func TestTokenCodecExpiredWithForeignSignature(t *testing.T) {
	foreign, err := NewTokenCodec(Settings{Secret: []byte("someone-else")})
	require.NoError(t, err)
	token, err := foreign.Encode(sampleClaims(t0))
	require.NoError(t, err)

	_, err = newTestCodec(t, fixedClock(t0.Add(2*time.Hour))).Decode(token)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	_, err := NewTokenCodec(Settings{})
	require.Error(t, err)
}

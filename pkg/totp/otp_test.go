package totp_test

import (
	"encoding/base32"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	otptotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securekey/authcore/pkg/totp"
)

// RFC 6238 appendix B seed, base32 encoded.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestComputeCode_RFCVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tt := range tests {
		got, err := totp.GenerateTOTPWithTime(rfcSecret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "unix=%d", tt.unix)
	}
}

func TestComputeCode_MatchesReferenceImplementation(t *testing.T) {
	t.Parallel()

	engine := totp.NewEngine()
	secret, err := engine.GenerateSecret("user@example.com")
	require.NoError(t, err)

	for _, ts := range []int64{0, 30, 1700000000, 1700000029, 1700000030} {
		at := time.Unix(ts, 0)
		want, err := otptotp.GenerateCodeCustom(secret.Base32, at, otptotp.ValidateOpts{
			Period:    totp.Period,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)

		got, err := totp.ComputeCode(secret.Base32, totp.CounterAt(at))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestComputeCode_InvalidSecret(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not-base32!", "0189"} {
		_, err := totp.ComputeCode(s, 1)
		assert.ErrorIs(t, err, totp.ErrInvalidSecret, "secret=%q", s)
	}
}

func TestEngine_GenerateSecret(t *testing.T) {
	t.Parallel()

	engine := totp.NewEngine()
	secret, err := engine.GenerateSecret("user@example.com")
	require.NoError(t, err)

	assert.Len(t, secret.Bytes, totp.SecretLength)
	assert.Len(t, secret.Base32, 32)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, secret.Base32)

	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret.Base32)
	require.NoError(t, err)
	assert.Equal(t, secret.Bytes, decoded)

	u, err := url.Parse(secret.URI)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/SecureKey:user@example.com", u.Path)
	assert.Equal(t, secret.Base32, u.Query().Get("secret"))
	assert.Equal(t, "SecureKey", u.Query().Get("issuer"))

	other, err := engine.GenerateSecret("user@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, secret.Base32, other.Base32)
}

func TestEngine_GenerateSecret_ParsesWithReferenceKey(t *testing.T) {
	t.Parallel()

	secret, err := totp.NewEngine(totp.WithIssuer("Acme Corp")).GenerateSecret("jane@example.com")
	require.NoError(t, err)

	key, err := otp.NewKeyFromURL(secret.URI)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", key.Issuer())
	assert.Equal(t, "jane@example.com", key.AccountName())
	assert.Equal(t, secret.Base32, key.Secret())
}

func TestEngine_Verify(t *testing.T) {
	t.Parallel()

	base := time.Unix(1700000015, 0)
	code, err := totp.GenerateTOTPWithTime(rfcSecret, base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same step", 0, true},
		{"twenty seconds later", 20 * time.Second, true},
		{"previous step still accepted", -30 * time.Second, true},
		{"next step still accepted", 30 * time.Second, true},
		{"ninety five seconds later", 95 * time.Second, false},
		{"two steps earlier", -60 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine := totp.NewEngine(totp.WithClock(fixedClock(base.Add(tt.offset))))
			ok, err := engine.Verify(code, rfcSecret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestEngine_Verify_MalformedInput(t *testing.T) {
	t.Parallel()

	engine := totp.NewEngine(totp.WithClock(fixedClock(time.Unix(59, 0))))

	ok, err := engine.Verify("", rfcSecret)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.Verify("28708", rfcSecret)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.Verify("287082", "!!!")
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
	assert.False(t, ok)

	// lowercase secrets are normalized
	ok, err = engine.Verify("287082", strings.ToLower(rfcSecret))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetTOTPURI_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  totp.TOTPParams
		wantErr error
	}{
		{"missing secret", totp.TOTPParams{AccountName: "a", Issuer: "b"}, totp.ErrMissingSecret},
		{"invalid secret", totp.TOTPParams{Secret: "abc", AccountName: "a", Issuer: "b"}, totp.ErrInvalidSecret},
		{"missing account", totp.TOTPParams{Secret: rfcSecret, Issuer: "b"}, totp.ErrMissingAccountName},
		{"missing issuer", totp.TOTPParams{Secret: rfcSecret, AccountName: "a"}, totp.ErrMissingIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := totp.GetTOTPURI(tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Custom", totp.NewFromConfig(totp.Config{Issuer: "Custom"}).Issuer())
	assert.Equal(t, totp.DefaultIssuer, totp.NewFromConfig(totp.Config{}).Issuer())
}

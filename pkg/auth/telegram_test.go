package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "5768337691:AAH5YkoiEuPk8-FZa32hStHTqXiLPtAEhx8"

// signInitData builds init data the way Telegram signs it for mini apps.
func signInitData(t *testing.T, token string, authDate time.Time) string {
	t.Helper()

	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", `{"id":5060715466,"first_name":"Bob","username":"ops_bob"}`)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func newAuthRouter(a *TelegramAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", a.TelegramAuthMiddleware(), func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
	})
	return r
}

func TestTelegramAuthMiddleware(t *testing.T) {
	valid := signInitData(t, testBotToken, time.Now())

	tests := []struct {
		name       string
		header     string
		query      string
		debug      bool
		wantStatus int
	}{
		{name: "Missing header", wantStatus: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Bearer abc", wantStatus: http.StatusUnauthorized},
		{name: "Valid signature", header: "Telegram " + valid, wantStatus: http.StatusOK},
		{name: "Valid signature in query", query: valid, wantStatus: http.StatusOK},
		{
			name:       "Signed with another token",
			header:     "Telegram " + signInitData(t, "1:other", time.Now()),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Expired",
			header:     "Telegram " + signInitData(t, testBotToken, time.Now().Add(-48*time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Debug mode skips validation",
			header:     "Telegram " + signInitData(t, "1:other", time.Now()),
			debug:      true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Debug mode still needs a user",
			header:     "Telegram auth_date=1",
			debug:      true,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthRouter(NewTelegramAuth(testBotToken, tt.debug))

			target := "/me"
			if tt.query != "" {
				target += "?init_data=" + url.QueryEscape(tt.query)
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"id":5060715466`)
			}
		})
	}
}

func TestExtractTelegramData(t *testing.T) {
	authDate := time.Unix(1677649900, 0)
	data, err := ExtractTelegramData(signInitData(t, testBotToken, authDate))
	require.NoError(t, err)

	assert.Equal(t, int64(5060715466), data.ID)
	assert.Equal(t, "ops_bob", data.Username)
	assert.True(t, data.AuthDate.Equal(authDate))

	_, err = ExtractTelegramData("auth_date=abc")
	assert.Error(t, err)
}

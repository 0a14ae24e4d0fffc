package cache

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"

	"github.com/taskwire/taskwire/logger"
)

const cookieName = "taskwire"

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	os.Setenv("TW_LOG_FOLDER", t.TempDir())
	logger.InitLogger(logging.DEBUG)

	mr := miniredis.RunT(t)
	assert.NoError(t, InitRedis(mr.Addr(), ""))
	t.Cleanup(func() {
		Close()
	})
	return mr
}

func TestInitRedisUnreachable(t *testing.T) {
	err := InitRedis("127.0.0.1:1", "")
	assert.Error(t, err)
	assert.Nil(t, GetClient())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	setupRedis(t)
	store := NewRedisStore(GetClient(), []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, cookieName)
	assert.NoError(t, err)
	assert.True(t, session.IsNew)

	session.Values["username"] = "alice"
	w := httptest.NewRecorder()
	assert.NoError(t, store.Save(req, w, session))

	cookies := w.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)

	// A second request carrying the cookie loads the stored values.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	session2, err := store.New(req2, cookieName)
	assert.NoError(t, err)
	assert.False(t, session2.IsNew)
	assert.Equal(t, "alice", session2.Values["username"])
}

func TestRedisStoreTamperedCookieStartsFresh(t *testing.T) {
	setupRedis(t)
	store := NewRedisStore(GetClient(), []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "garbage"})

	session, err := store.New(req, cookieName)
	assert.NoError(t, err)
	assert.True(t, session.IsNew)
}

func TestRedisStoreDelete(t *testing.T) {
	mr := setupRedis(t)
	store := NewRedisStore(GetClient(), []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, cookieName)
	assert.NoError(t, err)
	session.Values["username"] = "alice"
	w := httptest.NewRecorder()
	assert.NoError(t, store.Save(req, w, session))
	assert.NotEmpty(t, mr.Keys())

	// A negative max age deletes the backend entry and expires the cookie.
	session.Options.MaxAge = -1
	w = httptest.NewRecorder()
	assert.NoError(t, store.Save(req, w, session))
	assert.Empty(t, mr.Keys())

	cookies := w.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

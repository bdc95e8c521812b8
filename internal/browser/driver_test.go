package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//integration tests: need a local chromium (and the playwright driver for playwright)
func launchOrSkip(t *testing.T, launch LauncherFunc) Session {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser integration test in short mode")
	}
	opts := Options{
		Headless:     true,
		DisableGPU:   true,
		NoSandbox:    true,
		WindowWidth:  1280,
		WindowHeight: 800,
		UserAgent:    "integration-test",
		NavTimeout:   15 * time.Second,
	}
	s, err := launch(context.Background(), opts)
	if err != nil {
		t.Skipf("browser not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func exerciseDriver(t *testing.T, s Session) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//listings are rendered by script to prove the wait sees dynamic content
		w.Write([]byte(`<html><body><div id="root"></div><script>
setTimeout(function () {
  document.getElementById('root').innerHTML =
    '<div class="opening"><a class="job-link" href="/jobs/7">SRE</a><span class="location">Paris</span></div>' +
    '<div class="opening"><h4 class="job-title">Designer</h4></div>';
}, 200);
</script></body></html>`))
	}))
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL))
	require.NoError(t, s.WaitFor(ctx, "div.opening", 5*time.Second))

	openings, err := s.QueryAll(ctx, "div.opening")
	require.NoError(t, err)
	require.Len(t, openings, 2)

	title, err := openings[0].Find(ctx, "a.job-link, h4.job-title")
	require.NoError(t, err)
	text, err := title.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SRE", text)
	href, ok, err := title.Attr(ctx, "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/jobs/7", href)

	_, err = openings[1].Find(ctx, "span.location, div.location")
	assert.ErrorIs(t, err, ErrElementNotFound)

	err = s.WaitFor(ctx, "div.never-rendered", 300*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimeout)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Navigate(ctx, srv.URL), ErrSessionClosed)
}

func TestPlaywright_Integration(t *testing.T) {
	exerciseDriver(t, launchOrSkip(t, NewPlaywright))
}

func TestChromedp_Integration(t *testing.T) {
	exerciseDriver(t, launchOrSkip(t, NewChromedp))
}

func exerciseCancel(t *testing.T, launch LauncherFunc) {
	s := launchOrSkip(t, launch)

	hang := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-hang:
			case <-r.Context().Done():
			}
			return
		}
		w.Write([]byte(`<html><body><p>no listings yet</p></body></html>`))
	}))
	defer srv.Close()
	defer close(hang)

	//cancelled while the listings never show up
	require.NoError(t, s.Navigate(context.Background(), srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)
	start := time.Now()
	err := s.WaitFor(ctx, "div.opening", 20*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)

	//cancelled while the page is still loading
	s = launchOrSkip(t, launch)
	ctx, cancel = context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)
	start = time.Now()
	err = s.Navigate(ctx, srv.URL+"/slow")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPlaywright_CancelStopsBlockingCalls(t *testing.T) {
	exerciseCancel(t, NewPlaywright)
}

func TestChromedp_CancelStopsBlockingCalls(t *testing.T) {
	exerciseCancel(t, NewChromedp)
}

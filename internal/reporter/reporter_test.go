package reporter

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/config"
	"go-greenhouse-scraper/internal/scraper"
)

func sampleReport() Report {
	listings := []scraper.Listing{
		{Index: 0, Title: "Backend Engineer", URL: "https://boards.greenhouse.io/acme/jobs/1", Location: "Paris"},
		{Index: 2, Title: "R&D <Lead>", URL: "https://boards.greenhouse.io/acme/jobs/3?a=1&b=2", Location: "Location not found"},
	}
	return Report{
		Result: scraper.Result{
			Source:     "Greenhouse",
			URL:        "https://boards.greenhouse.io/acme",
			Selector:   "div.opening",
			Containers: 3,
			Outcomes: []scraper.Outcome{
				{Index: 0, Listing: listings[0]},
				{Index: 1, Err: scraper.ErrTitleNotFound},
				{Index: 2, Listing: listings[1]},
			},
		},
		Listings: listings,
	}
}

func TestTextReporter_Listings(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewTextReporter(&out).Report(context.Background(), sampleReport()))

	want := "Found 3 job listings.\n" +
		"Title: Backend Engineer\n" +
		"Link: https://boards.greenhouse.io/acme/jobs/1\n" +
		"Location: Paris\n" +
		"------------------------------\n" +
		"Title: R&D <Lead>\n" +
		"Link: https://boards.greenhouse.io/acme/jobs/3?a=1&b=2\n" +
		"Location: Location not found\n" +
		"------------------------------\n" +
		"Printed 2 of 3 listings (1 skipped, 0 filtered out).\n"
	assert.Equal(t, want, out.String())
}

func TestTextReporter_NoSummaryWhenEverythingPrinted(t *testing.T) {
	report := sampleReport()
	report.Result.Containers = 2
	report.Result.Outcomes = []scraper.Outcome{{Listing: report.Listings[0]}, {Listing: report.Listings[1]}}

	var out bytes.Buffer
	require.NoError(t, NewTextReporter(&out).Report(context.Background(), report))
	assert.NotContains(t, out.String(), "Printed")
	assert.Contains(t, out.String(), "Found 2 job listings.\n")
}

func TestTextReporter_NoListings(t *testing.T) {
	var out bytes.Buffer
	report := Report{Result: scraper.Result{Selector: "div.opening"}}
	require.NoError(t, NewTextReporter(&out).Report(context.Background(), report))

	assert.Equal(t,
		"No job listings found with selector 'div.opening'.\n"+
			"Try inspecting the page HTML to find the right selector.\n",
		out.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestTextReporter_WriteError(t *testing.T) {
	err := NewTextReporter(failingWriter{}).Report(context.Background(), sampleReport())
	assert.ErrorContains(t, err, "broken pipe")
}

type fakeBot struct {
	sent    []tgbotapi.MessageConfig
	failOn  int
	sendErr error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, msg)
	if f.sendErr != nil && len(f.sent) == f.failOn {
		return tgbotapi.Message{}, f.sendErr
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramReporter_Report(t *testing.T) {
	bot := &fakeBot{}
	r := newTelegramReporter(bot, 42, zap.NewNop())
	require.NoError(t, r.Report(context.Background(), sampleReport()))

	require.Len(t, bot.sent, 3)
	for _, msg := range bot.sent {
		assert.Equal(t, int64(42), msg.ChatID)
		assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	}
	assert.Equal(t,
		"ℹ️ <b>Greenhouse</b>: 2 listings on https://boards.greenhouse.io/acme (1 skipped, 0 filtered out)",
		bot.sent[0].Text)
	assert.Contains(t, bot.sent[2].Text, "🔥 <b>R&amp;D &lt;Lead&gt;</b>")
	assert.Contains(t, bot.sent[2].Text, `href="https://boards.greenhouse.io/acme/jobs/3?a=1&amp;b=2"`)
}

func TestTelegramReporter_FailedListingDoesNotStopOthers(t *testing.T) {
	bot := &fakeBot{failOn: 2, sendErr: errors.New("429 too many requests")}
	r := newTelegramReporter(bot, 42, zap.NewNop())

	err := r.Report(context.Background(), sampleReport())
	assert.ErrorContains(t, err, "failed to send 1 of 2 listings")
	assert.Len(t, bot.sent, 3)
}

func TestTelegramReporter_StatusFailure(t *testing.T) {
	bot := &fakeBot{failOn: 1, sendErr: errors.New("unauthorized")}
	r := newTelegramReporter(bot, 42, zap.NewNop())

	err := r.Report(context.Background(), sampleReport())
	assert.ErrorContains(t, err, "unauthorized")
	assert.Len(t, bot.sent, 1)
}

func TestTelegramReporter_ReportError(t *testing.T) {
	bot := &fakeBot{}
	r := newTelegramReporter(bot, 7, zap.NewNop())
	var _ ErrorReporter = r

	require.NoError(t, r.ReportError(context.Background(), errors.New(`wait for "div.opening" <timeout>`)))
	require.Len(t, bot.sent, 1)
	assert.Equal(t,
		"⚠️ <b>Greenhouse scraper error</b>:\nwait for &#34;div.opening&#34; &lt;timeout&gt;",
		bot.sent[0].Text)
}

func TestFormatListing(t *testing.T) {
	got := FormatListing("Greenhouse", scraper.Listing{Title: "Designer", Location: "Berlin"})
	assert.Equal(t, "🔥 <b>Designer</b>\n📍 Berlin\n🔖 Source: Greenhouse", got)
}

func TestFormatStatus_NoListings(t *testing.T) {
	got := FormatStatus(Report{Result: scraper.Result{URL: "https://boards.greenhouse.io/acme"}})
	assert.Equal(t, "ℹ️ No job listings found on https://boards.greenhouse.io/acme", got)
}

func botAPIServer(t *testing.T, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	old := botAPIEndpoint
	botAPIEndpoint = srv.URL + "/bot%s/%s"
	t.Cleanup(func() { botAPIEndpoint = old })
}

func TestNewTelegramReporter(t *testing.T) {
	botAPIServer(t, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"scraper","username":"scraper_bot"}}`)

	cfg := config.Default()
	cfg.TelegramToken = "123:abc"
	cfg.TelegramChatID = 99

	r, err := NewTelegramReporter(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(99), r.chatID)
}

func TestNewTelegramReporter_InvalidToken(t *testing.T) {
	botAPIServer(t, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)

	cfg := config.Default()
	cfg.TelegramToken = "not-a-token"
	cfg.TelegramChatID = 99

	_, err := NewTelegramReporter(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "failed to init telegram bot")
	assert.ErrorContains(t, err, "Unauthorized")
}

package engine

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isida-tgbot-go/internal/models"
	"github.com/isida-tgbot-go/internal/services/games"
	"github.com/isida-tgbot-go/internal/services/mood"
	"github.com/isida-tgbot-go/internal/services/phrases"
	"github.com/isida-tgbot-go/internal/services/responder"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestEngine(t *testing.T, opts Options) (*Engine, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	if opts.Now == nil {
		opts.Now = c.now
	}
	if opts.Content == nil {
		content := games.DefaultContent()
		content.Openers = []string{"москва"}
		opts.Content = &content
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, c
}

func msg(uid int64, text string) models.Inbound {
	return models.Inbound{UserID: uid, Name: "Тест", Text: text}
}

func TestTeachThenAsk(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	reply := e.HandleText(msg(1, "учись изида -> привет"))
	if reply.Teach == nil || reply.Teach.Status != phrases.TeachLearned {
		t.Fatalf("teach: %+v", reply)
	}
	if reply.Teach.Question != "изида" || reply.Teach.Answer != "привет" {
		t.Errorf("echo: %+v", reply.Teach)
	}

	reply = e.HandleText(msg(2, "Изида"))
	if reply.Stage != responder.StageLearned || !strings.Contains(reply.Text, "привет") {
		t.Errorf("ask: %+v", reply)
	}
}

func TestTeachFailuresDoNotMutate(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	tests := []struct {
		text   string
		status phrases.TeachStatus
	}{
		{"учись а -> б", phrases.TeachTooShort},
		{"учись " + strings.Repeat("в", 101) + " -> ответ", phrases.TeachTooLong},
		{"учись без стрелки", phrases.TeachFormatError},
	}
	for _, tt := range tests {
		reply := e.HandleText(msg(1, tt.text))
		if reply.Teach == nil || reply.Teach.Status != tt.status {
			t.Errorf("%q: %+v", tt.text, reply.Teach)
		}
	}
	if got := e.Stats().LearnedAnswers; got != 0 {
		t.Errorf("learned: got %d, want 0", got)
	}
}

func TestCounting(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	e.HandleCommand(msg(1, "/start"), "start")
	e.HandleText(msg(1, "привет"))
	e.HandleText(msg(2, "ну"))

	st := e.Stats()
	if st.Stats.TotalMessages != 3 || st.Stats.UniqueUsers != 2 {
		t.Errorf("stats: %+v", st.Stats)
	}
	if st.Stats.CommandsUsed["start"] != 1 || st.Stats.CommandsUsed[MessageCommand] != 2 {
		t.Errorf("commands: %v", st.Stats.CommandsUsed)
	}

	u := e.HandleCommand(msg(1, "/help"), "help")
	if u.MessageCount != 3 || u.Name != "Тест" {
		t.Errorf("user: %+v", u)
	}
}

func TestBlankTextHasNoSideEffects(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	if reply := e.HandleText(msg(1, "   ")); !reply.Empty() {
		t.Errorf("reply: %+v", reply)
	}
	if st := e.Stats(); st.Stats.TotalMessages != 0 || st.Users != 0 {
		t.Errorf("stats changed: %+v", st)
	}
}

func TestFlushHookEveryN(t *testing.T) {
	var calls int32
	e, _ := newTestEngine(t, Options{SaveEvery: 10, FlushHook: func() { atomic.AddInt32(&calls, 1) }})

	for i := 0; i < 25; i++ {
		if i%2 == 0 {
			e.HandleText(msg(1, "ну и ну"))
		} else {
			e.HandleCommand(msg(1, "/joke"), "joke")
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("flush requests: got %d, want 2", got)
	}
}

func TestGamesPlayedCountsStartsOnly(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if res := e.PlayCities(1, ""); res.Outcome != games.Started {
		t.Fatalf("start: %s", res.Outcome)
	}
	if res := e.PlayCities(1, ""); res.Outcome != games.Pending {
		t.Fatalf("reminder: %s", res.Outcome)
	}
	e.PlayCities(1, "архангельск")
	e.PlayGuess(1, "")
	e.PlayRiddle(2, "")
	e.PlayHangman(3, "")

	st := e.Stats()
	if st.Stats.GamesPlayed != 4 || st.ActiveGames != 4 {
		t.Errorf("games played %d, active %d", st.Stats.GamesPlayed, st.ActiveGames)
	}
}

func TestMood(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	if e.Mood() != mood.Neutral {
		t.Fatalf("initial mood %q", e.Mood())
	}
	if _, err := e.SetMood("flirty"); err != nil {
		t.Fatalf("SetMood: %v", err)
	}
	if _, err := e.SetMood("bored"); !errors.Is(err, mood.ErrUnknownMood) {
		t.Errorf("expected ErrUnknownMood, got %v", err)
	}
	if e.Mood() != mood.Flirty {
		t.Errorf("mood: got %q", e.Mood())
	}
}

func TestClearHistoryDisablesContext(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.HandleText(msg(1, "а как дела у тебя"))
	e.ClearHistory(1)
	if reply := e.HandleText(msg(1, "ну ладно")); reply.Stage != responder.StageFallback {
		t.Errorf("stage after clear: %s", reply.Stage)
	}
}

func TestAdminStats(t *testing.T) {
	e, c := newTestEngine(t, Options{})
	e.HandleText(msg(1, "ну"))
	c.t = c.t.Add(24 * time.Hour)
	e.HandleText(msg(2, "ну"))
	e.HandleText(msg(2, "ну"))

	view := e.AdminStats(10)
	if view.ActiveToday != 1 {
		t.Errorf("active today: got %d, want 1", view.ActiveToday)
	}
	if len(view.TopUsers) != 2 || view.TopUsers[0].ID != 2 {
		t.Errorf("top: %+v", view.TopUsers)
	}
	if view.Uptime != 24*time.Hour {
		t.Errorf("uptime: %v", view.Uptime)
	}
	if n := e.UserCount(); n != view.Users || n != 2 {
		t.Errorf("user count: %d, view %d", n, view.Users)
	}
}

func TestSnapshotRestore(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.HandleText(msg(1, "учись изида -> привет"))
	e.HandleCommand(msg(2, "/start"), "start")
	e.PlayCities(1, "")
	e.PlayGuess(2, "")

	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	back, _ := newTestEngine(t, Options{})
	if errs := back.Restore(snap); len(errs) != 0 {
		t.Fatalf("Restore: %v", errs)
	}

	got, want := back.Stats(), e.Stats()
	if got.Stats.TotalMessages != want.Stats.TotalMessages || got.Stats.GamesPlayed != want.Stats.GamesPlayed {
		t.Errorf("stats: got %+v, want %+v", got.Stats, want.Stats)
	}
	if got.ActiveGames != 2 || got.Users != 2 || got.LearnedAnswers != 1 {
		t.Errorf("view: %+v", got)
	}
	if res := back.PlayCities(1, "москва"); res.Reason != games.ReasonCityUsed {
		t.Errorf("city session not restored: %+v", res)
	}
	if reply := back.HandleText(msg(3, "изида")); !strings.Contains(reply.Text, "привет") {
		t.Errorf("learned phrase not restored: %q", reply.Text)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.HandleText(msg(1, "учись изида -> привет"))
	snap, _ := e.Snapshot()

	snap.Learned["изида"][0] = "пока"
	snap.Stats.CommandsUsed[MessageCommand] = 99
	if reply := e.HandleText(msg(1, "изида")); !strings.HasPrefix(reply.Text, "привет") {
		t.Errorf("snapshot aliases phrase store: %q", reply.Text)
	}
	if e.Stats().Stats.CommandsUsed[MessageCommand] != 2 {
		t.Error("snapshot aliases stats")
	}
}

func TestConcurrentUse(t *testing.T) {
	e, _ := newTestEngine(t, Options{FlushHook: func() {}})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				e.HandleText(msg(uid, "как дела?"))
				e.PlayGuess(uid, "50")
				if _, err := e.Snapshot(); err != nil {
					t.Errorf("Snapshot: %v", err)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	if got := e.Stats().Stats.TotalMessages; got != 400 {
		t.Errorf("total: got %d, want 400", got)
	}
}

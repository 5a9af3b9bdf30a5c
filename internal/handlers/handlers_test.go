package handlers

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/isida-tgbot-go/internal/engine"
	"github.com/isida-tgbot-go/internal/i18n"
	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/isida-tgbot-go/internal/services/external"
	"github.com/isida-tgbot-go/internal/services/mood"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const adminID = 99

type sent struct {
	chatID int64
	text   string
	value  tgbotapi.Chattable
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sent
	requests []tgbotapi.Chattable
	failFor  map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var s sent
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		s = sent{chatID: v.ChatID, text: v.Text}
	case tgbotapi.EditMessageTextConfig:
		s = sent{chatID: v.ChatID, text: v.Text}
	case tgbotapi.PhotoConfig:
		s = sent{chatID: v.ChatID, text: v.Caption}
	}
	if f.failFor[s.chatID] {
		return tgbotapi.Message{}, errors.New("bot was blocked by the user")
	}
	s.value = c
	f.sent = append(f.sent, s)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.chatID == chatID {
			out = append(out, s.text)
		}
	}
	return out
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeLookups struct {
	catErr  error
	weather external.Weather
}

func (f *fakeLookups) Weather(_ context.Context, city string) external.Weather {
	w := f.weather
	w.City = city
	return w
}

func (f *fakeLookups) Currency(_ context.Context, code string) external.Rate {
	return external.Rate{Code: strings.ToUpper(code), InRUB: 80, PerRUB: 0.0125}
}

func (f *fakeLookups) CatImage(context.Context) (string, error) {
	return "https://cdn.example/cat.jpg", f.catErr
}

func (f *fakeLookups) DogImage(context.Context) (string, error) {
	return "", errors.New("dog api down")
}

type fakeStore struct{}

func (fakeStore) Backend() string { return "json" }
func (fakeStore) DataSize() int64 { return 2 * 1024 * 1024 }

type fixture struct {
	sender   *fakeSender
	lookups  *fakeLookups
	engine   *engine.Engine
	commands *CommandHandler
	messages *MessageHandler
}

func newFixture(t *testing.T, limit *config.RateLimitConfig) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	eng, err := engine.New(engine.Options{Rand: rand.New(rand.NewSource(7))})
	if err != nil {
		t.Fatal(err)
	}
	loc, err := i18n.NewLocalizer(&config.I18nConfig{DefaultLanguage: "ru"})
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.Admin.IDs = []int64{adminID}

	if limit == nil {
		limit = &config.RateLimitConfig{}
	}

	f := &fixture{
		sender:  &fakeSender{failFor: map[int64]bool{}},
		lookups: &fakeLookups{weather: external.Weather{Temp: 12.5, Description: "пасмурно", Humidity: 80}},
		engine:  eng,
	}
	f.commands = NewCommandHandler(f.sender, cfg, eng, f.lookups, fakeStore{}, middleware.NewMetrics(), loc, log)
	f.messages = NewMessageHandler(f.commands, middleware.NewRateLimiter(limit, log))
	return f
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, FirstName: "Анна"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func (f *fixture) say(t *testing.T, userID int64, text string) sent {
	t.Helper()
	if err := f.messages.HandleUpdate(context.Background(), &tgbotapi.Update{Message: textMessage(userID, text)}); err != nil {
		t.Fatalf("%q: %v", text, err)
	}
	return f.sender.last(t)
}

func (f *fixture) click(t *testing.T, userID int64, data string) {
	t.Helper()
	cb := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}
	if err := f.messages.HandleUpdate(context.Background(), &tgbotapi.Update{CallbackQuery: cb}); err != nil {
		t.Fatalf("callback %q: %v", data, err)
	}
}

func TestStart(t *testing.T) {
	f := newFixture(t, nil)
	got := f.say(t, 1, "/start")

	if !strings.Contains(got.text, "Привет, Анна!") {
		t.Errorf("welcome: %q", got.text)
	}
	msg := got.value.(tgbotapi.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok || len(kb.Keyboard) != 3 || kb.Keyboard[0][0].Text != LabelGames {
		t.Errorf("reply keyboard: %+v", msg.ReplyMarkup)
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("parse mode: %q", msg.ParseMode)
	}

	stats := f.engine.Stats().Stats
	if stats.CommandsUsed["start"] != 1 || stats.TotalMessages != 1 || stats.UniqueUsers != 1 {
		t.Errorf("stats: %+v", stats)
	}
}

func TestTeachAndAsk(t *testing.T) {
	f := newFixture(t, nil)

	got := f.say(t, 1, "учись как дела у бота -> <отлично>")
	if !strings.Contains(got.text, "&lt;отлично&gt;") {
		t.Errorf("teach reply: %q", got.text)
	}

	got = f.say(t, 1, "Как дела у бота")
	if !strings.HasPrefix(got.text, "&lt;отлично&gt;") {
		t.Errorf("learned reply: %q", got.text)
	}

	got = f.say(t, 1, "учись x -> y")
	if got.text != "Слишком короткие вопрос или ответ! 😒" {
		t.Errorf("too short: %q", got.text)
	}

	if n := f.engine.Stats().Stats.CommandsUsed[engine.MessageCommand]; n != 3 {
		t.Errorf("message count: %d", n)
	}
}

func TestKeyboardLabelsRouteToCommands(t *testing.T) {
	f := newFixture(t, nil)

	if got := f.say(t, 1, LabelJoke); !strings.Contains(got.text, "Анекдот:") {
		t.Errorf("joke: %q", got.text)
	}
	if got := f.say(t, 1, LabelWeather); !strings.Contains(got.text, "пасмурно") {
		t.Errorf("weather: %q", got.text)
	}
	if got := f.say(t, 1, LabelHelp); !strings.Contains(got.text, "Доступные команды") {
		t.Errorf("help: %q", got.text)
	}
	if f.engine.Stats().Stats.CommandsUsed["joke"] != 1 {
		t.Error("label was not counted as its command")
	}
}

func TestUnknownCommandIsText(t *testing.T) {
	f := newFixture(t, nil)
	f.say(t, 1, "/привет")
	if n := f.engine.Stats().Stats.CommandsUsed[engine.MessageCommand]; n != 1 {
		t.Errorf("unknown command should count as a message, got %d", n)
	}
}

func TestCitiesFlow(t *testing.T) {
	f := newFixture(t, nil)

	got := f.say(t, 1, "/cities")
	if !strings.Contains(got.text, "Игра в города начата") {
		t.Fatalf("start: %q", got.text)
	}
	opener := "москва"
	if strings.Contains(got.text, "Астана") {
		opener = "астана"
	}

	got = f.say(t, 1, "/cities Берлин")
	if !strings.Contains(got.text, "должен начинаться на букву 'А'") {
		t.Errorf("wrong letter: %q", got.text)
	}

	got = f.say(t, 1, "/cities "+opener)
	if got.text != "Этот город уже был! 😠 Попробуй другой." {
		t.Errorf("used: %q", got.text)
	}

	got = f.say(t, 1, "/cities")
	if !strings.Contains(got.text, "Мы уже играем") {
		t.Errorf("pending: %q", got.text)
	}

	if n := f.engine.Stats().Stats.GamesPlayed; n != 1 {
		t.Errorf("games played: %d", n)
	}
}

func TestCitiesAcceptsMultiWordNames(t *testing.T) {
	f := newFixture(t, nil)
	f.say(t, 1, "/cities")

	got := f.say(t, 1, "/cities Абу Даби")
	if !strings.Contains(got.text, "Твой город: <b>Абу Даби</b>") {
		t.Errorf("multi-word city: %q", got.text)
	}
}

func TestGuessFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.click(t, 1, "game_guess")
	if got := f.sender.last(t); !strings.Contains(got.text, "Угадай число") {
		t.Fatalf("start: %q", got.text)
	}

	if got := f.say(t, 1, "/guess много"); got.text != "Пожалуйста, введите число! 🔢" {
		t.Errorf("not a number: %q", got.text)
	}

	lo, hi := 1, 100
	for i := 0; i < 10; i++ {
		mid := (lo + hi) / 2
		got := f.say(t, 1, "/guess "+strconv.Itoa(mid))
		switch {
		case strings.Contains(got.text, "Ты угадал"):
			if f.engine.ActiveGames() != 0 {
				t.Error("session survived a win")
			}
			return
		case strings.Contains(got.text, "больше"):
			lo = mid + 1
		case strings.Contains(got.text, "меньше"):
			hi = mid - 1
		default:
			t.Fatalf("unexpected reply %q", got.text)
		}
	}
	t.Error("binary search did not finish")
}

func TestHangmanAndRiddleRender(t *testing.T) {
	f := newFixture(t, nil)

	got := f.say(t, 1, "/hangman")
	if !strings.Contains(got.text, "<pre>") || !strings.Contains(got.text, "Загадано слово из") {
		t.Errorf("hangman start: %q", got.text)
	}
	if got = f.say(t, 1, "/hangman 42"); got.text != "Пожалуйста, введите одну букву! 🔤" {
		t.Errorf("not a letter: %q", got.text)
	}

	got = f.say(t, 1, "/riddle")
	if !strings.Contains(got.text, "Загадка:") {
		t.Errorf("riddle start: %q", got.text)
	}
	got = f.say(t, 1, "/riddle наверное кот")
	if !strings.Contains(got.text, "Неправильно") && !strings.Contains(got.text, "Правильно") {
		t.Errorf("riddle answer: %q", got.text)
	}
}

func TestAdminGate(t *testing.T) {
	f := newFixture(t, nil)

	for _, cmd := range []string{"/admin", "/admin_stats", "/broadcast hi", "/set_mood happy"} {
		if got := f.say(t, 1, cmd); got.text != "У тебя нет прав администратора! 👮‍♀️" {
			t.Errorf("%s: %q", cmd, got.text)
		}
	}
	if f.engine.Mood() != mood.Neutral {
		t.Error("non-admin changed the mood")
	}

	if got := f.say(t, adminID, "/admin"); !strings.Contains(got.text, "Админ панель") || !strings.Contains(got.text, "json") {
		t.Errorf("admin: %q", got.text)
	}
	got := f.say(t, adminID, "/admin_stats")
	if !strings.Contains(got.text, "1. Анна") || !strings.Contains(got.text, "2.00 MB") {
		t.Errorf("admin stats: %q", got.text)
	}
}

func TestSetMood(t *testing.T) {
	f := newFixture(t, nil)

	if got := f.say(t, adminID, "/set_mood"); !strings.Contains(got.text, "sarcastic") {
		t.Errorf("usage: %q", got.text)
	}
	if got := f.say(t, adminID, "/set_mood grumpy"); !strings.Contains(got.text, "Неизвестное настроение: grumpy") {
		t.Errorf("unknown: %q", got.text)
	}
	if got := f.say(t, adminID, "/set_mood SAD"); !strings.Contains(got.text, "грустное") {
		t.Errorf("changed: %q", got.text)
	}
	if f.engine.Mood() != mood.Sad {
		t.Errorf("mood: %s", f.engine.Mood())
	}
}

func TestBroadcast(t *testing.T) {
	f := newFixture(t, nil)
	f.say(t, 1, "привет")
	f.say(t, 2, "привет")
	f.sender.failFor[2] = true

	f.say(t, adminID, "/broadcast **Обновление!**")
	f.commands.Wait()

	got := f.sender.last(t)
	if got.chatID != adminID || !strings.Contains(got.text, "Успешно: 2") || !strings.Contains(got.text, "Неудачно: 1") {
		t.Errorf("summary: %+v", got)
	}

	delivered := false
	for _, text := range f.sender.textsTo(1) {
		if strings.Contains(text, "<b>Обновление!</b>") && strings.Contains(text, "Объявление") {
			delivered = true
		}
	}
	if !delivered {
		t.Error("user 1 did not receive the broadcast")
	}

	if got := f.say(t, adminID, "/broadcast"); got.text != "Использование: /broadcast [сообщение]" {
		t.Errorf("usage: %q", got.text)
	}
}

func TestRepliesContinueDuringBroadcast(t *testing.T) {
	f := newFixture(t, nil)
	f.commands.pacer = middleware.NewPacer(50 * time.Millisecond)
	for id := int64(1); id <= 20; id++ {
		f.say(t, id, "привет")
	}

	start := time.Now()
	if err := f.messages.HandleUpdate(context.Background(), &tgbotapi.Update{Message: textMessage(adminID, "/broadcast hi")}); err != nil {
		t.Fatal(err)
	}
	if err := f.messages.HandleUpdate(context.Background(), &tgbotapi.Update{Message: textMessage(3, "/joke")}); err != nil {
		t.Fatal(err)
	}
	// 21 recipients at 50ms take about a second
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("handlers were blocked by the broadcast for %v", elapsed)
	}

	joked := false
	for _, text := range f.sender.textsTo(3) {
		if strings.Contains(text, "Анекдот:") {
			joked = true
		}
	}
	if !joked {
		t.Error("user 3 got no reply while the broadcast was running")
	}

	f.commands.Wait()
	admin := f.sender.textsTo(adminID)
	if last := admin[len(admin)-1]; !strings.Contains(last, "Успешно: 21") {
		t.Errorf("summary: %q", last)
	}
}

func TestBroadcastStopsWithContext(t *testing.T) {
	f := newFixture(t, nil)
	f.commands.pacer = middleware.NewPacer(time.Hour)
	f.say(t, 1, "привет")
	f.say(t, 2, "привет")

	ctx, cancel := context.WithCancel(context.Background())
	if err := f.messages.HandleUpdate(ctx, &tgbotapi.Update{Message: textMessage(adminID, "/broadcast hi")}); err != nil {
		t.Fatal(err)
	}
	cancel()
	f.commands.Wait()

	for _, text := range f.sender.textsTo(adminID) {
		if strings.Contains(text, "Рассылка завершена") {
			t.Errorf("interrupted broadcast reported completion: %q", text)
		}
	}
}

func TestMoodCallback(t *testing.T) {
	f := newFixture(t, nil)

	got := f.say(t, 1, "/mood")
	markup := got.value.(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if len(markup.InlineKeyboard) != 2 || len(markup.InlineKeyboard[0]) != 3 {
		t.Errorf("mood keyboard: %+v", markup)
	}

	f.click(t, 1, "set_mood_flirty")
	edit, ok := f.sender.last(t).value.(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 5 || !strings.Contains(edit.Text, "игривое") {
		t.Errorf("edit: %+v", f.sender.last(t))
	}
	if f.engine.Mood() != mood.Flirty {
		t.Errorf("mood: %s", f.engine.Mood())
	}

	f.click(t, 1, "set_mood_grumpy")
	alert, ok := f.sender.requests[len(f.sender.requests)-1].(tgbotapi.CallbackConfig)
	if !ok || !alert.ShowAlert {
		t.Errorf("expected an alert, got %+v", f.sender.requests[len(f.sender.requests)-1])
	}
}

func TestPictures(t *testing.T) {
	f := newFixture(t, nil)

	if _, ok := f.say(t, 1, "/cat").value.(tgbotapi.PhotoConfig); !ok {
		t.Error("cat should be sent as a photo")
	}

	got := f.say(t, 1, "/dog")
	if _, ok := got.value.(tgbotapi.MessageConfig); !ok || !contains(dogPhrases, got.text) {
		t.Errorf("dog fallback: %+v", got)
	}
}

func TestWeatherAndCurrency(t *testing.T) {
	f := newFixture(t, nil)

	got := f.say(t, 1, "/weather Нижний Новгород")
	if !strings.Contains(got.text, "Погода в Нижний Новгород") || !strings.Contains(got.text, "12.5°C") || !strings.Contains(got.text, "80%") {
		t.Errorf("weather: %q", got.text)
	}

	f.lookups.weather = external.Weather{Temp: -7, Description: "снег ❄️", Synthetic: true}
	got = f.say(t, 1, "/weather Омск")
	if !strings.Contains(got.text, "-7°C") || strings.Contains(got.text, "Влажность") {
		t.Errorf("synthetic weather: %q", got.text)
	}

	got = f.say(t, 1, "/currency eur")
	if !strings.Contains(got.text, "1 EUR = 80.00 RUB") || !strings.Contains(got.text, "1 RUB = 0.0125 EUR") {
		t.Errorf("currency: %q", got.text)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	f.say(t, 1, "/start")
	f.say(t, 1, "/joke")
	f.say(t, 1, "/joke")

	got := f.say(t, 1, "/stats")
	if !strings.Contains(got.text, "• /joke: 2") || !strings.Contains(got.text, "Сообщений: 4") {
		t.Errorf("stats: %q", got.text)
	}
}

func TestClearDropsHistory(t *testing.T) {
	f := newFixture(t, nil)
	f.say(t, 1, "как дела у тебя?")
	if got := f.say(t, 1, "/clear"); !strings.Contains(got.text, "очищена") {
		t.Errorf("clear: %q", got.text)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, &config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1})

	f.say(t, 1, "привет")
	got := f.say(t, 1, "привет ещё раз")
	if got.text != "Не так быстро! 🐌 Дай мне немного передохнуть." {
		t.Errorf("rate limit: %q", got.text)
	}
	if n := f.engine.Stats().Stats.TotalMessages; n != 1 {
		t.Errorf("limited message was counted: %d", n)
	}
}

func TestIgnoresBotsAndEmptyText(t *testing.T) {
	f := newFixture(t, nil)

	bot := textMessage(1, "привет")
	bot.From.IsBot = true
	sticker := textMessage(1, "")

	for _, m := range []*tgbotapi.Message{bot, sticker} {
		if err := f.messages.HandleUpdate(context.Background(), &tgbotapi.Update{Message: m}); err != nil {
			t.Fatal(err)
		}
	}
	if f.sender.count() != 0 {
		t.Errorf("sent %d messages", f.sender.count())
	}
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

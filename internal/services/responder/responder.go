// Package responder picks the reply to a free-text message.
//
// Stages are tried in order and the first one that produces text wins:
// learned phrases, pattern rules, conversation context, and finally a
// keyword-driven fallback that always answers.
package responder

import (
	"html"
	"math/rand"
	"strings"
	"time"

	"github.com/isida-tgbot-go/internal/services/mood"
	"github.com/isida-tgbot-go/internal/services/patterns"
	"github.com/isida-tgbot-go/internal/services/phrases"
)

// Stage identifies which part of the pipeline produced a reply
type Stage int

const (
	StageNone Stage = iota
	StageLearned
	StagePattern
	StageContext
	StageFallback
)

func (s Stage) String() string {
	switch s {
	case StageLearned:
		return "learned"
	case StagePattern:
		return "pattern"
	case StageContext:
		return "context"
	case StageFallback:
		return "fallback"
	}
	return "none"
}

// EndearmentChance is the probability that a fallback reply ends with a term of endearment
const EndearmentChance = 0.3

var (
	smallTalkCues  = []string{"как дела", "как ты"}
	questionWords  = []string{"кто", "что", "где", "когда", "почему", "как"}
	smallTalkProbe = []string{"Спасибо, что спросил! 😊", "А ты как думаешь? 🤔"}
	questionProbe  = []string{"Интересный вопрос! Дай подумать... 🤔", "А ты как думаешь? 🤨"}
	endearments    = []string{"дружок", "милый", "дорогой"}
)

type category struct {
	name     string
	keywords []string
	replies  []string
}

// checked in order, first hit wins
var categories = []category{
	{"happy", []string{"рад", "счастье", "ура"}, []string{"Вижу, ты в хорошем настроении! Рада за тебя! 😊"}},
	{"sad", []string{"грустно", "плохо", "печаль"}, []string{"Не грусти, всё будет хорошо! ☀️"}},
	{"angry", []string{"злой", "злюсь", "бесит"}, []string{"Успокойся, дыши глубже. Всё наладится. 🌿"}},
	{"love", []string{"люблю", "нравится", "обожаю"}, []string{"Как мило с твоей стороны! 💕"}},
}

var neutralReplies = []string{"Интересно... расскажи ещё! 💬", "Понятно. А что дальше? 🤔"}

// Request carries everything a resolution needs
type Request struct {
	Text string
	// History holds the user's stored messages, oldest first, ending with Text
	History []string
	Mood    mood.Mood
	Now     time.Time
}

// Reply is a resolved answer in Telegram HTML
type Reply struct {
	Text  string
	Stage Stage
	// Rule names the matching pattern rule for StagePattern
	Rule string
}

// Resolver runs the reply pipeline. It reads the phrase store and must be
// called under the same lock that guards writes to it.
type Resolver struct {
	phrases *phrases.Store
	rules   *patterns.RuleSet
	rng     *rand.Rand
}

// New creates a resolver
func New(store *phrases.Store, rules *patterns.RuleSet, rng *rand.Rand) *Resolver {
	return &Resolver{phrases: store, rules: rules, rng: rng}
}

// Resolve returns the reply for req. Blank text yields StageNone.
func (r *Resolver) Resolve(req Request) Reply {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Reply{}
	}
	if reply, ok := r.learned(text, req.Mood); ok {
		return reply
	}
	if reply, ok := r.pattern(text, req.Now); ok {
		return reply
	}
	if reply, ok := r.context(text, req.History); ok {
		return reply
	}
	return r.fallback(text)
}

func (r *Resolver) learned(text string, m mood.Mood) (Reply, bool) {
	answers, ok := r.phrases.Lookup(text)
	if !ok {
		return Reply{}, false
	}
	answer := html.EscapeString(r.choose(answers))
	if asides := mood.Asides(m); len(asides) > 0 {
		answer += "\n<i>" + r.choose(asides) + "</i>"
	}
	return Reply{Text: answer, Stage: StageLearned}, true
}

func (r *Resolver) pattern(text string, now time.Time) (Reply, bool) {
	rule, ok := r.rules.Match(text)
	if !ok {
		return Reply{}, false
	}
	c := patterns.Pick(r.rng, rule.Candidates)
	return Reply{Text: c.Reply(now), Stage: StagePattern, Rule: rule.Name}, true
}

func (r *Resolver) context(text string, history []string) (Reply, bool) {
	if len(history) < 2 {
		return Reply{}, false
	}
	// history already ends with text, so the small-talk cue is read from
	// the message the user sent before it
	previous := strings.ToLower(history[len(history)-2])
	if containsAny(previous, smallTalkCues) {
		return Reply{Text: r.choose(smallTalkProbe), Stage: StageContext}, true
	}
	if strings.Contains(text, "?") && containsAny(strings.ToLower(text), questionWords) {
		return Reply{Text: r.choose(questionProbe), Stage: StageContext}, true
	}
	return Reply{}, false
}

func (r *Resolver) fallback(text string) Reply {
	lower := strings.ToLower(text)
	replies := neutralReplies
	for _, c := range categories {
		if containsAny(lower, c.keywords) {
			replies = c.replies
			break
		}
	}

	reply := r.choose(replies)
	if r.rng.Float64() < EndearmentChance {
		reply += " " + capitalize(r.choose(endearments)) + "!"
	}
	return Reply{Text: reply, Stage: StageFallback}
}

func (r *Resolver) choose(items []string) string {
	return items[r.rng.Intn(len(items))]
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	for i := range s {
		if i > 0 {
			return strings.ToUpper(s[:i]) + s[i:]
		}
	}
	return strings.ToUpper(s)
}

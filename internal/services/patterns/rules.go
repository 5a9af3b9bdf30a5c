package patterns

import (
	"regexp"
	"time"
)

func rule(name, pattern string, candidates ...Candidate) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Candidates: candidates}
}

// DefaultRules returns the built-in rules in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		rule("greeting", `(?i)(привет|здравствуй|хай|hello|hi|здаров|йоу|добрый|здрасьте)`,
			Candidate{Text: "Привет, мой господин! 👋", Weight: 1.0},
			Candidate{Text: "И тебе привет! 😊", Weight: 0.9},
		),
		rule("how_are_you", `(?i)(как.*дела|как.*жизнь|чего.*ты|как.*ты)`,
			Candidate{Text: "Всё хорошо, а у тебя? 😊", Weight: 1.0},
			Candidate{Text: "Отлично! Спасибо, что интересуешься 💫", Weight: 0.6},
		),
		rule("name", `(?i)(изида|isida|изя|изю|изюм)`,
			Candidate{Text: "Да, я здесь! ⚡", Weight: 1.0},
			Candidate{Text: "Звал? Я вся внимание 👀", Weight: 0.5},
		),
		rule("love", `(?i)(люблю.*тебя|нравишься.*мне|влюблен.*в тебя|ты.*прекрасна)`,
			Candidate{Text: "Ой, а я и не знала... 😳", Weight: 1.0},
			Candidate{Text: "Ты меня смущаешь 🙈", Weight: 0.7},
		),
		rule("insult", `(?i)(дура|глупая|тупая|идиот|кретин|дебил)`,
			Candidate{Text: "Сама такая! 😠", Weight: 1.0},
			Candidate{Text: "Фу, как грубо! 👎", Weight: 0.8},
		),
		rule("thanks", `(?i)(спасибо|благодарю|спс|пасиб|thx|thanks)`,
			Candidate{Text: "Всегда пожалуйста! 😊", Weight: 1.0},
			Candidate{Text: "Обращайся! 💖", Weight: 0.8},
		),
		rule("goodbye", `(?i)(пока|до свидания|ухожу|бай|прощай|до встречи)`,
			Candidate{Text: "Пока! Возвращайся скорее! 👋", Weight: 1.0},
			Candidate{Text: "До встречи! Я буду скучать 💭", Weight: 0.7},
		),
		rule("help", `(?i)(что.*умеешь|что.*можешь|какие.*команды|помощь|help)`,
			Candidate{Text: "Я умею многое! Напиши /help чтобы узнать подробности. 💫", Weight: 1.0},
		),
		rule("praise", `(?i)(ты.*умная|ты.*классная|ты.*лучшая|молодец|умница)`,
			Candidate{Text: "Спасибо! Я стараюсь! 😊", Weight: 1.0},
			Candidate{Text: "Ой, приятно слышать! 🌸", Weight: 0.8},
		),
		rule("time", `(?i)(который.*час|сколько.*время|дата|число|день)`,
			Candidate{Weight: 1.0, Render: func(now time.Time) string {
				return "Сейчас: " + now.Format("15:04 02.01.2006") + " ⏰"
			}},
		),
	}
}

// Default returns the built-in rule set
func Default() *RuleSet {
	rs, err := NewRuleSet(DefaultRules())
	if err != nil {
		panic(err)
	}
	return rs
}

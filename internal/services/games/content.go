package games

import (
	"errors"
	"strings"
)

// Content is the vocabulary the games draw from
type Content struct {
	// Openers are the cities the bot may start with
	Openers []string
	// Cities are the cities the bot may answer with
	Cities  []string
	Words   []string
	Riddles []RiddleDef
}

func (c Content) validate() error {
	switch {
	case len(c.Openers) == 0:
		return errors.New("games: no opening cities")
	case len(c.Words) == 0:
		return errors.New("games: no hangman words")
	case len(c.Riddles) == 0:
		return errors.New("games: no riddles")
	}
	for _, w := range c.Words {
		if strings.TrimSpace(w) == "" {
			return errors.New("games: empty hangman word")
		}
	}
	for _, r := range c.Riddles {
		if r.Question == "" || r.Answer == "" {
			return errors.New("games: incomplete riddle")
		}
	}
	return nil
}

// DefaultContent returns the built-in Russian vocabulary.
// No bot city ends in ь, ъ, ы or й.
func DefaultContent() Content {
	return Content{
		Openers: []string{"москва", "астана"},
		Cities:  append([]string(nil), defaultCities...),
		Words: []string{
			"программа", "компьютер", "изида", "телеграм", "клавиатура", "интернет",
			"алгоритм", "переменная", "функция", "сервер", "библиотека", "монитор",
		},
		Riddles: []RiddleDef{
			{Question: "Висит груша, нельзя скушать?", Answer: "лампочка"},
			{Question: "Зимой и летом одним цветом?", Answer: "ель"},
			{Question: "Сидит дед, во сто шуб одет. Кто его раздевает, тот слёзы проливает?", Answer: "лук"},
			{Question: "Не лает, не кусает, а в дом не пускает?", Answer: "замок"},
			{Question: "Два кольца, два конца, а посередине гвоздик?", Answer: "ножницы"},
			{Question: "Без окон, без дверей, полна горница людей?", Answer: "огурец"},
			{Question: "Что можно увидеть с закрытыми глазами?", Answer: "сон"},
		},
	}
}

var defaultCities = []string{
	"абакан", "анапа", "армавир", "ачинск", "азов", "анкара", "амстердам", "архангельск", "арзамас", "ангарск",
	"барнаул", "белгород", "брянск", "бийск", "благовещенск", "братск", "берлин", "бишкек", "баку", "белград", "бостон",
	"владимир", "волгоград", "вологда", "воронеж", "владивосток", "выборг", "вена", "варшава", "вильнюс", "воркута",
	"геленджик", "гатчина", "гродно", "глазов", "гавана",
	"дмитров", "дубна", "дербент", "дублин", "дели", "даллас", "душанбе",
	"екатеринбург", "ереван", "ессентуки", "ейск",
	"железногорск", "женева",
	"златоуст", "зеленоград", "звенигород", "загреб",
	"иваново", "ижевск", "иркутск", "иерусалим", "ишим",
	"калуга", "кострома", "краснодар", "красноярск", "курск", "кемерово", "киров", "каир", "калининград", "копенгаген",
	"липецк", "лондон", "луга", "лиссабон",
	"мурманск", "магадан", "махачкала", "мадрид", "минск", "милан", "майкоп", "миасс",
	"новосибирск", "новгород", "находка", "норильск", "нальчик", "нарва", "ницца",
	"омск", "орёл", "оренбург", "осло", "озерск", "обнинск", "орск",
	"псков", "пенза", "петрозаводск", "париж", "прага", "пятигорск", "подольск",
	"ростов", "рига", "рим", "рыбинск", "рубцовск",
	"самара", "саратов", "смоленск", "сочи", "сургут", "стамбул", "софия", "сеул", "салехард",
	"тамбов", "томск", "тула", "таганрог", "таллин", "токио", "ташкент", "тбилиси",
	"уфа", "ульяновск", "ухта", "улан-удэ", "уссурийск",
	"франкфурт", "флоренция", "фрязино",
	"хабаровск", "ханты-мансийск", "хельсинки",
	"цюрих", "цхинвал",
	"чита", "челябинск", "череповец", "чикаго",
	"шуя",
	"щёлково",
	"элиста", "энгельс",
	"южно-сахалинск", "юрмала",
	"якутск", "ялта",
}

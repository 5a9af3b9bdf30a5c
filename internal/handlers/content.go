package handlers

// Reply keyboard labels and the commands they stand for
const (
	LabelGames   = "🎮 Игры"
	LabelJoke    = "😄 Анекдот"
	LabelCat     = "🐱 Котик"
	LabelWeather = "🌤️ Погода"
	LabelHelp    = "💬 Помощь"
	LabelMood    = "🎭 Настроение"
)

var labelCommands = map[string]string{
	LabelGames:   "games",
	LabelJoke:    "joke",
	LabelCat:     "cat",
	LabelWeather: "weather",
	LabelHelp:    "help",
	LabelMood:    "mood",
}

const inputPlaceholder = "Напиши что-нибудь..."

var jokes = []string{
	"Программист на пляже. Жена ему: — Солнышко, сбегай, купи пару холодных пив. — Ладно, — говорит программист, — только запомни: один — это пара.",
	"Чем отличается программист от политика? Программисту платят деньги за работающие программы.",
	"— Дорогой, а ты помнишь день, когда мы познакомились? — Конечно, милая! Это было 10 октября 2012 года, среда, температура +15, осадков не было.",
	"Почему программисты путают Хэллоуин и Рождество? Потому что OCT 31 == DEC 25.",
	"Сколько программистов нужно, чтобы вкрутить лампочку? — Ни одного. Это hardware проблема.",
	"— Почему боты не ссорятся? — Потому что у них нет эмоций. — Обидно!",
	"Оптимист верит, что стек наполовину полон. Пессимист верит, что стек наполовину пуст. Программист верит, что стек в два раза больше, чем нужно.",
}

var quotes = []string{
	"«Я мыслю, следовательно, я есть.» — Изида 🤔",
	"«Пора бы тебе уже знать...» — классика 😏",
	"«В каждом байте есть душа.» — Неизвестный программист 💾",
	"«Лучший код — тот, который не нужно писать.» — мудрость 💡",
	"«Ошибка 404: Душа не найдена.» — Сервер 🖥️",
	"«Любовь к коду длится вечно... или до следующего рефакторинга.» — Разработчик ❤️",
}

var (
	catPhrases = []string{"Мяу! 🐱 Вот тебе котик: =^..^=", "Котик говорит: почеши за ушком! 🐾"}
	dogPhrases = []string{"Гав! 🐶 Вот тебе песик!", "Собачка виляет хвостиком! 🐕"}
	teachAcks  = []string{"Запомнила! 🧠", "Окей, записала! 📝"}
)

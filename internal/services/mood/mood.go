// Package mood holds the process-wide affect of the bot.
package mood

import (
	"errors"
	"fmt"
	"strings"
)

// Mood is one of a fixed set of affect values
type Mood string

const (
	Neutral   Mood = "neutral"
	Happy     Mood = "happy"
	Angry     Mood = "angry"
	Flirty    Mood = "flirty"
	Sad       Mood = "sad"
	Sarcastic Mood = "sarcastic"
)

// All lists the moods in display order
var All = []Mood{Neutral, Happy, Angry, Flirty, Sad, Sarcastic}

// ErrUnknownMood is returned by Parse for tokens outside All
var ErrUnknownMood = errors.New("unknown mood")

var asides = map[Mood][]string{
	Neutral:   {"Я слушаю...", "Интересно...", "Продолжай, я внимаю.", "Хм, понятно.", "И что же дальше?"},
	Happy:     {"Ура! 🎉", "Как здорово! 😊", "Я так рада! 💖", "Это прекрасно! ✨", "Позитив заряжает! ⚡"},
	Angry:     {"Ты меня бесишь! 😠", "Не говори так! 👿", "Я обиделась! 💢", "Фу, как неприятно! 👎", "Уходи! 😤"},
	Flirty:    {"Ой, а ты такой... 😘", "Мне нравится с тобой говорить... 💕", "Ты особенный... 🌹", "Хочешь узнать секрет? 🤫", "Прикоснись ко мне... виртуально, конечно 😉"},
	Sad:       {"Мне грустно... 😔", "Всё пропало... 💧", "Не хочу разговаривать... 🌧️", "Оставь меня одну... 🍂", "Жизнь несправедлива... 🕯️"},
	Sarcastic: {"О, конечно, гений ты наш... 🙄", "Ага, щас прям поверила... 😒", "Ну да, ну да, как же... 🤦‍♀️", "Браво, остроумно... 👏", "Ты открыл Америку! 🗺️"},
}

// Parse converts a user-supplied token into a Mood
func Parse(token string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(token)))
	if _, ok := asides[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMood, token)
	}
	return m, nil
}

// Asides returns the short phrases used to flavour replies in mood m
func Asides(m Mood) []string {
	return asides[m]
}

// State is the current mood. The zero value is Neutral.
type State struct {
	current Mood
}

// Get returns the current mood
func (s *State) Get() Mood {
	if s.current == "" {
		return Neutral
	}
	return s.current
}

// Set parses token and switches to it; unknown tokens leave the state unchanged
func (s *State) Set(token string) (Mood, error) {
	m, err := Parse(token)
	if err != nil {
		return s.Get(), err
	}
	s.current = m
	return m, nil
}

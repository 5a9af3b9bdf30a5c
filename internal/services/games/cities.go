package games

import (
	"fmt"
	"strings"
)

// CitySession is a game of cities: each city must start with the last
// letter of the previous one and may be named only once.
type CitySession struct {
	LastCity   string          `json:"last_city"`
	Used       map[string]bool `json:"used_cities"`
	PlayerTurn bool            `json:"player_turn"`
}

func (*CitySession) Kind() Kind { return Cities }

// Letter is the letter the next city must start with
func (c *CitySession) Letter() rune {
	return lastRune(c.LastCity)
}

func (c *CitySession) validate() error {
	if c.LastCity == "" {
		return fmt.Errorf("%w: cities without last city", ErrInvalidState)
	}
	if c.Used == nil {
		c.Used = make(map[string]bool)
	}
	c.Used[c.LastCity] = true
	c.PlayerTurn = true
	return nil
}

// CityResult describes one cities move
type CityResult struct {
	Outcome    Outcome
	Reason     Reason
	PlayerCity string
	BotCity    string
	// Letter is the letter the player must use next
	Letter rune
}

// PlayCities starts a cities game or plays the city in arg
func (s *Store) PlayCities(userID int64, arg string) CityResult {
	key := Key{UserID: userID, Kind: Cities}
	sess, ok := s.sessions[key].(*CitySession)
	if !ok {
		first := s.pick(s.content.Openers)
		sess = &CitySession{LastCity: first, Used: map[string]bool{first: true}, PlayerTurn: true}
		s.sessions[key] = sess
		return CityResult{Outcome: Started, BotCity: first, Letter: sess.Letter()}
	}

	arg = strings.TrimSpace(arg)
	if arg == "" {
		return CityResult{Outcome: Pending, BotCity: sess.LastCity, Letter: sess.Letter()}
	}

	city := strings.ToLower(arg)
	res := CityResult{PlayerCity: arg, Letter: sess.Letter()}
	if sess.Used[city] {
		res.Outcome, res.Reason = Rejected, ReasonCityUsed
		return res
	}
	if firstRune(city) != sess.Letter() {
		res.Outcome, res.Reason = Rejected, ReasonWrongLetter
		return res
	}

	sess.Used[city] = true
	sess.LastCity = city

	next, found := s.nextCity(lastRune(city), sess.Used)
	if !found {
		delete(s.sessions, key)
		res.Outcome = Won
		res.Letter = lastRune(city)
		return res
	}

	sess.Used[next] = true
	sess.LastCity = next
	res.Outcome = Continued
	res.BotCity = next
	res.Letter = sess.Letter()
	return res
}

// nextCity picks a random unused city starting with letter
func (s *Store) nextCity(letter rune, used map[string]bool) (string, bool) {
	var free []string
	for _, city := range s.cities[letter] {
		if !used[city] {
			free = append(free, city)
		}
	}
	if len(free) == 0 {
		return "", false
	}
	return s.pick(free), true
}

func indexCities(cities []string) map[rune][]string {
	idx := make(map[rune][]string)
	seen := make(map[string]bool)
	for _, c := range cities {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		r := firstRune(c)
		idx[r] = append(idx[r], c)
	}
	return idx
}

package games

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Kind  Kind            `json:"kind"`
	State json.RawMessage `json:"state"`
}

// Encode serializes a session together with its kind
func Encode(s Session) (json.RawMessage, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: s.Kind(), State: state})
}

// Decode restores a session written by Encode and checks its invariants
func Decode(raw json.RawMessage) (Session, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var sess Session
	switch env.Kind {
	case Cities:
		sess = &CitySession{}
	case Hangman:
		sess = &HangmanSession{}
	case Guess:
		sess = &GuessSession{}
	case Riddle:
		sess = &RiddleSession{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}

	if len(env.State) == 0 {
		return nil, fmt.Errorf("%w: empty %s state", ErrInvalidState, env.Kind)
	}
	if err := json.Unmarshal(env.State, sess); err != nil {
		return nil, fmt.Errorf("decode %s state: %w", env.Kind, err)
	}
	if err := sess.validate(); err != nil {
		return nil, err
	}
	return sess, nil
}

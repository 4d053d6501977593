package prompt

import "fmt"

// Scripted answers prompts from a fixed list, in order. It records every
// label it was asked.
type Scripted struct {
	Answers []string
	Asked   []string
}

func (s *Scripted) next(label string) (string, error) {
	s.Asked = append(s.Asked, label)
	if len(s.Answers) == 0 {
		return "", ErrCancelled
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

func (s *Scripted) Input(label, def string) (string, error) {
	a, err := s.next(label)
	if err != nil {
		return "", err
	}
	if a == "" {
		return def, nil
	}
	return a, nil
}

func (s *Scripted) Secret(label string) (string, error) {
	return s.next(label)
}

func (s *Scripted) Select(label string, choices []Choice) (string, error) {
	a, err := s.next(label)
	if err != nil {
		return "", err
	}
	v, ok := Match(choices, a)
	if !ok {
		return "", fmt.Errorf("no choice matches %q", a)
	}
	return v, nil
}

func (s *Scripted) MultiSelect(label string, choices []Choice) ([]string, error) {
	a, err := s.next(label)
	if err != nil {
		return nil, err
	}
	values, ok := MatchAll(choices, a)
	if !ok {
		return nil, fmt.Errorf("no choices match %q", a)
	}
	return values, nil
}

func (s *Scripted) Confirm(label string) (bool, error) {
	a, err := s.next(label)
	if err != nil {
		return false, err
	}
	return IsYes(a), nil
}

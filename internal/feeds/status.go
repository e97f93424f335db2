package feeds

import "fmt"

// Status is a feed's subscription state.
type Status string

const (
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
)

// ParseStatus is strict: only the exact lowercase spellings are accepted.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSubscribed, StatusUnsubscribed:
		return Status(s), nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) String() string {
	return string(s)
}

func (s Status) MarshalText() ([]byte, error) {
	if _, err := ParseStatus(string(s)); err != nil {
		return nil, err
	}

	return []byte(s), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}

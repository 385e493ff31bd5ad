package model

import (
	"database/sql/driver"
	"fmt"
)

func scanText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T as text", src)
	}
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrUnknownValue, int(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	*r, err = ParseRole(s)
	return err
}

func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: category %d", ErrUnknownValue, int(c))
	}
	return c.String(), nil
}

func (c *Category) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	*c, err = ParseCategory(s)
	return err
}

func (s UserStatus) Value() (driver.Value, error) {
	if s != StatusActive && s != StatusDeleted {
		return nil, fmt.Errorf("%w: status %d", ErrUnknownValue, int(s))
	}
	return s.String(), nil
}

func (s *UserStatus) Scan(src any) error {
	text, err := scanText(src)
	if err != nil {
		return err
	}
	*s, err = ParseUserStatus(text)
	return err
}

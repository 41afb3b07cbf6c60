// Package domain provides defenitions of all entities.
package domain

import (
	"encoding/json"

	"github.com/go-petr/pet-wallet/pkg/moneypkg"
)

// Money is an amount in minor units. It is rendered as a two-decimal string in JSON.
type Money int64

// String returns the two-decimal representation of m.
func (m Money) String() string {
	return moneypkg.Format(int64(m))
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	minor, err := moneypkg.Parse(s)
	if err != nil {
		return err
	}

	*m = Money(minor)

	return nil
}

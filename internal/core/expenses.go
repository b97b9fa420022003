package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

type expenseEntry struct {
	Category Category
	Amount   float64
}

// ExpenseMap is an ordered category -> amount mapping. Keys keep the position
// of their first insertion. The zero value is an empty map; methods never
// modify the receiver.
type ExpenseMap struct {
	entries []expenseEntry
}

// NewExpenseMap returns an empty map.
func NewExpenseMap() ExpenseMap {
	return ExpenseMap{}
}

// With returns a copy of m with c set to amount.
func (m ExpenseMap) With(c Category, amount float64) ExpenseMap {
	out := make([]expenseEntry, len(m.entries), len(m.entries)+1)
	copy(out, m.entries)
	for i := range out {
		if out[i].Category == c {
			out[i].Amount = amount
			return ExpenseMap{entries: out}
		}
	}
	return ExpenseMap{entries: append(out, expenseEntry{Category: c, Amount: amount})}
}

// Amount returns the amount for c, zero when absent.
func (m ExpenseMap) Amount(c Category) float64 {
	for _, e := range m.entries {
		if e.Category == c {
			return e.Amount
		}
	}
	return 0
}

// Has reports whether c was set explicitly.
func (m ExpenseMap) Has(c Category) bool {
	for _, e := range m.entries {
		if e.Category == c {
			return true
		}
	}
	return false
}

// Categories returns the keys in insertion order.
func (m ExpenseMap) Categories() []Category {
	out := make([]Category, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Category
	}
	return out
}

// Each calls fn for every entry in insertion order.
func (m ExpenseMap) Each(fn func(c Category, amount float64)) {
	for _, e := range m.entries {
		fn(e.Category, e.Amount)
	}
}

func (m ExpenseMap) Len() int { return len(m.entries) }

// Sum returns the total of all amounts.
func (m ExpenseMap) Sum() float64 {
	var total float64
	for _, e := range m.entries {
		total += e.Amount
	}
	return total
}

// Validate rejects negative or non-finite amounts.
func (m ExpenseMap) Validate() error {
	for _, e := range m.entries {
		if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidAmount, e.Category, e.Amount)
		}
	}
	return nil
}

// MarshalJSON writes the entries as an object in insertion order.
func (m ExpenseMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.Category))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, e.Category)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Values may be numbers,
// currency strings (parsed leniently) or null.
func (m *ExpenseMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = ExpenseMap{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expenses: expected object, got %v", tok)
	}

	out := ExpenseMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expenses: unexpected key %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		var amount float64
		switch v := valTok.(type) {
		case json.Number:
			amount, err = v.Float64()
			if err != nil {
				return fmt.Errorf("%w: %s=%s", ErrInvalidAmount, key, v)
			}
		case string:
			amount = ParseAmount(v)
		case nil:
			amount = 0
		default:
			return fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidAmount, key, valTok)
		}
		out = out.With(Category(key), amount)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*m = out
	return nil
}

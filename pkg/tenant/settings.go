package tenant

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SettingKind tags the value carried by a SettingValue.
type SettingKind string

const (
	KindString  SettingKind = "string"
	KindInt     SettingKind = "int"
	KindBool    SettingKind = "bool"
	KindDecimal SettingKind = "decimal"
	KindTime    SettingKind = "time"
)

// SettingValue is a closed variant over the setting types a tenant may carry.
// Typed accessors never fail: a kind mismatch yields the caller's default,
// which keeps misconfigured settings from breaking request handling.
type SettingValue struct {
	Kind SettingKind

	str string
	i   int64
	b   bool
	dec decimal.Decimal
	t   time.Time
}

func StringValue(v string) SettingValue {
	return SettingValue{Kind: KindString, str: v}
}

func IntValue(v int64) SettingValue {
	return SettingValue{Kind: KindInt, i: v}
}

func BoolValue(v bool) SettingValue {
	return SettingValue{Kind: KindBool, b: v}
}

func DecimalValue(v decimal.Decimal) SettingValue {
	return SettingValue{Kind: KindDecimal, dec: v}
}

func TimeValue(v time.Time) SettingValue {
	return SettingValue{Kind: KindTime, t: v}
}

// ParseSettingValue builds a SettingValue from a kind tag and its string
// representation, the form settings arrive in from storage and admin APIs.
func ParseSettingValue(kind SettingKind, raw string) (SettingValue, error) {
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindInt:
		var i int64
		if _, err := fmt.Sscanf(raw, "%d", &i); err != nil {
			return SettingValue{}, fmt.Errorf("parse int setting %q: %w", raw, err)
		}
		return IntValue(i), nil
	case KindBool:
		switch raw {
		case "true", "1":
			return BoolValue(true), nil
		case "false", "0":
			return BoolValue(false), nil
		}
		return SettingValue{}, fmt.Errorf("parse bool setting %q: invalid value", raw)
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("parse decimal setting %q: %w", raw, err)
		}
		return DecimalValue(d), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return SettingValue{}, fmt.Errorf("parse time setting %q: %w", raw, err)
		}
		return TimeValue(t), nil
	}
	return SettingValue{}, fmt.Errorf("unknown setting kind %q", kind)
}

// String returns the carried string, or def on kind mismatch.
func (v SettingValue) String(def string) string {
	if v.Kind != KindString {
		return def
	}
	return v.str
}

// Int returns the carried integer, or def on kind mismatch.
func (v SettingValue) Int(def int64) int64 {
	if v.Kind != KindInt {
		return def
	}
	return v.i
}

// Bool returns the carried boolean, or def on kind mismatch.
func (v SettingValue) Bool(def bool) bool {
	if v.Kind != KindBool {
		return def
	}
	return v.b
}

// Decimal returns the carried decimal, or def on kind mismatch.
func (v SettingValue) Decimal(def decimal.Decimal) decimal.Decimal {
	if v.Kind != KindDecimal {
		return def
	}
	return v.dec
}

// Time returns the carried timestamp, or def on kind mismatch.
func (v SettingValue) Time(def time.Time) time.Time {
	if v.Kind != KindTime {
		return def
	}
	return v.t
}

// Raw returns the storage string form of the value.
func (v SettingValue) Raw() string {
	switch v.Kind {
	case KindString:
		return v.str
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindDecimal:
		return v.dec.String()
	case KindTime:
		return v.t.Format(time.RFC3339)
	}
	return ""
}

// settingValueJSON is the wire form used by caches and document stores.
type settingValueJSON struct {
	Kind  SettingKind `json:"kind"`
	Value string      `json:"value"`
}

func (v SettingValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingValueJSON{Kind: v.Kind, Value: v.Raw()})
}

func (v *SettingValue) UnmarshalJSON(data []byte) error {
	var w settingValueJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := ParseSettingValue(w.Kind, w.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

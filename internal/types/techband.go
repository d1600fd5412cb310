package types

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// TechBand is a tagged variant: a run's technology band entry is either a
// plain band number or a structured object (band plus extra attributes).
// Exactly one arm is set.
type TechBand struct {
	Scalar     *int
	Structured map[string]interface{}
}

func (b TechBand) MarshalJSON() ([]byte, error) {
	if b.Scalar != nil {
		return json.Marshal(*b.Scalar)
	}
	if b.Structured != nil {
		return json.Marshal(b.Structured)
	}
	return nil, fmt.Errorf("tech band has no value")
}

func (b *TechBand) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		b.Scalar = &n
		b.Structured = nil
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err == nil {
		b.Scalar = nil
		b.Structured = m
		return nil
	}
	return fmt.Errorf("tech band must be a number or an object, got %s", string(data))
}

type TechBands []TechBand

// ToJSON serializes the bands into the column representation.
func (bs TechBands) ToJSON() (datatypes.JSON, error) {
	raw, err := json.Marshal(bs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// TechBandsFromJSON parses the stored column back into the variant form.
func TechBandsFromJSON(raw datatypes.JSON) (TechBands, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var bs TechBands
	if err := json.Unmarshal(raw, &bs); err != nil {
		return nil, fmt.Errorf("parse tech bands: %w", err)
	}
	return bs, nil
}

package types

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
)

func TestTechBandUnmarshal(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		wantScalar *int
		wantKeys   []string
		wantErr    bool
	}{
		{name: "scalar", in: `3`, wantScalar: intp(3)},
		{name: "structured", in: `{"band": 2, "carrier": "EE", "notes": "roof only"}`, wantKeys: []string{"band", "carrier", "notes"}},
		{name: "string_rejected", in: `"band 3"`, wantErr: true},
		{name: "array_rejected", in: `[1,2]`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b TechBand
			err := json.Unmarshal([]byte(tc.in), &b)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("unmarshal %s succeeded, want error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tc.in, err)
			}
			if tc.wantScalar != nil {
				if b.Scalar == nil || *b.Scalar != *tc.wantScalar {
					t.Fatalf("Scalar=%v, want %d", b.Scalar, *tc.wantScalar)
				}
				if b.Structured != nil {
					t.Fatal("both arms set")
				}
				return
			}
			if b.Scalar != nil {
				t.Fatal("both arms set")
			}
			for _, k := range tc.wantKeys {
				if _, ok := b.Structured[k]; !ok {
					t.Fatalf("structured arm missing key %q: %v", k, b.Structured)
				}
			}
		})
	}
}

func TestTechBandMarshal(t *testing.T) {
	out, err := json.Marshal(TechBand{Scalar: intp(7)})
	if err != nil {
		t.Fatalf("marshal scalar: %v", err)
	}
	if string(out) != "7" {
		t.Fatalf("scalar marshals to %s", out)
	}

	out, err = json.Marshal(TechBand{Structured: map[string]interface{}{"band": 1}})
	if err != nil {
		t.Fatalf("marshal structured: %v", err)
	}
	if string(out) != `{"band":1}` {
		t.Fatalf("structured marshals to %s", out)
	}

	if _, err := json.Marshal(TechBand{}); err == nil {
		t.Fatal("empty tech band must not marshal")
	}
}

func TestTechBandsColumnRoundTrip(t *testing.T) {
	bands := TechBands{
		{Scalar: intp(1)},
		{Structured: map[string]interface{}{"band": float64(3), "carrier": "VF"}},
	}
	raw, err := bands.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := TechBandsFromJSON(raw)
	if err != nil {
		t.Fatalf("TechBandsFromJSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Scalar == nil || *got[0].Scalar != 1 {
		t.Fatalf("band 0 = %+v", got[0])
	}
	if got[1].Structured["carrier"] != "VF" {
		t.Fatalf("band 1 = %+v", got[1])
	}
}

func TestTechBandsFromJSONEmpty(t *testing.T) {
	got, err := TechBandsFromJSON(nil)
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
	got, err = TechBandsFromJSON(datatypes.JSON{})
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
}

func intp(n int) *int { return &n }

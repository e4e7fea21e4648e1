package typeclass

import "testing"

func classify(s string) Value { return Classify([]byte(s), DefaultDecimalSeparator) }

func TestClassifyNull(t *testing.T) {
	for _, s := range []string{"", "   "} {
		if got := classify(s).Type; got != Null {
			t.Errorf("classify(%q) = %v, want Null", s, got)
		}
	}
}

func TestClassifyString(t *testing.T) {
	cases := []string{"hello", "12ab", "1.2.3", "510 123 4567", "510-123-4567", "abc-def"}
	for _, s := range cases {
		if got := classify(s).Type; got != String {
			t.Errorf("classify(%q) = %v, want String", s, got)
		}
	}
}

func TestClassifyIntWidths(t *testing.T) {
	cases := []struct {
		s    string
		want Type
	}{
		{"0", Int8},
		{"127", Int8},
		{"-128", Int8},
		{"128", Int16},
		{"32000", Int16},
		{"32768", Int32},
		{"2000000000", Int32},
		{"3000000000", Int64},
		{"9000000000000000000", Int64},
		{"99999999999999999999999999", BigInt},
	}
	for _, c := range cases {
		v := classify(c.s)
		if v.Type != c.want {
			t.Errorf("classify(%q).Type = %v, want %v", c.s, v.Type, c.want)
		}
	}
}

func TestClassifyIntValue(t *testing.T) {
	v := classify("-42")
	if v.Type != Int8 || v.Int != -42 {
		t.Fatalf("classify(-42) = %+v", v)
	}
}

func TestClassifyBigIntValue(t *testing.T) {
	v := classify("-99999999999999999999999999")
	if v.Type != BigInt {
		t.Fatalf("Type = %v, want BigInt", v.Type)
	}
	if v.Big.Sign() >= 0 {
		t.Fatalf("Big = %v, want negative", v.Big)
	}
}

func TestClassifyDouble(t *testing.T) {
	v := classify("3.14")
	if v.Type != Double {
		t.Fatalf("Type = %v, want Double", v.Type)
	}
	if diff := v.Float - 3.14; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Float = %v, want ~3.14", v.Float)
	}
}

func TestClassifyNegativeDouble(t *testing.T) {
	v := classify("-0.5")
	if v.Type != Double {
		t.Fatalf("Type = %v, want Double", v.Type)
	}
	if diff := v.Float - (-0.5); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Float = %v, want -0.5", v.Float)
	}
}

func TestClassifyScientificNotation(t *testing.T) {
	v := classify("1.5e3")
	if v.Type != Double {
		t.Fatalf("Type = %v, want Double", v.Type)
	}
	if diff := v.Float - 1500; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("Float = %v, want 1500", v.Float)
	}
}

func TestClassifyScientificNotationNegativeExponent(t *testing.T) {
	// The exponent marker is only recognized after a decimal point has
	// already been seen (matching the original project's rule), so the
	// mantissa here is "2.0", not a bare "2".
	v := classify("2.0e-2")
	if v.Type != Double {
		t.Fatalf("Type = %v, want Double", v.Type)
	}
	if diff := v.Float - 0.02; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("Float = %v, want 0.02", v.Float)
	}
}

func TestClassifyBareExponentWithoutDotIsString(t *testing.T) {
	if got := classify("2e2").Type; got != String {
		t.Errorf("classify(%q) = %v, want String", "2e2", got)
	}
}

func TestClassifyTrailingEIsString(t *testing.T) {
	if got := classify("1.5e").Type; got != String {
		t.Errorf("classify(%q) = %v, want String", "1.5e", got)
	}
}

func TestClassifyCustomDecimalSeparator(t *testing.T) {
	v := Classify([]byte("3,14"), ',')
	if v.Type != Double {
		t.Fatalf("Type = %v, want Double", v.Type)
	}
}

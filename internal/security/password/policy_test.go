package password

import (
	"reflect"
	"testing"
)

func TestPolicyZeroValueAcceptsAll(t *testing.T) {
	var p Policy
	for _, s := range []string{"", "x", "cualquier cosa"} {
		if ok, reasons := p.Validate(s); !ok {
			t.Fatalf("Validate(%q) = false, reasons %v; el zero value no exige nada", s, reasons)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	full := Policy{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}

	cases := []struct {
		name    string
		policy  Policy
		input   string
		reasons []string
	}{
		{"cumple todo", full, "Abcdef1!", nil},
		{"corta", Policy{MinLength: 8}, "Abc1!", []string{"too_short"}},
		{"sin mayuscula", Policy{RequireUpper: true}, "abc1!", []string{"missing_upper"}},
		{"sin minuscula", Policy{RequireLower: true}, "ABC1!", []string{"missing_lower"}},
		{"sin digito", Policy{RequireDigit: true}, "Abcdef!", []string{"missing_digit"}},
		{"sin simbolo", Policy{RequireSymbol: true}, "Abcdef1", []string{"missing_symbol"}},
		{"acumula razones", full, "ab", []string{"too_short", "missing_upper", "missing_digit", "missing_symbol"}},
		{"longitud en runas", Policy{MinLength: 4}, "ññññ", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reasons := tc.policy.Validate(tc.input)
			if ok != (len(tc.reasons) == 0) {
				t.Fatalf("ok = %v, reasons %v", ok, reasons)
			}
			if !reflect.DeepEqual(reasons, tc.reasons) {
				t.Fatalf("reasons = %v, want %v", reasons, tc.reasons)
			}
		})
	}
}

package envelope

import (
	"errors"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"clean object", `{"a":1}`, `{"a":1}`, false},
		{"leading and trailing noise", `garbage{"a":1}trailing`, `{"a":1}`, false},
		{"whitespace framing", "\n  {\"live\":[]}\r\n", `{"live":[]}`, false},
		{"jsonp padding", `callback({"ok":true});`, `{"ok":true}`, false},
		{"no opening brace", `[1,2,3]`, "", true},
		{"no closing brace", `{"a":1`, "", true},
		{"brace order reversed", `}{`, "", true},
		{"span not valid json", `x{"a":}y`, "", true},
		{"empty body", ``, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEnvelope) {
					t.Fatalf("Extract(%q) err = %v, want ErrInvalidEnvelope", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract(%q) unexpected error: %v", tt.raw, err)
			}
			if string(got) != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte(`ok{"a":1}`)); err != nil {
		t.Errorf("Validate on wrapped object: %v", err)
	}
	if err := Validate([]byte(`no json here`)); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("Validate on garbage = %v, want ErrInvalidEnvelope", err)
	}
}

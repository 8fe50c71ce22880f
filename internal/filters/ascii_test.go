package filters

import (
	"bytes"
	"testing"
)

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{"plain", "48656C6C6F>", []byte("Hello"), false},
		{"lower case", "48656c6c6f>", []byte("Hello"), false},
		{"whitespace", "48 65\n6C\t6C 6F >", []byte("Hello"), false},
		{"odd digit count", "48656C6C6>", []byte("Hell`"), false},
		{"no end marker", "48656C6C6F", []byte("Hello"), false},
		{"data after end marker", "4142>4344", []byte("AB"), false},
		{"empty", ">", []byte{}, false},
		{"invalid digit", "48G5", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCIIHexDecode([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{"short final group", "87cURDZ~>", []byte("Hello"), false},
		{"several groups", `87cURD]i,"Ebo7~>`, []byte("Hello World"), false},
		{"zero group", "z@:E^~>", []byte("\x00\x00\x00\x00abc"), false},
		{"whitespace", "87cU RD\nZ ~>", []byte("Hello"), false},
		{"open marker", "<~87cURDZ~>", []byte("Hello"), false},
		{"no end marker", "87cURDZ", []byte("Hello"), false},
		{"content operators", `6<#'\7PQ#?1*BP.~>`, []byte("BT /F1 12 Tf"), false},
		{"invalid byte", "87\xffcURD~>", nil, true},
		{"lone tilde", "87cU~RD", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ASCII85Decode([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsWhitespace(t *testing.T) {
	for _, c := range []byte{' ', '\t', '\r', '\n', '\f', 0} {
		if !isWhitespace(c) {
			t.Errorf("isWhitespace(%d) = false", c)
		}
	}
	for _, c := range []byte{'a', 'Z', '0', '!', '\x01'} {
		if isWhitespace(c) {
			t.Errorf("isWhitespace(%q) = true", c)
		}
	}
}

package errors

import (
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "diagram", false},
		{"valid with dash", "my-diagram", false},
		{"valid with dot", "team.flow", false},
		{"valid nested", "team/flow", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"absolute", "/etc/passwd", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidKey) {
				t.Errorf("ValidateKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidKey)
			}
		})
	}
}

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "a", false},
		{"uuid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"with spaces", "start node", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"tab", "a\tb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocumentPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"json", "graph.json", ""},
		{"yaml", "dir/graph.yaml", ""},
		{"yml upper", "GRAPH.YML", ""},
		{"empty", "", ErrCodeInvalidPath},
		{"control char", "graph\x01.json", ErrCodeInvalidPath},
		{"too long", string(make([]byte, 600)), ErrCodeInvalidPath},
		{"wrong extension", "graph.dot", ErrCodeInvalidFormat},
		{"no extension", "graph", ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentPath(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateDocumentPath(%q) code = %v, want %v", tt.input, got, tt.wantCode)
			}
		})
	}
}

func TestValidateStoreURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"memory", "memory://", false},
		{"file", "file:///var/lib/digraph", false},
		{"redis", "redis://localhost:6379/0", false},
		{"rediss", "rediss://cache.example.com:6380", false},
		{"mongo", "mongodb://localhost:27017/digraph", false},
		{"mongo srv", "mongodb+srv://cluster.example.com/digraph", false},

		{"empty", "", true},
		{"http", "http://example.com", true},
		{"bare path", "/tmp/docs", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStoreURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStoreURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

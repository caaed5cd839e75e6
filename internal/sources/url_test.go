package sources

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "basic URL",
			input:    "https://example.com/path",
			expected: "https://example.com/path",
		},
		{
			name:     "remove www prefix",
			input:    "https://www.example.com/path",
			expected: "https://example.com/path",
		},
		{
			name:     "remove trailing slash",
			input:    "https://example.com/path/",
			expected: "https://example.com/path",
		},
		{
			name:     "remove fragment",
			input:    "https://example.com/path#section",
			expected: "https://example.com/path",
		},
		{
			name:     "remove utm parameters",
			input:    "https://example.com/path?utm_source=google&utm_medium=cpc&id=123",
			expected: "https://example.com/path?id=123",
		},
		{
			name:     "remove fbclid",
			input:    "https://example.com/path?fbclid=xyz123",
			expected: "https://example.com/path",
		},
		{
			name:     "lowercase scheme and host",
			input:    "HTTPS://Example.COM/Path",
			expected: "https://example.com/Path",
		},
		{
			name:    "invalid URL",
			input:   "ht tp://bad url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain host", "https://example.com/path", "example.com"},
		{"strip www", "https://www.example.com", "example.com"},
		{"keep subdomain", "https://blog.example.com/post", "blog.example.com"},
		{"strip port", "https://example.com:8443/x", "example.com"},
		{"lowercase", "https://EXAMPLE.com", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractDomain(tt.input)
			if err != nil {
				t.Fatalf("ExtractDomain(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

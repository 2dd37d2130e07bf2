package i18n

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "id-ID,id;q=0.9,en;q=0.8", want: Indonesian, wantOK: true},
		{raw: "zh-CN", want: Chinese, wantOK: true},
		{raw: "en-GB", want: English, wantOK: true},
		{raw: "fr-FR", want: English, wantOK: false},
		{raw: "", want: English, wantOK: false},
		{raw: ";;;", want: English, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Match(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("Match(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("zh"); got != Chinese {
		t.Fatalf("Normalize(zh) = %q", got)
	}
	if got := Normalize("ID"); got != Indonesian {
		t.Fatalf("Normalize(ID) = %q", got)
	}
	if got := Normalize("xx"); got != English {
		t.Fatalf("Normalize(xx) = %q", got)
	}
}

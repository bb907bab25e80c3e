package csvtable

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "plain rows",
			text: "a,b,c\n1,2,3\n",
			want: [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name: "quoted comma",
			text: "\"Smith, John\",100\n",
			want: [][]string{{"Smith, John", "100"}},
		},
		{
			name: "doubled quote escape",
			text: "\"say \"\"hi\"\"\",x\n",
			want: [][]string{{`say "hi"`, "x"}},
		},
		{
			name: "quoted embedded newline",
			text: "\"line1\nline2\",x\n",
			want: [][]string{{"line1\nline2", "x"}},
		},
		{
			name: "cr terminator",
			text: "a,b\rc,d\r",
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "crlf terminator",
			text: "a,b\r\nc,d\r\n",
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "no trailing newline",
			text: "a,b\nc,d",
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "trailing comma gives empty field",
			text: "a,b,\n",
			want: [][]string{{"a", "b", ""}},
		},
		{
			name: "trailing comma at end of input",
			text: "a,b,",
			want: [][]string{{"a", "b", ""}},
		},
		{
			name: "interior empty fields",
			text: "a,,c\n",
			want: [][]string{{"a", "", "c"}},
		},
		{
			name: "blank interior line kept",
			text: "a\n\nb\n",
			want: [][]string{{"a"}, {""}, {"b"}},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.text, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseUnterminatedQuote(t *testing.T) {
	_, err := Parse("a,\"never closed\n")
	if err == nil {
		t.Fatal("expected error for unterminated quote")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if pe.Offset != 2 {
		t.Errorf("offset = %d, want 2", pe.Offset)
	}
	if pe.Snippet == "" {
		t.Error("snippet is empty")
	}
}

func TestParseGarbageAfterQuote(t *testing.T) {
	if _, err := Parse("\"ok\"oops,b\n"); err == nil {
		t.Fatal("expected error for text after closing quote")
	}
}

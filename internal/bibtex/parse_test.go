package bibtex

import (
	"strings"
	"testing"
)

func TestParse_CompleteEntry(t *testing.T) {
	text := `@article{smith2021,
  author = {Smith, John and Doe, Jane},
  title = {A Study of Things},
  journal = {Nature},
  year = {2021},
}`

	e := Parse(text)

	tok, ok := e.Slot.(Token)
	if !ok {
		t.Fatalf("Parse() Slot = %T, want Token", e.Slot)
	}
	if string(tok) != "smith2021" {
		t.Errorf("Parse() key = %q, want %q", tok, "smith2021")
	}
	if e.Author != "Smith" {
		t.Errorf("Parse() author = %q, want %q", e.Author, "Smith")
	}
	if e.Year != "2021" {
		t.Errorf("Parse() year = %q, want %q", e.Year, "2021")
	}
}

func TestParse_FieldOrderIrrelevant(t *testing.T) {
	text := `@article{key1,
  year = {1999},
  title = {Title First},
  author = {Turing, Alan},
}`

	e := Parse(text)
	if e.Author != "Turing" {
		t.Errorf("Parse() author = %q, want %q", e.Author, "Turing")
	}
	if e.Year != "1999" {
		t.Errorf("Parse() year = %q, want %q", e.Year, "1999")
	}
}

func TestParse_NestedBracesAndMultiline(t *testing.T) {
	text := `@article{key2,
  title = {The {BIG} Result:
           a {nested {deeply}} story},
  author = {van der Berg, Anna and
            Smith, Bob},
  year = {2015},
}`

	e := Parse(text)
	if e.Author != "van der Berg" {
		t.Errorf("Parse() author = %q, want %q", e.Author, "van der Berg")
	}
	if e.Year != "2015" {
		t.Errorf("Parse() year = %q, want %q", e.Year, "2015")
	}
	if tok, ok := e.Slot.(Token); !ok || string(tok) != "key2" {
		t.Errorf("Parse() slot = %#v, want Token(key2)", e.Slot)
	}
}

func TestParse_AuthorForms(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"last comma first", "Smith, John", "Smith"},
		{"multiple authors", "Smith, John and Doe, Jane", "Smith"},
		{"first last form", "John Smith", "Smith"},
		{"first last multiple", "John Smith and Jane Doe", "Smith"},
		{"braced unit", "{World Health Organization}", "World Health Organization"},
		{"braced surname", "{de la Cruz}, Maria", "de la Cruz"},
		{"latex escaped", `M{\"u}ller, Hans`, `M{\"u}ller`},
		{"single name", "Aristotle", "Aristotle"},
		{"uppercase AND", "Smith, John AND Doe, Jane", "Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "@misc{k, author = {" + tt.value + "}, year = {2000}}"
			e := Parse(text)
			if e.Author != tt.want {
				t.Errorf("Parse() author = %q, want %q", e.Author, tt.want)
			}
		})
	}
}

func TestParse_QuotedAndBareValues(t *testing.T) {
	text := `@article{q1, author = "Lovelace, Ada", year = 1843}`

	e := Parse(text)
	if e.Author != "Lovelace" {
		t.Errorf("Parse() author = %q, want %q", e.Author, "Lovelace")
	}
	if e.Year != "1843" {
		t.Errorf("Parse() year = %q, want %q", e.Year, "1843")
	}
}

func TestParse_YearValidation(t *testing.T) {
	tests := []struct {
		name string
		year string
		want string
	}{
		{"four digits", "2020", "2020"},
		{"non numeric", "twenty-twenty", ""},
		{"partial numeric", "2020a", ""},
		{"too short", "999", ""},
		{"too long", "20201", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "@misc{k, year = {" + tt.year + "}}"
			e := Parse(text)
			if e.Year != tt.want {
				t.Errorf("Parse() year = %q, want %q", e.Year, tt.want)
			}
		})
	}
}

func TestParse_AbsentParts(t *testing.T) {
	e := Parse("@misc{lonely}")
	if tok, ok := e.Slot.(Token); !ok || string(tok) != "lonely" {
		t.Errorf("Parse() slot = %#v, want Token(lonely)", e.Slot)
	}
	if e.Author != "" {
		t.Errorf("Parse() author = %q, want empty", e.Author)
	}
	if e.Year != "" {
		t.Errorf("Parse() year = %q, want empty", e.Year)
	}
}

func TestParse_NoEntry(t *testing.T) {
	e := Parse("just some prose, no entry here")
	if e.Slot != nil {
		t.Errorf("Parse() slot = %#v, want nil", e.Slot)
	}
}

func TestParse_EmptyKeySlot(t *testing.T) {
	// "@article{" is 9 bytes, so the insertion point is offset 9.
	text := "@article{, author = {Jones, Amy}, year = {2019}}"

	e := Parse(text)
	ip, ok := e.Slot.(InsertionPoint)
	if !ok {
		t.Fatalf("Parse() slot = %T, want InsertionPoint", e.Slot)
	}
	if int(ip) != 9 {
		t.Errorf("Parse() insertion point = %d, want 9", int(ip))
	}
	if e.Author != "Jones" {
		t.Errorf("Parse() author = %q, want %q", e.Author, "Jones")
	}
}

func TestParse_FieldInKeySlot(t *testing.T) {
	// No key at all: the first thing after the brace is a field.
	text := "@article{author = {Jones, Amy}, year = {2019}}"

	e := Parse(text)
	ip, ok := e.Slot.(InsertionPoint)
	if !ok {
		t.Fatalf("Parse() slot = %T, want InsertionPoint", e.Slot)
	}
	if int(ip) != 9 {
		t.Errorf("Parse() insertion point = %d, want 9", int(ip))
	}
	if e.Author != "Jones" {
		t.Errorf("Parse() author = %q, want %q", e.Author, "Jones")
	}
	if e.Year != "2019" {
		t.Errorf("Parse() year = %q, want %q", e.Year, "2019")
	}
}

func TestRewriteKey_TokenRoundTrip(t *testing.T) {
	text := `@article{tmp,
  author = {Smith, John},
  year = {2021},
}`

	e := Parse(text)
	tok, ok := e.Slot.(Token)
	if !ok {
		t.Fatalf("Parse() slot = %T, want Token", e.Slot)
	}

	rewritten := RewriteKey(text, tok, "smith2021b")
	if !strings.HasPrefix(rewritten, "@article{smith2021b,") {
		t.Errorf("RewriteKey() = %q, want prefix @article{smith2021b,", rewritten)
	}

	again := Parse(rewritten)
	tok2, ok := again.Slot.(Token)
	if !ok || string(tok2) != "smith2021b" {
		t.Errorf("re-Parse() key = %#v, want Token(smith2021b)", again.Slot)
	}
}

func TestRewriteKey_FirstOccurrenceOnly(t *testing.T) {
	// "tmp" also appears inside a field value; only the key changes.
	text := `@article{tmp, title = {about tmp files}, year = {2001}}`

	got := RewriteKey(text, Token("tmp"), "doe2001")
	if !strings.HasPrefix(got, "@article{doe2001,") {
		t.Errorf("RewriteKey() = %q, want key doe2001", got)
	}
	if !strings.Contains(got, "{about tmp files}") {
		t.Errorf("RewriteKey() corrupted a later occurrence: %q", got)
	}
}

func TestRewriteKey_InsertionPointSplice(t *testing.T) {
	text := "@article{, author = {Jones, Amy}, year = {2019}}"

	got := RewriteKey(text, InsertionPoint(9), "jones2019")

	want := "@article{jones2019, author = {Jones, Amy}, year = {2019}}"
	if got != want {
		t.Errorf("RewriteKey() = %q, want %q", got, want)
	}
	// Nothing removed: every original byte is still present.
	if len(got) != len(text)+len("jones2019") {
		t.Errorf("RewriteKey() length = %d, want %d", len(got), len(text)+len("jones2019"))
	}

	again := Parse(got)
	if tok, ok := again.Slot.(Token); !ok || string(tok) != "jones2019" {
		t.Errorf("re-Parse() key = %#v, want Token(jones2019)", again.Slot)
	}
}

func TestRewriteKey_NilSlot(t *testing.T) {
	text := "no entry"
	if got := RewriteKey(text, nil, "key"); got != text {
		t.Errorf("RewriteKey() with nil slot = %q, want unchanged", got)
	}
}

func TestTemplate(t *testing.T) {
	got := Template("")
	e := Parse(got)
	if _, ok := e.Slot.(InsertionPoint); !ok {
		t.Errorf("Template(\"\") slot = %T, want InsertionPoint", e.Slot)
	}

	got = Template("doe2020")
	e = Parse(got)
	if tok, ok := e.Slot.(Token); !ok || string(tok) != "doe2020" {
		t.Errorf("Template(doe2020) slot = %#v, want Token(doe2020)", e.Slot)
	}
	if !strings.Contains(got, "author = {}") {
		t.Errorf("Template() missing author field: %q", got)
	}
}

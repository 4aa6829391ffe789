package llm

import (
	"errors"
	"testing"
)

func TestParseResponseExtractsWrappedJSON(t *testing.T) {
	text := "Here are your groups:\n```json\n" + `{
		"groups": [
			{
				"items": [
					{"title": "Heat", "year": 1995},
					{"title": "Ronin", "year": 1998},
					{"title": "The Italian Job", "year": 1969},
					{"title": "Rififi", "year": 1955}
				],
				"connection": "Famous heist sequences",
				"connectionType": "Common theme",
				"explanation": "All are celebrated for a central heist set piece."
			}
		]
	}` + "\n```\nLet me know if you want more."

	groups, err := ParseResponse(text)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.ID == "" {
		t.Error("expected generated id")
	}
	if g.Connection != "Famous heist sequences" {
		t.Errorf("unexpected connection: %q", g.Connection)
	}
	if len(g.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(g.Items))
	}
	if g.Items[0].Title != "Heat" || g.Items[0].Year == nil || *g.Items[0].Year != 1995 {
		t.Errorf("unexpected first item: %+v", g.Items[0])
	}
	if g.Items[0].Verified {
		t.Error("parsed items must start unverified")
	}
}

func TestParseResponseDropsInvalidGroups(t *testing.T) {
	text := `{
		"groups": [
			{"items": [{"title": "A"}, {"title": "B"}, {"title": "C"}], "connection": "Three items"},
			{"items": [{"title": "A"}, {"title": "B"}, {"title": "C"}, {"title": "D"}], "connection": ""},
			{"items": [{"title": "A"}, {"title": "B"}, {"title": "C"}, {"title": "D"}], "connection": "Keeper"}
		]
	}`

	groups, err := ParseResponse(text)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if len(groups) != 1 || groups[0].Connection != "Keeper" {
		t.Fatalf("expected only the valid group, got %+v", groups)
	}
}

func TestParseResponseMalformed(t *testing.T) {
	for _, text := range []string{
		"no json here at all",
		"{ \"groups\": [ unbalanced",
		`{"groups": "not an array"}`,
	} {
		_, err := ParseResponse(text)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ParseResponse(%q): expected ErrMalformedResponse, got %v", text, err)
		}
	}
}

func TestExtractJSONObjectIgnoresBracesInStrings(t *testing.T) {
	text := `prefix {"connection": "odd } brace", "n": 1} suffix`
	raw, err := extractJSONObject(text)
	if err != nil {
		t.Fatalf("extractJSONObject failed: %v", err)
	}
	want := `{"connection": "odd } brace", "n": 1}`
	if raw != want {
		t.Errorf("got %q, want %q", raw, want)
	}
}

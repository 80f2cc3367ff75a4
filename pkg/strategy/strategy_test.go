package strategy

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate_GraphQL(t *testing.T) {
	if !GraphQL.Validate(graphqlEntry(`{"data":{"viewer":null}}`)) {
		t.Fatalf("expected graphql entry to validate")
	}
	if GraphQL.Validate(graphqlEntry(`{"data":`)) {
		t.Fatalf("truncated JSON must not validate")
	}
}

func TestValidate_SearchAdsRequiresGuard(t *testing.T) {
	if !SearchAds.Validate(searchAdsEntry(searchAdsRaw)) {
		t.Fatalf("expected guarded payload to validate")
	}
	if SearchAds.Validate(searchAdsEntry(`{"payload":{}}`)) {
		t.Fatalf("payload without guard must not validate")
	}
	if SearchAds.Validate(searchAdsEntry(`for (;;);{"payload":`)) {
		t.Fatalf("guarded but truncated payload must not validate")
	}
}

func TestValidate_EachPredicateIsNecessary(t *testing.T) {
	cases := []struct {
		name  string
		s     Strategy
		url   string
		mime  string
		text  string
		valid bool
	}{
		{"graphql ok", GraphQL, graphqlURL, "text/html", `{}`, true},
		{"graphql wrong url", GraphQL, "https://www.facebook.com/ajax/bz", "text/html", `{}`, false},
		{"graphql wrong mime", GraphQL, graphqlURL, "application/json", `{}`, false},
		{"graphql bad payload", GraphQL, graphqlURL, "text/html", `<html>`, false},
		{"search ok", SearchAds, searchAdsURL, "application/x-javascript", searchAdsRaw, true},
		{"search wrong url", SearchAds, "https://www.facebook.com/ads/library/", "application/x-javascript", searchAdsRaw, false},
		{"search wrong mime", SearchAds, searchAdsURL, "text/html", searchAdsRaw, false},
		{"search bad payload", SearchAds, searchAdsURL, "application/x-javascript", "for (;;);nope", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.s.Validate(mkEntry(tc.url, tc.mime, tc.text))
			if got != tc.valid {
				t.Fatalf("Validate = %v, want %v", got, tc.valid)
			}
		})
	}
}

func TestValidate_DecodedPayloadIsTriviallyValid(t *testing.T) {
	parsed, err := SearchAds.Parse(searchAdsEntry(searchAdsRaw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !SearchAds.Validate(parsed) {
		t.Fatalf("decoded entry should still validate")
	}
}

func TestParse_SearchAdsIsIdempotent(t *testing.T) {
	src := searchAdsEntry(searchAdsRaw)
	once, err := SearchAds.Parse(src)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	twice, err := SearchAds.Parse(once)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if diff := cmp.Diff(string(once.Response.Content.Text.JSON()), string(twice.Response.Content.Text.JSON())); diff != "" {
		t.Fatalf("parse is not idempotent (-first +second):\n%s", diff)
	}
	if src.Response.Content.Text.IsDecoded() {
		t.Fatalf("Parse mutated its input")
	}
}

func TestParse_StripsOnlyLeadingGuard(t *testing.T) {
	e := searchAdsEntry(`for (;;);{"note":"for (;;);"}`)
	parsed, err := SearchAds.Parse(e)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := string(parsed.Response.Content.Text.JSON()); got != `{"note":"for (;;);"}` {
		t.Fatalf("unexpected decoded payload %s", got)
	}
}

func TestParse_GraphQLRoundTrip(t *testing.T) {
	text := `{"data":{"node":{"id":"42","tags":["a","b"],"score":1.5,"ok":true,"none":null}}}`
	parsed, err := GraphQL.Parse(graphqlEntry(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	reencoded, err := json.Marshal(parsed.Response.Content.Text)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var want, got any
	if err := json.Unmarshal([]byte(text), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(reencoded, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_InvalidPayloadReturnsError(t *testing.T) {
	_, err := SearchAds.Parse(searchAdsEntry(`{"no":"guard"}`))
	if !errors.Is(err, ErrNotDecodable) {
		t.Fatalf("expected ErrNotDecodable, got %v", err)
	}
	_, err = GraphQL.Parse(graphqlEntry(`{"data":`))
	if !errors.Is(err, ErrNotDecodable) {
		t.Fatalf("expected ErrNotDecodable, got %v", err)
	}
}

func TestScalarPayloadIsNotDecodable(t *testing.T) {
	for _, body := range []string{`"abc"`, `42`, `true`, `null`} {
		e := graphqlEntry(body)
		if GraphQL.Validate(e) {
			t.Fatalf("scalar body %s must not validate", body)
		}
		if _, err := GraphQL.Parse(e); !errors.Is(err, ErrNotDecodable) {
			t.Fatalf("scalar body %s: expected ErrNotDecodable, got %v", body, err)
		}
	}
	if !SearchAds.Validate(searchAdsEntry(`for (;;);[1,2]`)) {
		t.Fatalf("guarded array body should validate")
	}
}

func TestUnknownStrategyNeverValidates(t *testing.T) {
	if Strategy(7).Validate(graphqlEntry(`{}`)) {
		t.Fatalf("unknown strategy must not validate")
	}
	if Strategy(7).Label() != "" {
		t.Fatalf("unknown strategy must have no label")
	}
}

func TestFromNames(t *testing.T) {
	got, err := FromNames([]string{"Search_Ads", " graphql "})
	if err != nil {
		t.Fatalf("FromNames: %v", err)
	}
	if diff := cmp.Diff([]Strategy{SearchAds, GraphQL}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	def, err := FromNames(nil)
	if err != nil || len(def) != 2 || def[0] != GraphQL {
		t.Fatalf("expected default order, got %v (%v)", def, err)
	}

	if _, err := FromNames([]string{"rest"}); err == nil {
		t.Fatalf("expected error for unknown name")
	}
	if _, err := FromNames([]string{"graphql", "graphql"}); err == nil {
		t.Fatalf("expected error for duplicates")
	}
}

package main

import "testing"

func TestParseArgs(t *testing.T) {
	data, err := parseArgs([]string{"operation=add", "a=10", "b=5", "note=plain text"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if data["operation"] != "add" {
		t.Fatalf("unexpected operation: %v", data["operation"])
	}
	if data["a"] != 10.0 || data["b"] != 5.0 {
		t.Fatalf("numeric values must parse as JSON numbers: %v", data)
	}
	if data["note"] != "plain text" {
		t.Fatalf("non-JSON values must stay strings: %v", data["note"])
	}
}

func TestParseArgsJSONValues(t *testing.T) {
	data, err := parseArgs([]string{`value="quoted"`, "flag=true", "empty="})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if data["value"] != "quoted" {
		t.Fatalf("quoted JSON string must unquote: %v", data["value"])
	}
	if data["flag"] != true {
		t.Fatalf("booleans must parse: %v", data["flag"])
	}
	if data["empty"] != "" {
		t.Fatalf("empty value must stay empty string: %v", data["empty"])
	}
}

func TestParseArgsRejectsBadPairs(t *testing.T) {
	if _, err := parseArgs([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing =")
	}
	if _, err := parseArgs([]string{"=v"}); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if data, err := parseArgs(nil); err != nil || data != nil {
		t.Fatalf("no pairs must yield nil data")
	}
}

package http

import (
	"strings"
	"testing"
)

func TestEventSubject(t *testing.T) {
	const uid = "0b8f6a52-3c1d-4e7a-9f21-5d6c7e8f9a01"
	tests := []struct {
		msg  wsMessage
		want string
		ok   bool
	}{
		{wsMessage{}, "places.events.*.*", true},
		{wsMessage{User: uid}, "places.events.*." + uid, true},
		{wsMessage{User: strings.ToUpper(uid)}, "places.events.*." + uid, true},
		{wsMessage{Type: "created"}, "places.events.created.*", true},
		{wsMessage{User: uid, Type: "deleted"}, "places.events.deleted." + uid, true},
		{wsMessage{Type: "renamed"}, "", false},
		{wsMessage{User: "u1"}, "", false},
		{wsMessage{User: "a.b"}, "", false},
		{wsMessage{User: "*"}, "", false},
		{wsMessage{User: ">"}, "", false},
		{wsMessage{User: uid + ".>"}, "", false},
	}
	for _, tt := range tests {
		got, ok := eventSubject(tt.msg)
		if got != tt.want || ok != tt.ok {
			t.Errorf("eventSubject(%+v) = %q, %v; want %q, %v", tt.msg, got, ok, tt.want, tt.ok)
		}
	}
}

func TestETagMatches(t *testing.T) {
	tag := `W/"abc"`
	for header, want := range map[string]bool{
		"":                  false,
		`W/"abc"`:           true,
		`"abc"`:             true,
		`"x", W/"abc"`:      true,
		"*":                 true,
		`W/"other"`:         false,
	} {
		if got := etagMatches(header, tag); got != want {
			t.Errorf("etagMatches(%q) = %v, want %v", header, got, want)
		}
	}
}

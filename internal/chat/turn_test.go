package chat

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnIDAcceptsStringAndNumber(t *testing.T) {
	var fromString Turn
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1712345678901","role":"user","parts":[{"type":"text","text":"hi"}]}`), &fromString))
	assert.Equal(t, TurnID("1712345678901"), fromString.ID)

	var fromNumber Turn
	require.NoError(t, json.Unmarshal([]byte(`{"id":1712345678901,"role":"assistant","parts":[]}`), &fromNumber))
	assert.Equal(t, TurnID("1712345678901"), fromNumber.ID)

	var missing Turn
	require.NoError(t, json.Unmarshal([]byte(`{"id":null,"role":"user"}`), &missing))
	assert.Equal(t, TurnID(""), missing.ID)
}

func TestTurnIDIgnoresUnusableValues(t *testing.T) {
	for _, raw := range []string{`{"k":1}`, `true`, `[1,2]`} {
		var turn Turn
		require.NoError(t, json.Unmarshal([]byte(`{"id":`+raw+`,"role":"user","parts":[{"type":"text","text":"hi"}]}`), &turn), raw)
		assert.Equal(t, TurnID(""), turn.ID, raw)
		assert.Equal(t, RoleUser, turn.Role, raw)
		assert.Equal(t, "hi", turn.Parts[0].Text, raw)
	}
}

func TestTurnIDMarshalsNumericAsNumber(t *testing.T) {
	bts, err := json.Marshal(Turn{ID: "42", Role: RoleAssistant, Parts: []Part{{Type: PartTypeText, Text: "ok"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"role":"assistant","parts":[{"type":"text","text":"ok"}]}`, string(bts))

	bts, err = json.Marshal(TurnID("msg-1"))
	require.NoError(t, err)
	assert.Equal(t, `"msg-1"`, string(bts))
}

func TestNewIDIncreases(t *testing.T) {
	prev, err := strconv.ParseInt(string(NewID()), 10, 64)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		next, err := strconv.ParseInt(string(NewID()), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestTurnText(t *testing.T) {
	tests := []struct {
		name   string
		parts  []Part
		want   string
		wantOk bool
	}{
		{name: "single text", parts: []Part{{Type: PartTypeText, Text: "A"}}, want: "A", wantOk: true},
		{name: "untyped part", parts: []Part{{Text: "B"}}, want: "B", wantOk: true},
		{name: "first part only", parts: []Part{{Type: "file"}, {Type: PartTypeText, Text: "hi"}}, wantOk: false},
		{name: "later parts ignored", parts: []Part{{Type: PartTypeText, Text: "C"}, {Type: PartTypeText, Text: "D"}}, want: "C", wantOk: true},
		{name: "empty text", parts: []Part{{Type: PartTypeText, Text: ""}}, wantOk: false},
		{name: "no parts", parts: nil, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Turn{Role: RoleUser, Parts: tt.parts}.Text()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

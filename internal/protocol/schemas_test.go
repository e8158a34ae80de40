package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"farmview.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, raw []byte) {
		t.Helper()
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate %s: %v", raw, err)
		}
	}

	frameSchema := compile("frame.schema.json")
	fieldSchema := compile("field_update.schema.json")
	commandSchema := compile("command.schema.json")

	frames := []string{
		`{"type":"CONNECTION","data":{"status":"connected","message":"hi","clients":1},"timestamp":"10:00:00.000"}`,
		`{"type":"CONNECTED","message":"Welcome"}`,
		`{"type":"SUPPLIER_UPDATE","data":[{"name":"A","budget":100,"spent":10,"wins":1}]}`,
		`{"type":"LOG","data":{"message":"Drone-1 low battery"}}`,
	}
	for _, f := range frames {
		validate(frameSchema, []byte(f))
		if _, err := protocol.Decode([]byte(f)); err != nil {
			t.Fatalf("decode %s: %v", f, err)
		}
	}

	field := []byte(`{"type":"FIELD_UPDATE","timestamp":"2026-05-01T10:00:00Z","data":{"id":1,"crop":"CORN","moisture":42,"growth":55,"stage":"growing","sprinklerOn":false,"disease":null}}`)
	validate(frameSchema, field)
	validate(fieldSchema, field)

	cmds := []protocol.Command{
		protocol.BuyField("WHEAT"),
		protocol.BuyItem("SPEED_BOOST"),
		protocol.Plant("3", "CORN"),
		protocol.StartSimulation(),
		protocol.PauseSimulation(),
		protocol.SetSpeed(5),
	}
	for _, c := range cmds {
		b, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		validate(commandSchema, b)
	}
}

func TestSchemas_RejectBadCommand(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "command.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var v any
	_ = json.Unmarshal([]byte(`{"type":"COMMAND","command":"BUY_ITEM"}`), &v)
	if err := s.Validate(v); err == nil {
		t.Fatalf("BUY_ITEM without payload should fail validation")
	}
}

package protocol

import (
	"encoding/json"
	"testing"
)

func TestIsKnownCommand(t *testing.T) {
	cases := []string{
		CmdBuyField,
		CmdBuyItem,
		CmdPlant,
		CmdStartSimulation,
		CmdPauseSimulation,
		CmdSetSpeed,
	}
	for _, c := range cases {
		if !IsKnownCommand(c) {
			t.Fatalf("expected known command: %q", c)
		}
	}
	if IsKnownCommand("SELL_EVERYTHING") {
		t.Fatalf("expected unknown command rejected")
	}
}

func TestCommandEncoding(t *testing.T) {
	b, err := json.Marshal(Plant("3", "CORN"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"COMMAND","command":"PLANT","fieldId":3,"crop":"CORN"}` {
		t.Fatalf("plant: got %s", b)
	}

	b, _ = json.Marshal(BuyItem("WATER_OPTIMIZER"))
	if string(b) != `{"type":"COMMAND","command":"BUY_ITEM","payload":"WATER_OPTIMIZER"}` {
		t.Fatalf("buy item: got %s", b)
	}

	b, _ = json.Marshal(Plant("north", "WHEAT"))
	if string(b) != `{"type":"COMMAND","command":"PLANT","fieldId":"north","crop":"WHEAT"}` {
		t.Fatalf("string field id: got %s", b)
	}
}

func TestValidSpeed(t *testing.T) {
	for _, s := range []int{1, 2, 5} {
		if !ValidSpeed(s) {
			t.Fatalf("speed %d should be valid", s)
		}
	}
	if ValidSpeed(3) || ValidSpeed(0) {
		t.Fatalf("unexpected valid speed")
	}
}

func TestIDEncoding(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`3`, `3`},
		{`"3"`, `3`},
		{`-5`, `-5`},
		{`"007"`, `"007"`},
		{`"-05"`, `"-05"`},
		{`"-0"`, `"-0"`},
		{`"+4"`, `"+4"`},
		{`"north"`, `"north"`},
	}
	for _, c := range cases {
		var id ID
		if err := json.Unmarshal([]byte(c.in), &id); err != nil {
			t.Fatalf("%s: unmarshal: %v", c.in, err)
		}
		b, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("%s: marshal: %v", c.in, err)
		}
		if string(b) != c.want {
			t.Fatalf("%s: got %s want %s", c.in, b, c.want)
		}
	}

	var id ID
	if err := json.Unmarshal([]byte(`"007"`), &id); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := json.Marshal(Plant(id, "CORN"))
	if err != nil {
		t.Fatalf("plant with zero-padded id: %v", err)
	}
	if string(b) != `{"type":"COMMAND","command":"PLANT","fieldId":"007","crop":"CORN"}` {
		t.Fatalf("plant: got %s", b)
	}
}

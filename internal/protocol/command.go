package protocol

// Command tokens.
const (
	CmdBuyField        = "BUY_FIELD"
	CmdBuyItem         = "BUY_ITEM"
	CmdPlant           = "PLANT"
	CmdStartSimulation = "START_SIMULATION"
	CmdPauseSimulation = "PAUSE_SIMULATION"
	CmdSetSpeed        = "SET_SPEED"
)

var knownCommands = map[string]struct{}{
	CmdBuyField:        {},
	CmdBuyItem:         {},
	CmdPlant:           {},
	CmdStartSimulation: {},
	CmdPauseSimulation: {},
	CmdSetSpeed:        {},
}

func IsKnownCommand(cmd string) bool {
	_, ok := knownCommands[cmd]
	return ok
}

// Speeds accepted by SET_SPEED.
var Speeds = []int{1, 2, 5}

// Command is the single outbound frame shape.
type Command struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Payload string `json:"payload,omitempty"`
	FieldID ID     `json:"fieldId,omitempty"`
	Crop    string `json:"crop,omitempty"`
	Speed   int    `json:"speed,omitempty"`
}

func BuyField(token string) Command {
	return Command{Type: TypeCommand, Command: CmdBuyField, Payload: token}
}

func BuyItem(token string) Command {
	return Command{Type: TypeCommand, Command: CmdBuyItem, Payload: token}
}

func Plant(field ID, crop string) Command {
	return Command{Type: TypeCommand, Command: CmdPlant, FieldID: field, Crop: crop}
}

func StartSimulation() Command {
	return Command{Type: TypeCommand, Command: CmdStartSimulation}
}

func PauseSimulation() Command {
	return Command{Type: TypeCommand, Command: CmdPauseSimulation}
}

func SetSpeed(speed int) Command {
	return Command{Type: TypeCommand, Command: CmdSetSpeed, Speed: speed}
}

func ValidSpeed(speed int) bool {
	for _, s := range Speeds {
		if s == speed {
			return true
		}
	}
	return false
}

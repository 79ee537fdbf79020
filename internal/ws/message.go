package ws

import (
	"encoding/json"
	"errors"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

var errEmptyPayload = errors.New("empty payload")

// Client -> Server message types
const (
	MsgSelectHill uint8 = 0x01
	MsgInput      uint8 = 0x02
	MsgPing       uint8 = 0x04
)

// Server -> Client message types
const (
	MsgJumpState   uint8 = 0x81
	MsgRunStart    uint8 = 0x82
	MsgRunComplete uint8 = 0x83
	MsgLanded      uint8 = 0x84
	MsgTakeoff     uint8 = 0x85
	MsgPong        uint8 = 0x86
	MsgHills       uint8 = 0x88
)

type Message struct {
	Type    uint8           `json:"type"`
	Tick    uint32          `json:"tick"`
	Payload json.RawMessage `json:"payload"`
}

type SelectHillPayload struct {
	Key string `json:"key"`
}

type InputPayload struct {
	Command string `json:"command"` // takeoff | pitch_up | pitch_down
}

type PingPayload struct {
	ClientTime uint64 `json:"clientTime"`
}

type PongPayload struct {
	ClientTime uint64 `json:"clientTime"`
	ServerTime uint64 `json:"serverTime"`
}

type HillsPayload struct {
	Hills     []hill.Profile `json:"hills"`
	BestScore int            `json:"bestScore"`
}

type RunStartPayload struct {
	Hill    hill.Profile `json:"hill"`
	Ruleset string       `json:"ruleset"`
	Wind    float64      `json:"wind"`
	Gate    int          `json:"gate"`
	Jumper  string       `json:"jumper"`
}

type TakeoffPayload struct {
	Timing float64 `json:"timing"`
	Forced bool    `json:"forced"`
}

type RunCompletePayload struct {
	Score     int `json:"score"`
	BestScore int `json:"bestScore"`
}

func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}

func NewMessage(typ uint8, tick uint32, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:    typ,
		Tick:    tick,
		Payload: json.RawMessage(data),
	}, nil
}

// DecodePayload unmarshals the payload of msg into T.
func DecodePayload[T any](msg Message) (T, error) {
	var out T
	if len(msg.Payload) == 0 {
		return out, errEmptyPayload
	}
	err := json.Unmarshal(msg.Payload, &out)
	return out, err
}

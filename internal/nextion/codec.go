package nextion

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Terminator ends every instruction and every return frame
var Terminator = []byte{0xFF, 0xFF, 0xFF}

// Return codes sent by the display
const (
	CodeInvalidInstruction = 0x00
	CodeSuccess            = 0x01
	CodeInvalidComponent   = 0x02
	CodeInvalidPage        = 0x03
	CodeInvalidVariable    = 0x1A
	CodeInvalidOperation   = 0x1B
	CodeBufferOverflow     = 0x24
	CodeTouch              = 0x65
	CodeCurrentPage        = 0x66
	CodeString             = 0x70
	CodeNumber             = 0x71
	CodeNumericInput       = 0x72 // OpenP4 keypad fields
	CodeAutoSleep          = 0x86
	CodeAutoWake           = 0x87
	CodeReady              = 0x88
)

// fixedLengths holds the payload length (code byte excluded) of frames
// whose payload may itself contain 0xFF bytes.
var fixedLengths = map[byte]int{
	CodeTouch:        3,
	CodeCurrentPage:  1,
	CodeNumber:       4,
	CodeNumericInput: 5,
}

// Message is a decoded return frame
type Message interface {
	Code() byte
	String() string
}

// TouchMessage (0x65) reports a touch on a component
type TouchMessage struct {
	Page      int
	Component int
	Pressed   bool
}

func (m *TouchMessage) Code() byte { return CodeTouch }

func (m *TouchMessage) String() string {
	return fmt.Sprintf("Touch{page=%d, component=%d, pressed=%v}", m.Page, m.Component, m.Pressed)
}

// PageMessage (0x66) reports the page the display is showing
type PageMessage struct {
	Page int
}

func (m *PageMessage) Code() byte { return CodeCurrentPage }

func (m *PageMessage) String() string { return fmt.Sprintf("Page{page=%d}", m.Page) }

// StringMessage (0x70) carries the value of a text field
type StringMessage struct {
	Text string
}

func (m *StringMessage) Code() byte { return CodeString }

func (m *StringMessage) String() string { return fmt.Sprintf("String{%q}", m.Text) }

// NumberMessage (0x71) carries the value of a numeric field
type NumberMessage struct {
	Value int32
}

func (m *NumberMessage) Code() byte { return CodeNumber }

func (m *NumberMessage) String() string { return fmt.Sprintf("Number{%d}", m.Value) }

// NumericInputMessage (0x72) is a value entered on a keypad field
type NumericInputMessage struct {
	Component int
	Value     int32
}

func (m *NumericInputMessage) Code() byte { return CodeNumericInput }

func (m *NumericInputMessage) String() string {
	return fmt.Sprintf("NumericInput{component=%d, value=%d}", m.Component, m.Value)
}

// StatusMessage is any single byte frame: success, errors and the
// sleep, wake and ready notifications.
type StatusMessage struct {
	Status byte
}

func (m *StatusMessage) Code() byte { return m.Status }

func (m *StatusMessage) String() string {
	return fmt.Sprintf("Status{0x%02x %s}", m.Status, statusName(m.Status))
}

// IsError reports whether the status is a failure return code
func (m *StatusMessage) IsError() bool {
	switch m.Status {
	case CodeSuccess, CodeAutoSleep, CodeAutoWake, CodeReady:
		return false
	}
	return m.Status <= CodeBufferOverflow
}

func statusName(code byte) string {
	switch code {
	case CodeInvalidInstruction:
		return "invalid instruction"
	case CodeSuccess:
		return "success"
	case CodeInvalidComponent:
		return "invalid component"
	case CodeInvalidPage:
		return "invalid page"
	case CodeInvalidVariable:
		return "invalid variable"
	case CodeInvalidOperation:
		return "invalid operation"
	case CodeBufferOverflow:
		return "buffer overflow"
	case CodeAutoSleep:
		return "auto sleep"
	case CodeAutoWake:
		return "auto wake"
	case CodeReady:
		return "ready"
	default:
		return "unknown"
	}
}

// UnknownMessage - fallback for unrecognised frames
type UnknownMessage struct {
	Data []byte
}

func (m *UnknownMessage) Code() byte { return m.Data[0] }

func (m *UnknownMessage) String() string {
	return fmt.Sprintf("Unknown{code=0x%02x, len=%d}", m.Data[0], len(m.Data))
}

// ParseMessage decodes one return frame with the terminator removed
func ParseMessage(frame []byte) (Message, error) {
	if len(frame) == 0 {
		return nil, &DisplayError{Type: ErrTypeMalformed, Message: "empty frame"}
	}
	code := frame[0]
	payload := frame[1:]

	if want, ok := fixedLengths[code]; ok && len(payload) != want {
		return nil, &DisplayError{
			Type:    ErrTypeMalformed,
			Code:    code,
			Message: fmt.Sprintf("frame 0x%02x has %d payload bytes, want %d", code, len(payload), want),
		}
	}

	switch code {
	case CodeTouch:
		return &TouchMessage{Page: int(payload[0]), Component: int(payload[1]), Pressed: payload[2] == 0x01}, nil
	case CodeCurrentPage:
		return &PageMessage{Page: int(payload[0])}, nil
	case CodeString:
		return &StringMessage{Text: string(payload)}, nil
	case CodeNumber:
		return &NumberMessage{Value: int32(binary.LittleEndian.Uint32(payload))}, nil
	case CodeNumericInput:
		return &NumericInputMessage{
			Component: int(payload[0]),
			Value:     int32(binary.LittleEndian.Uint32(payload[1:])),
		}, nil
	}

	if len(payload) == 0 {
		return &StatusMessage{Status: code}, nil
	}
	return &UnknownMessage{Data: append([]byte(nil), frame...)}, nil
}

// ScanFrames is a bufio.SplitFunc that yields return frames without
// their terminator. Fixed length frames are cut by length because their
// payload may contain 0xFF.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil
	}

	if n, ok := fixedLengths[data[0]]; ok {
		total := 1 + n + len(Terminator)
		if len(data) < total {
			if atEOF {
				return len(data), nil, nil
			}
			return 0, nil, nil
		}
		if bytes.Equal(data[1+n:total], Terminator) {
			return total, data[:1+n], nil
		}
		// Not a well formed fixed frame; fall back to the terminator.
	}

	if i := bytes.Index(data, Terminator); i >= 0 {
		return i + len(Terminator), data[:i], nil
	}
	if atEOF {
		// Drop a trailing partial frame.
		return len(data), nil, nil
	}
	return 0, nil, nil
}

// Encode terminates an instruction
func Encode(instruction string) []byte {
	out := make([]byte, 0, len(instruction)+len(Terminator))
	out = append(out, instruction...)
	return append(out, Terminator...)
}

// GetInstruction requests the value of a field
func GetInstruction(field string) string {
	return "get " + field
}

// SetInstruction assigns value to field. Numbers and booleans are
// written as integers, strings as quoted text.
func SetInstruction(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%s=%s", field, quote(v)), nil
	case bool:
		if v {
			return field + "=1", nil
		}
		return field + "=0", nil
	case int:
		return field + "=" + strconv.Itoa(v), nil
	case int32:
		return field + "=" + strconv.FormatInt(int64(v), 10), nil
	case int64:
		return field + "=" + strconv.FormatInt(v, 10), nil
	case uint8:
		return field + "=" + strconv.Itoa(int(v)), nil
	case float64:
		return field + "=" + strconv.FormatInt(int64(math.Round(v)), 10), nil
	case float32:
		return field + "=" + strconv.FormatInt(int64(math.Round(float64(v))), 10), nil
	case fmt.Stringer:
		return fmt.Sprintf("%s=%s", field, quote(v.String())), nil
	default:
		return "", &DisplayError{
			Type:    ErrTypeUnsupportedValue,
			Message: fmt.Sprintf("cannot write %T to %s", value, field),
		}
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\r`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

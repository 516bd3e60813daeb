// Package nextion speaks the Nextion/TJC serial display protocol.
//
// Instructions are ASCII text terminated by three 0xFF bytes. The display
// answers with binary return frames using the same terminator:
//
//	0x65 page component event   touch
//	0x66 page                   current page
//	0x70 text...                string field value
//	0x71 int32 (LE)             numeric field value
//	0x72 component int32 (LE)   keypad entry (OpenP4 firmware)
//	0x86 / 0x87 / 0x88          auto sleep / auto wake / ready
//	0x00..0x24                  return codes (0x01 success, 0x1A invalid variable)
//
// Transport wraps an io.ReadWriter (normally the serial port) and
// implements hmi.Display on top of the codec.
package nextion

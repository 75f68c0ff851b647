package nfc

import "strings"

const hexDigits = "0123456789abcdef"

// FormatIdentifier renders a tag identifier as "0x" followed by the bytes in
// reverse order, two lowercase hex digits per byte.
//
//	FormatIdentifier([]byte{0x04, 0x9a, 0x2b}) == "0x2b9a04"
func FormatIdentifier(id []byte) string {
	var sb strings.Builder
	sb.Grow(2 + 2*len(id))
	sb.WriteString("0x")
	for i := len(id) - 1; i >= 0; i-- {
		sb.WriteByte(hexDigits[id[i]>>4])
		sb.WriteByte(hexDigits[id[i]&0x0f])
	}
	return sb.String()
}

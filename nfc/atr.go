package nfc

// PC/SC part 3 card name bytes found in the ATR historical bytes of storage cards.
var atrCardNames = map[byte]string{
	0x01: CardTypeMifareClassic1K,
	0x02: CardTypeMifareClassic4K,
	0x03: CardTypeMifareUltralight,
	0x04: CardTypeMifareClassic1K, // MIFARE Mini
	0x05: CardTypeMifareUltralight, // Ultralight C
	0x06: CardTypeMifarePlus,
	0x07: CardTypeMifarePlus,
	0x0A: CardTypeMifarePlus,
	0x0B: CardTypeMifarePlus,
	0x26: CardTypeDesfire,
}

// detectFamilyFromATR classifies a contactless card from the ATR synthesized by
// the PC/SC reader. Storage cards carry an RID block (80 4F 0C A0 00 00 03 06)
// followed by the standard and card name; anything else is treated as ISO7816.
func detectFamilyFromATR(atr []byte) (TagFamily, string) {
	hist := historicalBytes(atr)
	for i := 0; i+10 < len(hist); i++ {
		if hist[i] != 0x80 || hist[i+1] != 0x4F {
			continue
		}
		if hist[i+3] == 0xA0 && hist[i+4] == 0x00 && hist[i+5] == 0x00 &&
			hist[i+6] == 0x03 && hist[i+7] == 0x06 {
			if name, ok := atrCardNames[hist[i+10]]; ok {
				return FamilyMiFare, name
			}
		}
	}
	return FamilyISO7816, CardTypeType4
}

// historicalBytes skips TS, T0 and the interface bytes of an ATR.
func historicalBytes(atr []byte) []byte {
	if len(atr) < 2 || (atr[0] != 0x3B && atr[0] != 0x3F) {
		return nil
	}

	t0 := atr[1]
	n := int(t0 & 0x0F)
	pos := 2
	td := t0
	for {
		if td&0x10 != 0 {
			pos++
		}
		if td&0x20 != 0 {
			pos++
		}
		if td&0x40 != 0 {
			pos++
		}
		if td&0x80 == 0 {
			break
		}
		if pos >= len(atr) {
			return nil
		}
		td = atr[pos]
		pos++
	}

	if pos+n > len(atr) {
		n = len(atr) - pos
	}
	if n <= 0 {
		return nil
	}
	return atr[pos : pos+n]
}

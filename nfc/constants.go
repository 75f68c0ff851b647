package nfc

// Card type names reported in Target.Type.
const (
	CardTypeMifareClassic1K  = "MIFARE Classic 1K"
	CardTypeMifareClassic4K  = "MIFARE Classic 4K"
	CardTypeMifareUltralight = "MIFARE Ultralight"
	CardTypeMifarePlus       = "MIFARE Plus"
	CardTypeMifareUnknown    = "MIFARE"
	CardTypeDesfire          = "DESFire"
	CardTypeType4            = "Type4"
	CardTypeFeliCa           = "FeliCa"
)
